// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/complex-gh/seedloop"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// StateFileKey is the path of the serialized seedloop.
	StateFileKey = "STATE_FILE"
	// LogLevelKey is a logrus level name (panic ... trace).
	LogLevelKey = "LOG_LEVEL"
	// LanguageKey selects the BIP39 wordlist.
	LanguageKey = "LANGUAGE"
	// KDFKey is the scrypt strength used when locking: "standard" or "light".
	KDFKey = "KDF"
	// NetworksKey is a comma separated list of tickers created with a new
	// seedloop. Empty selects the built-in defaults.
	NetworksKey = "NETWORKS"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("seedloop", false)
)

func initConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("SEEDLOOP")
	vip.AutomaticEnv()

	vip.SetDefault(StateFileKey, filepath.Join(defaultDatadir, "seedloop.json"))
	vip.SetDefault(LogLevelKey, log.WarnLevel.String())
	vip.SetDefault(LanguageKey, "en")
	vip.SetDefault(KDFKey, "standard")
	vip.SetDefault(NetworksKey, "")

	vip.SetConfigName("config")
	vip.SetConfigType("yaml")
	vip.AddConfigPath(defaultDatadir)
	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("could not read config: %w", err)
		}
	}

	for key, flag := range map[string]string{
		StateFileKey: "state",
		LogLevelKey:  "log-level",
		LanguageKey:  "language",
		KDFKey:       "kdf",
	} {
		if err := vip.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("could not bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(vip.GetString(LogLevelKey))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return logger, nil
}

func kdfParams() (seedloop.KDFParams, error) {
	switch strings.ToLower(vip.GetString(KDFKey)) {
	case "", "standard":
		return seedloop.StandardKDF, nil
	case "light":
		return seedloop.LightKDF, nil
	}
	return seedloop.KDFParams{}, fmt.Errorf("unknown kdf strength %q (standard or light)", vip.GetString(KDFKey))
}

// configuredNetworks resolves the NETWORKS setting. nil means the registry
// defaults.
func configuredNetworks(registry *seedloop.Registry, list string) ([]seedloop.Network, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var networks []seedloop.Network
	for _, ticker := range strings.Split(list, ",") {
		n, err := registry.NetworkFromTicker(ticker)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		networks = append(networks, n)
	}
	return networks, nil
}
