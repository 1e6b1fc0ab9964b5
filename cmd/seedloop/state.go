// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/complex-gh/seedloop"
	log "github.com/sirupsen/logrus"
)

var errNoState = errors.New("no seedloop state found, run `seedloop new` first")

// loadState reads and verifies the seedloop stored at path.
func loadState(path string, registry *seedloop.Registry, logger log.FieldLogger, kdf seedloop.KDFParams) (*seedloop.Seedloop, error) {
	bts, err := os.ReadFile(path) //nolint:gosec
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNoState
	}
	if err != nil {
		return nil, fmt.Errorf("could not read state: %w", err)
	}

	var rec seedloop.SerializedSeedloop
	if err := json.Unmarshal(bts, &rec); err != nil {
		return nil, fmt.Errorf("could not parse state: %w", err)
	}
	s, err := seedloop.Deserialize(rec, seedloop.DeserializeOptions{
		Registry: registry,
		Logger:   logger,
		KDF:      kdf,
	})
	if err != nil {
		return nil, fmt.Errorf("could not load state: %w", err)
	}
	return s, nil
}

// saveState writes the seedloop to path through a temporary file so a
// crash never leaves a truncated state behind.
func saveState(path string, s *seedloop.Seedloop) error {
	bts, err := json.MarshalIndent(s.Serialize(), "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("could not create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".seedloop-*.json")
	if err != nil {
		return fmt.Errorf("could not create state file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(append(bts, '\n')); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("could not write state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("could not protect state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not replace state: %w", err)
	}
	return nil
}
