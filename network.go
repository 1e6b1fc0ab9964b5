// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"fmt"
	"sort"
	"strings"
)

// Family classifies networks that share an address and signature scheme.
type Family int

// Network families. The numeric values are stable.
const (
	// EVM covers account based, Ethereum compatible chains.
	EVM Family = iota
	// Solana covers ed25519 chains with base58 addresses.
	Solana
	// Bitcoin covers UTXO chains with base58check P2PKH addresses.
	Bitcoin
	// Near covers ed25519 chains with hex addresses.
	Near
	// Cosmos covers secp256k1 chains with bech32 addresses.
	Cosmos
)

var familyNames = map[Family]string{
	EVM:     "evm",
	Solana:  "solana",
	Bitcoin: "bitcoin",
	Near:    "near",
	Cosmos:  "cosmos",
}

// String returns the lower-case family name.
func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// ParseFamily maps a family name to its Family value.
func ParseFamily(name string) (Family, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range familyNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: no network family named %q", ErrUnknownNetwork, name)
}

// MarshalText encodes the family by name.
func (f Family) MarshalText() ([]byte, error) {
	if _, ok := familyNames[f]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNetwork, int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a family name.
func (f *Family) UnmarshalText(text []byte) error {
	parsed, err := ParseFamily(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Curve is the elliptic curve a family derives keys on.
type Curve int

// Supported curves.
const (
	Secp256k1 Curve = iota
	Ed25519
)

// String returns the curve name.
func (c Curve) String() string {
	switch c {
	case Secp256k1:
		return "secp256k1"
	case Ed25519:
		return "ed25519"
	}
	return fmt.Sprintf("curve(%d)", int(c))
}

// EVMBasePath is the base path shared by every EVM family keyring so that
// one address is valid on every EVM chain.
const EVMBasePath = "m/44'/60'/0'/0"

// Network describes one chain. Values are immutable once built.
type Network struct {
	FullName string
	// Ticker is lower-case and unique within a registry.
	Ticker string
	// CoinType is the SLIP-44 coin type.
	CoinType uint32
	Family   Family
	// BasePath is the keyring root; account leaves are appended to it.
	BasePath string
}

// NetworkParams are the inputs to NewNetwork. Only FullName and Ticker are
// required for tickers present in the built-in coin table.
type NetworkParams struct {
	FullName string
	Ticker   string
	CoinType uint32
	// Family is a family name ("evm", "bitcoin", ...). Empty means look it
	// up in the coin table.
	Family string
	// Path overrides the computed base path.
	Path string
}

type coinInfo struct {
	coinType uint32
	family   Family
}

// coinTable holds the SLIP-44 coin types of the built-in networks.
var coinTable = map[string]coinInfo{
	"btc":   {0, Bitcoin},
	"ltc":   {2, Bitcoin},
	"doge":  {3, Bitcoin},
	"bch":   {145, Bitcoin},
	"eth":   {60, EVM},
	"matic": {60, EVM},
	"avaxc": {9005, EVM},
	"bnb":   {714, EVM},
	"pokt":  {635, EVM},
	"sol":   {501, Solana},
	"near":  {397, Near},
	"atom":  {118, Cosmos},
}

// NewNetwork builds a Network, filling the coin type, family and base path
// from the built-in tables when they are not supplied.
func NewNetwork(params NetworkParams) (Network, error) {
	ticker := strings.ToLower(strings.TrimSpace(params.Ticker))
	if ticker == "" {
		return Network{}, fmt.Errorf("%w: empty ticker", ErrUnknownNetwork)
	}

	info, known := coinTable[ticker]

	n := Network{
		FullName: params.FullName,
		Ticker:   ticker,
		CoinType: params.CoinType,
	}
	if known && params.CoinType == 0 {
		n.CoinType = info.coinType
	}

	switch {
	case params.Family != "":
		family, err := ParseFamily(params.Family)
		if err != nil {
			return Network{}, err
		}
		n.Family = family
	case known:
		n.Family = info.family
	default:
		return Network{}, fmt.Errorf("%w: no family known for ticker %q", ErrUnknownNetwork, ticker)
	}

	n.BasePath = params.Path
	if n.BasePath == "" {
		n.BasePath = DefaultBasePath(n.Family, n.CoinType)
	}
	if _, err := ParseDerivationPath(n.BasePath); err != nil {
		return Network{}, fmt.Errorf("network %s: %w", ticker, err)
	}
	return n, nil
}

// DefaultBasePath returns the BIP44 style base path for a family and coin
// type. ed25519 families use hardened elements throughout because SLIP10
// defines no public derivation for that curve.
func DefaultBasePath(family Family, coinType uint32) string {
	switch family {
	case EVM:
		return EVMBasePath
	case Solana:
		return fmt.Sprintf("m/44'/%d'/0'/0'", coinType)
	case Near:
		return fmt.Sprintf("m/44'/%d'/0'", coinType)
	default:
		return fmt.Sprintf("m/44'/%d'/0'/0", coinType)
	}
}

// Registry is an immutable ticker to Network table. Build one at process
// start and share it with every Seedloop.
type Registry struct {
	networks map[string]Network
	defaults []string
}

// NewRegistry builds a registry from the given networks. The default
// network set is empty unless set with WithDefaults.
func NewRegistry(networks ...Network) (*Registry, error) {
	r := &Registry{networks: make(map[string]Network, len(networks))}
	for _, n := range networks {
		if _, dup := r.networks[n.Ticker]; dup {
			return nil, fmt.Errorf("duplicate network ticker %q", n.Ticker)
		}
		if _, ok := families[n.Family]; !ok {
			return nil, fmt.Errorf("network %s: %w", n.Ticker, ErrUnknownNetwork)
		}
		r.networks[n.Ticker] = n
	}
	return r, nil
}

// WithDefaults returns a copy of the registry whose default network set is
// the given tickers.
func (r *Registry) WithDefaults(tickers ...string) (*Registry, error) {
	defaults := make([]string, 0, len(tickers))
	for _, t := range tickers {
		n, err := r.NetworkFromTicker(t)
		if err != nil {
			return nil, err
		}
		defaults = append(defaults, n.Ticker)
	}
	return &Registry{networks: r.networks, defaults: defaults}, nil
}

// NetworkFromTicker returns the network registered under ticker.
func (r *Registry) NetworkFromTicker(ticker string) (Network, error) {
	n, ok := r.networks[strings.ToLower(strings.TrimSpace(ticker))]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, ticker)
	}
	return n, nil
}

// Defaults returns the networks a new Seedloop is populated with.
func (r *Registry) Defaults() []Network {
	out := make([]Network, 0, len(r.defaults))
	for _, t := range r.defaults {
		out = append(out, r.networks[t])
	}
	return out
}

// Networks returns every registered network ordered by ticker.
func (r *Registry) Networks() []Network {
	out := make([]Network, 0, len(r.networks))
	for _, n := range r.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

var builtinNetworks = []NetworkParams{
	{FullName: "Bitcoin", Ticker: "btc"},
	{FullName: "Litecoin", Ticker: "ltc"},
	{FullName: "Dogecoin", Ticker: "doge"},
	{FullName: "Bitcoin Cash", Ticker: "bch"},
	{FullName: "Ethereum", Ticker: "eth"},
	{FullName: "Polygon", Ticker: "matic"},
	{FullName: "Avalanche C Chain", Ticker: "avaxc"},
	{FullName: "BNB Chain", Ticker: "bnb"},
	{FullName: "Pocket Network", Ticker: "pokt"},
	{FullName: "Solana", Ticker: "sol"},
	{FullName: "Near Protocol", Ticker: "near"},
	{FullName: "Cosmos Hub", Ticker: "atom"},
}

// defaultTickers is the network set a new Seedloop is populated with.
var defaultTickers = []string{"eth", "sol", "near", "avaxc", "matic"}

// DefaultRegistry returns a new registry holding the built-in networks with
// eth, sol, near, avaxc and matic as the default set.
func DefaultRegistry() *Registry {
	networks := make([]Network, 0, len(builtinNetworks))
	for _, p := range builtinNetworks {
		n, err := NewNetwork(p)
		if err != nil {
			panic(fmt.Sprintf("builtin network %s: %v", p.Ticker, err))
		}
		networks = append(networks, n)
	}
	r, err := NewRegistry(networks...)
	if err != nil {
		panic(err)
	}
	r, err = r.WithDefaults(defaultTickers...)
	if err != nil {
		panic(err)
	}
	return r
}
