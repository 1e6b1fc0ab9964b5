// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the binary form of a BIP32/SLIP10 derivation path.
// Hardened elements carry the hdkeychain.HardenedKeyStart offset.
type DerivationPath []uint32

// ParseDerivationPath converts a derivation path string such as
// "m/44'/60'/0'/0" into its binary form. Elements may be decimal or 0x
// prefixed hex and are hardened by a trailing apostrophe.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidDerivationPath)
	}

	elems := strings.Split(strPath, "/")
	for _, e := range elems {
		if strings.TrimSpace(e) == "" {
			return nil, fmt.Errorf("%w: %q has an empty element", ErrInvalidDerivationPath, strPath)
		}
	}
	if len(elems) < 2 {
		return nil, fmt.Errorf("%w: %q has no child elements", ErrInvalidDerivationPath, strPath)
	}
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var value uint32

		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("%w: invalid elem %q", ErrInvalidDerivationPath, elem)
		}

		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			return nil, fmt.Errorf("%w: elem %v must be in range [0, %d]", ErrInvalidDerivationPath, bigval, max)
		}
		value += uint32(bigval.Uint64())

		path = append(path, value)
	}

	return path, nil
}

// MustParseDerivationPath is like ParseDerivationPath but panics on error.
// It is meant for package level constants.
func MustParseDerivationPath(strPath string) DerivationPath {
	path, err := ParseDerivationPath(strPath)
	if err != nil {
		panic(err)
	}
	return path
}

// String converts a binary derivation path to its canonical representation.
func (path DerivationPath) String() string {
	if len(path) == 0 {
		return "m"
	}

	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		hardened := component >= hdkeychain.HardenedKeyStart
		if hardened {
			component -= hdkeychain.HardenedKeyStart
		}
		fmt.Fprintf(&b, "/%d", component)
		if hardened {
			b.WriteString("'")
		}
	}
	return b.String()
}

// Child returns a copy of the path extended by one element.
func (path DerivationPath) Child(index uint32) DerivationPath {
	child := make(DerivationPath, len(path), len(path)+1)
	copy(child, path)
	return append(child, index)
}

// HardenedOnly reports whether every element is hardened.
func (path DerivationPath) HardenedOnly() bool {
	for _, component := range path {
		if component < hdkeychain.HardenedKeyStart {
			return false
		}
	}
	return true
}

// Leaf returns the last element with any hardened offset removed.
func (path DerivationPath) Leaf() uint32 {
	if len(path) == 0 {
		return 0
	}
	leaf := path[len(path)-1]
	if leaf >= hdkeychain.HardenedKeyStart {
		leaf -= hdkeychain.HardenedKeyStart
	}
	return leaf
}
