// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/matryer/is"
)

const h = hdkeychain.HardenedKeyStart

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		path string
		want DerivationPath
		str  string
	}{
		{"m/44'/60'/0'/0", DerivationPath{44 + h, 60 + h, h, 0}, "m/44'/60'/0'/0"},
		{"m/44'/501'/0'/0'", DerivationPath{44 + h, 501 + h, h, h}, "m/44'/501'/0'/0'"},
		{"44'/60'", DerivationPath{44 + h, 60 + h}, "m/44'/60'"},
		{"m/ 44' /0x10", DerivationPath{44 + h, 16}, "m/44'/16"},
		{"m/2147483647'", DerivationPath{h + 2147483647}, "m/2147483647'"},
		{"m/4294967295", DerivationPath{4294967295}, "m/2147483647'"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			is := is.New(t)
			got, err := ParseDerivationPath(tt.path)
			is.NoErr(err)
			is.Equal(got, tt.want)
			is.Equal(got.String(), tt.str)
		})
	}
}

func TestParseDerivationPath_Invalid(t *testing.T) {
	for _, path := range []string{"", "m", "m//1", "m/x", "m/-1", "m/4294967296", "m/2147483648'", "m/1/"} {
		t.Run(path, func(t *testing.T) {
			is := is.New(t)
			_, err := ParseDerivationPath(path)
			is.True(errors.Is(err, ErrInvalidDerivationPath))
		})
	}
}

func TestDerivationPath_Helpers(t *testing.T) {
	is := is.New(t)

	base := MustParseDerivationPath("m/44'/397'/0'")
	is.True(base.HardenedOnly())

	child := base.Child(5 + h)
	is.Equal(child.String(), "m/44'/397'/0'/5'")
	is.Equal(child.Leaf(), uint32(5))
	is.Equal(len(base), 3) // Child does not alias the parent

	evm := MustParseDerivationPath(EVMBasePath)
	is.True(!evm.HardenedOnly())
	is.Equal(evm.Child(7).Leaf(), uint32(7))
	is.Equal(DerivationPath{}.String(), "m")
}
