// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/matryer/is"
)

const (
	abandonMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	squareMnemonic  = "square time hurdle gospel crash uncle flash tomorrow city space shine sad fence ski harsh salt need edit name fold corn chuckle resource else"
)

// TestMnemonicToSeed checks the published BIP39 vectors.
func TestMnemonicToSeed(t *testing.T) {
	is := is.New(t)

	seed := MnemonicToSeed(abandonMnemonic, "")
	is.Equal(len(seed), SeedSize)
	is.Equal(hex.EncodeToString(seed), "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4")

	seed = MnemonicToSeed(abandonMnemonic, "TREZOR")
	is.Equal(hex.EncodeToString(seed), "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04")
}

func TestValidateAndFormatMnemonic(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		want   string
		valid  bool
	}{
		{"canonical", abandonMnemonic, abandonMnemonic, true},
		{"messy whitespace", "  Abandon abandon\r\nabandon abandon abandon abandon\tabandon abandon abandon abandon abandon   ABOUT \n", abandonMnemonic, true},
		{"24 words", squareMnemonic, squareMnemonic, true},
		{"bad checksum", strings.Repeat("abandon ", 12), "", false},
		{"unknown word", strings.Replace(abandonMnemonic, "about", "aboutt", 1), "", false},
		{"empty", "", "", false},
		{"only whitespace", " \r\n\t ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			got, ok := ValidateAndFormatMnemonic(tt.phrase)
			is.Equal(ok, tt.valid)
			is.Equal(got, tt.want)
		})
	}
}

func TestNewMnemonic(t *testing.T) {
	is := is.New(t)

	for strength, words := range map[int]int{0: 12, 128: 12, 160: 15, 192: 18, 224: 21, 256: 24} {
		mnemonic, err := NewMnemonic(strength)
		is.NoErr(err)
		is.Equal(len(strings.Fields(mnemonic)), words)
		_, ok := ValidateAndFormatMnemonic(mnemonic)
		is.True(ok)
	}

	for _, strength := range []int{96, 129, 288} {
		_, err := NewMnemonic(strength)
		is.True(err != nil)
	}
}

func TestNewMnemonic_Distinct(t *testing.T) {
	is := is.New(t)

	a, err := NewMnemonic(0)
	is.NoErr(err)
	b, err := NewMnemonic(0)
	is.NoErr(err)
	is.True(a != b)
}
