// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// DefaultStrength is the entropy size, in bits, of generated mnemonics.
// 128 bits yields a 12 word phrase.
const DefaultStrength = 128

// SeedSize is the length of a BIP39 seed in bytes.
const SeedSize = 64

// NormalizeMnemonic trims the phrase, lower-cases it, drops carriage returns
// and collapses any run of whitespace into a single space.
func NormalizeMnemonic(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// ValidateAndFormatMnemonic normalizes the phrase and checks it against the
// BIP39 wordlist and checksum. It returns the normalized phrase and true when
// valid. It never errors so callers can choose their own error text.
func ValidateAndFormatMnemonic(phrase string) (string, bool) {
	normalized := NormalizeMnemonic(phrase)
	if normalized == "" || !bip39.IsMnemonicValid(normalized) {
		return "", false
	}
	return normalized, true
}

// MnemonicToSeed stretches the phrase into the 64 byte BIP39 seed
// (PBKDF2-HMAC-SHA512, 2048 rounds, salt "mnemonic"+passphrase).
// The same phrase and passphrase always yield the same seed.
func MnemonicToSeed(phrase, passphrase string) []byte {
	return bip39.NewSeed(phrase, passphrase)
}

// NewMnemonic generates a fresh mnemonic with the given entropy strength in
// bits. Valid strengths are multiples of 32 in [128, 256]; 0 selects
// DefaultStrength.
func NewMnemonic(strength int) (string, error) {
	if strength == 0 {
		strength = DefaultStrength
	}
	if strength < 128 || strength > 256 || strength%32 != 0 {
		return "", fmt.Errorf("invalid strength: %d (must be a multiple of 32 in [128, 256])", strength)
	}

	entropy, err := bip39.NewEntropy(strength)
	if err != nil {
		return "", fmt.Errorf("could not generate entropy: %w", err)
	}
	words, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("could not create a mnemonic set of words: %w", err)
	}
	return words, nil
}

// wipe zeroes a byte slice holding secret material.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
