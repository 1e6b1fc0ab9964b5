// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"fmt"
	"strings"
)

// secretState is either *secret (unlocked) or *sealed (locked). A Seedloop
// holds exactly one of them.
type secretState interface {
	locked() bool
}

// secret is the unlocked mnemonic and BIP39 passphrase.
type secret struct {
	mnemonic   []byte
	passphrase []byte
}

func newSecret(mnemonic, passphrase string) *secret {
	return &secret{mnemonic: []byte(mnemonic), passphrase: []byte(passphrase)}
}

func (*secret) locked() bool { return false }

// reveal returns copies of the mnemonic and passphrase.
func (s *secret) reveal() (mnemonic, passphrase string) {
	return string(s.mnemonic), string(s.passphrase)
}

// seed stretches the secret into its BIP39 seed. The caller wipes it.
func (s *secret) seed() []byte {
	return MnemonicToSeed(string(s.mnemonic), string(s.passphrase))
}

// discard zeroes the secret. It must not be used afterwards.
func (s *secret) discard() {
	wipe(s.mnemonic)
	wipe(s.passphrase)
	s.mnemonic, s.passphrase = nil, nil
}

// seal encrypts the mnemonic and passphrase under password. A normalized
// mnemonic never holds a newline, so the first one separates the two.
func (s *secret) seal(password string, kdf KDFParams) (*sealed, error) {
	plain := string(s.mnemonic)
	if len(s.passphrase) > 0 {
		plain += "\n" + string(s.passphrase)
	}
	ciphertext, err := Encrypt(EncryptOpts{PlainText: plain, Passphrase: password, KDF: kdf})
	if err != nil {
		return nil, fmt.Errorf("could not encrypt mnemonic: %w", err)
	}
	return &sealed{ciphertext: ciphertext}, nil
}

// sealed is the encrypted secret of a locked Seedloop.
type sealed struct {
	ciphertext string
}

func (*sealed) locked() bool { return true }

// open decrypts the secret. The mnemonic is not validated here.
func (s *sealed) open(password string) (*secret, error) {
	if s.ciphertext == "" {
		return nil, ErrNoCiphertext
	}
	plain, err := Decrypt(DecryptOpts{CypherText: s.ciphertext, Passphrase: password})
	if err != nil {
		return nil, err
	}
	mnemonic, passphrase, _ := strings.Cut(plain, "\n")
	return newSecret(mnemonic, passphrase), nil
}
