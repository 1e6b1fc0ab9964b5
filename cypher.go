// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/scrypt"
)

var (
	// ErrNullPlainText is returned when there is nothing to encrypt.
	ErrNullPlainText = errors.New("plain text must not be empty")
	// ErrNullPassphrase is returned when the lock password is empty.
	ErrNullPassphrase = errors.New("passphrase must not be empty")
	// ErrNullCypherText is returned when there is nothing to decrypt.
	ErrNullCypherText = errors.New("cypher text must not be empty")
	// ErrInvalidCypherText is returned for malformed cypher texts.
	ErrInvalidCypherText = errors.New("cypher text is malformed")
)

const (
	saltSize   = 32
	headerSize = 3
)

// KDFParams are the scrypt cost parameters used to stretch a lock password.
// They are recorded in every cypher text so decryption needs no
// configuration.
type KDFParams struct {
	// N is the CPU/memory cost. It must be a power of two above 1.
	N int
	R int
	P int
}

var (
	// StandardKDF costs about 256 MiB and is the default.
	StandardKDF = KDFParams{N: 1 << 18, R: 8, P: 1}
	// LightKDF costs about 4 MiB. Meant for tests and constrained devices.
	LightKDF = KDFParams{N: 1 << 12, R: 8, P: 1}
)

func (p KDFParams) orDefault() KDFParams {
	if p == (KDFParams{}) {
		return StandardKDF
	}
	return p
}

func (p KDFParams) validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return fmt.Errorf("scrypt N must be a power of two above 1, got %d", p.N)
	}
	if p.N > 1<<30 || p.R < 1 || p.R > 255 || p.P < 1 || p.P > 255 {
		return fmt.Errorf("scrypt parameters out of range: N=%d r=%d p=%d", p.N, p.R, p.P)
	}
	return nil
}

// EncryptOpts is the struct given to Encrypt.
type EncryptOpts struct {
	PlainText  string
	Passphrase string
	// KDF defaults to StandardKDF.
	KDF KDFParams
}

func (o EncryptOpts) validate() error {
	if len(o.PlainText) <= 0 {
		return ErrNullPlainText
	}
	if len(o.Passphrase) <= 0 {
		return ErrNullPassphrase
	}
	return o.KDF.orDefault().validate()
}

// Encrypt seals a plaintext with AES-256-GCM under a key stretched from the
// passphrase with scrypt. The result is base64 of
// header(log2 N, r, p) || nonce || sealed text || salt.
func Encrypt(opts EncryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	kdf := opts.KDF.orDefault()

	key, salt, err := DeriveKey([]byte(opts.Passphrase), nil, kdf)
	if err != nil {
		return "", err
	}
	defer wipe(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return "", fmt.Errorf("could not generate nonce: %w", err)
	}

	header := []byte{byte(bits.TrailingZeros(uint(kdf.N))), byte(kdf.R), byte(kdf.P)}
	out := append(header, nonce...)
	out = gcm.Seal(out, nonce, []byte(opts.PlainText), nil)
	out = append(out, salt...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptOpts is the struct given to Decrypt.
type DecryptOpts struct {
	CypherText string
	Passphrase string
}

func (o DecryptOpts) validate() error {
	if len(o.CypherText) <= 0 {
		return ErrNullCypherText
	}
	if _, err := base64.StdEncoding.DecodeString(o.CypherText); err != nil {
		return ErrInvalidCypherText
	}
	if len(o.Passphrase) <= 0 {
		return ErrNullPassphrase
	}
	return nil
}

// Decrypt opens a cypher text produced by Encrypt.
func Decrypt(opts DecryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	data, _ := base64.StdEncoding.DecodeString(opts.CypherText)
	if len(data) < headerSize+saltSize {
		return "", ErrInvalidCypherText
	}
	if data[0] < 1 || data[0] > 30 {
		return "", ErrInvalidCypherText
	}
	kdf := KDFParams{N: 1 << data[0], R: int(data[1]), P: int(data[2])}
	if err := kdf.validate(); err != nil {
		return "", ErrInvalidCypherText
	}
	data = data[headerSize:]
	salt, data := data[len(data)-saltSize:], data[:len(data)-saltSize]

	key, _, err := DeriveKey([]byte(opts.Passphrase), salt, kdf)
	if err != nil {
		return "", err
	}
	defer wipe(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize()+gcm.Overhead() {
		return "", ErrInvalidCypherText
	}
	nonce, text := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, text, nil)
	if err != nil {
		return "", fmt.Errorf("could not decrypt: %w", err)
	}
	return string(plaintext), nil
}

// DeriveKey stretches a passphrase into a 32 byte key. A nil salt draws a
// fresh random one; the salt used is returned with the key.
func DeriveKey(passphrase, salt []byte, kdf KDFParams) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, fmt.Errorf("could not generate salt: %w", err)
		}
	}
	key, err := scrypt.Key(passphrase, salt, kdf.N, kdf.R, kdf.P, 32)
	if err != nil {
		return nil, nil, fmt.Errorf("could not derive key: %w", err)
	}
	return key, salt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("could not create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create gcm: %w", err)
	}
	return gcm, nil
}
