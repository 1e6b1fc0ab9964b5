// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import "errors"

// Error kinds are part of the public contract. Callers match them with
// errors.Is; the message text around them is incidental.
var (
	// ErrInvalidMnemonic is returned when a phrase fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	// ErrUnknownNetwork is returned when a ticker is not in the registry.
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrKeyringNotFound is returned when the network was never added to the seedloop.
	ErrKeyringNotFound = errors.New("keyring not found")
	// ErrAddressNotFound is returned when an address is not owned by the resolved keyring.
	ErrAddressNotFound = errors.New("address not found")
	// ErrIndexRange is returned when an address index would leave the non-hardened range.
	ErrIndexRange = errors.New("address index out of range")
	// ErrSigningUnavailable is returned when a public-only keyring is asked
	// for private key material.
	ErrSigningUnavailable = errors.New("signing unavailable without seed")
	// ErrUnsupportedForFamily is returned for operations a network family does not define.
	ErrUnsupportedForFamily = errors.New("operation not supported for network family")
	// ErrNotImplemented is returned for operations in the contract that have
	// no signing scheme yet (bitcoin family transactions).
	ErrNotImplemented = errors.New("not implemented")
	// ErrSeedloopLocked is returned for mutating or signing calls made while locked.
	ErrSeedloopLocked = errors.New("seedloop is locked")
	// ErrUnsupportedVersion is returned when a serialized record carries an unknown version.
	ErrUnsupportedVersion = errors.New("unsupported serialization version")
	// ErrUnsupportedKeyringType is returned when a keyring record type does not
	// match its network family.
	ErrUnsupportedKeyringType = errors.New("unsupported keyring type")
	// ErrFingerprintMismatch is returned when recomputed state does not match
	// the stored identity.
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")
	// ErrMissingXpub is returned when a locked seedloop is built without an extended public key.
	ErrMissingXpub = errors.New("missing extended public key")
	// ErrNoCiphertext is returned by Unlock when a locked seedloop holds no ciphertext.
	ErrNoCiphertext = errors.New("locked seedloop holds no ciphertext")
	// ErrFromMismatch is returned when an EVM transaction names a different sender.
	ErrFromMismatch = errors.New("transaction sender does not match signing address")
	// ErrInvalidTransaction is returned when a payload lacks the field its family signs.
	ErrInvalidTransaction = errors.New("invalid transaction payload")
	// ErrInvalidDerivationPath is returned for malformed derivation paths.
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrNonHardenedEd25519 is returned when an ed25519 path has a non-hardened element.
	ErrNonHardenedEd25519 = errors.New("ed25519 derivation supports hardened indexes only")
)
