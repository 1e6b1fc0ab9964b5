// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/sirupsen/logrus"
)

const (
	// SeedloopVersion is the only SerializedSeedloop version understood.
	SeedloopVersion = 1
	// KeyringVersion is the only SerializedKeyring version understood.
	KeyringVersion = 1
)

// SerializedKeyring is the persisted form of a Keyring. It carries no
// private material.
type SerializedKeyring struct {
	Version      int      `json:"version"`
	ID           string   `json:"id"`
	BasePath     string   `json:"basePath"`
	AddressIndex uint32   `json:"addressIndex"`
	Network      string   `json:"network"`
	Family       Family   `json:"family"`
	KeyringType  string   `json:"keyringType"`
	Xpub         string   `json:"xpub,omitempty"`
	Addresses    []string `json:"addresses"`
}

// SerializedSeedloop is the persisted form of a Seedloop. Mnemonic is nil
// for a locked Seedloop, which carries EncryptedMnemonic instead. The BIP39
// passphrase is never serialized.
type SerializedSeedloop struct {
	Version           int                 `json:"version"`
	Mnemonic          *string             `json:"mnemonic"`
	EncryptedMnemonic string              `json:"encryptedMnemonic,omitempty"`
	Keyrings          []SerializedKeyring `json:"keyrings"`
	ID                string              `json:"id"`
	Xpub              string              `json:"xpub"`
	IsLocked          bool                `json:"isLocked"`
}

// Serialize returns the persisted form of the keyring.
func (k *Keyring) Serialize() SerializedKeyring {
	return SerializedKeyring{
		Version:      KeyringVersion,
		ID:           k.id,
		BasePath:     k.basePath.String(),
		AddressIndex: k.addressIndex,
		Network:      k.network.Ticker,
		Family:       k.network.Family,
		KeyringType:  k.desc.keyringType,
		Xpub:         k.Xpub(),
		Addresses:    k.Addresses(),
	}
}

// DeserializeKeyring rebuilds a keyring. With a seed the base node and every
// address are re-derived and checked against the record. Without one,
// secp256k1 keyrings are rebuilt from the record's xpub and ed25519 keyrings
// restore the stored addresses unverified.
func DeserializeKeyring(seed []byte, rec SerializedKeyring, registry *Registry) (*Keyring, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return deserializeKeyring(seed, rec, registry, discardLogger())
}

func deserializeKeyring(seed []byte, rec SerializedKeyring, registry *Registry, log logrus.FieldLogger) (*Keyring, error) {
	if rec.Version != KeyringVersion {
		return nil, fmt.Errorf("%w: keyring version %d", ErrUnsupportedVersion, rec.Version)
	}
	n, err := registry.NetworkFromTicker(rec.Network)
	if err != nil {
		return nil, err
	}
	desc, ok := families[n.Family]
	if !ok {
		return nil, fmt.Errorf("%w: family %s", ErrUnknownNetwork, n.Family)
	}
	if rec.Family != n.Family || rec.KeyringType != desc.keyringType {
		return nil, fmt.Errorf("%w: %q for %s network %s",
			ErrUnsupportedKeyringType, rec.KeyringType, rec.Family, n.Ticker)
	}
	if rec.AddressIndex > hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("%w: address index %d", ErrIndexRange, rec.AddressIndex)
	}

	basePath, err := ParseDerivationPath(rec.BasePath)
	if err != nil {
		return nil, err
	}

	var k *Keyring
	switch {
	case len(seed) > 0:
		k, err = newKeyring(seed, n, basePath, log)
		if err == nil && rec.Xpub != "" && rec.Xpub != k.Xpub() {
			err = fmt.Errorf("%w: keyring %s xpub", ErrFingerprintMismatch, rec.ID)
		}
	case desc.curve == Secp256k1:
		k, err = newPublicKeyring(rec.Xpub, n, basePath, log)
	default:
		if len(rec.Addresses) != int(rec.AddressIndex) {
			return nil, fmt.Errorf("%w: %d stored addresses for index %d",
				ErrFingerprintMismatch, len(rec.Addresses), rec.AddressIndex)
		}
		k = emptyKeyring(n, desc, basePath, log)
		k.id = rec.ID
		k.restoreAccounts(rec.Addresses)
		return k, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.ID != "" && rec.ID != k.id {
		return nil, fmt.Errorf("%w: keyring id %s, want %s", ErrFingerprintMismatch, k.id, rec.ID)
	}

	if rec.AddressIndex > 0 {
		if _, err := k.AddAddresses(seed, int(rec.AddressIndex)); err != nil {
			return nil, err
		}
	}
	if rec.Addresses != nil {
		derived := k.Addresses()
		if len(derived) != len(rec.Addresses) {
			return nil, fmt.Errorf("%w: %d stored addresses for index %d",
				ErrFingerprintMismatch, len(rec.Addresses), rec.AddressIndex)
		}
		for i, address := range rec.Addresses {
			if desc.normalize(address) != derived[i] {
				return nil, fmt.Errorf("%w: address %d is %s, derived %s",
					ErrFingerprintMismatch, i, address, derived[i])
			}
		}
	}
	return k, nil
}

// Serialize returns the persisted form of the Seedloop with keyrings in
// insertion order.
func (s *Seedloop) Serialize() SerializedSeedloop {
	rec := SerializedSeedloop{
		Version:           SeedloopVersion,
		EncryptedMnemonic: s.encryptedMnemonic(),
		Keyrings:          make([]SerializedKeyring, 0, len(s.order)),
		ID:                s.id,
		Xpub:              s.xpub,
		IsLocked:          s.IsLocked(),
	}
	if mnemonic, ok := s.SeedPhrase(); ok {
		rec.Mnemonic = &mnemonic
	}
	for _, k := range s.Keyrings() {
		rec.Keyrings = append(rec.Keyrings, k.Serialize())
	}
	return rec
}

// DeserializeOptions configure Deserialize.
type DeserializeOptions struct {
	// Passphrase is the BIP39 passphrase of an unlocked record.
	Passphrase string
	Registry   *Registry
	Logger     logrus.FieldLogger
	KDF        KDFParams
}

// Deserialize rebuilds a Seedloop from its persisted form. A record with a
// mnemonic comes back unlocked; a locked record comes back locked with its
// cypher text. Every identifier and address is checked against the record
// and any divergence fails with ErrFingerprintMismatch.
func Deserialize(rec SerializedSeedloop, opts DeserializeOptions) (*Seedloop, error) {
	if rec.Version != SeedloopVersion {
		return nil, fmt.Errorf("%w: seedloop version %d", ErrUnsupportedVersion, rec.Version)
	}
	if opts.KDF != (KDFParams{}) {
		if err := opts.KDF.validate(); err != nil {
			return nil, err
		}
	}

	var (
		s   *Seedloop
		err error
	)
	switch {
	case rec.Mnemonic != nil:
		mnemonic, ok := ValidateAndFormatMnemonic(*rec.Mnemonic)
		if !ok {
			return nil, ErrInvalidMnemonic
		}
		s, err = newUnlocked(mnemonic, opts.Passphrase, opts.Registry, opts.Logger, opts.KDF)
		if err != nil {
			return nil, err
		}
		if rec.ID != s.id || (rec.Xpub != "" && rec.Xpub != s.xpub) {
			s.discard()
			return nil, fmt.Errorf("%w: seedloop id %s, want %s", ErrFingerprintMismatch, s.id, rec.ID)
		}
	case rec.IsLocked:
		s, err = NewLocked(LockedOptions{
			Xpub:              rec.Xpub,
			ID:                rec.ID,
			EncryptedMnemonic: rec.EncryptedMnemonic,
			Registry:          opts.Registry,
			Logger:            opts.Logger,
			KDF:               opts.KDF,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unlocked record without mnemonic", ErrInvalidMnemonic)
	}

	var seed []byte
	if sec, ok := s.state.(*secret); ok {
		seed = sec.seed()
		defer wipe(seed)
	}
	for _, kr := range rec.Keyrings {
		k, err := deserializeKeyring(seed, kr, s.registry, s.log)
		if err != nil {
			s.discard()
			return nil, err
		}
		slot := familyKey(k.Network())
		if _, dup := s.keyrings[slot]; dup {
			s.discard()
			return nil, fmt.Errorf("%w: two keyrings for slot %s", ErrFingerprintMismatch, slot)
		}
		s.attach(slot, k)
	}

	s.log.WithField("keyrings", len(s.order)).Debug("seedloop deserialized")
	return s, nil
}
