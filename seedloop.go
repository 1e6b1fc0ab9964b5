// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

// Package seedloop manages a hierarchical deterministic wallet built from a
// single BIP39 mnemonic. One Seedloop owns one mnemonic and a set of
// keyrings, each deriving addresses for a network family below its own base
// path.
//
// Networks of an account based family (EVM, Solana, Near, Cosmos) share one
// keyring, so an address derived for eth is also valid on matic. Bitcoin
// family networks each get their own keyring.
//
// A Seedloop can be locked with a password. A locked Seedloop keeps its
// identity and addresses but refuses to grow or sign until unlocked. Private
// keys are never stored: they are derived from the seed for one signing call
// and zeroed afterwards.
//
// Neither Seedloop nor Keyring is safe for concurrent use.
package seedloop

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/sirupsen/logrus"
)

// Options configure New.
type Options struct {
	// Mnemonic is the BIP39 phrase to load. Empty generates a new one.
	Mnemonic string
	// Passphrase is the optional BIP39 passphrase.
	Passphrase string
	// Strength is the entropy size in bits of a generated mnemonic.
	Strength int
	// Networks are the keyrings created up front. nil selects the
	// registry defaults; an empty non-nil slice creates none.
	Networks []Network
	// Registry defaults to DefaultRegistry().
	Registry *Registry
	// Logger defaults to a logger that discards everything.
	Logger logrus.FieldLogger
	// KDF is the scrypt cost used by Lock. Defaults to StandardKDF.
	KDF KDFParams
}

func (o Options) validate() error {
	if o.Strength != 0 && (o.Strength < 128 || o.Strength > 256 || o.Strength%32 != 0) {
		return fmt.Errorf("invalid strength: %d (must be a multiple of 32 in [128, 256])", o.Strength)
	}
	if o.KDF != (KDFParams{}) {
		return o.KDF.validate()
	}
	return nil
}

// LockedOptions configure NewLocked.
type LockedOptions struct {
	// Xpub is the extended public key of the master node.
	Xpub string
	// ID, when set, must match the fingerprint of Xpub.
	ID string
	// EncryptedMnemonic is the cypher text produced by Lock.
	EncryptedMnemonic string
	Registry          *Registry
	Logger            logrus.FieldLogger
	KDF               KDFParams
}

// Seedloop is a wallet rooted in one mnemonic.
type Seedloop struct {
	id       string
	xpub     string
	state    secretState
	registry *Registry
	kdf      KDFParams
	keyrings map[string]*Keyring
	// order keeps keyring slots in insertion order.
	order []string
	log   logrus.FieldLogger
}

// New creates a Seedloop from a supplied or freshly generated mnemonic and
// adds one keyring, with one address, per configured network.
func New(opts Options) (*Seedloop, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	phrase := opts.Mnemonic
	if phrase == "" {
		generated, err := NewMnemonic(opts.Strength)
		if err != nil {
			return nil, err
		}
		phrase = generated
	}
	mnemonic, ok := ValidateAndFormatMnemonic(phrase)
	if !ok {
		return nil, ErrInvalidMnemonic
	}

	s, err := newUnlocked(mnemonic, opts.Passphrase, opts.Registry, opts.Logger, opts.KDF)
	if err != nil {
		return nil, err
	}

	networks := opts.Networks
	if networks == nil {
		networks = s.registry.Defaults()
	}
	for _, n := range networks {
		if _, err := s.AddKeyRingByNetwork(n); err != nil {
			s.discard()
			return nil, err
		}
	}

	s.log.WithField("keyrings", len(s.order)).Info("seedloop created")
	return s, nil
}

// newUnlocked builds an unlocked Seedloop with no keyrings. mnemonic must
// already be validated.
func newUnlocked(mnemonic, passphrase string, registry *Registry, log logrus.FieldLogger, kdf KDFParams) (*Seedloop, error) {
	sec := newSecret(mnemonic, passphrase)
	seed := sec.seed()
	defer wipe(seed)

	id, xpub, err := masterIdentity(seed)
	if err != nil {
		sec.discard()
		return nil, err
	}

	s := newShell(id, xpub, registry, log, kdf)
	s.state = sec
	return s, nil
}

// NewLocked creates a locked, public-only Seedloop from the extended public
// key of its master node. It can list addresses of keyrings added later by
// Deserialize, and becomes fully usable after Unlock.
func NewLocked(opts LockedOptions) (*Seedloop, error) {
	id, xpub, err := lockedIdentity(opts.Xpub, opts.ID)
	if err != nil {
		return nil, err
	}
	if opts.KDF != (KDFParams{}) {
		if err := opts.KDF.validate(); err != nil {
			return nil, err
		}
	}
	s := newShell(id, xpub, opts.Registry, opts.Logger, opts.KDF)
	s.state = &sealed{ciphertext: opts.EncryptedMnemonic}
	return s, nil
}

// lockedIdentity checks that xpub is a master extended key and that its
// fingerprint matches wantID when one is given.
func lockedIdentity(xpub, wantID string) (id, neutered string, err error) {
	if xpub == "" {
		return "", "", ErrMissingXpub
	}
	key, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return "", "", fmt.Errorf("could not parse xpub: %w", err)
	}
	if key.Depth() != 0 {
		return "", "", fmt.Errorf("%w: xpub is not a master key", ErrFingerprintMismatch)
	}
	id, neutered, err = publicIdentity(key)
	if err != nil {
		return "", "", err
	}
	if wantID != "" && wantID != id {
		return "", "", fmt.Errorf("%w: xpub fingerprint %s, want %s", ErrFingerprintMismatch, id, wantID)
	}
	return id, neutered, nil
}

func newShell(id, xpub string, registry *Registry, log logrus.FieldLogger, kdf KDFParams) *Seedloop {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if log == nil {
		log = discardLogger()
	}
	return &Seedloop{
		id:       id,
		xpub:     xpub,
		registry: registry,
		kdf:      kdf.orDefault(),
		keyrings: make(map[string]*Keyring),
		log:      log.WithField("seedloop", id),
	}
}

// ID is the BIP32 fingerprint of the master node.
func (s *Seedloop) ID() string { return s.id }

// Xpub is the extended public key of the master node.
func (s *Seedloop) Xpub() string { return s.xpub }

// Registry is the network registry the Seedloop resolves tickers with.
func (s *Seedloop) Registry() *Registry { return s.registry }

// IsLocked reports whether the mnemonic is currently encrypted.
func (s *Seedloop) IsLocked() bool { return s.state.locked() }

// SeedPhrase returns the mnemonic while unlocked.
func (s *Seedloop) SeedPhrase() (string, bool) {
	sec, ok := s.state.(*secret)
	if !ok {
		return "", false
	}
	mnemonic, _ := sec.reveal()
	return mnemonic, true
}

// unlockedSecret returns the secret or ErrSeedloopLocked.
func (s *Seedloop) unlockedSecret() (*secret, error) {
	sec, ok := s.state.(*secret)
	if !ok {
		return nil, ErrSeedloopLocked
	}
	return sec, nil
}

// slotFor maps n onto the registered network of the same ticker and its
// keyring slot. Routing never trusts the caller's Family field.
func (s *Seedloop) slotFor(n Network) (Network, string, error) {
	registered, err := s.registry.NetworkFromTicker(n.Ticker)
	if err != nil {
		return Network{}, "", err
	}
	return registered, familyKey(registered), nil
}

// NetworkOnSeedloop reports whether a keyring serving n exists.
func (s *Seedloop) NetworkOnSeedloop(n Network) bool {
	_, slot, err := s.slotFor(n)
	if err != nil {
		return false
	}
	_, ok := s.keyrings[slot]
	return ok
}

// AddKeyRingByNetwork returns the keyring serving n, creating it with one
// address when none exists yet.
func (s *Seedloop) AddKeyRingByNetwork(n Network) (*Keyring, error) {
	n, slot, err := s.slotFor(n)
	if err != nil {
		return nil, err
	}
	if k, ok := s.keyrings[slot]; ok {
		return k, nil
	}

	sec, err := s.unlockedSecret()
	if err != nil {
		return nil, err
	}
	seed := sec.seed()
	defer wipe(seed)

	basePath, err := keyringBasePath(n)
	if err != nil {
		return nil, err
	}
	k, err := newKeyring(seed, n, basePath, s.log)
	if err != nil {
		return nil, err
	}
	if _, err := k.AddAddresses(seed, 1); err != nil {
		return nil, err
	}

	s.attach(slot, k)
	s.log.WithFields(logrus.Fields{
		"ticker":  n.Ticker,
		"family":  n.Family.String(),
		"keyring": k.ID(),
	}).Info("keyring added")
	return k, nil
}

func (s *Seedloop) attach(slot string, k *Keyring) {
	s.keyrings[slot] = k
	s.order = append(s.order, slot)
}

// KeyRing returns the keyring serving n.
func (s *Seedloop) KeyRing(n Network) (*Keyring, error) {
	_, slot, err := s.slotFor(n)
	if err != nil {
		return nil, err
	}
	k, ok := s.keyrings[slot]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyringNotFound, n.Ticker)
	}
	return k, nil
}

// Keyrings returns every keyring in the order they were added.
func (s *Seedloop) Keyrings() []*Keyring {
	out := make([]*Keyring, 0, len(s.order))
	for _, slot := range s.order {
		out = append(out, s.keyrings[slot])
	}
	return out
}

// Addresses lists the addresses of the keyring serving n. It works while
// locked.
func (s *Seedloop) Addresses(n Network) ([]string, error) {
	k, err := s.KeyRing(n)
	if err != nil {
		return nil, err
	}
	return k.Addresses(), nil
}

// AddAddresses derives count more addresses on the keyring serving n and
// returns only the new ones.
func (s *Seedloop) AddAddresses(n Network, count int) ([]string, error) {
	sec, err := s.unlockedSecret()
	if err != nil {
		return nil, err
	}
	k, err := s.KeyRing(n)
	if err != nil {
		return nil, err
	}
	seed := sec.seed()
	defer wipe(seed)
	return k.AddAddresses(seed, count)
}

// SignMessage signs msg with the key of address on the keyring serving n.
func (s *Seedloop) SignMessage(n Network, address string, msg []byte) ([]byte, error) {
	k, seed, err := s.signingContext(n)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	return k.SignMessage(address, seed, msg)
}

// SignTypedData signs EIP-712 typed data. Only EVM networks support it.
func (s *Seedloop) SignTypedData(n Network, address string, data apitypes.TypedData) ([]byte, error) {
	k, seed, err := s.signingContext(n)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	return k.SignTypedData(address, seed, data)
}

// SignTransaction signs tx with the key of address on the keyring serving n.
func (s *Seedloop) SignTransaction(n Network, address string, tx Transaction) (*SignedTransaction, error) {
	k, seed, err := s.signingContext(n)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	return k.SignTransaction(address, seed, tx)
}

// signingContext returns the keyring for n and a seed the caller wipes.
func (s *Seedloop) signingContext(n Network) (*Keyring, []byte, error) {
	sec, err := s.unlockedSecret()
	if err != nil {
		return nil, nil, err
	}
	k, err := s.KeyRing(n)
	if err != nil {
		return nil, nil, err
	}
	return k, sec.seed(), nil
}

// Lock encrypts the mnemonic under password and discards the plaintext.
// The Seedloop keeps its id, xpub and addresses.
func (s *Seedloop) Lock(password string) error {
	sec, err := s.unlockedSecret()
	if err != nil {
		return err
	}
	sealedSecret, err := sec.seal(password, s.kdf)
	if err != nil {
		return err
	}
	sec.discard()
	s.state = sealedSecret
	s.log.Info("seedloop locked")
	return nil
}

// Unlock decrypts the mnemonic. It returns true when the Seedloop is
// unlocked afterwards. A wrong password, a cypher text that does not
// reproduce the Seedloop's id, or a keyring that does not re-derive from the
// decrypted seed returns false and leaves it locked.
func (s *Seedloop) Unlock(password string) (bool, error) {
	locked, ok := s.state.(*sealed)
	if !ok {
		return true, nil
	}
	if locked.ciphertext == "" {
		return false, ErrNoCiphertext
	}

	sec, err := locked.open(password)
	if err != nil {
		s.log.WithError(err).Warn("unlock rejected")
		return false, nil
	}
	mnemonic, _ := sec.reveal()
	if _, valid := ValidateAndFormatMnemonic(mnemonic); !valid {
		sec.discard()
		s.log.Warn("unlock rejected: invalid mnemonic")
		return false, nil
	}

	seed := sec.seed()
	defer wipe(seed)
	id, _, err := masterIdentity(seed)
	if err != nil || id != s.id {
		sec.discard()
		s.log.Warn("unlock rejected: fingerprint mismatch")
		return false, nil
	}

	// Keyrings loaded while locked were never checked against the seed.
	for _, k := range s.Keyrings() {
		if err := k.verify(seed); err != nil {
			sec.discard()
			s.log.WithError(err).WithField("ticker", k.Network().Ticker).Warn("unlock rejected: keyring mismatch")
			return false, nil
		}
	}

	s.state = sec
	s.log.Info("seedloop unlocked")
	return true, nil
}

// encryptedMnemonic is the cypher text of a locked Seedloop.
func (s *Seedloop) encryptedMnemonic() string {
	if locked, ok := s.state.(*sealed); ok {
		return locked.ciphertext
	}
	return ""
}

// discard wipes the secret of a Seedloop that is being abandoned.
func (s *Seedloop) discard() {
	if sec, ok := s.state.(*secret); ok {
		sec.discard()
	}
}
