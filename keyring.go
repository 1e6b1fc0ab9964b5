// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/sirupsen/logrus"
)

// Account is one derived address. Accounts are append only.
type Account struct {
	Address        string `json:"address"`
	DerivationPath string `json:"derivationPath"`
	Curve          Curve  `json:"-"`
}

// Keyring holds the accounts derived below one base path for one network.
// It never stores private key material: secp256k1 keyrings keep the
// neutered extended key of the base node, ed25519 keyrings keep nothing and
// need the seed to grow.
//
// A Keyring is not safe for concurrent use.
type Keyring struct {
	id           string
	basePath     DerivationPath
	network      Network
	desc         familyDescriptor
	addressIndex uint32
	accounts     []Account
	byAddress    map[string]int

	// xpub is the neutered base node of secp256k1 keyrings.
	xpub *hdkeychain.ExtendedKey

	log logrus.FieldLogger
}

// NewKeyring derives the keyring for network n from seed. It starts with no
// accounts.
func NewKeyring(seed []byte, n Network) (*Keyring, error) {
	basePath, err := keyringBasePath(n)
	if err != nil {
		return nil, err
	}
	return newKeyring(seed, n, basePath, discardLogger())
}

func newKeyring(seed []byte, n Network, basePath DerivationPath, log logrus.FieldLogger) (*Keyring, error) {
	desc, ok := families[n.Family]
	if !ok {
		return nil, fmt.Errorf("%w: family %s", ErrUnknownNetwork, n.Family)
	}
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: no seed", ErrSigningUnavailable)
	}

	k := emptyKeyring(n, desc, basePath, log)

	if desc.curve == Ed25519 {
		if !basePath.HardenedOnly() {
			return nil, fmt.Errorf("%w: %s", ErrNonHardenedEd25519, basePath)
		}
		node, err := deriveSlip10(seed, basePath)
		if err != nil {
			return nil, err
		}
		defer node.zero()
		pub := ed25519.NewKeyFromSeed(node.key).Public().(ed25519.PublicKey)
		k.id = fingerprint(pub)
		return k, nil
	}

	master, err := newMasterKey(seed)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	base, err := deriveExtendedKey(master, basePath)
	if err != nil {
		return nil, err
	}
	defer base.Zero()

	if err := k.setBaseKey(base); err != nil {
		return nil, err
	}
	return k, nil
}

// NewPublicKeyring loads a secp256k1 keyring from the extended key of its
// base node. A private extended key is neutered on load.
func NewPublicKeyring(xpub string, n Network) (*Keyring, error) {
	basePath, err := keyringBasePath(n)
	if err != nil {
		return nil, err
	}
	return newPublicKeyring(xpub, n, basePath, discardLogger())
}

func newPublicKeyring(xpub string, n Network, basePath DerivationPath, log logrus.FieldLogger) (*Keyring, error) {
	desc, ok := families[n.Family]
	if !ok {
		return nil, fmt.Errorf("%w: family %s", ErrUnknownNetwork, n.Family)
	}
	if desc.curve != Secp256k1 {
		return nil, fmt.Errorf("%w: %s keyrings have no extended public key", ErrSigningUnavailable, n.Family)
	}
	if xpub == "" {
		return nil, ErrMissingXpub
	}

	base, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return nil, fmt.Errorf("could not parse extended key: %w", err)
	}
	if base.Depth() != uint8(len(basePath)) {
		return nil, fmt.Errorf("%w: extended key depth %d does not match %s",
			ErrFingerprintMismatch, base.Depth(), basePath)
	}

	k := emptyKeyring(n, desc, basePath, log)
	if err := k.setBaseKey(base); err != nil {
		return nil, err
	}
	return k, nil
}

func emptyKeyring(n Network, desc familyDescriptor, basePath DerivationPath, log logrus.FieldLogger) *Keyring {
	return &Keyring{
		basePath:  basePath,
		network:   n,
		desc:      desc,
		byAddress: make(map[string]int),
		log:       log,
	}
}

// setBaseKey stores the neutered form of base and derives the keyring id.
// Neuter shares its key and chain code slices with base, which the caller
// may zero, so the keyring keeps a copy parsed from the serialized form.
func (k *Keyring) setBaseKey(base *hdkeychain.ExtendedKey) error {
	pub, err := base.ECPubKey()
	if err != nil {
		return fmt.Errorf("could not get base public key: %w", err)
	}
	neutered, err := base.Neuter()
	if err != nil {
		return fmt.Errorf("could not neuter base key: %w", err)
	}
	owned, err := hdkeychain.NewKeyFromString(neutered.String())
	if err != nil {
		return fmt.Errorf("could not copy base key: %w", err)
	}
	k.id = fingerprint(pub.SerializeCompressed())
	k.xpub = owned
	return nil
}

// ID is the fingerprint of the keyring's base node.
func (k *Keyring) ID() string { return k.id }

// Network is the network the keyring was created for.
func (k *Keyring) Network() Network { return k.network }

// BasePath is the derivation path of the keyring's base node.
func (k *Keyring) BasePath() string { return k.basePath.String() }

// AddressIndex is the number of accounts derived so far.
func (k *Keyring) AddressIndex() uint32 { return k.addressIndex }

// Xpub is the extended public key of the base node, empty for ed25519
// keyrings.
func (k *Keyring) Xpub() string {
	if k.xpub == nil {
		return ""
	}
	return k.xpub.String()
}

// Addresses returns every account address in creation order.
func (k *Keyring) Addresses() []string {
	out := make([]string, len(k.accounts))
	for i, a := range k.accounts {
		out[i] = a.Address
	}
	return out
}

// Accounts returns a copy of the keyring's accounts.
func (k *Keyring) Accounts() []Account {
	return append([]Account(nil), k.accounts...)
}

// Account looks up the account owning address.
func (k *Keyring) Account(address string) (Account, error) {
	i, ok := k.byAddress[k.desc.normalize(address)]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}
	return k.accounts[i], nil
}

// AddAddresses derives the next n accounts and returns their addresses.
// secp256k1 keyrings derive from the base public key and accept a nil seed;
// ed25519 keyrings need the seed. Nothing changes if any derivation fails.
func (k *Keyring) AddAddresses(seed []byte, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: count %d must be positive", ErrIndexRange, n)
	}
	if uint64(k.addressIndex)+uint64(n) > uint64(hdkeychain.HardenedKeyStart) {
		return nil, fmt.Errorf("%w: %d more addresses from index %d", ErrIndexRange, n, k.addressIndex)
	}
	if k.desc.curve == Ed25519 && len(seed) == 0 {
		return nil, fmt.Errorf("%w: ed25519 keyrings need the seed to grow", ErrSigningUnavailable)
	}
	if k.desc.curve == Secp256k1 && k.xpub == nil {
		return nil, ErrMissingXpub
	}

	fresh := make([]Account, 0, n)
	for i := 0; i < n; i++ {
		acct, err := k.deriveAccount(seed, k.addressIndex+uint32(i))
		if err != nil {
			return nil, err
		}
		fresh = append(fresh, acct)
	}

	out := make([]string, 0, n)
	for _, acct := range fresh {
		k.byAddress[k.desc.normalize(acct.Address)] = len(k.accounts)
		k.accounts = append(k.accounts, acct)
		out = append(out, acct.Address)
	}
	k.addressIndex += uint32(n)

	k.log.WithFields(logrus.Fields{
		"keyring": k.id,
		"ticker":  k.network.Ticker,
		"count":   n,
	}).Debug("addresses added")

	return out, nil
}

// leafPath is the full path of the account at index.
func (k *Keyring) leafPath(index uint32) DerivationPath {
	if k.desc.curve == Ed25519 {
		return k.basePath.Child(index + hdkeychain.HardenedKeyStart)
	}
	return k.basePath.Child(index)
}

func (k *Keyring) deriveAccount(seed []byte, index uint32) (Account, error) {
	path := k.leafPath(index)

	var pub publicKey
	if k.desc.curve == Ed25519 {
		node, err := deriveSlip10(seed, path)
		if err != nil {
			return Account{}, err
		}
		pub.ed = ed25519.NewKeyFromSeed(node.key).Public().(ed25519.PublicKey)
		node.zero()
	} else {
		child, err := k.xpub.Derive(index)
		if err != nil {
			return Account{}, fmt.Errorf("could not derive child %d: %w", index, err)
		}
		if pub.secp, err = child.ECPubKey(); err != nil {
			return Account{}, fmt.Errorf("could not get public key: %w", err)
		}
	}

	address, err := k.desc.address(k.network, pub)
	if err != nil {
		return Account{}, err
	}
	return Account{
		Address:        k.desc.normalize(address),
		DerivationPath: path.String(),
		Curve:          k.desc.curve,
	}, nil
}

// SignMessage signs msg with the key of address.
func (k *Keyring) SignMessage(address string, seed, msg []byte) ([]byte, error) {
	key, err := k.signingKey(address, seed, kindMessage)
	if err != nil {
		return nil, err
	}
	defer key.zero()
	return k.desc.signer.signMessage(key, msg)
}

// SignTypedData signs EIP-712 typed data with the key of address.
func (k *Keyring) SignTypedData(address string, seed []byte, data apitypes.TypedData) ([]byte, error) {
	key, err := k.signingKey(address, seed, kindTypedData)
	if err != nil {
		return nil, err
	}
	defer key.zero()
	return k.desc.signer.signTypedData(key, data)
}

// SignTransaction signs tx with the key of address.
func (k *Keyring) SignTransaction(address string, seed []byte, tx Transaction) (*SignedTransaction, error) {
	key, err := k.signingKey(address, seed, kindTransaction)
	if err != nil {
		return nil, err
	}
	defer key.zero()
	acct, _ := k.Account(address)
	return k.desc.signer.signTransaction(key, acct.Address, tx)
}

// signingKey re-derives the private key of address and checks that it
// reproduces the stored address. The caller zeroes the key.
func (k *Keyring) signingKey(address string, seed []byte, kind signKind) (*privateKey, error) {
	acct, err := k.Account(address)
	if err != nil {
		return nil, err
	}
	if err := k.desc.signer.supports(kind); err != nil {
		return nil, err
	}
	if len(seed) == 0 {
		return nil, ErrSigningUnavailable
	}

	path, err := ParseDerivationPath(acct.DerivationPath)
	if err != nil {
		return nil, err
	}
	key, err := derivePrivateKey(seed, k.desc.curve, path)
	if err != nil {
		return nil, err
	}
	ok, err := signingAddressMatches(k.desc, k.network, key, acct.Address)
	if err != nil || !ok {
		key.zero()
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: seed does not own %s", ErrFingerprintMismatch, acct.Address)
	}
	return key, nil
}

// verify re-derives the keyring from seed and checks its id, base key and
// every account address.
func (k *Keyring) verify(seed []byte) error {
	fresh, err := newKeyring(seed, k.network, k.basePath, discardLogger())
	if err != nil {
		return err
	}
	if fresh.id != k.id || fresh.Xpub() != k.Xpub() {
		return fmt.Errorf("%w: keyring %s does not derive from this seed", ErrFingerprintMismatch, k.id)
	}
	if k.addressIndex == 0 {
		return nil
	}
	if _, err := fresh.AddAddresses(seed, int(k.addressIndex)); err != nil {
		return err
	}
	for i, acct := range k.accounts {
		if acct.Address != fresh.accounts[i].Address {
			return fmt.Errorf("%w: keyring %s address %d", ErrFingerprintMismatch, k.id, i)
		}
	}
	return nil
}

// restoreAccounts loads stored addresses into a public-only ed25519 keyring.
// They cannot be verified without the seed.
func (k *Keyring) restoreAccounts(addresses []string) {
	for i, address := range addresses {
		acct := Account{
			Address:        k.desc.normalize(address),
			DerivationPath: k.leafPath(uint32(i)).String(),
			Curve:          k.desc.curve,
		}
		k.byAddress[acct.Address] = len(k.accounts)
		k.accounts = append(k.accounts, acct)
	}
	k.addressIndex = uint32(len(addresses))
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
