// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/matryer/is"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	hdwallet "github.com/stephenlacy/go-ethereum-hdwallet"
)

func newTestSeedloop(t *testing.T, mnemonic string, tickers ...string) *Seedloop {
	t.Helper()
	opts := Options{Mnemonic: mnemonic, KDF: LightKDF}
	if tickers != nil {
		opts.Networks = []Network{}
		for _, ticker := range tickers {
			opts.Networks = append(opts.Networks, testNetwork(t, ticker))
		}
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("new seedloop: %v", err)
	}
	return s
}

func TestNew_Identity(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic)
	is.Equal(s.ID(), "0x73c5da0a")
	is.Equal(s.Xpub(), "xpub661MyMwAqRbcFkPHucMnrGNzDwb6teAX1RbKQmqtEF8kK3Z7LZ59qafCjB9eCRLiTVG3uxBxgKvRgbubRhqSKXnGGb1aoaqLrpMBDrVxga8")
	is.True(!s.IsLocked())

	phrase, ok := s.SeedPhrase()
	is.True(ok)
	is.Equal(phrase, abandonMnemonic)
}

func TestNew_Generated(t *testing.T) {
	is := is.New(t)

	s, err := New(Options{Strength: 256, Networks: []Network{}})
	is.NoErr(err)
	phrase, ok := s.SeedPhrase()
	is.True(ok)
	is.Equal(len(strings.Fields(phrase)), 24)
	is.Equal(len(s.Keyrings()), 0)

	_, err = New(Options{Strength: 100})
	is.True(err != nil)
}

func TestNew_InvalidMnemonic(t *testing.T) {
	is := is.New(t)

	for _, phrase := range []string{"foo bar baz", strings.Repeat("abandon ", 12)} {
		_, err := New(Options{Mnemonic: phrase})
		is.True(errors.Is(err, ErrInvalidMnemonic))
	}
}

func TestNew_DefaultKeyrings(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic)

	// eth, avaxc and matic share the EVM keyring.
	is.Equal(len(s.Keyrings()), 3)
	for _, n := range DefaultRegistry().Defaults() {
		is.True(s.NetworkOnSeedloop(n))
		addrs, err := s.Addresses(n)
		is.NoErr(err)
		is.Equal(len(addrs), 1)
	}
	is.True(!s.NetworkOnSeedloop(testNetwork(t, "btc")))

	_, err := s.Addresses(testNetwork(t, "btc"))
	is.True(errors.Is(err, ErrKeyringNotFound))
}

func TestSeedloop_Deterministic(t *testing.T) {
	is := is.New(t)

	a := newTestSeedloop(t, squareMnemonic, "eth", "btc", "sol", "near", "atom")
	b := newTestSeedloop(t, "  "+strings.ToUpper(squareMnemonic)+"\n", "eth", "btc", "sol", "near", "atom")

	is.Equal(a.ID(), b.ID())
	is.Equal(a.Xpub(), b.Xpub())
	for _, ticker := range []string{"eth", "btc", "sol", "near", "atom"} {
		n := testNetwork(t, ticker)
		_, err := a.AddAddresses(n, 3)
		is.NoErr(err)
		_, err = b.AddAddresses(n, 3)
		is.NoErr(err)

		addrsA, err := a.Addresses(n)
		is.NoErr(err)
		addrsB, err := b.Addresses(n)
		is.NoErr(err)
		is.Equal(addrsA, addrsB)
	}
}

func TestSeedloop_Passphrase(t *testing.T) {
	is := is.New(t)

	plain := newTestSeedloop(t, abandonMnemonic, "eth")
	salted, err := New(Options{Mnemonic: abandonMnemonic, Passphrase: "TREZOR", Networks: []Network{testNetwork(t, "eth")}})
	is.NoErr(err)

	is.True(plain.ID() != salted.ID())
	a, _ := plain.Addresses(testNetwork(t, "eth"))
	b, _ := salted.Addresses(testNetwork(t, "eth"))
	is.True(a[0] != b[0])
}

func TestSeedloop_Growth(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic)
	eth := testNetwork(t, "eth")

	added, err := s.AddAddresses(eth, 10)
	is.NoErr(err)
	is.Equal(len(added), 10)

	addrs, err := s.Addresses(eth)
	is.NoErr(err)
	is.Equal(len(addrs), 11)
	seen := map[string]bool{}
	for _, a := range addrs {
		is.True(!seen[a])
		seen[a] = true
	}

	_, err = s.AddAddresses(testNetwork(t, "ltc"), 1)
	is.True(errors.Is(err, ErrKeyringNotFound))
}

func TestSeedloop_Partitioning(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic, "eth")

	matic, err := s.AddKeyRingByNetwork(testNetwork(t, "matic"))
	is.NoErr(err)
	eth, err := s.KeyRing(testNetwork(t, "eth"))
	is.NoErr(err)
	is.True(matic == eth)

	_, err = s.AddAddresses(testNetwork(t, "matic"), 2)
	is.NoErr(err)
	ethAddrs, _ := s.Addresses(testNetwork(t, "eth"))
	is.Equal(len(ethAddrs), 3)

	btc, err := s.AddKeyRingByNetwork(testNetwork(t, "btc"))
	is.NoErr(err)
	ltc, err := s.AddKeyRingByNetwork(testNetwork(t, "ltc"))
	is.NoErr(err)
	is.True(btc != ltc)
	is.True(btc.ID() != ltc.ID())
	is.Equal(len(s.Keyrings()), 3)

	_, err = s.AddKeyRingByNetwork(Network{Ticker: "xyz", Family: EVM})
	is.True(errors.Is(err, ErrUnknownNetwork))
}

func TestSeedloop_RoutesByRegisteredNetwork(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic, "eth")
	sol := Network{Ticker: "sol"}

	is.True(!s.NetworkOnSeedloop(sol))
	_, err := s.Addresses(sol)
	is.True(errors.Is(err, ErrKeyringNotFound))

	k, err := s.AddKeyRingByNetwork(sol)
	is.NoErr(err)
	is.Equal(k.Network().Family, Solana)
	is.True(s.NetworkOnSeedloop(sol))

	got, err := s.Addresses(sol)
	is.NoErr(err)
	is.Equal(got, k.Addresses())
	want, err := s.Addresses(testNetwork(t, "sol"))
	is.NoErr(err)
	is.Equal(got, want)

	// the caller's Family field is ignored in favour of the registry
	matic, err := s.Addresses(Network{Ticker: "matic", Family: Bitcoin})
	is.NoErr(err)
	eth, err := s.Addresses(testNetwork(t, "eth"))
	is.NoErr(err)
	is.Equal(matic, eth)
	is.True(!s.NetworkOnSeedloop(Network{Ticker: "btc", Family: EVM}))

	is.True(!s.NetworkOnSeedloop(Network{Ticker: "xyz"}))
	_, err = s.KeyRing(Network{Ticker: "xyz"})
	is.True(errors.Is(err, ErrUnknownNetwork))
}

// TestSeedloop_EVMFixture cross checks EVM derivation against an independent
// HD wallet implementation.
func TestSeedloop_EVMFixture(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, squareMnemonic, "eth")
	_, err := s.AddAddresses(testNetwork(t, "eth"), 1)
	is.NoErr(err)
	addrs, err := s.Addresses(testNetwork(t, "eth"))
	is.NoErr(err)
	is.Equal(len(addrs), 2)

	is.Equal(addrs, []string{
		"0xca19be978a1d2456d16bde3efb0a5b8946f4a1ce",
		"0xce73b34e2cdf4e00054c509cc5fdf3882d4a87c8",
	})

	wallet, err := hdwallet.NewFromMnemonic(squareMnemonic)
	is.NoErr(err)
	for i, path := range []string{"m/44'/60'/0'/0/0", "m/44'/60'/0'/0/1"} {
		account, err := wallet.Derive(hdwallet.MustParseDerivationPath(path), false)
		is.NoErr(err)
		is.Equal(addrs[i], strings.ToLower(account.Address.Hex()))
		is.Equal(ChecksumAddress(addrs[i]), account.Address.Hex())
	}
}

func TestSeedloop_LockUnlock(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic)
	eth := testNetwork(t, "eth")
	before, err := s.Addresses(eth)
	is.NoErr(err)

	is.NoErr(s.Lock("correct horse"))
	is.True(s.IsLocked())
	is.Equal(s.ID(), "0x73c5da0a")

	_, ok := s.SeedPhrase()
	is.True(!ok)

	// public operations keep working
	during, err := s.Addresses(eth)
	is.NoErr(err)
	is.Equal(during, before)
	_, err = s.KeyRing(eth)
	is.NoErr(err)

	_, err = s.AddAddresses(eth, 1)
	is.True(errors.Is(err, ErrSeedloopLocked))
	_, err = s.SignMessage(eth, before[0], []byte("x"))
	is.True(errors.Is(err, ErrSeedloopLocked))
	_, err = s.AddKeyRingByNetwork(testNetwork(t, "btc"))
	is.True(errors.Is(err, ErrSeedloopLocked))
	is.True(errors.Is(s.Lock("again"), ErrSeedloopLocked))

	ok, err = s.Unlock("wrong horse")
	is.NoErr(err)
	is.True(!ok)
	is.True(s.IsLocked())

	ok, err = s.Unlock("correct horse")
	is.NoErr(err)
	is.True(ok)
	is.True(!s.IsLocked())
	phrase, ok := s.SeedPhrase()
	is.True(ok)
	is.Equal(phrase, abandonMnemonic)

	ok, err = s.Unlock("anything")
	is.NoErr(err)
	is.True(ok)

	sig, err := s.SignMessage(eth, before[0], []byte("x"))
	is.NoErr(err)
	is.Equal(recoverAddress(is, accounts.TextHash([]byte("x")), sig), before[0])
}

func TestSeedloop_LockKeepsPassphrase(t *testing.T) {
	is := is.New(t)

	eth := testNetwork(t, "eth")
	s, err := New(Options{Mnemonic: abandonMnemonic, Passphrase: "TREZOR", Networks: []Network{eth}, KDF: LightKDF})
	is.NoErr(err)
	addrs, _ := s.Addresses(eth)

	is.NoErr(s.Lock("pw"))
	ok, err := s.Unlock("pw")
	is.NoErr(err)
	is.True(ok)

	_, err = s.SignMessage(eth, addrs[0], []byte("x"))
	is.NoErr(err)
}

func TestSeedloop_LockEmptyPassword(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic, "eth")
	is.True(errors.Is(s.Lock(""), ErrNullPassphrase))
	is.True(!s.IsLocked())
}

func TestNewLocked(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic, "eth")
	is.NoErr(s.Lock("pw"))
	ciphertext := s.encryptedMnemonic()

	locked, err := NewLocked(LockedOptions{Xpub: s.Xpub(), ID: s.ID(), EncryptedMnemonic: ciphertext})
	is.NoErr(err)
	is.True(locked.IsLocked())
	is.Equal(locked.ID(), s.ID())

	ok, err := locked.Unlock("pw")
	is.NoErr(err)
	is.True(ok)

	bare, err := NewLocked(LockedOptions{Xpub: s.Xpub()})
	is.NoErr(err)
	_, err = bare.Unlock("pw")
	is.True(errors.Is(err, ErrNoCiphertext))

	_, err = NewLocked(LockedOptions{})
	is.True(errors.Is(err, ErrMissingXpub))

	_, err = NewLocked(LockedOptions{Xpub: s.Xpub(), ID: "0x00000000"})
	is.True(errors.Is(err, ErrFingerprintMismatch))
}

func TestUnlock_ForeignCiphertext(t *testing.T) {
	is := is.New(t)

	mine := newTestSeedloop(t, abandonMnemonic, "eth")
	theirs := newTestSeedloop(t, squareMnemonic, "eth")
	is.NoErr(theirs.Lock("pw"))

	locked, err := NewLocked(LockedOptions{
		Xpub:              mine.Xpub(),
		EncryptedMnemonic: theirs.encryptedMnemonic(),
		KDF:               LightKDF,
	})
	is.NoErr(err)

	ok, err := locked.Unlock("pw")
	is.NoErr(err)
	is.True(!ok)
	is.True(locked.IsLocked())
}

func TestSeedloop_Logging(t *testing.T) {
	is := is.New(t)

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s, err := New(Options{
		Mnemonic: abandonMnemonic,
		Networks: []Network{testNetwork(t, "eth")},
		Logger:   logger,
		KDF:      LightKDF,
	})
	is.NoErr(err)
	is.NoErr(s.Lock("pw"))

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
		is.Equal(entry.Data["seedloop"], s.ID())
		for _, v := range entry.Data {
			if str, ok := v.(string); ok {
				is.True(!strings.Contains(str, "abandon"))
			}
		}
	}
	is.Equal(messages, []string{"addresses added", "keyring added", "seedloop created", "seedloop locked"})
}
