// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
)

// roundTrip pushes a record through JSON the way callers persist it.
func roundTrip(is *is.I, rec SerializedSeedloop) SerializedSeedloop {
	b, err := json.Marshal(rec)
	is.NoErr(err)
	var out SerializedSeedloop
	is.NoErr(json.Unmarshal(b, &out))
	return out
}

func TestSerialize_RoundTrip(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic, "eth", "sol", "btc", "ltc", "near", "atom")
	_, err := s.AddAddresses(testNetwork(t, "sol"), 2)
	is.NoErr(err)
	_, err = s.AddAddresses(testNetwork(t, "btc"), 4)
	is.NoErr(err)

	rec := roundTrip(is, s.Serialize())
	is.Equal(rec.Version, SeedloopVersion)
	is.True(rec.Mnemonic != nil)
	is.Equal(*rec.Mnemonic, abandonMnemonic)
	is.Equal(rec.EncryptedMnemonic, "")
	is.True(!rec.IsLocked)

	back, err := Deserialize(rec, DeserializeOptions{})
	is.NoErr(err)
	is.Equal(back.ID(), s.ID())
	is.Equal(back.Xpub(), s.Xpub())

	orig, restored := s.Keyrings(), back.Keyrings()
	is.Equal(len(restored), len(orig))
	for i := range orig {
		is.Equal(restored[i].ID(), orig[i].ID())
		is.Equal(restored[i].Network().Ticker, orig[i].Network().Ticker)
		is.Equal(restored[i].Addresses(), orig[i].Addresses())
	}

	is.Equal(back.Serialize(), s.Serialize())
}

func TestSerialize_Locked(t *testing.T) {
	is := is.New(t)

	s := newTestSeedloop(t, abandonMnemonic, "eth", "sol", "btc")
	is.NoErr(s.Lock("pw"))

	rec := roundTrip(is, s.Serialize())
	is.True(rec.Mnemonic == nil)
	is.True(rec.IsLocked)
	is.True(rec.EncryptedMnemonic != "")

	back, err := Deserialize(rec, DeserializeOptions{KDF: LightKDF})
	is.NoErr(err)
	is.True(back.IsLocked())
	for _, ticker := range []string{"eth", "sol", "btc"} {
		want, err := s.Addresses(testNetwork(t, ticker))
		is.NoErr(err)
		got, err := back.Addresses(testNetwork(t, ticker))
		is.NoErr(err)
		is.Equal(got, want)
	}

	ok, err := back.Unlock("pw")
	is.NoErr(err)
	is.True(ok)
	_, err = back.AddAddresses(testNetwork(t, "sol"), 1)
	is.NoErr(err)
}

func TestDeserialize_Passphrase(t *testing.T) {
	is := is.New(t)

	s, err := New(Options{
		Mnemonic:   abandonMnemonic,
		Passphrase: "TREZOR",
		Networks:   []Network{testNetwork(t, "eth")},
	})
	is.NoErr(err)
	rec := s.Serialize()

	_, err = Deserialize(rec, DeserializeOptions{})
	is.True(errors.Is(err, ErrFingerprintMismatch))

	back, err := Deserialize(rec, DeserializeOptions{Passphrase: "TREZOR"})
	is.NoErr(err)
	is.Equal(back.ID(), s.ID())
}

func TestDeserialize_Rejects(t *testing.T) {
	s := newTestSeedloop(t, abandonMnemonic, "eth", "btc")
	other := newTestSeedloop(t, squareMnemonic, "eth")

	tests := []struct {
		name   string
		mutate func(rec *SerializedSeedloop)
		want   error
	}{
		{"version", func(rec *SerializedSeedloop) { rec.Version = 2 }, ErrUnsupportedVersion},
		{"version before mnemonic", func(rec *SerializedSeedloop) {
			rec.Version = 0
			bad := "not a mnemonic"
			rec.Mnemonic = &bad
		}, ErrUnsupportedVersion},
		{"mnemonic", func(rec *SerializedSeedloop) {
			bad := "not a mnemonic"
			rec.Mnemonic = &bad
		}, ErrInvalidMnemonic},
		{"id", func(rec *SerializedSeedloop) { rec.ID = "0x00000000" }, ErrFingerprintMismatch},
		{"xpub", func(rec *SerializedSeedloop) { rec.Xpub = other.Xpub() }, ErrFingerprintMismatch},
		{"no secret", func(rec *SerializedSeedloop) { rec.Mnemonic = nil }, ErrInvalidMnemonic},
		{"locked without xpub", func(rec *SerializedSeedloop) {
			rec.Mnemonic = nil
			rec.IsLocked = true
			rec.Xpub = ""
		}, ErrMissingXpub},
		{"keyring version", func(rec *SerializedSeedloop) { rec.Keyrings[1].Version = 9 }, ErrUnsupportedVersion},
		{"duplicate slot", func(rec *SerializedSeedloop) {
			rec.Keyrings = append(rec.Keyrings, rec.Keyrings[0])
		}, ErrFingerprintMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			rec := roundTrip(is, s.Serialize())
			tt.mutate(&rec)
			_, err := Deserialize(rec, DeserializeOptions{})
			is.True(errors.Is(err, tt.want))
		})
	}
}

func TestUnlock_RejectsForeignKeyrings(t *testing.T) {
	s := newTestSeedloop(t, abandonMnemonic, "sol", "btc")
	is.New(t).NoErr(s.Lock("pw"))
	other := newTestSeedloop(t, squareMnemonic, "sol", "btc")

	tests := []struct {
		name   string
		mutate func(rec *SerializedSeedloop)
	}{
		{"ed25519 address", func(rec *SerializedSeedloop) {
			rec.Keyrings[0].Addresses[0] = other.Serialize().Keyrings[0].Addresses[0]
		}},
		{"secp256k1 keyring", func(rec *SerializedSeedloop) {
			rec.Keyrings[1] = other.Serialize().Keyrings[1]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)

			rec := roundTrip(is, s.Serialize())
			is.Equal(rec.Keyrings[0].Network, "sol")
			is.Equal(rec.Keyrings[1].Network, "btc")
			tt.mutate(&rec)

			// without the seed the record cannot be told apart
			back, err := Deserialize(rec, DeserializeOptions{KDF: LightKDF})
			is.NoErr(err)

			ok, err := back.Unlock("pw")
			is.NoErr(err)
			is.True(!ok)
			is.True(back.IsLocked())
			_, err = back.AddAddresses(testNetwork(t, "sol"), 1)
			is.True(errors.Is(err, ErrSeedloopLocked))
		})
	}

	// the untouched record still unlocks
	is := is.New(t)
	back, err := Deserialize(roundTrip(is, s.Serialize()), DeserializeOptions{KDF: LightKDF})
	is.NoErr(err)
	ok, err := back.Unlock("pw")
	is.NoErr(err)
	is.True(ok)
}
