// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// publicKey holds the public half of an account key on either curve.
type publicKey struct {
	secp *btcec.PublicKey
	ed   ed25519.PublicKey
}

// privateKey holds the signing half of an account key. It only lives for
// the duration of a single signing call.
type privateKey struct {
	curve Curve
	secp  *btcec.PrivateKey
	ed    ed25519.PrivateKey
}

func (k *privateKey) public() publicKey {
	if k.curve == Ed25519 {
		return publicKey{ed: k.ed.Public().(ed25519.PublicKey)}
	}
	return publicKey{secp: k.secp.PubKey()}
}

// ecdsa converts the secp256k1 key for go-ethereum's signer.
func (k *privateKey) ecdsa() (*ecdsa.PrivateKey, error) {
	if k.secp == nil {
		return nil, fmt.Errorf("%w: not a secp256k1 key", ErrUnsupportedForFamily)
	}
	raw := k.secp.Serialize()
	defer wipe(raw)
	prv, err := ethcrypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("could not convert private key: %w", err)
	}
	return prv, nil
}

// zero wipes the key material.
func (k *privateKey) zero() {
	if k.secp != nil {
		k.secp.Zero()
	}
	wipe(k.ed)
}

// fingerprint is the first four bytes of HASH160(pub) as 0x prefixed hex.
func fingerprint(pub []byte) string {
	return fmt.Sprintf("0x%x", btcutil.Hash160(pub)[:4])
}

// newMasterKey returns the BIP32 master node of seed.
func newMasterKey(seed []byte) (*hdkeychain.ExtendedKey, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("could not create master key: %w", err)
	}
	return master, nil
}

// deriveExtendedKey walks path below key. Intermediate private nodes are
// zeroed once their child exists.
func deriveExtendedKey(key *hdkeychain.ExtendedKey, path DerivationPath) (*hdkeychain.ExtendedKey, error) {
	current := key
	for _, index := range path {
		next, err := current.Derive(index)
		if current != key {
			current.Zero()
		}
		if err != nil {
			return nil, fmt.Errorf("could not derive child %d: %w", index, err)
		}
		current = next
	}
	return current, nil
}

// masterIdentity returns the fingerprint and extended public key of the
// BIP32 master node of seed. These identify a Seedloop.
func masterIdentity(seed []byte) (id, xpub string, err error) {
	master, err := newMasterKey(seed)
	if err != nil {
		return "", "", err
	}
	defer master.Zero()
	return publicIdentity(master)
}

// publicIdentity computes the fingerprint and neutered serialization of key.
func publicIdentity(key *hdkeychain.ExtendedKey) (id, xpub string, err error) {
	pub, err := key.ECPubKey()
	if err != nil {
		return "", "", fmt.Errorf("could not get public key: %w", err)
	}
	neutered, err := key.Neuter()
	if err != nil {
		return "", "", fmt.Errorf("could not neuter key: %w", err)
	}
	return fingerprint(pub.SerializeCompressed()), neutered.String(), nil
}

// derivePrivateKey derives the account key at path on curve.
func derivePrivateKey(seed []byte, curve Curve, path DerivationPath) (*privateKey, error) {
	if curve == Ed25519 {
		node, err := deriveSlip10(seed, path)
		if err != nil {
			return nil, err
		}
		defer node.zero()
		return &privateKey{curve: Ed25519, ed: ed25519.NewKeyFromSeed(node.key)}, nil
	}

	master, err := newMasterKey(seed)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	leaf, err := deriveExtendedKey(master, path)
	if err != nil {
		return nil, err
	}
	defer leaf.Zero()

	priv, err := leaf.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("could not get private key: %w", err)
	}
	return &privateKey{curve: Secp256k1, secp: priv}, nil
}
