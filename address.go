// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// bitcoinParams selects the P2PKH version byte of each bitcoin family
// ticker. Only the address fields matter here.
var bitcoinParams = map[string]*chaincfg.Params{
	"btc": &chaincfg.MainNetParams,
	"bch": &chaincfg.MainNetParams,
	"ltc": {
		Name:             "litecoin",
		PubKeyHashAddrID: 0x30,
		ScriptHashAddrID: 0x32,
		PrivateKeyID:     0xb0,
		HDCoinType:       2,
	},
	"doge": {
		Name:             "dogecoin",
		PubKeyHashAddrID: 0x1e,
		ScriptHashAddrID: 0x16,
		PrivateKeyID:     0x9e,
		HDCoinType:       3,
	},
}

// cosmosPrefixes holds the bech32 human readable part per cosmos ticker.
var cosmosPrefixes = map[string]string{
	"atom": "cosmos",
}

// evmAddress is the lower-case 0x hex of the last 20 bytes of
// keccak256(uncompressed public key without its 0x04 prefix).
func evmAddress(_ Network, pub publicKey) (string, error) {
	if pub.secp == nil {
		return "", fmt.Errorf("evm address needs a secp256k1 key")
	}
	uncompressed := pub.secp.SerializeUncompressed()
	addr := common.BytesToAddress(crypto.Keccak256(uncompressed[1:])[12:])
	return strings.ToLower(addr.Hex()), nil
}

// bitcoinAddress is the base58check P2PKH address of the compressed key.
func bitcoinAddress(n Network, pub publicKey) (string, error) {
	if pub.secp == nil {
		return "", fmt.Errorf("bitcoin address needs a secp256k1 key")
	}
	params, ok := bitcoinParams[n.Ticker]
	if !ok {
		return "", fmt.Errorf("%w: no address params for %s", ErrUnsupportedForFamily, n.Ticker)
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.secp.SerializeCompressed()), params)
	if err != nil {
		return "", fmt.Errorf("could not create %s address: %w", n.Ticker, err)
	}
	return addr.EncodeAddress(), nil
}

// cosmosAddress is the bech32 encoding of HASH160(compressed key).
func cosmosAddress(n Network, pub publicKey) (string, error) {
	if pub.secp == nil {
		return "", fmt.Errorf("cosmos address needs a secp256k1 key")
	}
	hrp, ok := cosmosPrefixes[n.Ticker]
	if !ok {
		return "", fmt.Errorf("%w: no bech32 prefix for %s", ErrUnsupportedForFamily, n.Ticker)
	}
	conv, err := bech32.ConvertBits(btcutil.Hash160(pub.secp.SerializeCompressed()), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("could not convert address bits: %w", err)
	}
	addr, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", fmt.Errorf("could not encode %s address: %w", n.Ticker, err)
	}
	return addr, nil
}

// solanaAddress is the base58 encoding of the ed25519 public key.
func solanaAddress(_ Network, pub publicKey) (string, error) {
	if len(pub.ed) != ed25519.PublicKeySize {
		return "", fmt.Errorf("solana address needs an ed25519 key")
	}
	return base58.Encode(pub.ed), nil
}

// nearAddress is the hex encoding of the ed25519 public key. Solana and Near
// encode the same key material differently on purpose.
func nearAddress(_ Network, pub publicKey) (string, error) {
	if len(pub.ed) != ed25519.PublicKeySize {
		return "", fmt.Errorf("near address needs an ed25519 key")
	}
	return hex.EncodeToString(pub.ed), nil
}

// normalizeHexAddress lower-cases a hex address, pads it to an even length
// and makes sure it carries a 0x prefix.
func normalizeHexAddress(address string) string {
	noPrefix := strings.ToLower(strings.TrimSpace(address))
	noPrefix = strings.TrimPrefix(noPrefix, "0x")
	if len(noPrefix)%2 != 0 {
		noPrefix = "0" + noPrefix
	}
	return "0x" + noPrefix
}

func normalizeLower(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// base58 is case sensitive.
func normalizeVerbatim(address string) string {
	return strings.TrimSpace(address)
}

// ChecksumAddress returns the EIP-55 mixed case form of an EVM address. It is
// a display transform; stored addresses stay lower-case.
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
