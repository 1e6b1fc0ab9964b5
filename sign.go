// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// EVMTransaction is an unsigned EVM transaction. Fee, nonce and recipient
// fields are signed exactly as given.
type EVMTransaction struct {
	// From, when set, must match the signing address.
	From string
	// ChainID selects the replay protected signer. It defaults to the
	// transaction's own chain id for typed transactions.
	ChainID *big.Int
	Tx      *types.Transaction
}

// Transaction carries the family specific payload of a signing request.
// Exactly the field matching the keyring's family is read.
type Transaction struct {
	EVM *EVMTransaction
	// PSBT is a serialized partially signed bitcoin transaction.
	PSBT []byte
	// Raw is the message bytes of an ed25519 or cosmos transaction.
	Raw []byte
}

// SignedTransaction is the result of signing a Transaction.
type SignedTransaction struct {
	Family Family
	// EVM is the 0x prefixed serialized signed envelope.
	EVM string
	// EVMTx is the signed EVM transaction.
	EVMTx *types.Transaction
	// Signature is the detached signature for non EVM families.
	Signature []byte
}

type signKind int

const (
	kindMessage signKind = iota
	kindTypedData
	kindTransaction
)

// signer is the per family signing algorithm. supports is checked before any
// key is derived.
type signer interface {
	supports(kind signKind) error
	signMessage(key *privateKey, msg []byte) ([]byte, error)
	signTypedData(key *privateKey, data apitypes.TypedData) ([]byte, error)
	signTransaction(key *privateKey, from string, tx Transaction) (*SignedTransaction, error)
}

// evmSigner produces 65 byte [R || S || V] signatures with V in {27, 28}.
type evmSigner struct{}

func (evmSigner) supports(signKind) error { return nil }

func (evmSigner) signMessage(key *privateKey, msg []byte) ([]byte, error) {
	return signRecoverable(key, accounts.TextHash(msg))
}

func (evmSigner) signTypedData(key *privateKey, data apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("could not hash typed data: %w", err)
	}
	return signRecoverable(key, hash)
}

func (evmSigner) signTransaction(key *privateKey, from string, tx Transaction) (*SignedTransaction, error) {
	if tx.EVM == nil || tx.EVM.Tx == nil {
		return nil, fmt.Errorf("%w: missing evm transaction", ErrInvalidTransaction)
	}
	if tx.EVM.From != "" && normalizeHexAddress(tx.EVM.From) != normalizeHexAddress(from) {
		return nil, fmt.Errorf("%w: %s", ErrFromMismatch, tx.EVM.From)
	}

	chainID := tx.EVM.ChainID
	if chainID == nil && tx.EVM.Tx.Type() != types.LegacyTxType {
		chainID = tx.EVM.Tx.ChainId()
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: missing chain id", ErrInvalidTransaction)
	}

	prv, err := key.ecdsa()
	if err != nil {
		return nil, err
	}
	defer prv.D.SetInt64(0)

	signed, err := types.SignTx(tx.EVM.Tx, types.LatestSignerForChainID(chainID), prv)
	if err != nil {
		return nil, fmt.Errorf("could not sign transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("could not encode transaction: %w", err)
	}
	return &SignedTransaction{Family: EVM, EVM: hexutil.Encode(raw), EVMTx: signed}, nil
}

// signRecoverable signs a 32 byte digest and moves V into the 27/28 range
// that ecrecover expects.
func signRecoverable(key *privateKey, hash []byte) ([]byte, error) {
	prv, err := key.ecdsa()
	if err != nil {
		return nil, err
	}
	defer prv.D.SetInt64(0)

	sig, err := ethcrypto.Sign(hash, prv)
	if err != nil {
		return nil, fmt.Errorf("could not sign: %w", err)
	}
	sig[ethcrypto.RecoveryIDOffset] += 27
	return sig, nil
}

// ed25519Signer signs raw bytes with detached ed25519 signatures.
type ed25519Signer struct {
	family Family
}

func (s ed25519Signer) supports(kind signKind) error {
	if kind == kindTypedData {
		return fmt.Errorf("%w: typed data on %s", ErrUnsupportedForFamily, s.family)
	}
	return nil
}

func (ed25519Signer) signMessage(key *privateKey, msg []byte) ([]byte, error) {
	if len(key.ed) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: not an ed25519 key", ErrUnsupportedForFamily)
	}
	return ed25519.Sign(key.ed, msg), nil
}

func (s ed25519Signer) signTypedData(*privateKey, apitypes.TypedData) ([]byte, error) {
	return nil, s.supports(kindTypedData)
}

func (s ed25519Signer) signTransaction(key *privateKey, _ string, tx Transaction) (*SignedTransaction, error) {
	if len(tx.Raw) == 0 {
		return nil, fmt.Errorf("%w: missing %s transaction bytes", ErrInvalidTransaction, s.family)
	}
	sig, err := s.signMessage(key, tx.Raw)
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{Family: s.family, Signature: sig}, nil
}

// cosmosSigner produces 64 byte [R || S] low-S signatures over sha256 of
// the payload.
type cosmosSigner struct{}

func (cosmosSigner) supports(kind signKind) error {
	if kind == kindTypedData {
		return fmt.Errorf("%w: typed data on %s", ErrUnsupportedForFamily, Cosmos)
	}
	return nil
}

func (cosmosSigner) signMessage(key *privateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := signRecoverable(key, digest[:])
	if err != nil {
		return nil, err
	}
	return sig[:64], nil
}

func (cosmosSigner) signTypedData(*privateKey, apitypes.TypedData) ([]byte, error) {
	return nil, cosmosSigner{}.supports(kindTypedData)
}

func (s cosmosSigner) signTransaction(key *privateKey, _ string, tx Transaction) (*SignedTransaction, error) {
	if len(tx.Raw) == 0 {
		return nil, fmt.Errorf("%w: missing cosmos sign doc", ErrInvalidTransaction)
	}
	sig, err := s.signMessage(key, tx.Raw)
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{Family: Cosmos, Signature: sig}, nil
}

// utxoSigner covers the bitcoin family. Message and typed data signing have
// no standard here; PSBT signing is not implemented yet.
type utxoSigner struct{}

func (utxoSigner) supports(kind signKind) error {
	switch kind {
	case kindMessage, kindTypedData:
		return fmt.Errorf("%w: %s", ErrUnsupportedForFamily, Bitcoin)
	}
	return fmt.Errorf("%w: psbt signing", ErrNotImplemented)
}

func (s utxoSigner) signMessage(*privateKey, []byte) ([]byte, error) {
	return nil, s.supports(kindMessage)
}

func (s utxoSigner) signTypedData(*privateKey, apitypes.TypedData) ([]byte, error) {
	return nil, s.supports(kindTypedData)
}

func (s utxoSigner) signTransaction(*privateKey, string, Transaction) (*SignedTransaction, error) {
	return nil, s.supports(kindTransaction)
}

// signingAddressMatches reports whether the derived key reproduces address
// under the family's normalization.
func signingAddressMatches(desc familyDescriptor, n Network, key *privateKey, address string) (bool, error) {
	derived, err := desc.address(n, key.public())
	if err != nil {
		return false, err
	}
	return desc.normalize(derived) == desc.normalize(address), nil
}
