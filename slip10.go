// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// slip10Curve is the HMAC key SLIP-0010 assigns to ed25519.
const slip10Curve = "ed25519 seed"

// slip10Node is an ed25519 node of a SLIP-0010 tree. Only hardened children
// exist for this curve.
type slip10Node struct {
	key       []byte
	chainCode []byte
}

// newSlip10Master computes the master node for seed.
func newSlip10Master(seed []byte) *slip10Node {
	mac := hmac.New(sha512.New, []byte(slip10Curve))
	_, _ = mac.Write(seed)
	sum := mac.Sum(nil)
	return &slip10Node{key: sum[:32], chainCode: sum[32:]}
}

// child derives the hardened child at index. index must carry the hardened
// offset.
func (n *slip10Node) child(index uint32) (*slip10Node, error) {
	if index < hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("%w: index %d", ErrNonHardenedEd25519, index)
	}

	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, n.key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, n.chainCode)
	_, _ = mac.Write(data)
	sum := mac.Sum(nil)
	wipe(data)

	return &slip10Node{key: sum[:32], chainCode: sum[32:]}, nil
}

// zero wipes the node's key and chain code.
func (n *slip10Node) zero() {
	wipe(n.key)
	wipe(n.chainCode)
}

// deriveSlip10 walks path from the master node of seed. Intermediate nodes
// are wiped as soon as their child exists.
func deriveSlip10(seed []byte, path DerivationPath) (*slip10Node, error) {
	node := newSlip10Master(seed)
	for _, index := range path {
		next, err := node.child(index)
		node.zero()
		if err != nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}
