// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

package seedloop

// Keyring types recorded in serialized keyrings.
const (
	KeyringTypeBIP32  = "bip32"
	KeyringTypeSLIP10 = "slip10"
)

// familyDescriptor is everything that varies between network families.
type familyDescriptor struct {
	// accountBased families share one keyring for every network in the
	// family. Others get one keyring per ticker.
	accountBased bool
	curve        Curve
	keyringType  string
	address      func(n Network, pub publicKey) (string, error)
	normalize    func(address string) string
	signer       signer
}

var families = map[Family]familyDescriptor{
	EVM: {
		accountBased: true,
		curve:        Secp256k1,
		keyringType:  KeyringTypeBIP32,
		address:      evmAddress,
		normalize:    normalizeHexAddress,
		signer:       evmSigner{},
	},
	Bitcoin: {
		curve:       Secp256k1,
		keyringType: KeyringTypeBIP32,
		address:     bitcoinAddress,
		normalize:   normalizeVerbatim,
		signer:      utxoSigner{},
	},
	Solana: {
		accountBased: true,
		curve:        Ed25519,
		keyringType:  KeyringTypeSLIP10,
		address:      solanaAddress,
		normalize:    normalizeVerbatim,
		signer:       ed25519Signer{family: Solana},
	},
	Near: {
		accountBased: true,
		curve:        Ed25519,
		keyringType:  KeyringTypeSLIP10,
		address:      nearAddress,
		normalize:    normalizeLower,
		signer:       ed25519Signer{family: Near},
	},
	Cosmos: {
		accountBased: true,
		curve:        Secp256k1,
		keyringType:  KeyringTypeBIP32,
		address:      cosmosAddress,
		normalize:    normalizeLower,
		signer:       cosmosSigner{},
	},
}

// familyKey is the keyring slot a network routes to. Every network of an
// account based family shares a slot; other networks get their own.
func familyKey(n Network) string {
	if families[n.Family].accountBased {
		return "family:" + n.Family.String()
	}
	return n.Ticker
}

// keyringBasePath is the root every keyring for n is derived below. EVM
// keyrings always use the shared EVM path so that addresses coincide across
// EVM chains.
func keyringBasePath(n Network) (DerivationPath, error) {
	if n.Family == EVM {
		return ParseDerivationPath(EVMBasePath)
	}
	return ParseDerivationPath(n.BasePath)
}
