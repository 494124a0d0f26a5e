// Package sig implements the BOLT-12 signature scheme: BIP-340 Schnorr
// signatures over a domain-separated, tagged-hash sighash computed from a
// message name, a field name, and a merkle root.
package sig

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// sigHashTagPrefix is the fixed portion of the BIP-340 tag: "lightning" and
// a NUL separator.
const sigHashTagPrefix = "lightning\x00"

// SigHash computes the BIP-340 tagged sighash that Sign and Verify operate
// over: tagged("lightning\0<messageName>\0<fieldName>", merkleRoot).
func SigHash(messageName, fieldName string, merkleRoot [32]byte) [32]byte {
	tag := sigHashTagPrefix + messageName + "\x00" + fieldName
	h := chainhash.TaggedHash(tag, merkleRoot[:])
	return *h
}

// Sign produces a 64-byte BIP-340 Schnorr signature over SigHash(...) under
// signingKey.
func Sign(messageName, fieldName string, merkleRoot [32]byte,
	signingKey *btcec.PrivateKey) ([64]byte, error) {

	hash := SigHash(messageName, fieldName, merkleRoot)

	sig, err := schnorr.Sign(signingKey, hash[:])
	if err != nil {
		return [64]byte{}, err
	}

	var out [64]byte
	copy(out[:], sig.Serialize())
	return out, nil
}

// Verify reports whether sig is a valid BIP-340 signature over
// SigHash(...) under the X-only pubkey pubKey. A record mutated after
// signing will have a different merkle root and therefore fail here.
func Verify(messageName, fieldName string, merkleRoot [32]byte, sig [64]byte,
	pubKey [32]byte) (bool, error) {

	parsedSig, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return false, err
	}

	parsedPub, err := schnorr.ParsePubKey(pubKey[:])
	if err != nil {
		return false, err
	}

	hash := SigHash(messageName, fieldName, merkleRoot)
	return parsedSig.Verify(hash[:], parsedPub), nil
}
