package main

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightninglabs/lnoffer/payerkey"
	"github.com/lightninglabs/lnoffer/sig"
)

// localSigner is a reference invreq.Signer backed by a single in-memory
// node private key, for local/demo use (the embedding lnd node is expected
// to supply a signer backed by its own remote-signing setup in
// production).
//
// It owns both signer roles: signing offers/invoices directly under the
// node identity key, and signing invoice_request recurrence_signatures
// under the payer-base-key tweak payerkey.Deriver computes on the public
// side.
type localSigner struct {
	nodePriv *btcec.PrivateKey
}

// newLocalSigner builds a localSigner from a 32-byte raw private key.
func newLocalSigner(keyBytes []byte) *localSigner {
	priv, _ := btcec.PrivKeyFromBytes(keyBytes)
	return &localSigner{nodePriv: priv}
}

// NodePub returns the node identity public key this signer signs under.
func (s *localSigner) NodePub() *btcec.PublicKey {
	return s.nodePriv.PubKey()
}

// SignBolt12 implements invreq.Signer. When payerInfo is nil this signs
// directly under the node key (offer/invoice signatures); when set, it
// derives the payer private key by applying the same scalar tweak
// payerkey.Deriver.DeriveFrom applies on the public side, so the resulting
// signature verifies under the payer_key the builder derived.
func (s *localSigner) SignBolt12(messageName, fieldName string, merkleRoot [32]byte,
	payerInfo []byte) ([64]byte, error) {

	if payerInfo == nil {
		return sig.Sign(messageName, fieldName, merkleRoot, s.nodePriv)
	}

	payerPriv, err := s.tweakedPayerPriv(payerInfo)
	if err != nil {
		return [64]byte{}, err
	}

	return sig.Sign(messageName, fieldName, merkleRoot, payerPriv)
}

// tweakedPayerPriv computes priv_payer = nodePriv + SigningInput(nodePub,
// payerInfo) mod N, the private-side counterpart of payerkey.Deriver's
// public-key tweak.
func (s *localSigner) tweakedPayerPriv(payerInfo []byte) (*btcec.PrivateKey, error) {
	t := payerkey.SigningInput(s.nodePriv.PubKey(), payerInfo)

	var tScalar btcec.ModNScalar
	tScalar.SetBytes(&t)

	var dScalar btcec.ModNScalar
	dScalar.Set(&s.nodePriv.Key)
	dScalar.Add(&tScalar)

	keyBytes := dScalar.Bytes()
	priv, _ := btcec.PrivKeyFromBytes(keyBytes[:])

	return priv, nil
}
