package invreq

// Signer is the external signing collaborator. It owns the node identity
// key and the payer-base key; the core only ever sees merkle roots and
// payer_info tweak bytes, never a secret scalar. Errors from a Signer are
// fatal at the core -- the signer is trusted, non-recoverable
// infrastructure.
type Signer interface {
	// SignBolt12 produces a 64-byte BIP-340 signature over
	// sig.SigHash(messageName, fieldName, merkleRoot). payerInfo is
	// non-nil only when signing an invoice_request's
	// recurrence_signature, where the signer must apply the matching
	// payer-key scalar tweak before signing.
	SignBolt12(messageName, fieldName string, merkleRoot [32]byte,
		payerInfo []byte) ([64]byte, error)
}
