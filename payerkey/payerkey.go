// Package payerkey derives the per-invoice_request payer key.
//
// A process-scoped base pubkey P_base is tweaked by a fresh 16-byte random
// payer_info on every call: t = SHA256(P_base || payer_info),
// P_payer = xonly(P_base + t*G). The core only ever handles public points;
// the matching scalar-side tweak (priv + t mod N) is the signer's job, so a
// payer_info value is the only thing that needs to cross that boundary.
//
// The point-addition arithmetic mirrors lnd's deriveRevocationPubkey in
// lnwallet/script_utils.go, ported from the legacy big.Int curve API to
// btcec/v2's constant-time Jacobian-point primitives.
package payerkey

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// payerInfoLen is the width of the random tweak-info blob.
const payerInfoLen = 16

// maxAttempts bounds the regenerate-on-InvalidTweak loop. The failure
// probability per attempt is ~2^-128, so this is a belt-and-suspenders cap,
// never expected to be exhausted.
const maxAttempts = 4

// ErrInvalidTweak is returned when a tweak produces the point at infinity,
// or a scalar that overflows the curve order. Derive retries with a fresh
// payer_info rather than surfacing this to the caller.
var ErrInvalidTweak = fmt.Errorf("invalid tweak: resulting point at infinity")

// Deriver derives payer keys against a single process-scoped base pubkey.
type Deriver struct {
	base *btcec.PublicKey
}

// NewDeriver returns a Deriver for the given base pubkey, loaded once per
// process.
func NewDeriver(base *btcec.PublicKey) *Deriver {
	return &Deriver{base: base}
}

// Derived is the public result of a derivation: the X-only payer key to put
// in invoice_request.payer_key, and the payer_info that must accompany any
// signing request so the signer can reconstruct the matching scalar tweak.
type Derived struct {
	PayerKey  [32]byte
	PayerInfo [payerInfoLen]byte
}

// Derive picks a fresh random payer_info and computes the matching X-only
// payer key, retrying on InvalidTweak.
func (d *Deriver) Derive() (*Derived, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var info [payerInfoLen]byte
		if _, err := rand.Read(info[:]); err != nil {
			return nil, err
		}

		xonly, err := d.tweak(info[:])
		switch {
		case err == nil:
			return &Derived{PayerKey: xonly, PayerInfo: info}, nil
		case err == ErrInvalidTweak:
			log.Debugf("payer key tweak landed at infinity, retrying "+
				"(attempt %d)", attempt+1)
			continue
		default:
			return nil, err
		}
	}

	return nil, ErrInvalidTweak
}

// DeriveFrom recomputes the X-only payer key for a previously-used
// payer_info, so a recurring payment can reuse its payer_info verbatim.
func (d *Deriver) DeriveFrom(payerInfo []byte) ([32]byte, error) {
	return d.tweak(payerInfo)
}

// SigningInput computes what the signer needs to reproduce the scalar-side
// tweak t = SHA256(P_base || payer_info) for a given payer_info, without
// ever touching the base private key itself.
func SigningInput(base *btcec.PublicKey, payerInfo []byte) [32]byte {
	return tweakScalarBytes(base, payerInfo)
}

// tweak computes P_base + t*G for t = SHA256(P_base || payerInfo), returning
// its X-only serialization, or ErrInvalidTweak if the sum is the point at
// infinity or t overflows the group order.
func (d *Deriver) tweak(payerInfo []byte) ([32]byte, error) {
	tBytes := tweakScalarBytes(d.base, payerInfo)

	var tScalar btcec.ModNScalar
	overflow := tScalar.SetBytes(&tBytes)
	if overflow != 0 {
		return [32]byte{}, ErrInvalidTweak
	}

	var tweakPoint btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&tScalar, &tweakPoint)

	var basePoint btcec.JacobianPoint
	d.base.AsJacobian(&basePoint)

	var sumPoint btcec.JacobianPoint
	btcec.AddNonConst(&basePoint, &tweakPoint, &sumPoint)
	sumPoint.ToAffine()

	if sumPoint.X.IsZero() && sumPoint.Y.IsZero() {
		return [32]byte{}, ErrInvalidTweak
	}

	var xonly [32]byte
	sumPoint.X.PutBytesUnchecked(xonly[:])
	return xonly, nil
}

// tweakScalarBytes computes SHA256(base || payerInfo), the scalar t shared
// by both the pubkey-side and privkey-side halves of the tweak.
func tweakScalarBytes(base *btcec.PublicKey, payerInfo []byte) [32]byte {
	h := sha256.New()
	h.Write(base.SerializeCompressed())
	h.Write(payerInfo)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
