package payerkey

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func TestDeriveProducesDistinctKeysPerCall(t *testing.T) {
	basePriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	d := NewDeriver(basePriv.PubKey())

	first, err := d.Derive()
	require.NoError(t, err)

	second, err := d.Derive()
	require.NoError(t, err)

	require.NotEqual(t, first.PayerInfo, second.PayerInfo)
	require.NotEqual(t, first.PayerKey, second.PayerKey)
}

func TestDeriveIsDeterministicGivenPayerInfo(t *testing.T) {
	basePriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	base := basePriv.PubKey()

	d := NewDeriver(base)
	derived, err := d.Derive()
	require.NoError(t, err)

	again, err := d.tweak(derived.PayerInfo[:])
	require.NoError(t, err)
	require.Equal(t, derived.PayerKey, again)
}

// TestSigningInputMatchesDeriverTweak checks that the standalone
// SigningInput helper (what a remote signer calls) computes the same scalar
// t the Deriver used internally, so a signer given only (base, payer_info)
// can reconstruct the same tweak without ever seeing the base private key.
func TestSigningInputMatchesDeriverTweak(t *testing.T) {
	basePriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	base := basePriv.PubKey()

	d := NewDeriver(base)
	derived, err := d.Derive()
	require.NoError(t, err)

	want := tweakScalarBytes(base, derived.PayerInfo[:])
	got := SigningInput(base, derived.PayerInfo[:])
	require.Equal(t, want, got)
}
