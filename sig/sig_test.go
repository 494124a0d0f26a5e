package sig

import (
	"crypto/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var xonly [32]byte
	pub := priv.PubKey()
	copy(xonly[:], pub.SerializeCompressed()[1:])

	var root [32]byte
	_, err = rand.Read(root[:])
	require.NoError(t, err)

	s, err := Sign("offer", "signature", root, priv)
	require.NoError(t, err)

	ok, err := Verify("offer", "signature", root, s, xonly)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyFailsOnMutation(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var xonly [32]byte
	copy(xonly[:], priv.PubKey().SerializeCompressed()[1:])

	var root [32]byte
	root[0] = 1

	s, err := Sign("offer", "signature", root, priv)
	require.NoError(t, err)

	root[0] = 2
	ok, err := Verify("offer", "signature", root, s, xonly)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyFailsOnDifferentFieldName(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	var xonly [32]byte
	copy(xonly[:], priv.PubKey().SerializeCompressed()[1:])

	var root [32]byte
	root[0] = 7

	s, err := Sign("invoice_request", "recurrence_signature", root, priv)
	require.NoError(t, err)

	ok, err := Verify("invoice", "signature", root, s, xonly)
	require.NoError(t, err)
	require.False(t, ok)
}
