package offerbook

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightninglabs/lnoffer/record"
	"github.com/lightninglabs/lnoffer/sig"
	"github.com/stretchr/testify/require"
)

// memWallet is an in-memory Wallet for testing the manager in isolation
// from any real storage backend.
type memWallet struct {
	offers map[[32]byte]*OfferRecord
}

func newMemWallet() *memWallet {
	return &memWallet{offers: make(map[[32]byte]*OfferRecord)}
}

func (w *memWallet) CreateOffer(id [32]byte, bolt12, label string, status OfferStatus) error {
	if _, ok := w.offers[id]; ok {
		return ErrOfferAlreadyExists
	}
	w.offers[id] = &OfferRecord{OfferID: id, Bolt12: bolt12, Label: label, Status: status}
	return nil
}

func (w *memWallet) FindOffer(id [32]byte) (*OfferRecord, error) {
	rec, ok := w.offers[id]
	if !ok {
		return nil, ErrOfferNotFound
	}
	return rec, nil
}

func (w *memWallet) ListOffers() ([][32]byte, error) {
	ids := make([][32]byte, 0, len(w.offers))
	for id := range w.offers {
		ids = append(ids, id)
	}
	return ids, nil
}

func (w *memWallet) SetOfferStatus(id [32]byte, status OfferStatus) error {
	rec, ok := w.offers[id]
	if !ok {
		return ErrOfferNotFound
	}
	rec.Status = status
	return nil
}

func (w *memWallet) ListPaymentsByLabel(label string) ([]Payment, error) {
	return nil, nil
}

func signedOffer(t *testing.T, priv *btcec.PrivateKey, expiry *uint64) *record.Offer {
	var nodeID [32]byte
	copy(nodeID[:], priv.PubKey().SerializeCompressed()[1:])

	o := &record.Offer{
		NodeID:         nodeID,
		Description:    "coffee",
		AbsoluteExpiry: expiry,
	}
	root := o.Merkle()
	s, err := sig.Sign("offer", "signature", root, priv)
	require.NoError(t, err)
	o.Signature = s
	return o
}

func TestDecodeOfferRoundTrip(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	o := signedOffer(t, priv, nil)

	data, err := record.EncodeOffer(o)
	require.NoError(t, err)
	s, err := record.EncodeBolt12String(record.KindOffer, data)
	require.NoError(t, err)

	m := NewManager(newMemWallet(), nil)
	decoded, err := m.DecodeOffer(s)
	require.NoError(t, err)
	require.Equal(t, o.NodeID, decoded.NodeID)
}

func TestDecodeOfferRejectsBadSignature(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	o := signedOffer(t, priv, nil)
	o.Description = "tampered"

	data, err := record.EncodeOffer(o)
	require.NoError(t, err)
	s, err := record.EncodeBolt12String(record.KindOffer, data)
	require.NoError(t, err)

	m := NewManager(newMemWallet(), nil)
	_, err = m.DecodeOffer(s)
	require.ErrorIs(t, err, ErrOfferBadSignature)
}

func TestDecodeOfferRejectsExpired(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	past := uint64(100)
	o := signedOffer(t, priv, &past)

	data, err := record.EncodeOffer(o)
	require.NoError(t, err)
	s, err := record.EncodeBolt12String(record.KindOffer, data)
	require.NoError(t, err)

	testClock := clock.NewTestClock(time.Unix(1000, 0))
	m := NewManager(newMemWallet(), testClock)
	_, err = m.DecodeOffer(s)
	require.ErrorIs(t, err, ErrOfferExpired)
}

func TestDisableOfferLifecycle(t *testing.T) {
	wallet := newMemWallet()
	m := NewManager(wallet, nil)

	var id [32]byte
	id[0] = 1
	require.NoError(t, wallet.CreateOffer(id, "lno1...", "", StatusSingleUse))

	status, err := m.DisableOffer(id)
	require.NoError(t, err)
	require.Equal(t, StatusSingleDisabled, status)

	// Idempotent re-disable.
	status, err = m.DisableOffer(id)
	require.NoError(t, err)
	require.Equal(t, StatusSingleDisabled, status)
}

func TestDisableUsedSingleUseOfferFails(t *testing.T) {
	wallet := newMemWallet()
	m := NewManager(wallet, nil)

	var id [32]byte
	id[0] = 2
	require.NoError(t, wallet.CreateOffer(id, "lno1...", "", StatusSingleUse))
	require.NoError(t, m.MarkUsed(id))

	_, err := m.DisableOffer(id)
	require.ErrorIs(t, err, ErrOfferAlreadyDisabled)
}

func TestMarkUsedLeavesMultiUseOfferAlone(t *testing.T) {
	wallet := newMemWallet()
	m := NewManager(wallet, nil)

	var id [32]byte
	id[0] = 3
	require.NoError(t, wallet.CreateOffer(id, "lno1...", "", StatusMultiUse))
	require.NoError(t, m.MarkUsed(id))

	rec, err := wallet.FindOffer(id)
	require.NoError(t, err)
	require.Equal(t, StatusMultiUse, rec.Status)
}

func TestRejectSendInvoice(t *testing.T) {
	o := &record.Offer{SendInvoice: true}
	require.ErrorIs(t, RejectSendInvoice(o), ErrSendInvoiceOffer)
}
