package walletdb

import (
	"path/filepath"
	"testing"

	"github.com/lightninglabs/lnoffer/offerbook"
	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "offers.db")
	backend, err := kvdb.Create(
		kvdb.BoltBackendName, path, true, kvdb.DefaultDBTimeout,
	)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	db, err := Open(backend)
	require.NoError(t, err)

	return db
}

func TestCreateFindOffer(t *testing.T) {
	db := openTestDB(t)

	id := [32]byte{0x01}
	err := db.CreateOffer(id, "lno1...", "coffee", offerbook.StatusSingleUse)
	require.NoError(t, err)

	rec, err := db.FindOffer(id)
	require.NoError(t, err)
	require.Equal(t, "lno1...", rec.Bolt12)
	require.Equal(t, "coffee", rec.Label)
	require.Equal(t, offerbook.StatusSingleUse, rec.Status)
}

func TestCreateOfferRejectsDuplicate(t *testing.T) {
	db := openTestDB(t)

	id := [32]byte{0x02}
	require.NoError(t, db.CreateOffer(id, "lno1...", "", offerbook.StatusMultiUse))

	err := db.CreateOffer(id, "lno1...", "", offerbook.StatusMultiUse)
	require.ErrorIs(t, err, offerbook.ErrOfferAlreadyExists)
}

func TestFindOfferNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.FindOffer([32]byte{0xff})
	require.ErrorIs(t, err, offerbook.ErrOfferNotFound)
}

func TestListOffers(t *testing.T) {
	db := openTestDB(t)

	ids := [][32]byte{{0x01}, {0x02}, {0x03}}
	for _, id := range ids {
		require.NoError(t, db.CreateOffer(id, "lno1...", "", offerbook.StatusSingleUse))
	}

	got, err := db.ListOffers()
	require.NoError(t, err)
	require.ElementsMatch(t, ids, got)
}

func TestSetOfferStatus(t *testing.T) {
	db := openTestDB(t)

	id := [32]byte{0x04}
	require.NoError(t, db.CreateOffer(id, "lno1...", "", offerbook.StatusSingleUse))
	require.NoError(t, db.SetOfferStatus(id, offerbook.StatusUsed))

	rec, err := db.FindOffer(id)
	require.NoError(t, err)
	require.Equal(t, offerbook.StatusUsed, rec.Status)
}

func TestSetOfferStatusNotFound(t *testing.T) {
	db := openTestDB(t)

	err := db.SetOfferStatus([32]byte{0xaa}, offerbook.StatusUsed)
	require.ErrorIs(t, err, offerbook.ErrOfferNotFound)
}

func TestRecordAndListPaymentsByLabel(t *testing.T) {
	db := openTestDB(t)

	label := "sub1"
	payments := []offerbook.Payment{
		{Label: label, RecurrenceCounter: 0, PayerInfo: []byte("payerinfo0"), PaidAt: 100},
		{Label: label, RecurrenceCounter: 1, PayerInfo: []byte("payerinfo1"), PaidAt: 200},
		{Label: label, RecurrenceCounter: 2, PayerInfo: []byte("payerinfo2"), PaidAt: 300},
	}
	for _, p := range payments {
		require.NoError(t, db.RecordPayment(label, p))
	}

	got, err := db.ListPaymentsByLabel(label)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// big-endian counter keys sort in counter order.
	for i, p := range got {
		require.Equal(t, payments[i].PaidAt, p.PaidAt)
		require.Equal(t, payments[i].PayerInfo, p.PayerInfo)
	}
}

func TestListPaymentsByLabelEmptyForUnknownLabel(t *testing.T) {
	db := openTestDB(t)

	got, err := db.ListPaymentsByLabel("nonexistent")
	require.NoError(t, err)
	require.Empty(t, got)
}
