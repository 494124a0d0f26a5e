package invreq

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightninglabs/lnoffer/offerbook"
	"github.com/lightninglabs/lnoffer/payerkey"
	"github.com/lightninglabs/lnoffer/record"
	"github.com/lightninglabs/lnoffer/sig"
	"github.com/stretchr/testify/require"
)

// fakeSigner stands in for the wallet-side signing backend: it holds the
// payer base private key and, for recurrence_signature, applies the same
// scalar tweak payerkey.Deriver applies to the public key, so the
// signature verifies against the payer_key the builder derived.
type fakeSigner struct {
	basePriv *btcec.PrivateKey
	calls    int
}

func (s *fakeSigner) SignBolt12(messageName, fieldName string, merkleRoot [32]byte,
	payerInfo []byte) ([64]byte, error) {

	s.calls++

	if payerInfo == nil {
		return sig.Sign(messageName, fieldName, merkleRoot, s.basePriv)
	}

	t := payerkey.SigningInput(s.basePriv.PubKey(), payerInfo)
	var tScalar btcec.ModNScalar
	tScalar.SetBytes(&t)

	var dScalar btcec.ModNScalar
	dScalar.Set(&s.basePriv.Key)
	dScalar.Add(&tScalar)

	keyBytes := dScalar.Bytes()
	payerPriv, _ := btcec.PrivKeyFromBytes(keyBytes[:])

	return sig.Sign(messageName, fieldName, merkleRoot, payerPriv)
}

type fakeWallet struct {
	offerbook.Wallet
	payments []offerbook.Payment
}

func (w *fakeWallet) ListPaymentsByLabel(label string) ([]offerbook.Payment, error) {
	return w.payments, nil
}

// newBuilder returns a Builder and the fakeSigner sharing its deriver's
// base pubkey, so recurrence_signature verification succeeds exactly as it
// would against a real wallet signing backend.
func newBuilder(t *testing.T, wallet offerbook.Wallet) (*Builder, *fakeSigner) {
	basePriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	deriver := payerkey.NewDeriver(basePriv.PubKey())
	signer := &fakeSigner{basePriv: basePriv}
	var chain [32]byte
	return NewBuilder(wallet, signer, deriver, nil, chain, []byte{0x01}), signer
}

func TestBuildRequiresAmountWhenOfferOmitsIt(t *testing.T) {
	offer := &record.Offer{Description: "x"}
	b, _ := newBuilder(t, &fakeWallet{})

	_, err := b.Build(offer, Params{})
	require.ErrorIs(t, err, ErrAmountRequired)
}

func TestBuildRejectsAmountWhenOfferFixesIt(t *testing.T) {
	amt := uint64(500)
	offer := &record.Offer{Description: "x", Amount: &amt}
	b, _ := newBuilder(t, &fakeWallet{})

	userAmt := uint64(600)
	_, err := b.Build(offer, Params{AmountMsat: &userAmt})
	require.ErrorIs(t, err, ErrAmountForbidden)
}

func TestBuildSucceedsWithFixedAmount(t *testing.T) {
	amt := uint64(500)
	offer := &record.Offer{Description: "x", Amount: &amt}
	b, _ := newBuilder(t, &fakeWallet{})

	req, err := b.Build(offer, Params{})
	require.NoError(t, err)
	require.Nil(t, req.Amount)
	require.NotEqual(t, [32]byte{}, req.PayerKey)
}

func TestBuildQuantityRange(t *testing.T) {
	min := uint64(2)
	max := uint64(10)
	amt := uint64(500)
	offer := &record.Offer{Description: "x", Amount: &amt, QuantityMin: &min, QuantityMax: &max}
	b, _ := newBuilder(t, &fakeWallet{})

	_, err := b.Build(offer, Params{})
	require.ErrorIs(t, err, ErrQuantityRequired)

	tooLow := uint64(1)
	_, err = b.Build(offer, Params{Quantity: &tooLow})
	require.ErrorIs(t, err, ErrQuantityOutOfRange)

	ok := uint64(5)
	req, err := b.Build(offer, Params{Quantity: &ok})
	require.NoError(t, err)
	require.Equal(t, ok, *req.Quantity)
}

func TestBuildRecurrenceRequiresSignatureAndFields(t *testing.T) {
	amt := uint64(500)
	offer := &record.Offer{
		Description: "x",
		Amount:      &amt,
		Recurrence:  &record.Recurrence{PeriodKind: record.PeriodMonths, PeriodCount: 1},
	}
	b, signer := newBuilder(t, &fakeWallet{})

	_, err := b.Build(offer, Params{})
	require.ErrorIs(t, err, ErrRecurrenceFieldsRequired)

	counter := uint32(0)
	req, err := b.Build(offer, Params{RecurrenceCounter: &counter, RecurrenceLabel: "sub1"})
	require.NoError(t, err)
	require.NotNil(t, req.RecurrenceSignature)
	require.Equal(t, 1, signer.calls)

	ok, err := sig.Verify("invoice_request", "recurrence_signature", req.Merkle(),
		*req.RecurrenceSignature, req.PayerKey)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBuildRecurrenceContinuityReusesPayerInfo(t *testing.T) {
	amt := uint64(500)
	offer := &record.Offer{
		Description: "x",
		Amount:      &amt,
		Recurrence:  &record.Recurrence{PeriodKind: record.PeriodMonths, PeriodCount: 1},
	}

	priorInfo := []byte("0123456789abcdef")
	wallet := &fakeWallet{payments: []offerbook.Payment{
		{OfferID: offer.Merkle(), Label: "sub1", RecurrenceCounter: 0, PayerInfo: priorInfo, PaidAt: 100},
	}}

	b, _ := newBuilder(t, wallet)

	counter := uint32(1)
	req, err := b.Build(offer, Params{RecurrenceCounter: &counter, RecurrenceLabel: "sub1"})
	require.NoError(t, err)
	require.Equal(t, priorInfo, req.PayerInfo)
}

func TestBuildRecurrenceFailsWithoutPriorPayment(t *testing.T) {
	amt := uint64(500)
	offer := &record.Offer{
		Description: "x",
		Amount:      &amt,
		Recurrence:  &record.Recurrence{PeriodKind: record.PeriodMonths, PeriodCount: 1},
	}
	b, _ := newBuilder(t, &fakeWallet{})

	counter := uint32(1)
	_, err := b.Build(offer, Params{RecurrenceCounter: &counter, RecurrenceLabel: "sub1"})
	require.ErrorIs(t, err, ErrNoPriorPayment)
}
