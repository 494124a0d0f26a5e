package fetchinvoice

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/lightninglabs/lnoffer/invreq"
	"github.com/lightninglabs/lnoffer/offerbook"
	"github.com/lightninglabs/lnoffer/onionpath"
	"github.com/lightninglabs/lnoffer/payerkey"
	"github.com/lightninglabs/lnoffer/record"
	"github.com/lightninglabs/lnoffer/sig"
	"github.com/stretchr/testify/require"
)

// fakeGossip is a two-node network: self and dest, directly linked.
type fakeGossip struct {
	nodes map[[32]byte]*onionpath.Node
	edges []*onionpath.Edge
}

func newFakeGossip() *fakeGossip {
	return &fakeGossip{nodes: make(map[[32]byte]*onionpath.Node)}
}

func (g *fakeGossip) addNode(id [32]byte) {
	features := make([]byte, 8)
	features[onionpath.OnionMessagesFeatureBit/8] = 1 << (onionpath.OnionMessagesFeatureBit % 8)
	g.nodes[id] = &onionpath.Node{ID: id, Features: features}
}

func (g *fakeGossip) link(a, b [32]byte) {
	g.edges = append(g.edges,
		&onionpath.Edge{From: a, To: b, Enabled: true, Capacity: 100},
		&onionpath.Edge{From: b, To: a, Enabled: true, Capacity: 100},
	)
}

func (g *fakeGossip) Lookup(id [32]byte) (*onionpath.Node, error) { return g.nodes[id], nil }
func (g *fakeGossip) Edges() ([]*onionpath.Edge, error)           { return g.edges, nil }
func (g *fakeGossip) Refresh() error                              { return nil }

// fakeTransport records the onion message handed to it and signals sentCh
// so the test goroutine knows handleSend has run.
type fakeTransport struct {
	hops    []onionpath.Hop
	reply   onionpath.ReplyPath
	sentCh  chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sentCh: make(chan struct{}, 8)}
}

func (t *fakeTransport) SendOnionMessage(hops []onionpath.Hop, reply onionpath.ReplyPath) error {
	t.hops = hops
	t.reply = reply
	t.sentCh <- struct{}{}
	return nil
}

// fakeSigner mirrors a wallet signing backend: it holds the payer base
// private key and applies the same scalar tweak payerkey.Deriver applies
// to the public side, so recurrence_signature verifies against payer_key.
type fakeSigner struct {
	basePriv *btcec.PrivateKey
}

func (s *fakeSigner) SignBolt12(messageName, fieldName string, merkleRoot [32]byte,
	payerInfo []byte) ([64]byte, error) {

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

// fakeWallet supplies ListPaymentsByLabel only; the other Wallet methods
// are unused by the builder and left to the embedded nil interface.
type fakeWallet struct {
	offerbook.Wallet
	payments []offerbook.Payment
}

func (w *fakeWallet) ListPaymentsByLabel(label string) ([]offerbook.Payment, error) {
	return w.payments, nil
}

// testRig bundles everything FetchInvoice needs, wired with fakes.
type testRig struct {
	engine      *Engine
	destPriv    *btcec.PrivateKey
	destID      [32]byte
	transport   *fakeTransport
	testClock   *clock.TestClock
	forceTicker *ticker.Force
}

func xonlyID(priv *btcec.PrivateKey) [32]byte {
	var id [32]byte
	copy(id[:], schnorr.SerializePubKey(priv.PubKey()))
	return id
}

func newTestRig(t *testing.T, wallet offerbook.Wallet) *testRig {
	selfPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	destPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	selfID := xonlyID(selfPriv)
	destID := xonlyID(destPriv)

	gossip := newFakeGossip()
	gossip.addNode(selfID)
	gossip.addNode(destID)
	gossip.link(selfID, destID)

	transport := newFakeTransport()
	router := onionpath.NewRouter(gossip, transport, selfID)

	basePriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	deriver := payerkey.NewDeriver(basePriv.PubKey())
	signer := &fakeSigner{basePriv: basePriv}

	testClock := clock.NewTestClock(time.Unix(1_600_000_000, 0))
	manager := offerbook.NewManager(wallet, testClock)
	var chain [32]byte
	builder := invreq.NewBuilder(wallet, signer, deriver, testClock, chain, []byte{0x01})

	forceTicker := ticker.NewForce(time.Second)

	engine := NewEngine(Config{
		Manager: manager,
		Builder: builder,
		Router:  router,
		Clock:   testClock,
		Timeout: time.Minute,
		Ticker:  forceTicker,
	})
	engine.Start()
	t.Cleanup(engine.Stop)

	return &testRig{
		engine:      engine,
		destPriv:    destPriv,
		destID:      destID,
		transport:   transport,
		testClock:   testClock,
		forceTicker: forceTicker,
	}
}

// buildOfferString sets offer's node_id and signature under destPriv (in
// place) and returns the offer's bolt12 string.
func buildOfferString(t *testing.T, destPriv *btcec.PrivateKey, offer *record.Offer) string {
	offer.NodeID = xonlyID(destPriv)
	root := offer.Merkle()
	s, err := sig.Sign("offer", "signature", root, destPriv)
	require.NoError(t, err)
	offer.Signature = s

	data, err := record.EncodeOffer(offer)
	require.NoError(t, err)
	bolt12, err := record.EncodeBolt12String(record.KindOffer, data)
	require.NoError(t, err)
	return bolt12
}

// signedInvoiceFor decodes the invreq payload the transport captured,
// builds a matching invoice under destPriv, and signs it.
func signedInvoiceFor(t *testing.T, r *testRig, reqPayload []byte,
	mutate func(inv *record.Invoice)) *record.Invoice {

	req, err := record.DecodeInvoiceRequest(reqPayload)
	require.NoError(t, err)

	amount := uint64(1000)
	if req.Amount != nil {
		amount = *req.Amount
	}

	inv := &record.Invoice{
		NodeID:            req.NodeID,
		Description:       req.Description,
		Vendor:            req.Vendor,
		Chains:            req.Chains,
		Amount:            req.Amount,
		Currency:          req.Currency,
		QuantityMin:       req.QuantityMin,
		QuantityMax:       req.QuantityMax,
		Recurrence:        req.Recurrence,
		RecurrenceBase:    req.RecurrenceBase,
		OfferID:           req.OfferID,
		Quantity:          req.Quantity,
		RecurrenceCounter: req.RecurrenceCounter,
		RecurrenceStart:   req.RecurrenceStart,
		PayerKey:          req.PayerKey,
		PayerInfo:         req.PayerInfo,
		InvoiceAmount:     amount,
		CreatedAt:         uint64(r.testClock.Now().Unix()),
		PaymentHash:       [32]byte{0xaa},
	}

	if mutate != nil {
		mutate(inv)
	}

	root := inv.Merkle()
	s, err := sig.Sign("invoice", "signature", root, r.destPriv)
	require.NoError(t, err)
	inv.Signature = s

	return inv
}

// fetchAndReply drives a full FetchInvoice round trip: it starts the call
// in a goroutine, waits for the transport to capture the outgoing message,
// builds a reply invoice via buildInvoice, and delivers it back through
// OnOnionMessage.
func fetchAndReply(t *testing.T, r *testRig, offerString string, params invreq.Params,
	buildInvoice func(reqPayload []byte) (*record.Invoice, *record.InvoiceError)) (*Result, error) {

	type outcome struct {
		res *Result
		err error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		res, err := r.engine.FetchInvoice(offerString, params)
		resultCh <- outcome{res, err}
	}()

	select {
	case <-r.transport.sentCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outgoing onion message")
	}

	lastHop := r.transport.hops[len(r.transport.hops)-1]
	inv, invErr := buildInvoice(lastHop.Payload)

	r.engine.OnOnionMessage(InboundMessage{
		BlindingIn:   r.transport.reply.Blinding,
		Invoice:      inv,
		InvoiceError: invErr,
	})

	select {
	case out := <-resultCh:
		return out.res, out.err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for FetchInvoice to resolve")
		return nil, nil
	}
}

func TestFetchInvoiceFixedAmountHappyPath(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offerString := buildOfferString(t, r.destPriv, &record.Offer{
		Description: "coffee",
		Amount:      &amt,
	})

	res, err := fetchAndReply(t, r, offerString, invreq.Params{},
		func(payload []byte) (*record.Invoice, *record.InvoiceError) {
			return signedInvoiceFor(t, r, payload, nil), nil
		})

	require.NoError(t, err)
	require.NotNil(t, res.Invoice)
	require.Nil(t, res.Changes.Msat)
	require.Empty(t, res.Changes.Description)
	require.Nil(t, res.NextPeriod)
}

func TestFetchInvoiceAmountMismatchSurfacesChange(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offerString := buildOfferString(t, r.destPriv, &record.Offer{
		Description: "coffee",
		Amount:      &amt,
	})

	res, err := fetchAndReply(t, r, offerString, invreq.Params{},
		func(payload []byte) (*record.Invoice, *record.InvoiceError) {
			return signedInvoiceFor(t, r, payload, func(inv *record.Invoice) {
				inv.InvoiceAmount = 1500
			}), nil
		})

	require.NoError(t, err)
	require.NotNil(t, res.Changes.Msat)
	require.Equal(t, uint64(1500), *res.Changes.Msat)
}

func TestFetchInvoiceDescriptionAppended(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offerString := buildOfferString(t, r.destPriv, &record.Offer{
		Description: "coffee",
		Amount:      &amt,
	})

	res, err := fetchAndReply(t, r, offerString, invreq.Params{},
		func(payload []byte) (*record.Invoice, *record.InvoiceError) {
			return signedInvoiceFor(t, r, payload, func(inv *record.Invoice) {
				inv.Description = "coffee (decaf)"
			}), nil
		})

	require.NoError(t, err)
	require.Equal(t, " (decaf)", res.Changes.DescriptionAppended)
}

func TestFetchInvoiceBadSignatureRejected(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offerString := buildOfferString(t, r.destPriv, &record.Offer{
		Description: "coffee",
		Amount:      &amt,
	})

	_, err := fetchAndReply(t, r, offerString, invreq.Params{},
		func(payload []byte) (*record.Invoice, *record.InvoiceError) {
			inv := signedInvoiceFor(t, r, payload, nil)
			inv.Signature[0] ^= 0xff
			return inv, nil
		})

	var bad *BadInvoice
	require.ErrorAs(t, err, &bad)
	require.Equal(t, "signature", bad.Field)
}

func TestFetchInvoiceRemoteErrorSurfaced(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offerString := buildOfferString(t, r.destPriv, &record.Offer{
		Description: "coffee",
		Amount:      &amt,
	})

	field := uint64(1)
	_, err := fetchAndReply(t, r, offerString, invreq.Params{},
		func(payload []byte) (*record.Invoice, *record.InvoiceError) {
			return nil, &record.InvoiceError{
				ErroneousField: &field,
				ErrorText:      "unknown field",
			}
		})

	var remote *RemoteInvoiceError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "unknown field", remote.ErrorText)
}

func TestFetchInvoiceRecurrenceSecondPeriod(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offer := &record.Offer{
		Description: "sub",
		Amount:      &amt,
		Recurrence:  &record.Recurrence{PeriodKind: record.PeriodDays, PeriodCount: 30},
		RecurrenceBase: &record.RecurrenceBase{
			StartAnyPeriod: 0,
			Basetime:       1_600_000_000,
		},
	}
	offerString := buildOfferString(t, r.destPriv, offer)

	counter := uint32(0)
	basetime := uint64(1_600_000_000)

	res, err := fetchAndReply(t, r, offerString,
		invreq.Params{RecurrenceCounter: &counter, RecurrenceLabel: "sub"},
		func(payload []byte) (*record.Invoice, *record.InvoiceError) {
			return signedInvoiceFor(t, r, payload, func(inv *record.Invoice) {
				inv.RecurrenceBasetime = &basetime
			}), nil
		})

	require.NoError(t, err)
	require.NotNil(t, res.NextPeriod)
	require.Equal(t, uint32(1), res.NextPeriod.Counter)
	require.Equal(t, uint64(1_600_000_000+30*86400), res.NextPeriod.Starttime)
	require.Equal(t, uint64(1_600_000_000+60*86400-1), res.NextPeriod.Endtime)
}

func TestFetchInvoiceMissingPriorPaymentRejectedBeforeSend(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offer := &record.Offer{
		Description: "sub",
		Amount:      &amt,
		Recurrence:  &record.Recurrence{PeriodKind: record.PeriodDays, PeriodCount: 30},
		RecurrenceBase: &record.RecurrenceBase{
			StartAnyPeriod: 0,
			Basetime:       1_600_000_000,
		},
	}
	offerString := buildOfferString(t, r.destPriv, offer)

	counter := uint32(1)
	_, err := r.engine.FetchInvoice(offerString,
		invreq.Params{RecurrenceCounter: &counter, RecurrenceLabel: "sub"})
	require.ErrorIs(t, err, invreq.ErrNoPriorPayment)
	require.Nil(t, r.transport.hops)
}

func TestFetchInvoiceTimesOutOnDeadline(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offerString := buildOfferString(t, r.destPriv, &record.Offer{
		Description: "coffee",
		Amount:      &amt,
	})

	resultCh := make(chan error, 1)
	go func() {
		_, err := r.engine.FetchInvoice(offerString, invreq.Params{})
		resultCh <- err
	}()

	select {
	case <-r.transport.sentCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outgoing onion message")
	}

	r.testClock.SetTime(r.testClock.Now().Add(2 * time.Minute))
	r.forceTicker.Force <- r.testClock.Now()

	select {
	case err := <-resultCh:
		require.ErrorIs(t, err, ErrTimeout)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for FetchInvoice to resolve")
	}
}

func TestFetchInvoiceIgnoresUnknownReplyBlinding(t *testing.T) {
	r := newTestRig(t, &fakeWallet{})
	amt := uint64(1000)
	offerString := buildOfferString(t, r.destPriv, &record.Offer{
		Description: "coffee",
		Amount:      &amt,
	})

	type outcome struct {
		res *Result
		err error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		res, err := r.engine.FetchInvoice(offerString, invreq.Params{})
		resultCh <- outcome{res, err}
	}()

	select {
	case <-r.transport.sentCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outgoing onion message")
	}

	// An inbound message on an unrelated blinding is silently dropped;
	// the outstanding request is untouched.
	r.engine.OnOnionMessage(InboundMessage{
		BlindingIn: [32]byte{0x01, 0x02, 0x03},
		Invoice:    &record.Invoice{},
	})

	lastHop := r.transport.hops[len(r.transport.hops)-1]
	inv := signedInvoiceFor(t, r, lastHop.Payload, nil)
	r.engine.OnOnionMessage(InboundMessage{
		BlindingIn: r.transport.reply.Blinding,
		Invoice:    inv,
	})

	select {
	case out := <-resultCh:
		require.NoError(t, out.err)
		require.NotNil(t, out.res)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for FetchInvoice to resolve")
	}
}
