// Package invreq implements the request builder: turns an offer plus
// user-supplied parameters into a signed InvoiceRequest, enforcing every
// BOLT-12 MUST rule around amount, quantity, recurrence, chain, and
// feature fields.
package invreq

import (
	"crypto/rand"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightninglabs/lnoffer/offerbook"
	"github.com/lightninglabs/lnoffer/payerkey"
	"github.com/lightninglabs/lnoffer/record"
	"github.com/lightninglabs/lnoffer/sig"
)

// DefaultQuantityMin is the implicit lower bound on quantity when an offer
// sets quantity_max but not quantity_min, defaulting to 1.
const DefaultQuantityMin = uint64(1)

// NoQuantityMax is the sentinel meaning "no upper bound" when an offer sets
// quantity_min but not quantity_max.
const NoQuantityMax = ^uint64(0)

// payerInfoLen mirrors payerkey.payerInfoLen; kept local since that
// constant is unexported.
const payerInfoLen = 16

// Params are the user-supplied parameters for build, corresponding to the
// optional arguments of the fetch_invoice/create_invoice_request
// user-visible surface.
type Params struct {
	AmountMsat        *uint64
	Quantity          *uint64
	RecurrenceCounter *uint32
	RecurrenceStart   *uint32
	RecurrenceLabel   string
	PayerNote         string
}

// Builder constructs InvoiceRequests from offers and user parameters.
type Builder struct {
	wallet offerbook.Wallet
	signer Signer
	deriver *payerkey.Deriver
	clock  clock.Clock
	chain  [32]byte
	features []byte
}

// NewBuilder returns a Builder. chain is this node's preferred chain hash:
// if it isn't bitcoin mainnet, Build sets chains = [chain_hash]; features
// are our_feature_bits.
func NewBuilder(wallet offerbook.Wallet, signer Signer, deriver *payerkey.Deriver,
	clk clock.Clock, chain [32]byte, features []byte) *Builder {

	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &Builder{
		wallet:   wallet,
		signer:   signer,
		deriver:  deriver,
		clock:    clk,
		chain:    chain,
		features: features,
	}
}

// Build constructs a signed InvoiceRequest from offer and params, enforcing
// every BOLT-12 rule governing amount, quantity, recurrence, and chain
// fields.
func (b *Builder) Build(offer *record.Offer, params Params) (*record.InvoiceRequest, error) {
	if err := offerbook.RejectSendInvoice(offer); err != nil {
		return nil, err
	}

	if offer.AbsoluteExpiry != nil {
		now := uint64(b.clock.Now().Unix())
		if now > *offer.AbsoluteExpiry {
			return nil, ErrOfferExpired
		}
	}

	req := &record.InvoiceRequest{
		NodeID:              offer.NodeID,
		Description:         offer.Description,
		Features:            b.features,
		Currency:            offer.Currency,
		Vendor:              offer.Vendor,
		QuantityMin:         offer.QuantityMin,
		QuantityMax:         offer.QuantityMax,
		Recurrence:          offer.Recurrence,
		RecurrenceBase:      offer.RecurrenceBase,
		RecurrencePaywindow: offer.RecurrencePaywindow,
		RecurrenceLimit:     offer.RecurrenceLimit,
		AbsoluteExpiry:      offer.AbsoluteExpiry,
		SendInvoice:         offer.SendInvoice,
		PayerNote:           params.PayerNote,
		OfferID:             offer.Merkle(),
	}

	if err := b.applyAmount(offer, params, req); err != nil {
		return nil, err
	}
	if err := b.applyQuantity(offer, params, req); err != nil {
		return nil, err
	}

	var payerInfo []byte
	if err := b.applyRecurrence(offer, params, req, &payerInfo); err != nil {
		return nil, err
	}

	if !isBitcoinMainnet(b.chain) {
		req.Chains = [][32]byte{b.chain}
	}

	if err := b.applyPayerKey(req, &payerInfo); err != nil {
		return nil, err
	}

	if offer.Recurrence != nil {
		root := req.Merkle()
		sigOut, err := b.signer.SignBolt12("invoice_request",
			"recurrence_signature", root, payerInfo)
		if err != nil {
			return nil, err
		}

		// Verify the signer's output against the payer_key we just
		// derived before it ever leaves the builder, so a
		// misbehaving or misconfigured signer can't produce an
		// InvoiceRequest that fails verification on the wire instead
		// of here.
		ok, err := sig.Verify("invoice_request", "recurrence_signature",
			root, sigOut, req.PayerKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBadRecurrenceSignature
		}

		req.RecurrenceSignature = &sigOut
	}

	return req, nil
}

func (b *Builder) applyAmount(offer *record.Offer, params Params, req *record.InvoiceRequest) error {
	if offer.Amount == nil {
		if params.AmountMsat == nil {
			return ErrAmountRequired
		}
		req.Amount = params.AmountMsat
		return nil
	}

	if params.AmountMsat != nil {
		return ErrAmountForbidden
	}
	return nil
}

func (b *Builder) applyQuantity(offer *record.Offer, params Params, req *record.InvoiceRequest) error {
	hasRange := offer.QuantityMin != nil || offer.QuantityMax != nil
	if !hasRange {
		if params.Quantity != nil {
			return ErrQuantityForbidden
		}
		return nil
	}

	if params.Quantity == nil {
		return ErrQuantityRequired
	}

	min := DefaultQuantityMin
	if offer.QuantityMin != nil {
		min = *offer.QuantityMin
	}
	max := NoQuantityMax
	if offer.QuantityMax != nil {
		max = *offer.QuantityMax
	}

	q := *params.Quantity
	if q < min || q > max {
		return ErrQuantityOutOfRange
	}

	req.Quantity = params.Quantity
	return nil
}

// applyRecurrence enforces recurrence field-consistency and
// prior-payment-continuity rules, and decides whether payer_info is reused
// from a prior payment or freshly minted.
func (b *Builder) applyRecurrence(offer *record.Offer, params Params,
	req *record.InvoiceRequest, payerInfo *[]byte) error {

	if offer.Recurrence == nil {
		if params.RecurrenceCounter != nil || params.RecurrenceLabel != "" ||
			params.RecurrenceStart != nil {
			return ErrRecurrenceFieldsForbidden
		}
		return nil
	}

	if params.RecurrenceCounter == nil || params.RecurrenceLabel == "" {
		return ErrRecurrenceFieldsRequired
	}

	startAnyPeriod := offer.RecurrenceBase != nil && offer.RecurrenceBase.StartAnyPeriod != 0
	if startAnyPeriod && params.RecurrenceStart == nil {
		return ErrRecurrenceStartRequired
	}
	if !startAnyPeriod && params.RecurrenceStart != nil {
		return ErrRecurrenceStartForbidden
	}

	req.RecurrenceCounter = params.RecurrenceCounter
	req.RecurrenceStart = params.RecurrenceStart

	counter := *params.RecurrenceCounter
	offerID := offer.Merkle()

	if counter == 0 {
		found, err := b.priorPaymentPayerInfo(params.RecurrenceLabel, offerID, 0)
		if err != nil && err != ErrNoPriorPayment {
			return err
		}
		if found != nil {
			*payerInfo = found
			return nil
		}

		fresh := make([]byte, payerInfoLen)
		if _, err := rand.Read(fresh); err != nil {
			return err
		}
		*payerInfo = fresh
		return nil
	}

	found, err := b.priorPaymentPayerInfo(params.RecurrenceLabel, offerID, counter-1)
	if err != nil {
		return err
	}
	*payerInfo = found
	return nil
}

// priorPaymentPayerInfo finds the payer_info of a complete prior payment at
// the given counter under label and offerID. A recurrence label is only
// scoped to a single offer; matching on label alone would let two
// different offers that happen to reuse the same label splice in each
// other's payer_info, so offerID must match too.
func (b *Builder) priorPaymentPayerInfo(label string, offerID [32]byte, counter uint32) ([]byte, error) {
	payments, err := b.wallet.ListPaymentsByLabel(label)
	if err != nil {
		return nil, err
	}

	if len(payments) == 0 {
		return nil, ErrNoPriorPayment
	}

	var sawOffer bool
	for _, p := range payments {
		if p.OfferID != offerID {
			continue
		}
		sawOffer = true
		if p.RecurrenceCounter == counter {
			return p.PayerInfo, nil
		}
	}

	if !sawOffer {
		return nil, ErrNoPriorPayment
	}
	return nil, ErrPriorNotPaid
}

// applyPayerKey derives the payer_key for req, reusing payerInfo if the
// recurrence path already selected one (continuity), or deriving a fresh
// key/payer_info pair otherwise.
func (b *Builder) applyPayerKey(req *record.InvoiceRequest, payerInfo *[]byte) error {
	if *payerInfo != nil {
		derived, err := b.deriver.DeriveFrom(*payerInfo)
		if err != nil {
			return err
		}
		req.PayerKey = derived
		req.PayerInfo = *payerInfo
		return nil
	}

	derived, err := b.deriver.Derive()
	if err != nil {
		return err
	}
	req.PayerKey = derived.PayerKey
	req.PayerInfo = derived.PayerInfo[:]
	*payerInfo = derived.PayerInfo[:]
	return nil
}

// bitcoinMainnetGenesis is the chain hash representing bitcoin mainnet, the
// implicit default chain an offer need not list explicitly.
var bitcoinMainnetGenesis [32]byte

func isBitcoinMainnet(chain [32]byte) bool {
	return chain == bitcoinMainnetGenesis
}
