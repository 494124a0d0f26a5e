package fetchinvoice

import (
	"strings"

	"github.com/lightninglabs/lnoffer/record"
	"github.com/lightninglabs/lnoffer/sig"
)

// Changes is the authorization-confirm surface handed back to the caller
// alongside a validated invoice.
type Changes struct {
	Description         string
	DescriptionAppended string
	DescriptionRemoved  string
	Vendor               string
	VendorRemoved        bool
	Msat                 *uint64
}

// BuildInvoiceError encodes an invoice_error wire message naming the
// offending field, an optional suggested replacement value, and a
// human-readable text -- the construction-side counterpart of
// RemoteInvoiceError, which this engine decodes on the receiving end.
func BuildInvoiceError(field *uint64, suggestedValue []byte, text string) ([]byte, error) {
	return record.EncodeInvoiceError(&record.InvoiceError{
		ErroneousField: field,
		SuggestedValue: suggestedValue,
		ErrorText:      text,
	})
}

// validateInvoice runs the invoice's ordered field checks against the
// offer and invoice_request it answers, returning the first mismatch as a
// *BadInvoice.
func validateInvoice(offer *record.Offer, invreq *record.InvoiceRequest,
	inv *record.Invoice) error {

	if inv.NodeID != offer.NodeID {
		return &BadInvoice{Field: "node_id"}
	}

	ok, err := sig.Verify("invoice", "signature", inv.Merkle(), inv.Signature, inv.NodeID)
	if err != nil || !ok {
		return &BadInvoice{Field: "signature"}
	}

	// Presence is approximated as non-zero; a real invoice amount of
	// exactly zero is not a meaningful BOLT-12 invoice.
	if inv.InvoiceAmount == 0 {
		return &BadInvoice{Field: "amount"}
	}

	if inv.OfferID != invreq.OfferID {
		return &BadInvoice{Field: "offer_id"}
	}

	if !uint64PtrEqual(inv.Quantity, invreq.Quantity) {
		return &BadInvoice{Field: "quantity"}
	}
	if !uint32PtrEqual(inv.RecurrenceCounter, invreq.RecurrenceCounter) {
		return &BadInvoice{Field: "recurrence_counter"}
	}
	if !uint32PtrEqual(inv.RecurrenceStart, invreq.RecurrenceStart) {
		return &BadInvoice{Field: "recurrence_start"}
	}
	if inv.PayerKey != invreq.PayerKey {
		return &BadInvoice{Field: "payer_key"}
	}
	if string(inv.PayerInfo) != string(invreq.PayerInfo) {
		return &BadInvoice{Field: "payer_info"}
	}

	if invreq.RecurrenceCounter != nil && inv.RecurrenceBasetime == nil {
		return &BadInvoice{Field: "recurrence_basetime"}
	}

	return nil
}

// expectedAmount computes the expected_amount implied by the offer and the
// requested quantity, or nil if the offer leaves amount unconstrained
// (variable amount, or ISO-currency denominated). ok is false on u64
// overflow.
func expectedAmount(offer *record.Offer, quantity *uint64) (amount *uint64, ok bool) {
	if offer.Amount == nil || offer.Currency != "" {
		return nil, true
	}

	q := uint64(1)
	if quantity != nil && *quantity > q {
		q = *quantity
	}

	product := *offer.Amount * q
	if q != 0 && product/q != *offer.Amount {
		return nil, false
	}

	return &product, true
}

// computeChanges diffs the invoice against the originating offer.
func computeChanges(offer *record.Offer, invreq *record.InvoiceRequest,
	inv *record.Invoice) (*Changes, error) {

	changes := &Changes{}

	if inv.Description != offer.Description {
		switch {
		case strings.HasPrefix(inv.Description, offer.Description) &&
			len(inv.Description) > len(offer.Description):
			changes.DescriptionAppended = inv.Description[len(offer.Description):]
		case inv.Description == "":
			changes.DescriptionRemoved = offer.Description
		default:
			changes.Description = inv.Description
		}
	}

	if inv.Vendor != offer.Vendor {
		if inv.Vendor == "" {
			changes.VendorRemoved = true
		} else {
			changes.Vendor = inv.Vendor
		}
	}

	expected, ok := expectedAmount(offer, invreq.Quantity)
	if !ok {
		return nil, &BadInvoice{Field: "quantity overflow"}
	}

	if expected == nil || inv.InvoiceAmount != *expected {
		amt := inv.InvoiceAmount
		changes.Msat = &amt
	}

	return changes, nil
}

func uint64PtrEqual(a, b *uint64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func uint32PtrEqual(a, b *uint32) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
