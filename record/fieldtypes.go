package record

import "github.com/lightningnetwork/lnd/tlv"

// Field type numbers for the shared BOLT-12 namespace. A field keeps the
// same type number no matter which of the three message kinds carries it,
// since the invoice restates offer and invoice_request fields verbatim and
// the merkle machinery in merkle.go and the signatures in package sig
// depend on that being true.
//
// All types below are even: an implementation that doesn't recognize one
// must reject the record as an UnknownEvenField. Odd extension types are
// never assigned here; they're preserved verbatim by decode as raw,
// unknown fields and folded back in on encode.
const (
	TypeChains              tlv.Type = 2
	TypeCurrency            tlv.Type = 4
	TypeAmount              tlv.Type = 6
	TypeDescription         tlv.Type = 8
	TypeFeatures            tlv.Type = 10
	TypeAbsoluteExpiry      tlv.Type = 12
	TypeSendInvoice         tlv.Type = 14
	TypeVendor              tlv.Type = 16
	TypeQuantityMin         tlv.Type = 18
	TypeQuantityMax         tlv.Type = 20
	TypeRecurrence          tlv.Type = 22
	TypeRecurrenceBase      tlv.Type = 24
	TypeRecurrencePaywindow tlv.Type = 26
	TypeRecurrenceLimit     tlv.Type = 28
	TypeNodeID              tlv.Type = 30

	TypeOfferID           tlv.Type = 32
	TypeQuantity          tlv.Type = 34
	TypeRecurrenceCounter tlv.Type = 36
	TypeRecurrenceStart   tlv.Type = 38
	TypePayerKey          tlv.Type = 40
	TypePayerInfo         tlv.Type = 42
	TypePayerNote         tlv.Type = 44

	TypeInvoiceAmount      tlv.Type = 46
	TypeCreatedAt          tlv.Type = 48
	TypeRelativeExpiry     tlv.Type = 50
	TypePaymentHash        tlv.Type = 52
	TypeMinFinalCLTV       tlv.Type = 54
	TypeFallbacks          tlv.Type = 56
	TypeBlindedPaths       tlv.Type = 58
	TypeRecurrenceBasetime tlv.Type = 60

	// Signature-bearing types. Any type >= 240 is excluded from the
	// merkle computation.
	TypeRecurrenceSignature tlv.Type = 240
	TypeSignature           tlv.Type = 242
)

// invoice_error has its own small, disjoint namespace since it's never
// merkleized or signed.
const (
	TypeErroneousField tlv.Type = 2
	TypeSuggestedValue tlv.Type = 4
	TypeErrorText      tlv.Type = 6
)

// isSignatureField reports whether typ is excluded from merkle leaves.
func isSignatureField(typ tlv.Type) bool {
	return typ >= 240
}
