package record

// Kind identifies which of the three BOLT-12 TLV streams a set of fields
// belongs to. The same field type number means the same thing across all
// three kinds; Kind only changes which subset is legal and which prefix
// byte feeds the merkle nonce derivation (see merkle.go).
type Kind uint8

const (
	KindOffer Kind = iota
	KindInvoiceRequest
	KindInvoice
	KindInvoiceError
)

func (k Kind) String() string {
	switch k {
	case KindOffer:
		return "offer"
	case KindInvoiceRequest:
		return "invoice_request"
	case KindInvoice:
		return "invoice"
	case KindInvoiceError:
		return "invoice_error"
	default:
		return "unknown"
	}
}

// HRP is the bech32 human-readable prefix used when a kind is encoded as a
// BOLT-12 string.
func (k Kind) HRP() string {
	switch k {
	case KindOffer:
		return "lno"
	case KindInvoiceRequest:
		return "lnr"
	case KindInvoice:
		return "lni"
	default:
		return ""
	}
}

// PeriodKind enumerates the unit an offer's recurrence is denominated in.
type PeriodKind uint8

const (
	PeriodSeconds PeriodKind = iota
	PeriodDays
	PeriodMonths
	PeriodYears
)

// Recurrence describes how often a recurring offer may be paid.
type Recurrence struct {
	PeriodKind  PeriodKind
	PeriodCount uint32
}

// RecurrenceBase anchors the first period of a recurring offer.
type RecurrenceBase struct {
	StartAnyPeriod uint8
	Basetime       uint64
}

// RecurrencePaywindow bounds how early/late a given period may be paid,
// relative to that period's start time.
type RecurrencePaywindow struct {
	Before             uint32
	After              uint32
	ProportionalAmount uint8
}

// Offer is the merchant-signed, immutable payment solicitation a bolt12
// "lno1" string encodes. Optional pointer/slice fields are nil when absent
// from the wire encoding.
type Offer struct {
	NodeID               [32]byte
	Description          string
	Chains               [][32]byte
	Features             []byte
	Amount               *uint64
	Currency             string
	Vendor               string
	QuantityMin          *uint64
	QuantityMax          *uint64
	Recurrence           *Recurrence
	RecurrenceBase       *RecurrenceBase
	RecurrencePaywindow  *RecurrencePaywindow
	RecurrenceLimit      *uint32
	AbsoluteExpiry       *uint64
	SendInvoice          bool
	Signature            [64]byte

	// unknownOdd carries any odd-typed TLV fields this decoder did not
	// recognize, so they round-trip through encode/merkle unchanged.
	unknownOdd []rawField
}

// InvoiceRequest is the payer-originated message binding an Offer to one
// payment instance.
type InvoiceRequest struct {
	// Fields copied verbatim from the originating offer's payload.
	NodeID              [32]byte
	Description         string
	Chains              [][32]byte
	Features            []byte
	Amount              *uint64
	Currency            string
	Vendor              string
	QuantityMin         *uint64
	QuantityMax         *uint64
	Recurrence          *Recurrence
	RecurrenceBase      *RecurrenceBase
	RecurrencePaywindow *RecurrencePaywindow
	RecurrenceLimit     *uint32
	AbsoluteExpiry      *uint64
	SendInvoice         bool

	// Fields specific to the request.
	OfferID            [32]byte
	Quantity           *uint64
	RecurrenceCounter  *uint32
	RecurrenceStart    *uint32
	PayerKey           [32]byte
	PayerInfo          []byte
	PayerNote          string
	RecurrenceSignature *[64]byte

	unknownOdd []rawField
}

// Invoice is the merchant's reply, a superset of the request plus final
// payment terms.
type Invoice struct {
	// Fields restated from the offer.
	NodeID              [32]byte
	Description         string
	Chains              [][32]byte
	Features            []byte
	Amount              *uint64
	Currency            string
	Vendor              string
	QuantityMin         *uint64
	QuantityMax         *uint64
	Recurrence          *Recurrence
	RecurrenceBase      *RecurrenceBase
	RecurrencePaywindow *RecurrencePaywindow
	RecurrenceLimit     *uint32
	AbsoluteExpiry      *uint64
	SendInvoice         bool

	// Fields restated from the invoice_request.
	OfferID           [32]byte
	Quantity          *uint64
	RecurrenceCounter *uint32
	RecurrenceStart   *uint32
	PayerKey          [32]byte
	PayerInfo         []byte
	PayerNote         string

	// Fields unique to the invoice.
	InvoiceAmount       uint64
	CreatedAt           uint64
	RelativeExpiry      *uint32
	PaymentHash         [32]byte
	MinFinalCLTVExpiry  *uint64
	Fallbacks           [][]byte
	BlindedPaths        [][]byte
	RecurrenceBasetime  *uint64
	Signature           [64]byte

	unknownOdd []rawField
}

// InvoiceError is the reply a merchant (or anything along the blinded path)
// sends back instead of an Invoice when the request could not be honored.
type InvoiceError struct {
	ErroneousField *uint64
	SuggestedValue []byte
	ErrorText      string
}
