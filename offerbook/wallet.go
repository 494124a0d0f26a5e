package offerbook

// OfferStatus is the lifecycle state of a persisted offer. Status
// transitions are enforced by Manager, never by the Wallet implementation
// itself.
type OfferStatus string

const (
	StatusSingleUse      OfferStatus = "single_use"
	StatusMultiUse       OfferStatus = "multi_use"
	StatusUsed           OfferStatus = "used"
	StatusSingleDisabled OfferStatus = "single_disabled"
	StatusMultiDisabled  OfferStatus = "multi_disabled"
)

// Disabled reports whether status is a terminal disabled state.
func (s OfferStatus) Disabled() bool {
	return s == StatusSingleDisabled || s == StatusMultiDisabled
}

// OfferRecord is the persisted view of an offer the wallet stores, as
// returned by list/find.
type OfferRecord struct {
	OfferID     [32]byte
	Bolt12      string
	Label       string
	Status      OfferStatus
}

// Payment is one row of the payment store, consulted by the request builder
// for recurrence continuity. OfferID disambiguates payment history across
// different offers that happen to share a recurrence label.
type Payment struct {
	OfferID           [32]byte
	Label             string
	RecurrenceCounter uint32
	PayerInfo         []byte
	PaidAt            uint64
}

// Wallet is the external persistence contract the offer manager and the
// request builder consume. The core never implements storage directly; a
// reference adapter lives in package walletdb, grounded on
// channeldb/graph.go's store-pass-through shape.
type Wallet interface {
	// CreateOffer persists a new offer under id. Returns ErrOfferAlreadyExists
	// if id is already stored.
	CreateOffer(id [32]byte, bolt12 string, label string, status OfferStatus) error

	// FindOffer returns the stored record for id, or ErrOfferNotFound.
	FindOffer(id [32]byte) (*OfferRecord, error)

	// ListOffers returns every persisted offer_id.
	ListOffers() ([][32]byte, error)

	// SetOfferStatus transitions id to status, persisting it.
	SetOfferStatus(id [32]byte, status OfferStatus) error

	// ListPaymentsByLabel returns every payment recorded for label, in the
	// order they were recorded in (oldest first), used to reconstruct
	// recurrence continuity.
	ListPaymentsByLabel(label string) ([]Payment, error)
}
