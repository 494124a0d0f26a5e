package offerbook

import "fmt"

// Sentinel errors for the offer manager, in the channeldb/error.go Err*
// style.
var (
	// ErrBadPrefix is returned when a bolt12 string doesn't begin with
	// the expected human-readable prefix for its kind.
	ErrBadPrefix = fmt.Errorf("unexpected bolt12 string prefix")

	// ErrOfferMissingNodeID is returned when an offer has no node_id set,
	// since an offer is not actionable without one.
	ErrOfferMissingNodeID = fmt.Errorf("offer missing node_id")

	// ErrOfferMissingDescription mirrors ErrOfferMissingNodeID for
	// description.
	ErrOfferMissingDescription = fmt.Errorf("offer missing description")

	// ErrOfferMissingSignature mirrors ErrOfferMissingNodeID for
	// signature.
	ErrOfferMissingSignature = fmt.Errorf("offer missing signature")

	// ErrOfferBadSignature is returned when the merchant signature fails
	// to verify against node_id.
	ErrOfferBadSignature = fmt.Errorf("offer signature does not verify")

	// ErrOfferExpired is OFFER_EXPIRED: absolute_expiry has passed.
	ErrOfferExpired = fmt.Errorf("offer has expired")

	// ErrOfferAlreadyExists is OFFER_ALREADY_EXISTS.
	ErrOfferAlreadyExists = fmt.Errorf("offer already exists")

	// ErrOfferNotFound is returned by FindOffer/disable/mark_used when
	// offer_id is unknown.
	ErrOfferNotFound = fmt.Errorf("offer not found")

	// ErrOfferAlreadyDisabled is returned when disabling an already-used
	// single-use offer; re-disabling an already-disabled offer is
	// idempotent and does not return this.
	ErrOfferAlreadyDisabled = fmt.Errorf("offer already disabled")

	// ErrSendInvoiceOffer is returned when a send_invoice offer is
	// presented to a fetch-invoice path, the only path that consumes
	// offers in this engine; a send_invoice offer decodes fine but is
	// refused by request-building paths.
	ErrSendInvoiceOffer = fmt.Errorf("offer solicits payment to the payer, not from them")
)
