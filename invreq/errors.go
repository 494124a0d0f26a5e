package invreq

import "fmt"

// Sentinel errors for request building.
var (
	// ErrOfferExpired mirrors offerbook.ErrOfferExpired at the request
	// builder's own expiry check: absolute_expiry has passed.
	ErrOfferExpired = fmt.Errorf("offer has expired")

	// ErrAmountRequired: offer.amount unset, user didn't supply
	// amount_msat.
	ErrAmountRequired = fmt.Errorf("amount_msat required: offer has no fixed amount")

	// ErrAmountForbidden: offer.amount set, user supplied amount_msat
	// anyway.
	ErrAmountForbidden = fmt.Errorf("amount_msat forbidden: offer has a fixed amount")

	// ErrQuantityRequired: offer declares quantity_min/max, user didn't
	// supply quantity.
	ErrQuantityRequired = fmt.Errorf("quantity required: offer declares a quantity range")

	// ErrQuantityForbidden: offer declares no quantity range, user
	// supplied quantity anyway.
	ErrQuantityForbidden = fmt.Errorf("quantity forbidden: offer declares no quantity range")

	// ErrQuantityOutOfRange: supplied quantity outside
	// [quantity_min, quantity_max].
	ErrQuantityOutOfRange = fmt.Errorf("quantity out of range")

	// ErrRecurrenceFieldsRequired: offer has a recurrence, user omitted
	// recurrence_counter or recurrence_label.
	ErrRecurrenceFieldsRequired = fmt.Errorf("recurrence_counter and recurrence_label required: offer is recurring")

	// ErrRecurrenceFieldsForbidden: offer has no recurrence, user
	// supplied recurrence fields anyway.
	ErrRecurrenceFieldsForbidden = fmt.Errorf("recurrence fields forbidden: offer is not recurring")

	// ErrRecurrenceStartRequired: offer.recurrence_base.start_any_period
	// != 0, user omitted recurrence_start.
	ErrRecurrenceStartRequired = fmt.Errorf("recurrence_start required: offer permits arbitrary start periods")

	// ErrRecurrenceStartForbidden: offer.recurrence_base.start_any_period
	// == 0, user supplied recurrence_start anyway.
	ErrRecurrenceStartForbidden = fmt.Errorf("recurrence_start forbidden: offer fixes the start period")

	// ErrNoPriorPayment: recurrence_counter > 0 and no prior payment
	// under label/offer_id exists at all.
	ErrNoPriorPayment = fmt.Errorf("no prior payment found for this recurrence label")

	// ErrPriorNotPaid: payments exist under label/offer_id, but none at
	// counter-1. Payment records carry no completion status, so any
	// recorded payment at counter-1 is accepted as the prior one.
	ErrPriorNotPaid = fmt.Errorf("prior payment in this recurrence is not complete")

	// ErrBadRecurrenceSignature: the signer returned a recurrence_signature
	// that doesn't verify against our own payer_key. Build checks this
	// before the request ever leaves the builder.
	ErrBadRecurrenceSignature = fmt.Errorf("recurrence_signature failed verification against payer_key")
)
