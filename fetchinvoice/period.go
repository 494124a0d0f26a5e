package fetchinvoice

import (
	"time"

	"github.com/lightninglabs/lnoffer/record"
)

// NextPeriod describes the next recurrence period a caller may pay.
// ProportionalAmount is carried through unevaluated (see SPEC_FULL.md: the
// core computes no pro-rated amount itself, only exposes the field a
// scheduling caller would need).
type NextPeriod struct {
	Counter            uint32
	Starttime          uint64
	Endtime            uint64
	PaywindowStart     uint64
	PaywindowEnd       uint64
	ProportionalAmount bool
}

// ComputeNextPeriod resolves the invoice's next_period block, or nil if
// the offer isn't recurring or the recurrence_limit has been reached.
// basetime is invoice.RecurrenceBasetime, the anchor for all calendar
// arithmetic (resolved as Gregorian month/year stepping, not a
// 30-day/365-day approximation -- see DESIGN.md).
func ComputeNextPeriod(offer *record.Offer, invreq *record.InvoiceRequest,
	basetime uint64) *NextPeriod {

	if offer.Recurrence == nil || invreq.RecurrenceCounter == nil {
		return nil
	}

	nextCounter := *invreq.RecurrenceCounter + 1

	var start uint32
	if invreq.RecurrenceStart != nil {
		start = *invreq.RecurrenceStart
	}
	nextIdx := start + nextCounter

	if offer.RecurrenceLimit != nil && nextIdx > *offer.RecurrenceLimit {
		return nil
	}

	starttime := stepPeriod(basetime, offer.Recurrence, int64(nextIdx))
	endExclusive := stepPeriod(basetime, offer.Recurrence, int64(nextIdx)+1)
	endtime := endExclusive - 1

	var before, after uint32
	var proportional bool
	if offer.RecurrencePaywindow != nil {
		before = offer.RecurrencePaywindow.Before
		after = offer.RecurrencePaywindow.After
		proportional = offer.RecurrencePaywindow.ProportionalAmount != 0
	}

	paywindowStart := saturatingSub(starttime, uint64(before))
	paywindowEnd := starttime + uint64(after)

	return &NextPeriod{
		Counter:            nextCounter,
		Starttime:          starttime,
		Endtime:            endtime,
		PaywindowStart:     paywindowStart,
		PaywindowEnd:       paywindowEnd,
		ProportionalAmount: proportional,
	}
}

// stepPeriod advances basetime by periods whole recurrence periods.
// seconds/days periods are fixed-duration; months/years step via Gregorian
// calendar arithmetic anchored at basetime, so e.g. "every month" lands on
// the same day-of-month (DST/calendar-correct, not a 30-day approximation).
func stepPeriod(basetime uint64, r *record.Recurrence, periods int64) uint64 {
	count := int64(r.PeriodCount) * periods

	switch r.PeriodKind {
	case record.PeriodSeconds:
		return uint64(int64(basetime) + count)

	case record.PeriodDays:
		return uint64(int64(basetime) + count*86400)

	case record.PeriodMonths:
		t := time.Unix(int64(basetime), 0).UTC()
		return uint64(t.AddDate(0, int(count), 0).Unix())

	case record.PeriodYears:
		t := time.Unix(int64(basetime), 0).UTC()
		return uint64(t.AddDate(int(count), 0, 0).Unix())

	default:
		return basetime
	}
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
