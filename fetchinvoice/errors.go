package fetchinvoice

import "fmt"

// Sentinel errors and error types for the exchange engine.
var (
	// ErrTimeout is returned when a request's deadline elapses with no
	// reply.
	ErrTimeout = fmt.Errorf("request timed out waiting for invoice")

	// ErrQuantityOverflow describes expected_amount = offer.amount *
	// quantity overflowing u64. computeChanges reports that case as
	// &BadInvoice{Field: "quantity overflow"}, not as this error.
	ErrQuantityOverflow = fmt.Errorf("quantity overflow computing expected amount")

	// ErrEngineStopped is returned by any Engine call made after Stop.
	ErrEngineStopped = fmt.Errorf("engine stopped")
)

// BadInvoice is a protocol error: the returned invoice fails a BOLT-12
// invariant at a specific field.
type BadInvoice struct {
	Field string
}

func (e *BadInvoice) Error() string {
	return fmt.Sprintf("bad invoice: field %q failed validation", e.Field)
}

// RemoteInvoiceError is the structured failure surfaced when the
// responder sends invoice_error instead of invoice.
type RemoteInvoiceError struct {
	ErroneousField *uint64
	SuggestedValue []byte
	ErrorText      string
}

func (e *RemoteInvoiceError) Error() string {
	if e.ErroneousField != nil {
		return fmt.Sprintf("remote invoice_error: field type %d: %s",
			*e.ErroneousField, e.ErrorText)
	}
	return fmt.Sprintf("remote invoice_error: %s", e.ErrorText)
}
