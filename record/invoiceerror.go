package record

import (
	"bytes"

	"github.com/lightningnetwork/lnd/tlv"
)

var invoiceErrorTypes = sortedTypes([]tlv.Type{
	TypeErroneousField, TypeSuggestedValue, TypeErrorText,
})

// EncodeInvoiceError serializes e as a TLV stream. invoice_error is never
// merkleized or signed, so it doesn't implement Fields()/Merkle().
func EncodeInvoiceError(e *InvoiceError) ([]byte, error) {
	var fields []rawField
	if e.ErroneousField != nil {
		fields = append(fields, rawField{TypeErroneousField, putUint64(*e.ErroneousField)})
	}
	if len(e.SuggestedValue) > 0 {
		fields = append(fields, rawField{TypeSuggestedValue, e.SuggestedValue})
	}
	if e.ErrorText != "" {
		fields = append(fields, rawField{TypeErrorText, []byte(e.ErrorText)})
	}
	return encodeStream(fields)
}

// DecodeInvoiceError parses a raw TLV stream into an InvoiceError.
func DecodeInvoiceError(b []byte) (*InvoiceError, error) {
	known, _, err := parseStream(bytes.NewReader(b), invoiceErrorTypes)
	if err != nil {
		return nil, err
	}

	e := &InvoiceError{}
	if v, ok := known[TypeErroneousField]; ok {
		f, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("erroneous_field", err)
		}
		e.ErroneousField = &f
	}
	if v, ok := known[TypeSuggestedValue]; ok {
		e.SuggestedValue = v
	}
	if v, ok := known[TypeErrorText]; ok {
		e.ErrorText = string(v)
	}
	return e, nil
}
