package record

import (
	"bytes"
	"sort"

	"github.com/lightningnetwork/lnd/tlv"
)

var invoiceRequestTypes = sortedTypes([]tlv.Type{
	TypeChains, TypeCurrency, TypeAmount, TypeDescription, TypeFeatures,
	TypeAbsoluteExpiry, TypeSendInvoice, TypeVendor, TypeQuantityMin,
	TypeQuantityMax, TypeRecurrence, TypeRecurrenceBase,
	TypeRecurrencePaywindow, TypeRecurrenceLimit, TypeNodeID,
	TypeOfferID, TypeQuantity, TypeRecurrenceCounter, TypeRecurrenceStart,
	TypePayerKey, TypePayerInfo, TypePayerNote, TypeRecurrenceSignature,
})

// Fields returns every TLV field present on r.
func (r *InvoiceRequest) Fields() []rawField {
	var fields []rawField

	fields = append(fields, rawField{TypeNodeID, append([]byte{}, r.NodeID[:]...)})
	fields = append(fields, rawField{TypeDescription, []byte(r.Description)})
	fields = append(fields, rawField{TypeOfferID, append([]byte{}, r.OfferID[:]...)})
	fields = append(fields, rawField{TypePayerKey, append([]byte{}, r.PayerKey[:]...)})

	if len(r.Chains) > 0 {
		fields = append(fields, rawField{TypeChains, putChains(r.Chains)})
	}
	if len(r.Features) > 0 {
		fields = append(fields, rawField{TypeFeatures, r.Features})
	}
	if r.Amount != nil {
		fields = append(fields, rawField{TypeAmount, putUint64(*r.Amount)})
	}
	if r.Currency != "" {
		fields = append(fields, rawField{TypeCurrency, []byte(r.Currency)})
	}
	if r.Vendor != "" {
		fields = append(fields, rawField{TypeVendor, []byte(r.Vendor)})
	}
	if r.QuantityMin != nil {
		fields = append(fields, rawField{TypeQuantityMin, putUint64(*r.QuantityMin)})
	}
	if r.QuantityMax != nil {
		fields = append(fields, rawField{TypeQuantityMax, putUint64(*r.QuantityMax)})
	}
	if r.Recurrence != nil {
		fields = append(fields, rawField{TypeRecurrence, putRecurrence(r.Recurrence)})
	}
	if r.RecurrenceBase != nil {
		fields = append(fields, rawField{TypeRecurrenceBase, putRecurrenceBase(r.RecurrenceBase)})
	}
	if r.RecurrencePaywindow != nil {
		fields = append(fields, rawField{TypeRecurrencePaywindow, putRecurrencePaywindow(r.RecurrencePaywindow)})
	}
	if r.RecurrenceLimit != nil {
		fields = append(fields, rawField{TypeRecurrenceLimit, putUint32(*r.RecurrenceLimit)})
	}
	if r.AbsoluteExpiry != nil {
		fields = append(fields, rawField{TypeAbsoluteExpiry, putUint64(*r.AbsoluteExpiry)})
	}
	if r.SendInvoice {
		fields = append(fields, rawField{TypeSendInvoice, nil})
	}
	if r.Quantity != nil {
		fields = append(fields, rawField{TypeQuantity, putUint64(*r.Quantity)})
	}
	if r.RecurrenceCounter != nil {
		fields = append(fields, rawField{TypeRecurrenceCounter, putUint32(*r.RecurrenceCounter)})
	}
	if r.RecurrenceStart != nil {
		fields = append(fields, rawField{TypeRecurrenceStart, putUint32(*r.RecurrenceStart)})
	}
	if len(r.PayerInfo) > 0 {
		fields = append(fields, rawField{TypePayerInfo, r.PayerInfo})
	}
	if r.PayerNote != "" {
		fields = append(fields, rawField{TypePayerNote, []byte(r.PayerNote)})
	}
	if r.RecurrenceSignature != nil {
		fields = append(fields, rawField{TypeRecurrenceSignature, append([]byte{}, r.RecurrenceSignature[:]...)})
	}

	fields = append(fields, r.unknownOdd...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Type < fields[j].Type })
	return fields
}

// EncodeInvoiceRequest serializes r as a canonical ascending-type TLV stream.
func EncodeInvoiceRequest(r *InvoiceRequest) ([]byte, error) {
	return encodeStream(r.Fields())
}

// DecodeInvoiceRequest parses a raw TLV stream into an InvoiceRequest.
func DecodeInvoiceRequest(b []byte) (*InvoiceRequest, error) {
	known, unknown, err := parseStream(bytes.NewReader(b), invoiceRequestTypes)
	if err != nil {
		return nil, err
	}

	r := &InvoiceRequest{unknownOdd: unknown}

	if v, ok := known[TypeNodeID]; ok {
		if len(v) != 32 {
			return nil, fieldErr("node_id", ErrMalformedTLV)
		}
		copy(r.NodeID[:], v)
	}
	if v, ok := known[TypeDescription]; ok {
		r.Description = string(v)
	}
	if v, ok := known[TypeOfferID]; ok {
		if len(v) != 32 {
			return nil, fieldErr("offer_id", ErrMalformedTLV)
		}
		copy(r.OfferID[:], v)
	}
	if v, ok := known[TypePayerKey]; ok {
		if len(v) != 32 {
			return nil, fieldErr("payer_key", ErrMalformedTLV)
		}
		copy(r.PayerKey[:], v)
	}
	if v, ok := known[TypeChains]; ok {
		chains, err := getChains(v)
		if err != nil {
			return nil, fieldErr("chains", err)
		}
		r.Chains = chains
	}
	if v, ok := known[TypeFeatures]; ok {
		r.Features = v
	}
	if v, ok := known[TypeAmount]; ok {
		amt, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("amount", err)
		}
		r.Amount = &amt
	}
	if v, ok := known[TypeCurrency]; ok {
		r.Currency = string(v)
	}
	if v, ok := known[TypeVendor]; ok {
		r.Vendor = string(v)
	}
	if v, ok := known[TypeQuantityMin]; ok {
		q, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("quantity_min", err)
		}
		r.QuantityMin = &q
	}
	if v, ok := known[TypeQuantityMax]; ok {
		q, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("quantity_max", err)
		}
		r.QuantityMax = &q
	}
	if v, ok := known[TypeRecurrence]; ok {
		rec, err := getRecurrence(v)
		if err != nil {
			return nil, fieldErr("recurrence", err)
		}
		r.Recurrence = rec
	}
	if v, ok := known[TypeRecurrenceBase]; ok {
		rb, err := getRecurrenceBase(v)
		if err != nil {
			return nil, fieldErr("recurrence_base", err)
		}
		r.RecurrenceBase = rb
	}
	if v, ok := known[TypeRecurrencePaywindow]; ok {
		rp, err := getRecurrencePaywindow(v)
		if err != nil {
			return nil, fieldErr("recurrence_paywindow", err)
		}
		r.RecurrencePaywindow = rp
	}
	if v, ok := known[TypeRecurrenceLimit]; ok {
		l, err := getUint32(v)
		if err != nil {
			return nil, fieldErr("recurrence_limit", err)
		}
		r.RecurrenceLimit = &l
	}
	if v, ok := known[TypeAbsoluteExpiry]; ok {
		e, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("absolute_expiry", err)
		}
		r.AbsoluteExpiry = &e
	}
	if _, ok := known[TypeSendInvoice]; ok {
		r.SendInvoice = true
	}
	if v, ok := known[TypeQuantity]; ok {
		q, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("quantity", err)
		}
		r.Quantity = &q
	}
	if v, ok := known[TypeRecurrenceCounter]; ok {
		c, err := getUint32(v)
		if err != nil {
			return nil, fieldErr("recurrence_counter", err)
		}
		r.RecurrenceCounter = &c
	}
	if v, ok := known[TypeRecurrenceStart]; ok {
		s, err := getUint32(v)
		if err != nil {
			return nil, fieldErr("recurrence_start", err)
		}
		r.RecurrenceStart = &s
	}
	if v, ok := known[TypePayerInfo]; ok {
		r.PayerInfo = v
	}
	if v, ok := known[TypePayerNote]; ok {
		r.PayerNote = string(v)
	}
	if v, ok := known[TypeRecurrenceSignature]; ok {
		if len(v) != 64 {
			return nil, fieldErr("recurrence_signature", ErrMalformedTLV)
		}
		var sig [64]byte
		copy(sig[:], v)
		r.RecurrenceSignature = &sig
	}

	return r, nil
}

// Merkle returns the BOLT-12 merkle root over r's fields.
func (r *InvoiceRequest) Merkle() [32]byte {
	return Merkle(KindInvoiceRequest, r.Fields())
}
