package record

import (
	"bytes"
	"sort"

	"github.com/lightningnetwork/lnd/tlv"
)

var offerTypes = sortedTypes([]tlv.Type{
	TypeChains, TypeCurrency, TypeAmount, TypeDescription, TypeFeatures,
	TypeAbsoluteExpiry, TypeSendInvoice, TypeVendor, TypeQuantityMin,
	TypeQuantityMax, TypeRecurrence, TypeRecurrenceBase,
	TypeRecurrencePaywindow, TypeRecurrenceLimit, TypeNodeID, TypeSignature,
})

func sortedTypes(t []tlv.Type) []tlv.Type {
	out := append([]tlv.Type(nil), t...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fields returns every TLV field present on o, in the shared namespace used
// by offer/invoice_request/invoice. The signature field is included when
// set; callers computing a merkle root for signing should build an Offer
// copy without Signature set, or rely on Merkle's own signature-field
// exclusion.
func (o *Offer) Fields() []rawField {
	var fields []rawField

	fields = append(fields, rawField{TypeNodeID, append([]byte{}, o.NodeID[:]...)})
	fields = append(fields, rawField{TypeDescription, []byte(o.Description)})

	if len(o.Chains) > 0 {
		fields = append(fields, rawField{TypeChains, putChains(o.Chains)})
	}
	if len(o.Features) > 0 {
		fields = append(fields, rawField{TypeFeatures, o.Features})
	}
	if o.Amount != nil {
		fields = append(fields, rawField{TypeAmount, putUint64(*o.Amount)})
	}
	if o.Currency != "" {
		fields = append(fields, rawField{TypeCurrency, []byte(o.Currency)})
	}
	if o.Vendor != "" {
		fields = append(fields, rawField{TypeVendor, []byte(o.Vendor)})
	}
	if o.QuantityMin != nil {
		fields = append(fields, rawField{TypeQuantityMin, putUint64(*o.QuantityMin)})
	}
	if o.QuantityMax != nil {
		fields = append(fields, rawField{TypeQuantityMax, putUint64(*o.QuantityMax)})
	}
	if o.Recurrence != nil {
		fields = append(fields, rawField{TypeRecurrence, putRecurrence(o.Recurrence)})
	}
	if o.RecurrenceBase != nil {
		fields = append(fields, rawField{TypeRecurrenceBase, putRecurrenceBase(o.RecurrenceBase)})
	}
	if o.RecurrencePaywindow != nil {
		fields = append(fields, rawField{TypeRecurrencePaywindow, putRecurrencePaywindow(o.RecurrencePaywindow)})
	}
	if o.RecurrenceLimit != nil {
		fields = append(fields, rawField{TypeRecurrenceLimit, putUint32(*o.RecurrenceLimit)})
	}
	if o.AbsoluteExpiry != nil {
		fields = append(fields, rawField{TypeAbsoluteExpiry, putUint64(*o.AbsoluteExpiry)})
	}
	if o.SendInvoice {
		fields = append(fields, rawField{TypeSendInvoice, nil})
	}
	if o.Signature != ([64]byte{}) {
		fields = append(fields, rawField{TypeSignature, append([]byte{}, o.Signature[:]...)})
	}

	fields = append(fields, o.unknownOdd...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Type < fields[j].Type })
	return fields
}

// EncodeOffer serializes o as a canonical ascending-type TLV stream.
func EncodeOffer(o *Offer) ([]byte, error) {
	return encodeStream(o.Fields())
}

// DecodeOffer parses a raw TLV stream into an Offer, failing with
// ErrUnknownEvenField on an unrecognized even type and ErrMalformedTLV on a
// structurally invalid stream.
func DecodeOffer(b []byte) (*Offer, error) {
	known, unknown, err := parseStream(bytes.NewReader(b), offerTypes)
	if err != nil {
		return nil, err
	}

	o := &Offer{unknownOdd: unknown}

	if v, ok := known[TypeNodeID]; ok {
		if len(v) != 32 {
			return nil, fieldErr("node_id", ErrMalformedTLV)
		}
		copy(o.NodeID[:], v)
	}
	if v, ok := known[TypeDescription]; ok {
		o.Description = string(v)
	}
	if v, ok := known[TypeChains]; ok {
		chains, err := getChains(v)
		if err != nil {
			return nil, fieldErr("chains", err)
		}
		o.Chains = chains
	}
	if v, ok := known[TypeFeatures]; ok {
		o.Features = v
	}
	if v, ok := known[TypeAmount]; ok {
		amt, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("amount", err)
		}
		o.Amount = &amt
	}
	if v, ok := known[TypeCurrency]; ok {
		o.Currency = string(v)
	}
	if v, ok := known[TypeVendor]; ok {
		o.Vendor = string(v)
	}
	if v, ok := known[TypeQuantityMin]; ok {
		q, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("quantity_min", err)
		}
		o.QuantityMin = &q
	}
	if v, ok := known[TypeQuantityMax]; ok {
		q, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("quantity_max", err)
		}
		o.QuantityMax = &q
	}
	if v, ok := known[TypeRecurrence]; ok {
		r, err := getRecurrence(v)
		if err != nil {
			return nil, fieldErr("recurrence", err)
		}
		o.Recurrence = r
	}
	if v, ok := known[TypeRecurrenceBase]; ok {
		r, err := getRecurrenceBase(v)
		if err != nil {
			return nil, fieldErr("recurrence_base", err)
		}
		o.RecurrenceBase = r
	}
	if v, ok := known[TypeRecurrencePaywindow]; ok {
		r, err := getRecurrencePaywindow(v)
		if err != nil {
			return nil, fieldErr("recurrence_paywindow", err)
		}
		o.RecurrencePaywindow = r
	}
	if v, ok := known[TypeRecurrenceLimit]; ok {
		l, err := getUint32(v)
		if err != nil {
			return nil, fieldErr("recurrence_limit", err)
		}
		o.RecurrenceLimit = &l
	}
	if v, ok := known[TypeAbsoluteExpiry]; ok {
		e, err := getUint64(v)
		if err != nil {
			return nil, fieldErr("absolute_expiry", err)
		}
		o.AbsoluteExpiry = &e
	}
	if _, ok := known[TypeSendInvoice]; ok {
		o.SendInvoice = true
	}
	if v, ok := known[TypeSignature]; ok {
		if len(v) != 64 {
			return nil, fieldErr("signature", ErrMalformedTLV)
		}
		copy(o.Signature[:], v)
	}

	return o, nil
}

// Merkle returns the BOLT-12 merkle root over o's fields.
func (o *Offer) Merkle() [32]byte {
	return Merkle(KindOffer, o.Fields())
}
