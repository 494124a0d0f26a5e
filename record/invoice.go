package record

import (
	"bytes"
	"sort"

	"github.com/lightningnetwork/lnd/tlv"
)

var invoiceTypes = sortedTypes([]tlv.Type{
	TypeChains, TypeCurrency, TypeAmount, TypeDescription, TypeFeatures,
	TypeAbsoluteExpiry, TypeSendInvoice, TypeVendor, TypeQuantityMin,
	TypeQuantityMax, TypeRecurrence, TypeRecurrenceBase,
	TypeRecurrencePaywindow, TypeRecurrenceLimit, TypeNodeID,
	TypeOfferID, TypeQuantity, TypeRecurrenceCounter, TypeRecurrenceStart,
	TypePayerKey, TypePayerInfo, TypePayerNote,
	TypeInvoiceAmount, TypeCreatedAt, TypeRelativeExpiry, TypePaymentHash,
	TypeMinFinalCLTV, TypeFallbacks, TypeBlindedPaths,
	TypeRecurrenceBasetime, TypeSignature,
})

// Fields returns every TLV field present on v.
func (v *Invoice) Fields() []rawField {
	var fields []rawField

	fields = append(fields, rawField{TypeNodeID, append([]byte{}, v.NodeID[:]...)})
	fields = append(fields, rawField{TypeDescription, []byte(v.Description)})
	fields = append(fields, rawField{TypeOfferID, append([]byte{}, v.OfferID[:]...)})
	fields = append(fields, rawField{TypePayerKey, append([]byte{}, v.PayerKey[:]...)})
	fields = append(fields, rawField{TypeInvoiceAmount, putUint64(v.InvoiceAmount)})
	fields = append(fields, rawField{TypeCreatedAt, putUint64(v.CreatedAt)})
	fields = append(fields, rawField{TypePaymentHash, append([]byte{}, v.PaymentHash[:]...)})

	if len(v.Chains) > 0 {
		fields = append(fields, rawField{TypeChains, putChains(v.Chains)})
	}
	if len(v.Features) > 0 {
		fields = append(fields, rawField{TypeFeatures, v.Features})
	}
	if v.Amount != nil {
		fields = append(fields, rawField{TypeAmount, putUint64(*v.Amount)})
	}
	if v.Currency != "" {
		fields = append(fields, rawField{TypeCurrency, []byte(v.Currency)})
	}
	if v.Vendor != "" {
		fields = append(fields, rawField{TypeVendor, []byte(v.Vendor)})
	}
	if v.QuantityMin != nil {
		fields = append(fields, rawField{TypeQuantityMin, putUint64(*v.QuantityMin)})
	}
	if v.QuantityMax != nil {
		fields = append(fields, rawField{TypeQuantityMax, putUint64(*v.QuantityMax)})
	}
	if v.Recurrence != nil {
		fields = append(fields, rawField{TypeRecurrence, putRecurrence(v.Recurrence)})
	}
	if v.RecurrenceBase != nil {
		fields = append(fields, rawField{TypeRecurrenceBase, putRecurrenceBase(v.RecurrenceBase)})
	}
	if v.RecurrencePaywindow != nil {
		fields = append(fields, rawField{TypeRecurrencePaywindow, putRecurrencePaywindow(v.RecurrencePaywindow)})
	}
	if v.RecurrenceLimit != nil {
		fields = append(fields, rawField{TypeRecurrenceLimit, putUint32(*v.RecurrenceLimit)})
	}
	if v.AbsoluteExpiry != nil {
		fields = append(fields, rawField{TypeAbsoluteExpiry, putUint64(*v.AbsoluteExpiry)})
	}
	if v.SendInvoice {
		fields = append(fields, rawField{TypeSendInvoice, nil})
	}
	if v.Quantity != nil {
		fields = append(fields, rawField{TypeQuantity, putUint64(*v.Quantity)})
	}
	if v.RecurrenceCounter != nil {
		fields = append(fields, rawField{TypeRecurrenceCounter, putUint32(*v.RecurrenceCounter)})
	}
	if v.RecurrenceStart != nil {
		fields = append(fields, rawField{TypeRecurrenceStart, putUint32(*v.RecurrenceStart)})
	}
	if len(v.PayerInfo) > 0 {
		fields = append(fields, rawField{TypePayerInfo, v.PayerInfo})
	}
	if v.PayerNote != "" {
		fields = append(fields, rawField{TypePayerNote, []byte(v.PayerNote)})
	}
	if v.RelativeExpiry != nil {
		fields = append(fields, rawField{TypeRelativeExpiry, putUint32(*v.RelativeExpiry)})
	}
	if v.MinFinalCLTVExpiry != nil {
		fields = append(fields, rawField{TypeMinFinalCLTV, putUint64(*v.MinFinalCLTVExpiry)})
	}
	for _, fb := range v.Fallbacks {
		fields = append(fields, rawField{TypeFallbacks, fb})
	}
	for _, bp := range v.BlindedPaths {
		fields = append(fields, rawField{TypeBlindedPaths, bp})
	}
	if v.RecurrenceBasetime != nil {
		fields = append(fields, rawField{TypeRecurrenceBasetime, putUint64(*v.RecurrenceBasetime)})
	}
	if v.Signature != ([64]byte{}) {
		fields = append(fields, rawField{TypeSignature, append([]byte{}, v.Signature[:]...)})
	}

	fields = append(fields, v.unknownOdd...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Type < fields[j].Type })
	return fields
}

// EncodeInvoice serializes v as a canonical ascending-type TLV stream.
func EncodeInvoice(v *Invoice) ([]byte, error) {
	return encodeStream(v.Fields())
}

// DecodeInvoice parses a raw TLV stream into an Invoice.
func DecodeInvoice(b []byte) (*Invoice, error) {
	known, unknown, err := parseStream(bytes.NewReader(b), invoiceTypes)
	if err != nil {
		return nil, err
	}

	v := &Invoice{unknownOdd: unknown}

	if val, ok := known[TypeNodeID]; ok {
		if len(val) != 32 {
			return nil, fieldErr("node_id", ErrMalformedTLV)
		}
		copy(v.NodeID[:], val)
	}
	if val, ok := known[TypeDescription]; ok {
		v.Description = string(val)
	}
	if val, ok := known[TypeOfferID]; ok {
		if len(val) != 32 {
			return nil, fieldErr("offer_id", ErrMalformedTLV)
		}
		copy(v.OfferID[:], val)
	}
	if val, ok := known[TypePayerKey]; ok {
		if len(val) != 32 {
			return nil, fieldErr("payer_key", ErrMalformedTLV)
		}
		copy(v.PayerKey[:], val)
	}
	if val, ok := known[TypeInvoiceAmount]; ok {
		amt, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("amount", err)
		}
		v.InvoiceAmount = amt
	}
	if val, ok := known[TypeCreatedAt]; ok {
		ts, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("created_at", err)
		}
		v.CreatedAt = ts
	}
	if val, ok := known[TypePaymentHash]; ok {
		if len(val) != 32 {
			return nil, fieldErr("payment_hash", ErrMalformedTLV)
		}
		copy(v.PaymentHash[:], val)
	}
	if val, ok := known[TypeChains]; ok {
		chains, err := getChains(val)
		if err != nil {
			return nil, fieldErr("chains", err)
		}
		v.Chains = chains
	}
	if val, ok := known[TypeFeatures]; ok {
		v.Features = val
	}
	if val, ok := known[TypeAmount]; ok {
		amt, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("offer_amount", err)
		}
		v.Amount = &amt
	}
	if val, ok := known[TypeCurrency]; ok {
		v.Currency = string(val)
	}
	if val, ok := known[TypeVendor]; ok {
		v.Vendor = string(val)
	}
	if val, ok := known[TypeQuantityMin]; ok {
		q, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("quantity_min", err)
		}
		v.QuantityMin = &q
	}
	if val, ok := known[TypeQuantityMax]; ok {
		q, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("quantity_max", err)
		}
		v.QuantityMax = &q
	}
	if val, ok := known[TypeRecurrence]; ok {
		r, err := getRecurrence(val)
		if err != nil {
			return nil, fieldErr("recurrence", err)
		}
		v.Recurrence = r
	}
	if val, ok := known[TypeRecurrenceBase]; ok {
		r, err := getRecurrenceBase(val)
		if err != nil {
			return nil, fieldErr("recurrence_base", err)
		}
		v.RecurrenceBase = r
	}
	if val, ok := known[TypeRecurrencePaywindow]; ok {
		r, err := getRecurrencePaywindow(val)
		if err != nil {
			return nil, fieldErr("recurrence_paywindow", err)
		}
		v.RecurrencePaywindow = r
	}
	if val, ok := known[TypeRecurrenceLimit]; ok {
		l, err := getUint32(val)
		if err != nil {
			return nil, fieldErr("recurrence_limit", err)
		}
		v.RecurrenceLimit = &l
	}
	if val, ok := known[TypeAbsoluteExpiry]; ok {
		e, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("absolute_expiry", err)
		}
		v.AbsoluteExpiry = &e
	}
	if _, ok := known[TypeSendInvoice]; ok {
		v.SendInvoice = true
	}
	if val, ok := known[TypeQuantity]; ok {
		q, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("quantity", err)
		}
		v.Quantity = &q
	}
	if val, ok := known[TypeRecurrenceCounter]; ok {
		c, err := getUint32(val)
		if err != nil {
			return nil, fieldErr("recurrence_counter", err)
		}
		v.RecurrenceCounter = &c
	}
	if val, ok := known[TypeRecurrenceStart]; ok {
		s, err := getUint32(val)
		if err != nil {
			return nil, fieldErr("recurrence_start", err)
		}
		v.RecurrenceStart = &s
	}
	if val, ok := known[TypePayerInfo]; ok {
		v.PayerInfo = val
	}
	if val, ok := known[TypePayerNote]; ok {
		v.PayerNote = string(val)
	}
	if val, ok := known[TypeRelativeExpiry]; ok {
		e, err := getUint32(val)
		if err != nil {
			return nil, fieldErr("relative_expiry", err)
		}
		v.RelativeExpiry = &e
	}
	if val, ok := known[TypeMinFinalCLTV]; ok {
		c, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("min_final_cltv_expiry", err)
		}
		v.MinFinalCLTVExpiry = &c
	}
	if val, ok := known[TypeRecurrenceBasetime]; ok {
		bt, err := getUint64(val)
		if err != nil {
			return nil, fieldErr("recurrence_basetime", err)
		}
		v.RecurrenceBasetime = &bt
	}
	if val, ok := known[TypeSignature]; ok {
		if len(val) != 64 {
			return nil, fieldErr("signature", ErrMalformedTLV)
		}
		copy(v.Signature[:], val)
	}

	// Fallbacks and blinded_paths are repeatable fields, but the generic
	// parseStream yields at most one value per type, so this decodes a
	// single fallback and a single blinded path; a list of several is
	// not reconstructed. C7 only validates and relays these lists, never
	// constructs them.
	if val, ok := known[TypeFallbacks]; ok {
		v.Fallbacks = [][]byte{val}
	}
	if val, ok := known[TypeBlindedPaths]; ok {
		v.BlindedPaths = [][]byte{val}
	}

	return v, nil
}

// Merkle returns the BOLT-12 merkle root over v's fields.
func (v *Invoice) Merkle() [32]byte {
	return Merkle(KindInvoice, v.Fields())
}
