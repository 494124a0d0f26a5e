package record

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/lightningnetwork/lnd/tlv"
)

// rawField is a single decoded (type, value) TLV entry, kept around both as
// the merkle leaf input and, for unrecognized odd types, as a pass-through
// payload that round-trips through re-encoding untouched.
type rawField struct {
	Type  tlv.Type
	Value []byte
}

// rawFieldRecord adapts a raw byte slice to the tlv.Record interface lnd/tlv
// expects, handing the low-level bigsize tokenization off to that package
// while we own field grouping and ordering ourselves.
func rawFieldRecord(typ tlv.Type, val *[]byte) tlv.Record {
	return tlv.MakeDynamicRecord(
		typ, val,
		func() uint64 { return uint64(len(*val)) },
		rawEncoder, rawDecoder,
	)
}

func rawEncoder(w io.Writer, v interface{}, _ *[8]byte) error {
	b, ok := v.(*[]byte)
	if !ok {
		return tlv.NewTypeForDecodingErr(v, "[]byte", 0, 0)
	}
	_, err := w.Write(*b)
	return err
}

func rawDecoder(r io.Reader, v interface{}, _ *[8]byte, l uint64) error {
	b, ok := v.(*[]byte)
	if !ok {
		return tlv.NewTypeForDecodingErr(v, "[]byte", 0, l)
	}
	*b = make([]byte, l)
	_, err := io.ReadFull(r, *b)
	return err
}

// parseStream tokenizes r into an ascending-type TLV stream, returning the
// raw bytes of every known type present (keyed by type) plus, separately,
// every odd type this kind doesn't recognize (for round-trip preservation).
// An even type outside knownTypes surfaces as ErrUnknownEvenField.
func parseStream(r io.Reader, knownTypes []tlv.Type) (map[tlv.Type][]byte, []rawField, error) {
	bound := make(map[tlv.Type]*[]byte, len(knownTypes))
	records := make([]tlv.Record, 0, len(knownTypes))
	for _, typ := range knownTypes {
		buf := new([]byte)
		bound[typ] = buf
		records = append(records, rawFieldRecord(typ, buf))
	}

	stream, err := tlv.NewStream(records...)
	if err != nil {
		return nil, nil, err
	}

	parsed := make(tlv.TypeMap)
	if err := stream.DecodeWithParsedTypes(r, parsed); err != nil {
		return nil, nil, fieldErr("tlv-stream", err)
	}

	known := make(map[tlv.Type][]byte, len(parsed))
	var unknown []rawField
	for typ, raw := range parsed {
		if raw != nil {
			// Not one of our registered types: either a genuine
			// odd extension (kept) or an even type we must
			// reject outright.
			if typ%2 == 0 {
				return nil, nil, fieldErr(
					"tlv-type", ErrUnknownEvenField,
				)
			}
			unknown = append(unknown, rawField{Type: typ, Value: raw})
			continue
		}

		buf, ok := bound[typ]
		if !ok {
			// Shouldn't happen: DecodeWithParsedTypes only
			// reports nil for types we registered.
			continue
		}
		known[typ] = *buf
	}

	sort.Slice(unknown, func(i, j int) bool {
		return unknown[i].Type < unknown[j].Type
	})

	return known, unknown, nil
}

// encodeStream frames fields, sorted ascending by type, as a canonical TLV
// stream. Canonical ascending order is what makes merkle computation
// order-independent at the call site: the encoder, not the caller, decides
// field order.
func encodeStream(fields []rawField) ([]byte, error) {
	sorted := make([]rawField, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Type < sorted[j].Type })

	records := make([]tlv.Record, len(sorted))
	for i := range sorted {
		// Copy into a fresh variable; rawFieldRecord binds by
		// pointer and the loop variable is reused.
		val := sorted[i].Value
		records[i] = rawFieldRecord(sorted[i].Type, &val)
	}

	stream, err := tlv.NewStream(records...)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := stream.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- scalar (de)serialization helpers shared by offer.go/invoicerequest.go/invoice.go ---

func putUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func getUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fieldErr("uint64", ErrMalformedTLV)
	}
	return binary.BigEndian.Uint64(b), nil
}

func putUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func getUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fieldErr("uint32", ErrMalformedTLV)
	}
	return binary.BigEndian.Uint32(b), nil
}

func putChains(chains [][32]byte) []byte {
	b := make([]byte, 0, len(chains)*32)
	for _, c := range chains {
		b = append(b, c[:]...)
	}
	return b
}

func getChains(b []byte) ([][32]byte, error) {
	if len(b)%32 != 0 {
		return nil, fieldErr("chains", ErrMalformedTLV)
	}
	out := make([][32]byte, len(b)/32)
	for i := range out {
		copy(out[i][:], b[i*32:(i+1)*32])
	}
	return out, nil
}

func putRecurrence(r *Recurrence) []byte {
	b := make([]byte, 5)
	b[0] = byte(r.PeriodKind)
	binary.BigEndian.PutUint32(b[1:], r.PeriodCount)
	return b
}

func getRecurrence(b []byte) (*Recurrence, error) {
	if len(b) != 5 {
		return nil, fieldErr("recurrence", ErrMalformedTLV)
	}
	return &Recurrence{
		PeriodKind:  PeriodKind(b[0]),
		PeriodCount: binary.BigEndian.Uint32(b[1:]),
	}, nil
}

func putRecurrenceBase(r *RecurrenceBase) []byte {
	b := make([]byte, 9)
	b[0] = r.StartAnyPeriod
	binary.BigEndian.PutUint64(b[1:], r.Basetime)
	return b
}

func getRecurrenceBase(b []byte) (*RecurrenceBase, error) {
	if len(b) != 9 {
		return nil, fieldErr("recurrence_base", ErrMalformedTLV)
	}
	return &RecurrenceBase{
		StartAnyPeriod: b[0],
		Basetime:       binary.BigEndian.Uint64(b[1:]),
	}, nil
}

func putRecurrencePaywindow(r *RecurrencePaywindow) []byte {
	b := make([]byte, 9)
	binary.BigEndian.PutUint32(b[0:], r.Before)
	binary.BigEndian.PutUint32(b[4:], r.After)
	b[8] = r.ProportionalAmount
	return b
}

func getRecurrencePaywindow(b []byte) (*RecurrencePaywindow, error) {
	if len(b) != 9 {
		return nil, fieldErr("recurrence_paywindow", ErrMalformedTLV)
	}
	return &RecurrencePaywindow{
		Before:             binary.BigEndian.Uint32(b[0:]),
		After:              binary.BigEndian.Uint32(b[4:]),
		ProportionalAmount: b[8],
	}, nil
}
