// Package walletdb is a reference offerbook.Wallet adapter backed by
// github.com/lightningnetwork/lnd/kvdb, grounded on channeldb/db.go's
// bucket-per-concern layout. It keeps no schema or migration version.
package walletdb

import (
	"bytes"
	"encoding/binary"

	"github.com/lightninglabs/lnoffer/offerbook"
	"github.com/lightningnetwork/lnd/kvdb"
)

var (
	// offersBucket holds offer_id -> serialized offerEntry, mirroring
	// channeldb/db.go's top-level-bucket-per-concern layout.
	offersBucket = []byte("offers")

	// paymentsBucket holds one nested bucket per recurrence label; within
	// it, recurrence_counter (big-endian uint32) -> serialized payment,
	// so ListPaymentsByLabel can range-scan a single label in counter
	// order without touching the rest of the store.
	paymentsBucket = []byte("payments")

	// byteOrder matches channeldb/db.go: big endian, so cursor scans over
	// integer keys iterate in counter order.
	byteOrder = binary.BigEndian
)

// DB is the primary datastore for a reference offerd node: offer records and
// the payment history consulted for recurrence continuity.
type DB struct {
	kvdb.Backend
}

// Open wraps an already-constructed kvdb.Backend (e.g. a bolt or etcd
// backend obtained via kvdb.GetBoltBackend/kvdb.GetEtcdBackend) and
// initializes the top-level buckets this store needs.
func Open(backend kvdb.Backend) (*DB, error) {
	db := &DB{Backend: backend}

	err := kvdb.Update(db, func(tx kvdb.RwTx) error {
		if _, err := tx.CreateTopLevelBucket(offersBucket); err != nil {
			return err
		}
		_, err := tx.CreateTopLevelBucket(paymentsBucket)
		return err
	}, func() {})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// offerStatusCode maps offerbook.OfferStatus onto a single persisted byte,
// keeping the on-disk offerEntry fixed-width for its status field the way
// channeldb's ContractState does for invoices.
var offerStatusCode = map[offerbook.OfferStatus]byte{
	offerbook.StatusSingleUse:      0,
	offerbook.StatusMultiUse:       1,
	offerbook.StatusUsed:           2,
	offerbook.StatusSingleDisabled: 3,
	offerbook.StatusMultiDisabled:  4,
}

var offerStatusFromCode = map[byte]offerbook.OfferStatus{
	0: offerbook.StatusSingleUse,
	1: offerbook.StatusMultiUse,
	2: offerbook.StatusUsed,
	3: offerbook.StatusSingleDisabled,
	4: offerbook.StatusMultiDisabled,
}

// CreateOffer persists a new offer under id.
func (d *DB) CreateOffer(id [32]byte, bolt12 string, label string,
	status offerbook.OfferStatus) error {

	return kvdb.Update(d, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(offersBucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		if bucket.Get(id[:]) != nil {
			return offerbook.ErrOfferAlreadyExists
		}

		entry, err := serializeOfferEntry(bolt12, label, status)
		if err != nil {
			return err
		}

		return bucket.Put(id[:], entry)
	}, func() {})
}

// FindOffer returns the stored record for id.
func (d *DB) FindOffer(id [32]byte) (*offerbook.OfferRecord, error) {
	var rec *offerbook.OfferRecord

	err := kvdb.View(d, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(offersBucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		v := bucket.Get(id[:])
		if v == nil {
			return offerbook.ErrOfferNotFound
		}

		bolt12, label, status, err := deserializeOfferEntry(v)
		if err != nil {
			return err
		}

		rec = &offerbook.OfferRecord{
			OfferID: id,
			Bolt12:  bolt12,
			Label:   label,
			Status:  status,
		}
		return nil
	}, func() { rec = nil })
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListOffers returns every persisted offer_id.
func (d *DB) ListOffers() ([][32]byte, error) {
	var ids [][32]byte

	err := kvdb.View(d, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(offersBucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		return bucket.ForEach(func(k, v []byte) error {
			if len(k) != 32 {
				return nil
			}
			var id [32]byte
			copy(id[:], k)
			ids = append(ids, id)
			return nil
		})
	}, func() { ids = nil })
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// SetOfferStatus transitions id to status.
func (d *DB) SetOfferStatus(id [32]byte, status offerbook.OfferStatus) error {
	return kvdb.Update(d, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(offersBucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		v := bucket.Get(id[:])
		if v == nil {
			return offerbook.ErrOfferNotFound
		}

		bolt12, label, _, err := deserializeOfferEntry(v)
		if err != nil {
			return err
		}

		entry, err := serializeOfferEntry(bolt12, label, status)
		if err != nil {
			return err
		}

		return bucket.Put(id[:], entry)
	}, func() {})
}

// RecordPayment appends a payment row under label, used by a production
// fetchinvoice.Engine caller once an invoice is settled; not part of
// offerbook.Wallet itself (which only needs the read side for continuity),
// but the write path its ListPaymentsByLabel results come from.
func (d *DB) RecordPayment(label string, p offerbook.Payment) error {
	return kvdb.Update(d, func(tx kvdb.RwTx) error {
		top := tx.ReadWriteBucket(paymentsBucket)
		if top == nil {
			return ErrBucketNotFound
		}

		labelBucket, err := top.CreateBucketIfNotExists([]byte(label))
		if err != nil {
			return err
		}

		var key [4]byte
		byteOrder.PutUint32(key[:], p.RecurrenceCounter)

		entry, err := serializePayment(p)
		if err != nil {
			return err
		}

		return labelBucket.Put(key[:], entry)
	}, func() {})
}

// ListPaymentsByLabel returns every payment recorded for label, oldest
// (lowest recurrence_counter) first, since the payments bucket keys are
// big-endian counters and bolt/kvdb ForEach visits keys in sorted order.
func (d *DB) ListPaymentsByLabel(label string) ([]offerbook.Payment, error) {
	var payments []offerbook.Payment

	err := kvdb.View(d, func(tx kvdb.RTx) error {
		top := tx.ReadBucket(paymentsBucket)
		if top == nil {
			return ErrBucketNotFound
		}

		labelBucket := top.NestedReadBucket([]byte(label))
		if labelBucket == nil {
			return nil
		}

		return labelBucket.ForEach(func(k, v []byte) error {
			p, err := deserializePayment(label, v)
			if err != nil {
				return err
			}
			if len(k) == 4 {
				p.RecurrenceCounter = byteOrder.Uint32(k)
			}
			payments = append(payments, p)
			return nil
		})
	}, func() { payments = nil })
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func serializeOfferEntry(bolt12, label string, status offerbook.OfferStatus) ([]byte, error) {
	code, ok := offerStatusCode[status]
	if !ok {
		return nil, ErrUnknownOfferStatus
	}

	var buf bytes.Buffer
	if err := writeVarBytes(&buf, []byte(bolt12)); err != nil {
		return nil, err
	}
	if err := writeVarBytes(&buf, []byte(label)); err != nil {
		return nil, err
	}
	buf.WriteByte(code)

	return buf.Bytes(), nil
}

func deserializeOfferEntry(v []byte) (string, string, offerbook.OfferStatus, error) {
	r := bytes.NewReader(v)

	bolt12, err := readVarBytes(r)
	if err != nil {
		return "", "", "", err
	}
	label, err := readVarBytes(r)
	if err != nil {
		return "", "", "", err
	}

	var codeBuf [1]byte
	if _, err := r.Read(codeBuf[:]); err != nil {
		return "", "", "", err
	}

	status, ok := offerStatusFromCode[codeBuf[0]]
	if !ok {
		return "", "", "", ErrUnknownOfferStatus
	}

	return string(bolt12), string(label), status, nil
}

func serializePayment(p offerbook.Payment) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(p.OfferID[:]); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, byteOrder, p.PaidAt); err != nil {
		return nil, err
	}
	if err := writeVarBytes(&buf, p.PayerInfo); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deserializePayment(label string, v []byte) (offerbook.Payment, error) {
	r := bytes.NewReader(v)

	var offerID [32]byte
	if _, err := r.Read(offerID[:]); err != nil {
		return offerbook.Payment{}, err
	}

	var paidAt uint64
	if err := binary.Read(r, byteOrder, &paidAt); err != nil {
		return offerbook.Payment{}, err
	}

	payerInfo, err := readVarBytes(r)
	if err != nil {
		return offerbook.Payment{}, err
	}

	return offerbook.Payment{
		OfferID:   offerID,
		Label:     label,
		PayerInfo: payerInfo,
		PaidAt:    paidAt,
	}, nil
}

// writeVarBytes writes a uint16-length-prefixed byte slice, sized for
// bolt12 strings and the small payer_info/label fields this store holds
// (channeldb uses wire.WriteVarBytes's varint for arbitrary-length blobs;
// a uint16 prefix is enough here and avoids pulling in the wire package for
// a single helper).
func writeVarBytes(buf *bytes.Buffer, b []byte) error {
	var lenBuf [2]byte
	byteOrder.PutUint16(lenBuf[:], uint16(len(b)))
	if _, err := buf.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readVarBytes(r *bytes.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return nil, err
	}
	n := byteOrder.Uint16(lenBuf[:])

	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
