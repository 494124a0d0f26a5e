package walletdb

import "fmt"

// Sentinel errors for the store, in the channeldb/error.go Err* style.
var (
	// ErrBucketNotFound signals the database wasn't opened through Open,
	// so the top-level buckets Open creates are missing.
	ErrBucketNotFound = fmt.Errorf("top-level bucket not found: database not opened through walletdb.Open")

	// ErrUnknownOfferStatus is returned when a persisted status byte
	// doesn't map to any offerbook.OfferStatus, meaning the record was
	// written by an incompatible version of this store.
	ErrUnknownOfferStatus = fmt.Errorf("persisted offer status byte does not map to a known status")
)
