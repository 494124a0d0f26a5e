// Package offerbook implements the offer manager: decoding and validating
// offer strings, and enforcing the offer lifecycle
// (single_use -> used, single_use/multi_use -> *_disabled) against an
// external Wallet.
//
// Grounded on channeldb/graph.go's pass-through-to-store shape and
// channeldb/error.go's sentinel-error convention.
package offerbook

import (
	"strings"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightninglabs/lnoffer/record"
	"github.com/lightninglabs/lnoffer/sig"
)

// offerPrefix is the human-readable prefix BOLT-12 offer strings carry,
// matched case-insensitively.
const offerPrefix = "lno1"

// Manager decodes and validates offers, and enforces the offer lifecycle on
// top of an external Wallet store.
type Manager struct {
	wallet Wallet
	clock  clock.Clock
}

// NewManager returns a Manager backed by wallet. If clk is nil,
// clock.NewDefaultClock() is used.
func NewManager(wallet Wallet, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &Manager{wallet: wallet, clock: clk}
}

// DecodeOffer parses a bolt12 offer string, delegating the wire format to
// package record, then enforces the invariants an offer needs before it is
// considered actionable: node_id set, description set, signature set, and
// the signature verifies against node_id.
func (m *Manager) DecodeOffer(bolt12 string) (*record.Offer, error) {
	normalized := record.NormalizeBolt12String(bolt12)
	if !strings.HasPrefix(strings.ToLower(normalized), offerPrefix) {
		return nil, ErrBadPrefix
	}

	data, err := record.DecodeBolt12String(record.KindOffer, normalized)
	if err != nil {
		return nil, err
	}

	offer, err := record.DecodeOffer(data)
	if err != nil {
		return nil, err
	}

	if err := m.validate(offer); err != nil {
		return nil, err
	}

	return offer, nil
}

// validate checks that node_id, description, and signature are all set,
// that the signature verifies, and that the offer hasn't expired.
func (m *Manager) validate(offer *record.Offer) error {
	var zero [32]byte
	if offer.NodeID == zero {
		return ErrOfferMissingNodeID
	}
	if offer.Description == "" {
		return ErrOfferMissingDescription
	}
	var zeroSig [64]byte
	if offer.Signature == zeroSig {
		return ErrOfferMissingSignature
	}

	ok, err := sig.Verify("offer", "signature", offer.Merkle(), offer.Signature,
		offer.NodeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOfferBadSignature
	}

	if offer.AbsoluteExpiry != nil {
		now := uint64(m.clock.Now().Unix())
		if now > *offer.AbsoluteExpiry {
			return ErrOfferExpired
		}
	}

	return nil
}

// CreateOffer persists a newly-decoded offer. status is StatusSingleUse or
// StatusMultiUse depending on the caller's single_use request.
func (m *Manager) CreateOffer(offer *record.Offer, bolt12, label string,
	singleUse bool) error {

	status := StatusMultiUse
	if singleUse {
		status = StatusSingleUse
	}

	id := offer.Merkle()
	return m.wallet.CreateOffer(id, bolt12, label, status)
}

// FindOffer passes through to the wallet.
func (m *Manager) FindOffer(id [32]byte) (*OfferRecord, error) {
	return m.wallet.FindOffer(id)
}

// ListOffers passes through to the wallet.
func (m *Manager) ListOffers() ([][32]byte, error) {
	return m.wallet.ListOffers()
}

// DisableOffer transitions id's status to the corresponding *_disabled
// state. Idempotent on an already-disabled offer; fails
// ErrOfferAlreadyDisabled on an already-used single-use offer.
func (m *Manager) DisableOffer(id [32]byte) (OfferStatus, error) {
	rec, err := m.wallet.FindOffer(id)
	if err != nil {
		return "", err
	}

	switch rec.Status {
	case StatusSingleDisabled, StatusMultiDisabled:
		// Idempotent: re-disabling is a no-op success.
		return rec.Status, nil

	case StatusUsed:
		return "", ErrOfferAlreadyDisabled

	case StatusSingleUse:
		if err := m.wallet.SetOfferStatus(id, StatusSingleDisabled); err != nil {
			return "", err
		}
		return StatusSingleDisabled, nil

	case StatusMultiUse:
		if err := m.wallet.SetOfferStatus(id, StatusMultiDisabled); err != nil {
			return "", err
		}
		return StatusMultiDisabled, nil

	default:
		return "", ErrOfferNotFound
	}
}

// MarkUsed transitions a single_use offer to StatusUsed on payment
// confirmation, driven externally. multi_use offers are left untouched:
// "used" is terminal for single-use offers only.
func (m *Manager) MarkUsed(id [32]byte) error {
	rec, err := m.wallet.FindOffer(id)
	if err != nil {
		return err
	}

	if rec.Status != StatusSingleUse {
		return nil
	}

	return m.wallet.SetOfferStatus(id, StatusUsed)
}

// RejectSendInvoice returns ErrSendInvoiceOffer if offer solicits payment
// to the user rather than from them; request-building paths call this
// before proceeding.
func RejectSendInvoice(offer *record.Offer) error {
	if offer.SendInvoice {
		return ErrSendInvoiceOffer
	}
	return nil
}
