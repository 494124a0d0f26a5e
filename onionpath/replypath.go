package onionpath

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	sphinx "github.com/lightningnetwork/lightning-onion"
)

// BuildReplyPath constructs a blinded reply path back to self along route
// reversed: a fresh session key seeds sphinx's blinding chain, so no
// intermediate hop learns more than its immediate predecessor/successor,
// and the last entry (self) is the only party able to recover its own
// identity from the path.
func BuildReplyPath(route *Route, self *Node) (*ReplyPath, error) {
	hops := make([]*Node, 0, len(route.Hops)+1)
	for i := len(route.Hops) - 1; i >= 0; i-- {
		hops = append(hops, route.Hops[i])
	}
	hops = append(hops, self)

	sessionKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}

	path := make([]*sphinx.HopInfo, len(hops))
	for i, hop := range hops {
		hopPub, err := schnorr.ParsePubKey(hop.ID[:])
		if err != nil {
			return nil, err
		}

		var nextID [32]byte
		if i+1 < len(hops) {
			nextID = hops[i+1].ID
		}

		path[i] = &sphinx.HopInfo{
			NodePub:   hopPub,
			PlainText: nextID[:],
		}
	}

	blinded, err := sphinx.BuildBlindedPath(sessionKey, path)
	if err != nil {
		return nil, err
	}

	var blindingPub [32]byte
	copy(blindingPub[:], schnorr.SerializePubKey(blinded.BlindingPoint))

	replyHops := make([]ReplyHop, len(blinded.BlindedHops))
	for i, h := range blinded.BlindedHops {
		var blindedNodeID [32]byte
		copy(blindedNodeID[:], schnorr.SerializePubKey(h.BlindedNodePub))

		replyHops[i] = ReplyHop{
			BlindedNodeID: blindedNodeID,
			EncTLV:        h.CipherText,
		}
	}

	return &ReplyPath{Blinding: blindingPub, Path: replyHops}, nil
}
