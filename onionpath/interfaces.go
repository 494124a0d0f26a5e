package onionpath

// Node is a gossip-known node, enough to drive pathfinding and the feature
// check for onion-message capability.
type Node struct {
	ID       [32]byte
	Features []byte
}

// SupportsFeature reports whether bit is set in n.Features, using the same
// little-endian-bit convention as lnwire feature vectors.
func (n *Node) SupportsFeature(bit uint32) bool {
	idx := bit / 8
	if int(idx) >= len(n.Features) {
		return false
	}
	return n.Features[idx]&(1<<(bit%8)) != 0
}

// Edge is one directed channel edge considered during pathfinding.
type Edge struct {
	From, To [32]byte
	Enabled  bool
	Capacity uint64
}

// Route is an ordered list of hops from self to the destination,
// exclusive of self, inclusive of the destination.
type Route struct {
	Hops []*Node
}

// Gossip is the external network-view collaborator: node lookup, an edge
// snapshot, and refresh. Path search (FindRoute) and the feature check
// (Node.SupportsFeature) are done in this package on top of it.
type Gossip interface {
	// Lookup returns the full node record for id, or nil if unknown; the
	// caller fails the path search as UnknownDestination when absent.
	Lookup(id [32]byte) (*Node, error)

	// Edges returns every edge currently known to the gossip oracle, a
	// single consistent snapshot so pathfinding never sees a torn read
	// mid-search.
	Edges() ([]*Edge, error)

	// Refresh pulls a fresh snapshot of the network view.
	Refresh() error
}

// Transport is the external onion-message delivery collaborator.
type Transport interface {
	// SendOnionMessage hands off hops and a blinded reply path for
	// delivery. It returns as soon as the message is queued; no
	// synchronous acknowledgment is expected.
	SendOnionMessage(hops []Hop, reply ReplyPath) error
}

// Hop is one forward-path onion-message hop.
type Hop struct {
	NodeID  [32]byte
	Payload []byte
}

// ReplyPath is the blinded return path a responder uses to reach back to
// us without learning our identity.
type ReplyPath struct {
	// Blinding is E, the correlation token a responder echoes back
	// verbatim as reply_blinding.
	Blinding [32]byte
	Path     []ReplyHop
}

// ReplyHop is one hop of a blinded reply path: a blinded node pubkey plus
// its encrypted routing instructions.
type ReplyHop struct {
	BlindedNodeID [32]byte
	EncTLV        []byte
}
