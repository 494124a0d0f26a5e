// Package onionpath implements the transport router: Dijkstra pathfinding
// over the gossip oracle restricted to onion-message capable hops, blinded
// reply-path construction, and handoff to the Transport collaborator.
package onionpath

// Router sends an onion-message-carried payload to a destination node,
// attaching a blinded reply path back to self.
type Router struct {
	gossip    Gossip
	transport Transport
	self      [32]byte
}

// NewRouter returns a Router for self, using gossip for pathfinding and
// transport for delivery.
func NewRouter(gossip Gossip, transport Transport, self [32]byte) *Router {
	return &Router{gossip: gossip, transport: transport, self: self}
}

// Send routes payload to dest and attaches a blinded reply path, returning
// the reply_blinding correlation token the caller should key its
// outstanding-request table by.
func (r *Router) Send(dest [32]byte, payload []byte) ([32]byte, error) {
	route, err := FindRoute(r.gossip, r.self, dest)
	if err != nil {
		return [32]byte{}, err
	}

	selfNode, err := r.gossip.Lookup(r.self)
	if err != nil {
		return [32]byte{}, err
	}
	if selfNode == nil {
		selfNode = &Node{ID: r.self}
	}

	reply, err := BuildReplyPath(route, selfNode)
	if err != nil {
		return [32]byte{}, err
	}

	hops := make([]Hop, 0, len(route.Hops)+1)
	for _, n := range route.Hops {
		hops = append(hops, Hop{NodeID: n.ID})
	}
	hops = append(hops, Hop{NodeID: dest, Payload: payload})

	if err := r.transport.SendOnionMessage(hops, *reply); err != nil {
		return [32]byte{}, err
	}

	return reply.Blinding, nil
}
