package onionpath

import "fmt"

// OnionMessagesFeatureBit is BOLT-9's option_onion_messages bit; a node
// must advertise it to be usable as a forwarding hop for onion messages.
const OnionMessagesFeatureBit = 38

var (
	// ErrUnknownDestination means the gossip oracle has no record of the
	// target node at all.
	ErrUnknownDestination = fmt.Errorf("destination unknown to gossip oracle")

	// ErrRouteNotFound means the target is known but no path of
	// onion-message-capable hops reaches it.
	ErrRouteNotFound = fmt.Errorf("no route found")
)
