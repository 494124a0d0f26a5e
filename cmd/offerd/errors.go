package main

import "fmt"

// Sentinel errors for the offerd binary, in the channeldb/error.go Err*
// style the rest of the module follows.
var (
	// ErrNoNodeKey is returned when an operation needs the signing key
	// and --nodekey was left unset.
	ErrNoNodeKey = fmt.Errorf("no --nodekey configured")

	// ErrPeerUnknown names a node_id absent from the loaded gossip
	// snapshot. The demo Gossip adapter does not return it: its Lookup
	// reports an absent node as nil, which onionpath.FindRoute turns
	// into ErrUnknownDestination.
	ErrPeerUnknown = fmt.Errorf("node_id not present in gossip snapshot")
)
