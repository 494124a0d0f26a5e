package onionpath

import "github.com/btcsuite/btclog"

var log btclog.Logger = btclog.Disabled

// UseLogger sets the subsystem logger used by package onionpath.
func UseLogger(logger btclog.Logger) {
	log = logger
}
