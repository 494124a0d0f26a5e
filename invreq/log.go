package invreq

import "github.com/btcsuite/btclog"

var log btclog.Logger = btclog.Disabled

// UseLogger sets the subsystem logger used by package invreq.
func UseLogger(logger btclog.Logger) {
	log = logger
}
