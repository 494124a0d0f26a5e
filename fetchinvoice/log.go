package fetchinvoice

import "github.com/btcsuite/btclog"

var log btclog.Logger = btclog.Disabled

// UseLogger sets the subsystem logger used by package fetchinvoice.
func UseLogger(logger btclog.Logger) {
	log = logger
}
