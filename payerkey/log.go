package payerkey

import "github.com/btcsuite/btclog"

var log btclog.Logger = btclog.Disabled

// UseLogger sets the subsystem logger used by package payerkey.
func UseLogger(logger btclog.Logger) {
	log = logger
}
