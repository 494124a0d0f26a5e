package record

import "github.com/btcsuite/btclog"

// log is the package-level subsystem logger, wired up by the embedding
// binary via UseLogger (cmd/offerd follows lnd.go's pattern of calling
// UseLogger on every subsystem at startup).
var log btclog.Logger = btclog.Disabled

// UseLogger sets the subsystem logger used by package record.
func UseLogger(logger btclog.Logger) {
	log = logger
}
