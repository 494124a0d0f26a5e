package main

import (
	"github.com/btcsuite/btclog"
	"github.com/lightninglabs/lnoffer/fetchinvoice"
	"github.com/lightninglabs/lnoffer/invreq"
	"github.com/lightninglabs/lnoffer/offerbook"
	"github.com/lightninglabs/lnoffer/onionpath"
	"github.com/lightninglabs/lnoffer/payerkey"
	"github.com/lightninglabs/lnoffer/record"
	"github.com/lightninglabs/lnoffer/sig"
	"github.com/lightninglabs/lnoffer/walletdb"
)

var log btclog.Logger = btclog.Disabled

// useLoggers wires one subsystem logger across every lnoffer package,
// mirroring lnd.go's startup sequence of UseLogger calls across its own
// subsystems.
func useLoggers(logger btclog.Logger) {
	log = logger

	fetchinvoice.UseLogger(logger)
	offerbook.UseLogger(logger)
	onionpath.UseLogger(logger)
	payerkey.UseLogger(logger)
	invreq.UseLogger(logger)
	record.UseLogger(logger)
	sig.UseLogger(logger)
	walletdb.UseLogger(logger)
}
