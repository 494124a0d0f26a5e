// Command offerd is the user-visible surface for lnoffer: a CLI, built the
// way cmd/lncli's command table is built, that wires the core packages
// together with the reference walletdb/localnet adapters for local and
// demo use. The core is a library an lnd-style node embeds; offerd is one
// concrete embedding of it, not the only one.
package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[offerd] %v\n", err)
	os.Exit(1)
}

func main() {
	backend := btclog.NewBackend(os.Stderr)
	useLoggers(backend.Logger("OFRD"))

	registry := prometheus.NewRegistry()
	for _, c := range metricsCollectors() {
		registry.MustRegister(c)
	}

	app := cli.NewApp()
	app.Name = "offerd"
	app.Usage = "BOLT-12 offers engine control"
	app.Commands = []cli.Command{
		createOfferCommand,
		listOffersCommand,
		disableOfferCommand,
		createInvoiceRequestCommand,
		fetchInvoiceCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
