package main

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/lightninglabs/lnoffer/fetchinvoice"
	"github.com/lightninglabs/lnoffer/invreq"
	"github.com/lightninglabs/lnoffer/offerbook"
	"github.com/lightninglabs/lnoffer/onionpath"
	"github.com/lightninglabs/lnoffer/payerkey"
	"github.com/lightninglabs/lnoffer/record"
	"github.com/lightninglabs/lnoffer/walletdb"
	"github.com/urfave/cli"
)

// openWallet opens the bolt-backed reference wallet under cfg.DataDir,
// following lnd.go's "open the datastore, defer the close" startup shape.
func openWallet(cfg *config) (*walletdb.DB, func(), error) {
	backend, err := kvdb.Create(
		kvdb.BoltBackendName, cfg.DataDir+"/offers.db", true,
		kvdb.DefaultDBTimeout,
	)
	if err != nil {
		return nil, nil, err
	}

	db, err := walletdb.Open(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return db, func() { backend.Close() }, nil
}

func manager(cfg *config) (*offerbook.Manager, *walletdb.DB, func(), error) {
	db, cleanup, err := openWallet(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return offerbook.NewManager(db, nil), db, cleanup, nil
}

var createOfferCommand = cli.Command{
	Name:      "create_offer",
	Usage:     "create and persist a new offer",
	ArgsUsage: "description",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "label", Usage: "local label for this offer"},
		cli.Uint64Flag{Name: "amount_msat", Usage: "fixed amount in millisatoshi; omit for an amountless offer"},
		cli.BoolFlag{Name: "single_use", Usage: "mark the offer single_use instead of multi_use"},
	},
	Action: createOffer,
}

func createOffer(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return fmt.Errorf("description argument missing")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	keyBytes, err := cfg.nodeKeyBytes()
	if err != nil {
		return err
	}
	chain, err := cfg.chainHashBytes()
	if err != nil {
		return err
	}

	signer := newLocalSigner(keyBytes)

	offer := &record.Offer{
		Description: ctx.Args().First(),
	}
	if !isBitcoinMainnet(chain) {
		offer.Chains = [][32]byte{chain}
	}
	if ctx.IsSet("amount_msat") {
		amt := ctx.Uint64("amount_msat")
		offer.Amount = &amt
	}

	var nodeID [32]byte
	copy(nodeID[:], schnorr.SerializePubKey(signer.NodePub()))
	offer.NodeID = nodeID

	root := offer.Merkle()
	sigOut, err := signer.SignBolt12("offer", "signature", root, nil)
	if err != nil {
		return err
	}
	offer.Signature = sigOut

	data, err := record.EncodeOffer(offer)
	if err != nil {
		return err
	}
	bolt12, err := record.EncodeBolt12String(record.KindOffer, data)
	if err != nil {
		return err
	}

	mgr, _, cleanup, err := manager(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := mgr.CreateOffer(offer, bolt12, ctx.String("label"), ctx.Bool("single_use")); err != nil {
		return err
	}

	fmt.Printf("offer_id: %x\n%s\n", offer.Merkle(), bolt12)
	return nil
}

var listOffersCommand = cli.Command{
	Name:   "list_offers",
	Usage:  "list every persisted offer",
	Action: listOffers,
}

func listOffers(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr, _, cleanup, err := manager(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ids, err := mgr.ListOffers()
	if err != nil {
		return err
	}

	for _, id := range ids {
		rec, err := mgr.FindOffer(id)
		if err != nil {
			return err
		}
		fmt.Printf("%x  %-16s  %s  %s\n", id, rec.Status, rec.Label, rec.Bolt12)
	}
	return nil
}

var disableOfferCommand = cli.Command{
	Name:      "disable_offer",
	Usage:     "disable a persisted offer",
	ArgsUsage: "offer_id",
	Action:    disableOffer,
}

func disableOffer(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return fmt.Errorf("offer_id argument missing")
	}

	id, err := decodeNodeID(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("invalid offer_id: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, _, cleanup, err := manager(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	status, err := mgr.DisableOffer(id)
	if err != nil {
		return err
	}

	fmt.Printf("offer %x is now %s\n", id, status)
	return nil
}

var createInvoiceRequestCommand = cli.Command{
	Name:      "create_invoice_request",
	Usage:     "build a signed invoice_request from a bolt12 offer string",
	ArgsUsage: "offer_string",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "amount_msat"},
		cli.Uint64Flag{Name: "quantity"},
		cli.StringFlag{Name: "recurrence_label"},
		cli.Uint64Flag{Name: "recurrence_counter"},
		cli.StringFlag{Name: "payer_note"},
	},
	Action: createInvoiceRequest,
}

func createInvoiceRequest(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return fmt.Errorf("offer_string argument missing")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	keyBytes, err := cfg.nodeKeyBytes()
	if err != nil {
		return err
	}
	chain, err := cfg.chainHashBytes()
	if err != nil {
		return err
	}

	signer := newLocalSigner(keyBytes)
	deriver := payerkey.NewDeriver(signer.NodePub())

	mgr, wallet, cleanup, err := manager(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	offer, err := mgr.DecodeOffer(ctx.Args().First())
	if err != nil {
		return err
	}

	builder := invreq.NewBuilder(wallet, signer, deriver, nil, chain, nil)

	params := invreq.Params{PayerNote: ctx.String("payer_note")}
	if ctx.IsSet("amount_msat") {
		amt := ctx.Uint64("amount_msat")
		params.AmountMsat = &amt
	}
	if ctx.IsSet("quantity") {
		q := ctx.Uint64("quantity")
		params.Quantity = &q
	}
	if ctx.IsSet("recurrence_counter") {
		c := uint32(ctx.Uint64("recurrence_counter"))
		params.RecurrenceCounter = &c
	}
	params.RecurrenceLabel = ctx.String("recurrence_label")

	req, err := builder.Build(offer, params)
	if err != nil {
		return err
	}

	data, err := record.EncodeInvoiceRequest(req)
	if err != nil {
		return err
	}
	s, err := record.EncodeBolt12String(record.KindInvoiceRequest, data)
	if err != nil {
		return err
	}

	fmt.Println(s)
	return nil
}

var fetchInvoiceCommand = cli.Command{
	Name:      "fetch_invoice",
	Usage:     "send an invoice_request and wait for the matching invoice",
	ArgsUsage: "offer_string",
	Flags: []cli.Flag{
		cli.Uint64Flag{Name: "amount_msat"},
		cli.Uint64Flag{Name: "quantity"},
		cli.StringFlag{Name: "recurrence_label"},
		cli.Uint64Flag{Name: "recurrence_counter"},
		cli.StringFlag{Name: "payer_note"},
		cli.DurationFlag{Name: "timeout", Value: fetchinvoice.DefaultRequestTimeout},
	},
	Action: fetchInvoice,
}

func fetchInvoice(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return fmt.Errorf("offer_string argument missing")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	keyBytes, err := cfg.nodeKeyBytes()
	if err != nil {
		return err
	}
	chain, err := cfg.chainHashBytes()
	if err != nil {
		return err
	}

	signer := newLocalSigner(keyBytes)
	deriver := payerkey.NewDeriver(signer.NodePub())

	mgr, wallet, cleanup, err := manager(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	builder := invreq.NewBuilder(wallet, signer, deriver, nil, chain, nil)

	gossip, err := newFileGossip(cfg.GossipFile)
	if err != nil {
		return err
	}

	var self [32]byte
	copy(self[:], schnorr.SerializePubKey(signer.NodePub()))

	transport := newMailboxTransport(cfg.MailboxDir, self)
	router := onionpath.NewRouter(gossip, transport, self)

	engine := fetchinvoice.NewEngine(fetchinvoice.Config{
		Manager: mgr,
		Builder: builder,
		Router:  router,
		Timeout: ctx.Duration("timeout"),
	})
	engine.Start()
	defer engine.Stop()

	stop := make(chan struct{})
	defer close(stop)
	go transport.pollInbound(stop, engine.OnOnionMessage)

	params := invreq.Params{PayerNote: ctx.String("payer_note")}
	if ctx.IsSet("amount_msat") {
		amt := ctx.Uint64("amount_msat")
		params.AmountMsat = &amt
	}
	if ctx.IsSet("quantity") {
		q := ctx.Uint64("quantity")
		params.Quantity = &q
	}
	if ctx.IsSet("recurrence_counter") {
		c := uint32(ctx.Uint64("recurrence_counter"))
		params.RecurrenceCounter = &c
	}
	params.RecurrenceLabel = ctx.String("recurrence_label")

	result, err := engine.FetchInvoice(ctx.Args().First(), params)
	if err != nil {
		return err
	}

	fmt.Printf("invoice: %s\n", result.InvoiceString)
	if result.Changes != nil {
		fmt.Printf("changes: %+v\n", result.Changes)
	}
	if result.NextPeriod != nil {
		fmt.Printf("next_period: counter=%d start=%d end=%d\n",
			result.NextPeriod.Counter, result.NextPeriod.Starttime,
			result.NextPeriod.Endtime)
	}

	if err := wallet.RecordPayment(params.RecurrenceLabel, offerbook.Payment{
		OfferID:           result.Invoice.OfferID,
		Label:             params.RecurrenceLabel,
		RecurrenceCounter: valueOr(params.RecurrenceCounter, 0),
		PayerInfo:         result.Invoice.PayerInfo,
		PaidAt:            uint64(time.Now().Unix()),
	}); err != nil && params.RecurrenceLabel != "" {
		log.Errorf("recording payment for recurrence continuity: %v", err)
	}

	return nil
}

func valueOr(p *uint32, def uint32) uint32 {
	if p == nil {
		return def
	}
	return *p
}

func isBitcoinMainnet(chain [32]byte) bool {
	var zero [32]byte
	return chain == zero
}
