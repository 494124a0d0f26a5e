// Package fetchinvoice implements the exchange engine: a single-threaded
// cooperative event loop that correlates outstanding invoice_request/invoice
// exchanges by reply_blinding, validates returned invoices, and resumes the
// suspended caller with a result or a structured failure.
//
// The loop shape is lifted from lnd's htlcswitch.Switch htlcForwarder: a
// command channel plus a central select, so every mutation of the
// outstanding table happens on one goroutine without locks. Request
// building, including the signer call for a recurrence_signature, runs on
// the goroutine that called FetchInvoice before the request reaches the
// loop, so concurrent FetchInvoice calls reach the signer concurrently.
package fetchinvoice

import (
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/lightninglabs/lnoffer/invreq"
	"github.com/lightninglabs/lnoffer/offerbook"
	"github.com/lightninglabs/lnoffer/onionpath"
	"github.com/lightninglabs/lnoffer/record"
)

// DefaultRequestTimeout is the recommended deadline for an outstanding
// invoice_request awaiting its invoice.
const DefaultRequestTimeout = 60 * time.Second

// Result is what FetchInvoice resumes the caller with on success.
type Result struct {
	InvoiceString string
	Invoice       *record.Invoice
	Changes       *Changes
	NextPeriod    *NextPeriod
}

// outstandingRequest tracks one in-flight invoice_request, keyed by
// reply_blinding in Engine.outstanding.
type outstandingRequest struct {
	offer    *record.Offer
	invreq   *record.InvoiceRequest
	deadline time.Time
	resultCh chan fetchOutcome
}

type fetchOutcome struct {
	result *Result
	err    error
}

// Engine is the exchange engine.
type Engine struct {
	manager *offerbook.Manager
	builder *invreq.Builder
	router  *onionpath.Router
	clock   clock.Clock
	timeout time.Duration

	cmdCh   chan interface{}
	inbound *queue.ConcurrentQueue
	ticker  ticker.Ticker
	quit    chan struct{}
	wg      sync.WaitGroup

	outstanding map[[32]byte]*outstandingRequest
}

// Config bundles Engine's collaborators, plumbed through from the
// packages that construct them.
type Config struct {
	Manager *offerbook.Manager
	Builder *invreq.Builder
	Router  *onionpath.Router
	Clock   clock.Clock
	Timeout time.Duration
	// Ticker drives the deadline sweep; if nil, ticker.New(time.Second)
	// is used. Tests inject ticker.NewForce to control sweeps
	// deterministically.
	Ticker ticker.Ticker
}

// NewEngine constructs an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.Ticker == nil {
		cfg.Ticker = ticker.New(time.Second)
	}

	return &Engine{
		manager:     cfg.Manager,
		builder:     cfg.Builder,
		router:      cfg.Router,
		clock:       cfg.Clock,
		timeout:     cfg.Timeout,
		cmdCh:       make(chan interface{}),
		inbound:     queue.NewConcurrentQueue(32),
		ticker:      cfg.Ticker,
		quit:        make(chan struct{}),
		outstanding: make(map[[32]byte]*outstandingRequest),
	}
}

// Start launches the engine's event loop.
func (e *Engine) Start() {
	e.inbound.Start()
	e.ticker.Resume()

	e.wg.Add(1)
	go e.run()
}

// Stop shuts the engine down, unblocking any outstanding FetchInvoice call
// with ErrEngineStopped.
func (e *Engine) Stop() {
	close(e.quit)
	e.wg.Wait()
	e.inbound.Stop()
	e.ticker.Stop()
}

// sendCmd asks the loop to register a new outstanding request and send it.
type sendCmd struct {
	offer    *record.Offer
	invreq   *record.InvoiceRequest
	destNode [32]byte
	resultCh chan fetchOutcome
}

// FetchInvoice builds an InvoiceRequest from offer, sends it, and blocks
// until a matching invoice/invoice_error arrives, the deadline elapses, or
// the engine is stopped.
func (e *Engine) FetchInvoice(offerString string, params invreq.Params) (*Result, error) {
	offer, err := e.manager.DecodeOffer(offerString)
	if err != nil {
		return nil, err
	}

	req, err := e.builder.Build(offer, params)
	if err != nil {
		return nil, err
	}

	resultCh := make(chan fetchOutcome, 1)
	cmd := &sendCmd{offer: offer, invreq: req, destNode: offer.NodeID, resultCh: resultCh}

	select {
	case e.cmdCh <- cmd:
	case <-e.quit:
		return nil, ErrEngineStopped
	}

	select {
	case outcome := <-resultCh:
		return outcome.result, outcome.err
	case <-e.quit:
		return nil, ErrEngineStopped
	}
}

// InboundMessage is what the Transport collaborator's
// on_onion_message_blinded hook delivers.
type InboundMessage struct {
	BlindingIn   [32]byte
	Invoice      *record.Invoice
	InvoiceError *record.InvoiceError
}

// OnOnionMessage is registered with the Transport as the inbound hook. It
// only enqueues -- all matching/validation happens on the loop goroutine.
func (e *Engine) OnOnionMessage(msg InboundMessage) {
	e.inbound.ChanIn() <- msg
}

// run is the single-threaded cooperative event loop.
func (e *Engine) run() {
	defer e.wg.Done()

	for {
		select {
		case cmd := <-e.cmdCh:
			e.handleCmd(cmd)

		case item := <-e.inbound.ChanOut():
			msg := item.(InboundMessage)
			e.handleInbound(msg)

		case <-e.ticker.Ticks():
			e.sweepDeadlines()

		case <-e.quit:
			return
		}
	}
}

func (e *Engine) handleCmd(cmd interface{}) {
	switch c := cmd.(type) {
	case *sendCmd:
		e.handleSend(c)
	}
}

// handleSend registers the new outstanding request, sets its deadline, and
// dispatches it via the router.
func (e *Engine) handleSend(c *sendCmd) {
	data, err := record.EncodeInvoiceRequest(c.invreq)
	if err != nil {
		c.resultCh <- fetchOutcome{err: err}
		return
	}

	blinding, err := e.router.Send(c.destNode, data)
	if err != nil {
		c.resultCh <- fetchOutcome{err: err}
		return
	}

	e.outstanding[blinding] = &outstandingRequest{
		offer:    c.offer,
		invreq:   c.invreq,
		deadline: e.clock.Now().Add(e.timeout),
		resultCh: c.resultCh,
	}

	requestsSent.Inc()
	outstandingGauge.Set(float64(len(e.outstanding)))
}

// handleInbound matches an inbound onion message against its outstanding
// request and resumes the waiting caller.
func (e *Engine) handleInbound(msg InboundMessage) {
	req, ok := e.outstanding[msg.BlindingIn]
	if !ok {
		log.Debugf("inbound onion message on unknown blinding %x, ignoring",
			msg.BlindingIn)
		return
	}
	delete(e.outstanding, msg.BlindingIn)
	outstandingGauge.Set(float64(len(e.outstanding)))

	if msg.InvoiceError != nil {
		invoicesRejected.WithLabelValues("invoice_error").Inc()
		req.resultCh <- fetchOutcome{err: buildRemoteInvoiceError(msg.InvoiceError)}
		return
	}

	if msg.Invoice == nil {
		invoicesRejected.WithLabelValues("invoice").Inc()
		req.resultCh <- fetchOutcome{err: &BadInvoice{Field: "invoice"}}
		return
	}

	if err := validateInvoice(req.offer, req.invreq, msg.Invoice); err != nil {
		if bad, ok := err.(*BadInvoice); ok {
			invoicesRejected.WithLabelValues(bad.Field).Inc()
		}
		req.resultCh <- fetchOutcome{err: err}
		return
	}
	invoicesValidated.Inc()

	changes, err := computeChanges(req.offer, req.invreq, msg.Invoice)
	if err != nil {
		req.resultCh <- fetchOutcome{err: err}
		return
	}

	var nextPeriod *NextPeriod
	if req.offer.Recurrence != nil && msg.Invoice.RecurrenceBasetime != nil {
		nextPeriod = ComputeNextPeriod(req.offer, req.invreq, *msg.Invoice.RecurrenceBasetime)
	}

	invoiceBytes, err := record.EncodeInvoice(msg.Invoice)
	if err != nil {
		req.resultCh <- fetchOutcome{err: err}
		return
	}
	invoiceString, err := record.EncodeBolt12String(record.KindInvoice, invoiceBytes)
	if err != nil {
		req.resultCh <- fetchOutcome{err: err}
		return
	}

	req.resultCh <- fetchOutcome{result: &Result{
		InvoiceString: invoiceString,
		Invoice:       msg.Invoice,
		Changes:       changes,
		NextPeriod:    nextPeriod,
	}}
}

// sweepDeadlines removes expired outstanding requests and resumes their
// callers with ErrTimeout.
func (e *Engine) sweepDeadlines() {
	now := e.clock.Now()
	for blinding, req := range e.outstanding {
		if now.After(req.deadline) {
			delete(e.outstanding, blinding)
			requestsTimedOut.Inc()
			req.resultCh <- fetchOutcome{err: ErrTimeout}
		}
	}
	outstandingGauge.Set(float64(len(e.outstanding)))
}

func buildRemoteInvoiceError(ie *record.InvoiceError) *RemoteInvoiceError {
	return &RemoteInvoiceError{
		ErroneousField: ie.ErroneousField,
		SuggestedValue: ie.SuggestedValue,
		ErrorText:      ie.ErrorText,
	}
}
