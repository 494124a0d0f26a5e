package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lightninglabs/lnoffer/fetchinvoice"
	"github.com/lightninglabs/lnoffer/onionpath"
	"github.com/lightninglabs/lnoffer/record"
)

// fileGossip is a reference onionpath.Gossip adapter that reads a static
// JSON snapshot of the network view from disk. It is a stand-in for a real
// gossip sync, which the embedding lnd node owns in production; good enough
// to exercise pathfinding against a fixture network for local/demo use.
type fileGossip struct {
	path string

	mu    sync.RWMutex
	nodes map[[32]byte]*onionpath.Node
	edges []*onionpath.Edge
}

type gossipSnapshot struct {
	Nodes []struct {
		ID       string `json:"id"`
		Features string `json:"features"`
	} `json:"nodes"`
	Edges []struct {
		From     string `json:"from"`
		To       string `json:"to"`
		Enabled  bool   `json:"enabled"`
		Capacity uint64 `json:"capacity"`
	} `json:"edges"`
}

// newFileGossip loads path once; call Refresh to reload it.
func newFileGossip(path string) (*fileGossip, error) {
	g := &fileGossip{path: path}
	if err := g.Refresh(); err != nil {
		return nil, err
	}
	return g, nil
}

// Refresh reloads the gossip snapshot from disk.
func (g *fileGossip) Refresh() error {
	data, err := os.ReadFile(g.path)
	if os.IsNotExist(err) {
		g.mu.Lock()
		g.nodes = make(map[[32]byte]*onionpath.Node)
		g.edges = nil
		g.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	var snap gossipSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing gossip snapshot %s: %w", g.path, err)
	}

	nodes := make(map[[32]byte]*onionpath.Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		id, err := decodeNodeID(n.ID)
		if err != nil {
			return err
		}
		features, err := hex.DecodeString(n.Features)
		if err != nil {
			return fmt.Errorf("node %s: bad features hex: %w", n.ID, err)
		}
		nodes[id] = &onionpath.Node{ID: id, Features: features}
	}

	edges := make([]*onionpath.Edge, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		from, err := decodeNodeID(e.From)
		if err != nil {
			return err
		}
		to, err := decodeNodeID(e.To)
		if err != nil {
			return err
		}
		edges = append(edges, &onionpath.Edge{
			From: from, To: to, Enabled: e.Enabled, Capacity: e.Capacity,
		})
	}

	g.mu.Lock()
	g.nodes = nodes
	g.edges = edges
	g.mu.Unlock()

	return nil
}

// Lookup returns the node record for id, or nil if id is not in the
// snapshot.
func (g *fileGossip) Lookup(id [32]byte) (*onionpath.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, nil
	}
	return n, nil
}

// Edges returns a snapshot of every known edge.
func (g *fileGossip) Edges() ([]*onionpath.Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*onionpath.Edge, len(g.edges))
	copy(out, g.edges)
	return out, nil
}

func decodeNodeID(s string) ([32]byte, error) {
	var id [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("bad node_id hex %q: %w", s, err)
	}
	if len(b) != 32 {
		return id, fmt.Errorf("node_id %q must be 32 bytes", s)
	}
	copy(id[:], b)
	return id, nil
}

// mailboxTransport is a reference onionpath.Transport adapter: onion
// messages are written as JSON files into a per-destination mailbox
// directory, and a poll loop watches our own mailbox for inbound replies.
// This is deliberately not a real onion-message wire transport, which is
// left external for the embedding node to supply; it exists so
// fetch_invoice is exercisable end-to-end against the demo Gossip network
// without a live lnd peer connection.
type mailboxTransport struct {
	dir  string
	self [32]byte
}

type mailboxMessage struct {
	Hops  []onionpath.Hop    `json:"hops"`
	Reply onionpath.ReplyPath `json:"reply"`
}

func newMailboxTransport(dir string, self [32]byte) *mailboxTransport {
	return &mailboxTransport{dir: dir, self: self}
}

// SendOnionMessage drops msg into the final hop's mailbox directory.
func (t *mailboxTransport) SendOnionMessage(hops []onionpath.Hop, reply onionpath.ReplyPath) error {
	if len(hops) == 0 {
		return fmt.Errorf("no hops to send to")
	}

	dest := hops[len(hops)-1].NodeID
	destDir := filepath.Join(t.dir, hex.EncodeToString(dest[:]))
	if err := os.MkdirAll(destDir, 0700); err != nil {
		return err
	}

	msg := mailboxMessage{Hops: hops, Reply: reply}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%d.json", time.Now().UnixNano())
	return os.WriteFile(filepath.Join(destDir, name), data, 0600)
}

// replyMessage is what a responder (out of this core's scope to run) drops
// into our mailbox once it has built a reply: the raw
// invoice/invoice_error bytes plus the blinding token it echoed back from
// our reply path, which fetchinvoice.Engine uses to correlate the reply to
// its OutstandingRequest.
type replyMessage struct {
	BlindingIn    string `json:"blinding_in"`
	InvoiceHex    string `json:"invoice,omitempty"`
	InvoiceErrHex string `json:"invoice_error,omitempty"`
}

// decodeReplyMessage parses a replyMessage into the InboundMessage shape
// fetchinvoice.Engine.OnOnionMessage expects.
func decodeReplyMessage(data []byte) (fetchinvoice.InboundMessage, error) {
	var raw replyMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fetchinvoice.InboundMessage{}, err
	}

	blinding, err := decodeNodeID(raw.BlindingIn)
	if err != nil {
		return fetchinvoice.InboundMessage{}, err
	}

	msg := fetchinvoice.InboundMessage{BlindingIn: blinding}

	if raw.InvoiceHex != "" {
		b, err := hex.DecodeString(raw.InvoiceHex)
		if err != nil {
			return fetchinvoice.InboundMessage{}, err
		}
		inv, err := record.DecodeInvoice(b)
		if err != nil {
			return fetchinvoice.InboundMessage{}, err
		}
		msg.Invoice = inv
	}

	if raw.InvoiceErrHex != "" {
		b, err := hex.DecodeString(raw.InvoiceErrHex)
		if err != nil {
			return fetchinvoice.InboundMessage{}, err
		}
		invErr, err := record.DecodeInvoiceError(b)
		if err != nil {
			return fetchinvoice.InboundMessage{}, err
		}
		msg.InvoiceError = invErr
	}

	return msg, nil
}

// pollInbound watches our own mailbox for replyMessages and invokes
// onMessage for each, until stop is closed.
func (t *mailboxTransport) pollInbound(stop <-chan struct{}, onMessage func(fetchinvoice.InboundMessage)) {
	selfDir := filepath.Join(t.dir, hex.EncodeToString(t.self[:]))
	if err := os.MkdirAll(selfDir, 0700); err != nil {
		log.Errorf("mailbox: cannot create inbound dir: %v", err)
		return
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			entries, err := os.ReadDir(selfDir)
			if err != nil {
				log.Errorf("mailbox: reading inbound dir: %v", err)
				continue
			}

			for _, entry := range entries {
				path := filepath.Join(selfDir, entry.Name())
				data, err := os.ReadFile(path)
				if err != nil {
					continue
				}
				os.Remove(path)

				msg, err := decodeReplyMessage(data)
				if err != nil {
					log.Errorf("mailbox: bad reply %s: %v", path, err)
					continue
				}

				onMessage(msg)
			}
		}
	}
}
