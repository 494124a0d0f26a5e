package onionpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	hops  []Hop
	reply ReplyPath
}

func (t *fakeTransport) SendOnionMessage(hops []Hop, reply ReplyPath) error {
	t.hops = hops
	t.reply = reply
	return nil
}

func TestRouterSendProducesReplyBlindingAndHops(t *testing.T) {
	g := newFakeGossip()
	self := g.addNode(true)
	middle := g.addNode(true)
	dest := g.addNode(true)
	g.link(self, middle, 100)
	g.link(middle, dest, 100)

	transport := &fakeTransport{}
	router := NewRouter(g, transport, self)

	blinding, err := router.Send(dest, []byte("invoice_request payload"))
	require.NoError(t, err)
	require.NotEqual(t, [32]byte{}, blinding)

	require.Len(t, transport.hops, 2)
	require.Equal(t, middle, transport.hops[0].NodeID)
	require.Equal(t, dest, transport.hops[1].NodeID)
	require.Equal(t, []byte("invoice_request payload"), transport.hops[1].Payload)

	require.Equal(t, blinding, transport.reply.Blinding)
	// Reply path has one hop per forward hop plus self.
	require.Len(t, transport.reply.Path, 3)
}
