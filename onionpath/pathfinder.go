package onionpath

import (
	"container/heap"
)

// FindRoute runs Dijkstra over the gossip oracle's current edge snapshot
// from self to dest, restricted to edges that are enabled in both
// directions and whose far endpoint advertises onion-message support.
// Weight favors fewer hops, with ties broken in favor of the
// higher-capacity edge, mirroring lnd's pathfinding shape in routing/.
func FindRoute(gossip Gossip, self, dest [32]byte) (*Route, error) {
	destNode, err := gossip.Lookup(dest)
	if err != nil {
		return nil, err
	}
	if destNode == nil {
		return nil, ErrUnknownDestination
	}

	edges, err := gossip.Edges()
	if err != nil {
		return nil, err
	}

	adj := buildAdjacency(edges, gossip)

	dist := map[[32]byte]int{self: 0}
	prev := map[[32]byte][32]byte{}
	visited := map[[32]byte]bool{}

	pq := &priorityQueue{{node: self, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		if cur.node == dest {
			break
		}

		for _, e := range adj[cur.node] {
			nd := dist[cur.node] + 1
			existing, ok := dist[e.To]
			if !ok || nd < existing || (nd == existing && e.Capacity > adj.bestCapacity(prev[e.To], e.To)) {
				dist[e.To] = nd
				prev[e.To] = cur.node
				heap.Push(pq, &pqItem{node: e.To, dist: nd})
			}
		}
	}

	if _, ok := dist[dest]; !ok {
		return nil, ErrRouteNotFound
	}

	// Walk prev back from dest to self, then reverse.
	var hopsRev [][32]byte
	for n := dest; n != self; n = prev[n] {
		hopsRev = append(hopsRev, n)
	}

	route := &Route{}
	for i := len(hopsRev) - 1; i >= 0; i-- {
		node, err := gossip.Lookup(hopsRev[i])
		if err != nil {
			return nil, err
		}
		route.Hops = append(route.Hops, node)
	}

	return route, nil
}

type adjacency map[[32]byte][]*Edge

func (a adjacency) bestCapacity(from, to [32]byte) uint64 {
	var best uint64
	for _, e := range a[from] {
		if e.To == to && e.Capacity > best {
			best = e.Capacity
		}
	}
	return best
}

// buildAdjacency filters edges down to those usable for onion-message
// forwarding: enabled in both directions, and whose far endpoint supports
// OnionMessagesFeatureBit.
func buildAdjacency(edges []*Edge, gossip Gossip) adjacency {
	enabled := make(map[[2][32]byte]bool, len(edges))
	for _, e := range edges {
		if e.Enabled {
			enabled[[2][32]byte{e.From, e.To}] = true
		}
	}

	adj := make(adjacency)
	for _, e := range edges {
		if !e.Enabled || !enabled[[2][32]byte{e.To, e.From}] {
			continue
		}

		far, err := gossip.Lookup(e.To)
		if err != nil || far == nil {
			continue
		}
		if !far.SupportsFeature(OnionMessagesFeatureBit) {
			continue
		}

		adj[e.From] = append(adj[e.From], e)
	}
	return adj
}

type pqItem struct {
	node [32]byte
	dist int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(*pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
