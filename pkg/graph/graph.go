package graph

import (
	"errors"
	"slices"
)

var (
	// ErrUnknownHandle is returned by accessors when a handle does not
	// identify a live node in the graph.
	ErrUnknownHandle = errors.New("unknown node handle")

	// ErrUnknownEndpoint is returned by [Graph.AddLink] when either
	// endpoint handle does not exist.
	ErrUnknownEndpoint = errors.New("unknown link endpoint")
)

// Handle is a stable integer identifier for a node. Handles are allocated
// densely (handle = node count at allocation time) and never change while
// the node is present. A label that is removed and re-added in a fresh
// graph may receive a different handle.
type Handle int

// Slot is the link analog of a handle: an even integer index reserving two
// contiguous vertex positions in a line buffer. Slots are allocated in
// increments of two and are not reclaimed when a link is removed; stale
// slots are overwritten in place on the next structural sync.
type Slot int

// Node is the payload carried per node: the note's label and whether the
// note resolves to a real file in the vault. Nodes carry no references to
// render resources - renderers keep side tables keyed by Handle.
type Node struct {
	Handle   Handle
	Label    string
	Resolved bool
}

// Link is a directed edge between two node handles. The Slot is the link's
// reserved index into the line buffer and is the only per-link payload.
type Link struct {
	From Handle
	To   Handle
	Slot Slot
}

// Graph is a directed multigraph over dense integer node handles with a
// one-to-one label index. It is the single model the synchronizer writes
// and the layout driver and renderer read.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// use without external synchronization; in practice the view's tick loop
// is the only writer.
type Graph struct {
	nodes    []Node
	byLabel  map[string]Handle
	links    []Link
	outgoing map[Handle][]Handle
	nextSlot Slot
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byLabel:  make(map[string]Handle),
		outgoing: make(map[Handle][]Handle),
	}
}

// Ensure returns the handle for label, allocating a new node when the label
// is not yet present. New handles equal the node count at allocation time,
// so handles stay dense and append-only. The second result reports whether
// the node was created by this call.
//
// Ensure never fails: any string is a valid label.
func (g *Graph) Ensure(label string) (Handle, bool) {
	if h, ok := g.byLabel[label]; ok {
		return h, false
	}
	h := Handle(len(g.nodes))
	g.nodes = append(g.nodes, Node{Handle: h, Label: label})
	g.byLabel[label] = h
	return h, true
}

// Node returns the node for the given handle.
// Returns false if the handle is out of range.
func (g *Graph) Node(h Handle) (Node, bool) {
	if h < 0 || int(h) >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[h], true
}

// Lookup returns the handle for a label, without allocating.
func (g *Graph) Lookup(label string) (Handle, bool) {
	h, ok := g.byLabel[label]
	return h, ok
}

// SetResolved marks the node's resolved flag.
// Returns ErrUnknownHandle if the handle is out of range.
func (g *Graph) SetResolved(h Handle, resolved bool) error {
	if h < 0 || int(h) >= len(g.nodes) {
		return ErrUnknownHandle
	}
	g.nodes[h].Resolved = resolved
	return nil
}

// AddLink adds a directed link and reserves the next even slot for it.
// Slots advance by two per link so each link owns two contiguous vertex
// positions. AddLink does not deduplicate - callers that need at-most-one
// link per pair check HasLink first (the synchronizer does).
func (g *Graph) AddLink(from, to Handle) (Link, error) {
	if int(from) >= len(g.nodes) || from < 0 || int(to) >= len(g.nodes) || to < 0 {
		return Link{}, ErrUnknownEndpoint
	}
	l := Link{From: from, To: to, Slot: g.nextSlot}
	g.nextSlot += 2
	g.links = append(g.links, l)
	g.outgoing[from] = append(g.outgoing[from], to)
	return l, nil
}

// HasLink reports whether at least one from→to link exists.
func (g *Graph) HasLink(from, to Handle) bool {
	return slices.Contains(g.outgoing[from], to)
}

// RemoveLink removes the first from→to link if one exists. The removed
// link's slot is not reclaimed; the line buffer keeps its draw-range
// discipline and stale vertex data is simply no longer addressed.
func (g *Graph) RemoveLink(from, to Handle) {
	i := slices.IndexFunc(g.links, func(l Link) bool { return l.From == from && l.To == to })
	if i < 0 {
		return
	}
	g.links = slices.Delete(g.links, i, i+1)
	if j := slices.Index(g.outgoing[from], to); j >= 0 {
		g.outgoing[from] = slices.Delete(g.outgoing[from], j, j+1)
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of live links.
func (g *Graph) LinkCount() int { return len(g.links) }

// Nodes returns all nodes in handle order. The returned slice is a copy.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Links returns a copy of all live links in insertion order.
func (g *Graph) Links() []Link { return slices.Clone(g.links) }

// LinksFrom returns the live links whose source is the given handle,
// in insertion order.
func (g *Graph) LinksFrom(from Handle) []Link {
	var out []Link
	for _, l := range g.links {
		if l.From == from {
			out = append(out, l)
		}
	}
	return out
}

// EachNode calls fn for every node in handle order.
func (g *Graph) EachNode(fn func(Node)) {
	for _, n := range g.nodes {
		fn(n)
	}
}

// EachLink calls fn for every live link in insertion order.
func (g *Graph) EachLink(fn func(Link)) {
	for _, l := range g.links {
		fn(l)
	}
}

// SlotHighWater returns the next slot that would be allocated. Because
// removed links never return their slots, this only grows; the ratio of
// SlotHighWater to 2*LinkCount measures slot fragmentation from churn.
func (g *Graph) SlotHighWater() Slot { return g.nextSlot }

// CompactSlots renumbers all live links to dense even slots (0, 2, 4, ...)
// in insertion order and resets the high-water mark. It returns the number
// of links whose slot changed.
//
// Compaction invalidates any vertex data previously written by slot, so it
// must only run between frames, with a full buffer rewrite following it.
// The view triggers it when SlotHighWater exceeds a fragmentation threshold.
func (g *Graph) CompactSlots() int {
	changed := 0
	for i := range g.links {
		want := Slot(2 * i)
		if g.links[i].Slot != want {
			g.links[i].Slot = want
			changed++
		}
	}
	g.nextSlot = Slot(2 * len(g.links))
	return changed
}
