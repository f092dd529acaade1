// Package reconcile keeps the graph model consistent with link-source
// snapshots without discarding simulation state.
//
// The synchronizer is the only writer of the graph. It allocates handles
// (append-only, handle == node count at allocation) and guarantees that a
// label present before and after a sync keeps its handle, which is what
// lets the layout driver carry node positions across structural changes.
//
// Three entry points with increasing scope:
//
//   - [SyncNote] applies one source label's links, deferring global pruning.
//   - [FromSnapshot] applies a whole snapshot, add/update only. Used for
//     initial population.
//   - [Sync] applies a whole snapshot and additionally prunes, per source
//     node, every link whose target vanished from the snapshot. Intended to
//     run on every structural change.
//
// All three are idempotent: re-applying the same snapshot is a no-op.
// None of them can fail - a lookup for an absent label transparently
// allocates it, and all inputs are plain strings.
package reconcile

import (
	"github.com/matzehuels/vaultgraph/pkg/graph"
	"github.com/matzehuels/vaultgraph/pkg/source"
)

// Stats summarizes the structural changes one sync call made.
type Stats struct {
	NodesAdded   int
	LinksAdded   int
	LinksRemoved int
}

// Changed reports whether the sync mutated the graph structurally.
// Resolved-flag flips alone do not count; the renderer re-derives colors
// from the graph every tick regardless.
func (s Stats) Changed() bool {
	return s.NodesAdded > 0 || s.LinksAdded > 0 || s.LinksRemoved > 0
}

func (s *Stats) add(o Stats) {
	s.NodesAdded += o.NodesAdded
	s.LinksAdded += o.LinksAdded
	s.LinksRemoved += o.LinksRemoved
}

// FromSnapshot populates g from a snapshot, adding nodes and links and
// updating resolved flags. Nothing is removed. Calling it twice with the
// same snapshot leaves the graph unchanged the second time.
func FromSnapshot(g *graph.Graph, snap source.Snapshot) Stats {
	var stats Stats
	resolved := resolvedLabels(snap)

	for src, targets := range snap.Resolved {
		stats.add(applySource(g, src, targets, resolved))
	}
	for src, targets := range snap.Unresolved {
		stats.add(applySource(g, src, targets, resolved))
	}
	return stats
}

// Sync reconciles g against a snapshot: the addition pass of
// [FromSnapshot], then a removal pass that drops, for every node already in
// the graph, each outgoing link whose target the snapshot no longer lists
// for that source. Links whose targets are still present are left untouched,
// preserving their slots.
func Sync(g *graph.Graph, snap source.Snapshot) Stats {
	stats := FromSnapshot(g, snap)

	for _, n := range g.Nodes() {
		live := snap.Targets(n.Label)
		for _, l := range g.LinksFrom(n.Handle) {
			target, ok := g.Node(l.To)
			if !ok {
				continue
			}
			if _, keep := live[target.Label]; !keep {
				g.RemoveLink(l.From, l.To)
				stats.LinksRemoved++
			}
		}
	}
	return stats
}

// SyncNote applies the addition pass for a single source label: the note's
// resolved and unresolved target sets as reported by the link source.
// Pruning of stale links is deferred to the next full [Sync]; this keeps
// single-entity change notifications cheap.
func SyncNote(g *graph.Graph, label string, resolved, unresolved map[string]float64) Stats {
	var stats Stats

	h, created := g.Ensure(label)
	if created {
		stats.NodesAdded++
	}
	g.SetResolved(h, true)

	for target := range resolved {
		stats.add(link(g, h, target, true, false))
	}
	for target := range unresolved {
		if _, isResolved := resolved[target]; isResolved {
			continue
		}
		// Without the whole snapshot we cannot tell whether the target is
		// resolved elsewhere, so never downgrade an existing node here; the
		// next full sync settles the flag.
		stats.add(link(g, h, target, false, false))
	}
	return stats
}

// applySource ensures one source node and its links. resolvedSet is the
// snapshot-wide set of labels that are resolved anywhere; membership wins
// over any unresolved appearance of the same label.
func applySource(g *graph.Graph, src string, targets map[string]float64, resolvedSet map[string]struct{}) Stats {
	var stats Stats

	h, created := g.Ensure(src)
	if created {
		stats.NodesAdded++
	}
	g.SetResolved(h, true)

	for target := range targets {
		_, isResolved := resolvedSet[target]
		stats.add(link(g, h, target, isResolved, true))
	}
	return stats
}

// link ensures the target node, applies its resolved flag, and adds the
// edge if absent. A link is only added when no from→to link exists, which
// is what makes repeated syncs no-ops. When authoritative is true the
// caller knows the snapshot-wide resolution of the target, so an
// unresolved flag overwrites a stale resolved one; otherwise existing
// nodes are never downgraded.
func link(g *graph.Graph, from graph.Handle, target string, resolved, authoritative bool) Stats {
	var stats Stats

	to, created := g.Ensure(target)
	if created {
		stats.NodesAdded++
	}
	if resolved {
		g.SetResolved(to, true)
	} else if authoritative || created {
		g.SetResolved(to, false)
	}

	if !g.HasLink(from, to) {
		if _, err := g.AddLink(from, to); err == nil {
			stats.LinksAdded++
		}
	}
	return stats
}

// resolvedLabels collects every label the snapshot marks resolved: all
// source labels (a source is a real note by construction) and every target
// of the resolved map.
func resolvedLabels(snap source.Snapshot) map[string]struct{} {
	set := make(map[string]struct{})
	for src, targets := range snap.Resolved {
		set[src] = struct{}{}
		for target := range targets {
			set[target] = struct{}{}
		}
	}
	for src := range snap.Unresolved {
		set[src] = struct{}{}
	}
	return set
}
