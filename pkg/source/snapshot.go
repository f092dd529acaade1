// Package source defines the link-source interface the view consumes: a
// snapshot of resolved and unresolved links between labeled notes, and the
// change notifications that tell the view when to re-synchronize.
//
// A snapshot is two nested maps, source-label → target-label → weight.
// Weight is carried for interface fidelity with vault scanners but the
// core only cares about presence. Notifications are not applied inline;
// they land in a single-slot [Mailbox] drained once per tick, so structural
// mutation never interleaves with an in-progress buffer write or draw.
package source

import "maps"

// Snapshot is one consistent observation of the external link source.
//
// Resolved holds links whose target note exists; Unresolved holds links to
// missing notes. A label may appear as a target in both maps across
// different sources - resolution precedence is the synchronizer's concern,
// not the snapshot's.
type Snapshot struct {
	Resolved   map[string]map[string]float64 `json:"resolved" toml:"resolved"`
	Unresolved map[string]map[string]float64 `json:"unresolved" toml:"unresolved"`
}

// NewSnapshot creates an empty snapshot with both maps initialized.
func NewSnapshot() Snapshot {
	return Snapshot{
		Resolved:   make(map[string]map[string]float64),
		Unresolved: make(map[string]map[string]float64),
	}
}

// AddResolved records a resolved source→target link.
func (s *Snapshot) AddResolved(source, target string, weight float64) {
	if s.Resolved == nil {
		s.Resolved = make(map[string]map[string]float64)
	}
	if s.Resolved[source] == nil {
		s.Resolved[source] = make(map[string]float64)
	}
	s.Resolved[source][target] = weight
}

// AddUnresolved records an unresolved source→target link.
func (s *Snapshot) AddUnresolved(source, target string, weight float64) {
	if s.Unresolved == nil {
		s.Unresolved = make(map[string]map[string]float64)
	}
	if s.Unresolved[source] == nil {
		s.Unresolved[source] = make(map[string]float64)
	}
	s.Unresolved[source][target] = weight
}

// Targets returns the merged target set for one source label: every target
// the source links to in either map. The result is a fresh map.
func (s Snapshot) Targets(source string) map[string]float64 {
	out := make(map[string]float64)
	maps.Copy(out, s.Unresolved[source])
	maps.Copy(out, s.Resolved[source])
	return out
}

// SourceCount returns the number of distinct source labels.
func (s Snapshot) SourceCount() int {
	seen := make(map[string]struct{}, len(s.Resolved)+len(s.Unresolved))
	for k := range s.Resolved {
		seen[k] = struct{}{}
	}
	for k := range s.Unresolved {
		seen[k] = struct{}{}
	}
	return len(seen)
}

// LinkCount returns the total number of source→target pairs across both maps.
func (s Snapshot) LinkCount() int {
	n := 0
	for _, targets := range s.Resolved {
		n += len(targets)
	}
	for _, targets := range s.Unresolved {
		n += len(targets)
	}
	return n
}
