package source

import "sync"

// EventKind classifies a change notification from the link source.
type EventKind int

const (
	// EventBulk signals that many notes changed at once (vault-wide resolve).
	// The view answers with a full incremental sync.
	EventBulk EventKind = iota

	// EventNote signals that a single note's links changed. Carries the
	// note's label. The view answers with a single-node sync, deferring
	// global pruning to the next bulk event.
	EventNote
)

// Event is one change notification.
type Event struct {
	Kind  EventKind
	Label string // set for EventNote
}

// Mailbox coalesces change notifications into at most one pending request,
// drained once per tick. Delivery is asynchronous (any goroutine may Post)
// but application is not: only the tick loop calls Drain, which keeps
// structural mutation out of the draw path.
//
// Coalescing rules: a bulk event absorbs everything; multiple note events
// for different labels escalate to a bulk event (a bulk sync subsumes any
// set of single-note syncs); repeated events for the same label stay a
// single note event.
type Mailbox struct {
	mu      sync.Mutex
	pending bool
	event   Event
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Post delivers an event, coalescing with any event already pending.
func (m *Mailbox) Post(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pending {
		m.pending = true
		m.event = e
		return
	}
	if m.event.Kind == EventBulk || e.Kind == EventBulk {
		m.event = Event{Kind: EventBulk}
		return
	}
	// Two note events: same label coalesces, different labels escalate.
	if m.event.Label != e.Label {
		m.event = Event{Kind: EventBulk}
	}
}

// Drain removes and returns the pending event, if any.
func (m *Mailbox) Drain() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pending {
		return Event{}, false
	}
	m.pending = false
	e := m.event
	m.event = Event{}
	return e, true
}

// Pending reports whether an event is waiting without consuming it.
func (m *Mailbox) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}
