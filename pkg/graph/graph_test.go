package graph

import (
	"testing"
)

func TestEnsureAllocatesDenseHandles(t *testing.T) {
	g := New()

	a, created := g.Ensure("a")
	if !created || a != 0 {
		t.Fatalf("Ensure(a) = (%d, %v), want (0, true)", a, created)
	}
	b, created := g.Ensure("b")
	if !created || b != 1 {
		t.Fatalf("Ensure(b) = (%d, %v), want (1, true)", b, created)
	}

	// Re-ensuring an existing label returns the same handle.
	a2, created := g.Ensure("a")
	if created || a2 != a {
		t.Errorf("Ensure(a) again = (%d, %v), want (%d, false)", a2, created, a)
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", g.NodeCount())
	}
}

func TestAddLinkAllocatesEvenSlots(t *testing.T) {
	g := New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	c, _ := g.Ensure("c")

	l1, err := g.AddLink(a, b)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	l2, err := g.AddLink(a, c)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	if l1.Slot != 0 || l2.Slot != 2 {
		t.Errorf("slots = %d, %d, want 0, 2", l1.Slot, l2.Slot)
	}
	if g.SlotHighWater() != 4 {
		t.Errorf("SlotHighWater = %d, want 4", g.SlotHighWater())
	}
}

func TestAddLinkUnknownEndpoint(t *testing.T) {
	g := New()
	a, _ := g.Ensure("a")

	if _, err := g.AddLink(a, Handle(99)); err != ErrUnknownEndpoint {
		t.Errorf("AddLink to unknown = %v, want ErrUnknownEndpoint", err)
	}
	if _, err := g.AddLink(Handle(-1), a); err != ErrUnknownEndpoint {
		t.Errorf("AddLink from negative = %v, want ErrUnknownEndpoint", err)
	}
}

func TestRemoveLinkKeepsSlots(t *testing.T) {
	g := New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	c, _ := g.Ensure("c")
	g.AddLink(a, b)
	g.AddLink(a, c)

	g.RemoveLink(a, b)

	if g.LinkCount() != 1 {
		t.Fatalf("LinkCount = %d, want 1", g.LinkCount())
	}
	if g.HasLink(a, b) {
		t.Error("HasLink(a, b) = true after removal")
	}
	if !g.HasLink(a, c) {
		t.Error("HasLink(a, c) = false, want true")
	}
	// Removal does not reclaim slots: the next link gets slot 4, not 0.
	l, _ := g.AddLink(b, c)
	if l.Slot != 4 {
		t.Errorf("slot after removal = %d, want 4", l.Slot)
	}
}

func TestRemoveLinkMissingIsNoop(t *testing.T) {
	g := New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	g.RemoveLink(a, b) // nothing to remove
	if g.LinkCount() != 0 {
		t.Errorf("LinkCount = %d, want 0", g.LinkCount())
	}
}

func TestSetResolved(t *testing.T) {
	g := New()
	a, _ := g.Ensure("a")

	if err := g.SetResolved(a, true); err != nil {
		t.Fatalf("SetResolved: %v", err)
	}
	n, ok := g.Node(a)
	if !ok || !n.Resolved {
		t.Errorf("Node(a) = (%+v, %v), want resolved", n, ok)
	}
	if err := g.SetResolved(Handle(5), true); err != ErrUnknownHandle {
		t.Errorf("SetResolved(unknown) = %v, want ErrUnknownHandle", err)
	}
}

func TestLinksFrom(t *testing.T) {
	g := New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	c, _ := g.Ensure("c")
	g.AddLink(a, b)
	g.AddLink(b, c)
	g.AddLink(a, c)

	from := g.LinksFrom(a)
	if len(from) != 2 {
		t.Fatalf("LinksFrom(a) = %d links, want 2", len(from))
	}
	if from[0].To != b || from[1].To != c {
		t.Errorf("LinksFrom(a) targets = %d, %d, want %d, %d", from[0].To, from[1].To, b, c)
	}
}

func TestCompactSlots(t *testing.T) {
	g := New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	c, _ := g.Ensure("c")
	g.AddLink(a, b) // slot 0
	g.AddLink(a, c) // slot 2
	g.AddLink(b, c) // slot 4
	g.RemoveLink(a, b)

	changed := g.CompactSlots()

	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}
	links := g.Links()
	for i, l := range links {
		if l.Slot != Slot(2*i) {
			t.Errorf("link %d slot = %d, want %d", i, l.Slot, 2*i)
		}
	}
	if g.SlotHighWater() != Slot(2*len(links)) {
		t.Errorf("SlotHighWater = %d, want %d", g.SlotHighWater(), 2*len(links))
	}
}

func TestCompactSlotsAlreadyDense(t *testing.T) {
	g := New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	g.AddLink(a, b)

	if changed := g.CompactSlots(); changed != 0 {
		t.Errorf("changed = %d, want 0", changed)
	}
}
