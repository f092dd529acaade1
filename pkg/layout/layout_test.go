package layout

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/vaultgraph/pkg/graph"
)

// fakeStepper records the driver's calls.
type fakeStepper struct {
	bodies         []int
	springs        map[int][2]int
	removedSprings []int
	steps          int
}

func newFakeStepper() *fakeStepper {
	return &fakeStepper{springs: make(map[int][2]int)}
}

func (f *fakeStepper) AddBody(id int) { f.bodies = append(f.bodies, id) }
func (f *fakeStepper) AddSpring(id, from, to int) {
	if _, ok := f.springs[id]; !ok {
		f.springs[id] = [2]int{from, to}
	}
}
func (f *fakeStepper) RemoveSpring(id int) {
	delete(f.springs, id)
	f.removedSprings = append(f.removedSprings, id)
}
func (f *fakeStepper) Step(dt float32) float32 { f.steps++; return 0 }
func (f *fakeStepper) BodyPosition(id int) (mgl32.Vec3, bool) {
	return mgl32.Vec3{float32(id), 0, 0}, true
}
func (f *fakeStepper) EachBody(fn func(id int, pos mgl32.Vec3)) {
	for _, id := range f.bodies {
		fn(id, mgl32.Vec3{float32(id), 0, 0})
	}
}

func TestTrackAddsBodiesAndSprings(t *testing.T) {
	g := graph.New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	l, _ := g.AddLink(a, b)

	fs := newFakeStepper()
	d := NewDriver(fs, DefaultConfig())
	d.Track(g)

	if len(fs.bodies) != 2 {
		t.Fatalf("bodies = %v, want 2", fs.bodies)
	}
	if ends, ok := fs.springs[int(l.Slot)]; !ok || ends != [2]int{int(a), int(b)} {
		t.Errorf("spring %d = %v, want [%d %d]", l.Slot, ends, a, b)
	}

	// Tracking again adds nothing.
	d.Track(g)
	if len(fs.bodies) != 2 || len(fs.springs) != 1 {
		t.Errorf("retrack changed stepper: %d bodies, %d springs", len(fs.bodies), len(fs.springs))
	}
}

func TestTrackRemovesPrunedSprings(t *testing.T) {
	g := graph.New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	c, _ := g.Ensure("c")
	lab, _ := g.AddLink(a, b)
	g.AddLink(a, c)

	fs := newFakeStepper()
	d := NewDriver(fs, DefaultConfig())
	d.Track(g)

	g.RemoveLink(a, b)
	d.Track(g)

	if _, ok := fs.springs[int(lab.Slot)]; ok {
		t.Error("pruned link's spring still present")
	}
	if len(fs.springs) != 1 {
		t.Errorf("springs = %d, want 1", len(fs.springs))
	}
}

func TestTrackReplacesReusedSlot(t *testing.T) {
	g := graph.New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	c, _ := g.Ensure("c")
	g.AddLink(a, b) // slot 0
	g.AddLink(a, c) // slot 2

	fs := newFakeStepper()
	d := NewDriver(fs, DefaultConfig())
	d.Track(g)

	// Compaction reuses slot 0 for a different link.
	g.RemoveLink(a, b)
	g.CompactSlots()
	d.Track(g)

	if ends := fs.springs[0]; ends != [2]int{int(a), int(c)} {
		t.Errorf("slot 0 spring = %v, want [%d %d]", ends, a, c)
	}
	if len(fs.springs) != 1 {
		t.Errorf("springs = %d, want 1", len(fs.springs))
	}
}

func TestLinkEnds(t *testing.T) {
	g := graph.New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	l, _ := g.AddLink(a, b)

	fs := newFakeStepper()
	d := NewDriver(fs, DefaultConfig())
	d.Track(g)

	ends := d.LinkEnds(l)
	if ends.From != (mgl32.Vec3{0, 0, 0}) || ends.To != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("LinkEnds = %+v", ends)
	}
}

func TestStepUsesConfiguredTimeStep(t *testing.T) {
	fs := newFakeStepper()
	d := NewDriver(fs, DefaultConfig())
	d.Step()
	if fs.steps != 1 {
		t.Errorf("steps = %d, want 1", fs.steps)
	}
}
