// Package force implements the default stepper: a 3D force-directed
// simulation with spring attraction along links, Barnes-Hut approximated
// body-body repulsion, and velocity damping.
package force

import (
	"math/rand/v2"
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/vaultgraph/pkg/layout"
)

// spawnJitter is the half-extent of the random offset new bodies receive
// around the origin. Two bodies at the exact same point produce a singular
// repulsion force, so spawning is never exact.
const spawnJitter = 5.0

type body struct {
	id    int
	pos   mgl32.Vec3
	vel   mgl32.Vec3
	force mgl32.Vec3
}

type spring struct {
	id   int
	from *body
	to   *body
}

// Simulation is a [layout.Stepper]. The zero value is not usable - use New.
type Simulation struct {
	cfg     layout.Config
	bodies  []*body
	byID    map[int]*body
	springs []spring
	rng     *rand.Rand
}

var _ layout.Stepper = (*Simulation)(nil)

// New creates a simulation with the given tuning.
func New(cfg layout.Config) *Simulation {
	return &Simulation{
		cfg:  cfg,
		byID: make(map[int]*body),
		rng:  rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// AddBody introduces a body near the origin with a small random offset.
// Adding an existing id is a no-op, preserving its simulated state.
func (s *Simulation) AddBody(id int) {
	if _, ok := s.byID[id]; ok {
		return
	}
	b := &body{
		id: id,
		pos: mgl32.Vec3{
			s.jitter(),
			s.jitter(),
			s.jitter(),
		},
	}
	s.bodies = append(s.bodies, b)
	s.byID[id] = b
}

// AddSpring connects two bodies. Unknown endpoints and duplicate spring ids
// are ignored.
func (s *Simulation) AddSpring(id, from, to int) {
	if slices.ContainsFunc(s.springs, func(sp spring) bool { return sp.id == id }) {
		return
	}
	bf, okF := s.byID[from]
	bt, okT := s.byID[to]
	if !okF || !okT {
		return
	}
	s.springs = append(s.springs, spring{id: id, from: bf, to: bt})
}

// RemoveSpring drops a spring by id. Unknown ids are ignored.
func (s *Simulation) RemoveSpring(id int) {
	s.springs = slices.DeleteFunc(s.springs, func(sp spring) bool { return sp.id == id })
}

// Step advances the simulation by dt and returns total body movement.
func (s *Simulation) Step(dt float32) float32 {
	if len(s.bodies) == 0 {
		return 0
	}

	for _, b := range s.bodies {
		b.force = mgl32.Vec3{}
	}

	s.applyRepulsion()
	s.applySprings()

	// Euler integration with multiplicative drag.
	damp := 1 - s.cfg.DragCoefficient
	if damp < 0 {
		damp = 0
	}
	var moved float32
	for _, b := range s.bodies {
		b.vel = b.vel.Add(b.force.Mul(dt)).Mul(damp)
		step := b.vel.Mul(dt)
		b.pos = b.pos.Add(step)
		moved += step.Len()
	}
	return moved
}

// BodyPosition returns a body's position by id.
func (s *Simulation) BodyPosition(id int) (mgl32.Vec3, bool) {
	b, ok := s.byID[id]
	if !ok {
		return mgl32.Vec3{}, false
	}
	return b.pos, true
}

// EachBody visits bodies in insertion order.
func (s *Simulation) EachBody(fn func(id int, pos mgl32.Vec3)) {
	for _, b := range s.bodies {
		fn(b.id, b.pos)
	}
}

// BodyCount returns the number of simulated bodies.
func (s *Simulation) BodyCount() int { return len(s.bodies) }

// SpringCount returns the number of live springs.
func (s *Simulation) SpringCount() int { return len(s.springs) }

// applyRepulsion accumulates Barnes-Hut approximated body-body forces.
// The Gravity coefficient scales the inverse-square force; the stock
// negative value pushes bodies apart.
func (s *Simulation) applyRepulsion() {
	if len(s.bodies) < 2 {
		return
	}
	tree := buildOctree(s.bodies)
	for _, b := range s.bodies {
		tree.updateForce(b, s.cfg.Theta, s.cfg.Gravity)
	}
}

// applySprings accumulates Hooke forces along links.
func (s *Simulation) applySprings() {
	k := s.cfg.SpringCoefficient
	rest := s.cfg.SpringLength
	for _, sp := range s.springs {
		d := sp.to.pos.Sub(sp.from.pos)
		r := d.Len()
		if r < 1e-6 {
			// Coincident endpoints: nudge instead of dividing by zero.
			sp.to.pos = sp.to.pos.Add(mgl32.Vec3{s.jitter() * 0.01, s.jitter() * 0.01, s.jitter() * 0.01})
			continue
		}
		f := d.Mul(k * (r - rest) / r)
		sp.from.force = sp.from.force.Add(f)
		sp.to.force = sp.to.force.Sub(f)
	}
}

func (s *Simulation) jitter() float32 {
	return (s.rng.Float32()*2 - 1) * spawnJitter
}

// distance is a helper shared with the octree.
func distance(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return math32.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}
