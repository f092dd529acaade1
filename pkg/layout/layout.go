// Package layout drives the positioning of graph nodes in 3D space.
//
// The physics itself is opaque to this package: any [Stepper] can serve.
// The [Driver] is glue - it keeps the stepper's bodies and springs in step
// with the graph model (tolerating nodes and links appearing between
// steps), advances the simulation once per tick, and exposes positions by
// node handle and link slot for the renderer.
//
// Simulation time is logical, not wall-clock: each Step advances by the
// configured time step regardless of elapsed real time, so visual settling
// depends on call frequency matching the animation loop.
package layout

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/vaultgraph/pkg/graph"
)

// Config is the tuning surface of the simulation. Every knob trades
// settling speed against jitter and cost; there is no single correct
// setting, so all of them are exposed and serializable.
type Config struct {
	// Dimensions of the simulation space. Fixed at 3 for this view.
	Dimensions int `json:"dimensions" toml:"dimensions"`

	// TimeStep is the logical interval one Step advances, in simulation
	// seconds.
	TimeStep float32 `json:"time_step" toml:"time_step"`

	// Gravity is the global attraction toward the origin. Negative values
	// repel; the magnitude scales the Barnes-Hut body-body force.
	Gravity float32 `json:"gravity" toml:"gravity"`

	// Theta is the Barnes-Hut approximation threshold. 0 degenerates to
	// exact pairwise forces; larger values are cheaper and coarser.
	Theta float32 `json:"theta" toml:"theta"`

	// SpringLength is the rest length of link springs.
	SpringLength float32 `json:"spring_length" toml:"spring_length"`

	// SpringCoefficient is the spring stiffness.
	SpringCoefficient float32 `json:"spring_coefficient" toml:"spring_coefficient"`

	// DragCoefficient damps velocity each step. 0 never settles; 1 freezes.
	DragCoefficient float32 `json:"drag_coefficient" toml:"drag_coefficient"`

	// Seed feeds the jitter applied to newly spawned bodies so runs are
	// reproducible.
	Seed uint64 `json:"seed" toml:"seed"`
}

// DefaultConfig returns the tuning used by the stock view.
func DefaultConfig() Config {
	return Config{
		Dimensions:        3,
		TimeStep:          0.02,
		Gravity:           -1.2,
		Theta:             0.8,
		SpringLength:      30,
		SpringCoefficient: 0.0008,
		DragCoefficient:   0.02,
		Seed:              42,
	}
}

// Validate reports tuning values the simulation cannot run with.
func (c Config) Validate() error {
	if c.Dimensions != 3 {
		return fmt.Errorf("dimensions must be 3, got %d", c.Dimensions)
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("time step must be positive, got %v", c.TimeStep)
	}
	if c.Theta < 0 {
		return fmt.Errorf("theta must be non-negative, got %v", c.Theta)
	}
	if c.SpringLength <= 0 {
		return fmt.Errorf("spring length must be positive, got %v", c.SpringLength)
	}
	if c.SpringCoefficient < 0 {
		return fmt.Errorf("spring coefficient must be non-negative, got %v", c.SpringCoefficient)
	}
	if c.DragCoefficient < 0 || c.DragCoefficient >= 1 {
		return fmt.Errorf("drag coefficient must be in [0, 1), got %v", c.DragCoefficient)
	}
	return nil
}

// Stepper is the opaque simulation this package wraps. Bodies and springs
// are identified by plain integers: node handles and link slots
// respectively, though the stepper does not know that.
//
// Implementations are not required to be safe for concurrent use; the
// driver calls them from the single tick goroutine only.
type Stepper interface {
	// AddBody introduces a body. The stepper chooses the initial position,
	// typically near the origin with small jitter to avoid singular
	// overlapping forces.
	AddBody(id int)

	// AddSpring connects two existing bodies. Adding the same spring id
	// twice is a no-op.
	AddSpring(id, from, to int)

	// RemoveSpring drops a spring. Unknown ids are ignored.
	RemoveSpring(id int)

	// Step advances the simulation by dt and returns the total movement
	// (sum of displacement magnitudes), a settling signal.
	Step(dt float32) float32

	// BodyPosition returns a body's position. The second result is false
	// for unknown ids.
	BodyPosition(id int) (mgl32.Vec3, bool)

	// EachBody visits every body in id insertion order.
	EachBody(fn func(id int, pos mgl32.Vec3))
}

// Ends is the pair of endpoint positions for one link.
type Ends struct {
	From mgl32.Vec3
	To   mgl32.Vec3
}

// Driver adapts a Stepper to the graph model.
type Driver struct {
	stepper Stepper
	cfg     Config

	springs map[graph.Slot][2]graph.Handle // live springs by link slot
	bodies  map[graph.Handle]struct{}
}

// NewDriver wraps a stepper with the given tuning. The config's TimeStep
// is the default dt used by [Driver.Step].
func NewDriver(s Stepper, cfg Config) *Driver {
	return &Driver{
		stepper: s,
		cfg:     cfg,
		springs: make(map[graph.Slot][2]graph.Handle),
		bodies:  make(map[graph.Handle]struct{}),
	}
}

// Config returns the driver's tuning.
func (d *Driver) Config() Config { return d.cfg }

// Track reconciles the stepper's bodies and springs with the graph: bodies
// for new handles, springs for new links, spring removal for links that
// were pruned. Node handles are never removed, so bodies only accumulate,
// matching the graph's append-only handle discipline.
//
// Call Track after every structural sync, before Step.
func (d *Driver) Track(g *graph.Graph) {
	g.EachNode(func(n graph.Node) {
		if _, ok := d.bodies[n.Handle]; !ok {
			d.stepper.AddBody(int(n.Handle))
			d.bodies[n.Handle] = struct{}{}
		}
	})

	live := make(map[graph.Slot][2]graph.Handle, g.LinkCount())
	g.EachLink(func(l graph.Link) {
		live[l.Slot] = [2]graph.Handle{l.From, l.To}
	})

	for slot := range d.springs {
		if _, ok := live[slot]; !ok {
			d.stepper.RemoveSpring(int(slot))
			delete(d.springs, slot)
		}
	}
	for slot, ends := range live {
		if prev, ok := d.springs[slot]; ok && prev == ends {
			continue
		}
		// Slot reused after compaction: replace the spring.
		if _, ok := d.springs[slot]; ok {
			d.stepper.RemoveSpring(int(slot))
		}
		d.stepper.AddSpring(int(slot), int(ends[0]), int(ends[1]))
		d.springs[slot] = ends
	}
}

// Step advances the simulation one logical interval and returns the total
// movement, a settling signal for callers that throttle when quiet.
func (d *Driver) Step() float32 {
	return d.stepper.Step(d.cfg.TimeStep)
}

// NodePosition returns the simulated position for a node handle.
func (d *Driver) NodePosition(h graph.Handle) (mgl32.Vec3, bool) {
	return d.stepper.BodyPosition(int(h))
}

// EachBody visits every simulated body as (handle, position).
func (d *Driver) EachBody(fn func(h graph.Handle, pos mgl32.Vec3)) {
	d.stepper.EachBody(func(id int, pos mgl32.Vec3) {
		fn(graph.Handle(id), pos)
	})
}

// LinkEnds returns both endpoint positions for a link.
func (d *Driver) LinkEnds(l graph.Link) Ends {
	from, _ := d.stepper.BodyPosition(int(l.From))
	to, _ := d.stepper.BodyPosition(int(l.To))
	return Ends{From: from, To: to}
}
