package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/matzehuels/vaultgraph/pkg/graph"
	"github.com/matzehuels/vaultgraph/pkg/layout"
	"github.com/matzehuels/vaultgraph/pkg/layout/force"
	"github.com/matzehuels/vaultgraph/pkg/observability"
	"github.com/matzehuels/vaultgraph/pkg/reconcile"
	"github.com/matzehuels/vaultgraph/pkg/render"
	"github.com/matzehuels/vaultgraph/pkg/source"
)

// Node and link colors, RGBA.
var (
	colorResolved   = mgl32.Vec4{0.55, 0.75, 1.0, 1.0}
	colorUnresolved = mgl32.Vec4{0.45, 0.45, 0.5, 0.6}
)

// Source produces link snapshots of the note collection. *vault.Scanner is
// the production implementation.
type Source interface {
	Scan(ctx context.Context) (source.Snapshot, error)
	ScanNote(ctx context.Context, label string) (resolved, unresolved map[string]float64, err error)
}

// Options configures a View.
type Options struct {
	// Device names the render backend to open. Defaults to the in-memory
	// device.
	Device string

	// Layout holds the force simulation tuning.
	Layout layout.Config

	// NodeCapacity and LinkCapacity size the initial GPU buffers. Both
	// grow on demand.
	NodeCapacity int
	LinkCapacity int

	// CompactionFactor triggers link slot compaction when the slot high
	// water mark exceeds this multiple of the live link footprint.
	CompactionFactor int

	// FadeNear and FadeFar override the label billboard fade distances
	// when both are set.
	FadeNear float32
	FadeFar  float32

	// Surface reports the host container size for the camera. Optional.
	Surface render.SurfaceSize
}

// ValidateAndSetDefaults checks options and fills in defaults for zero values.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Device == "" {
		o.Device = render.DeviceMemory
	}
	if o.Layout == (layout.Config{}) {
		o.Layout = layout.DefaultConfig()
	}
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if o.NodeCapacity == 0 {
		o.NodeCapacity = render.DefaultInstanceCapacity
	}
	if o.NodeCapacity < 0 {
		return fmt.Errorf("node capacity must be positive, got %d", o.NodeCapacity)
	}
	if o.LinkCapacity == 0 {
		o.LinkCapacity = render.DefaultLinkCapacity
	}
	if o.LinkCapacity < 0 {
		return fmt.Errorf("link capacity must be positive, got %d", o.LinkCapacity)
	}
	if o.CompactionFactor == 0 {
		o.CompactionFactor = 4
	}
	if o.CompactionFactor < 2 {
		return fmt.Errorf("compaction factor must be at least 2, got %d", o.CompactionFactor)
	}
	if o.FadeNear != 0 || o.FadeFar != 0 {
		if o.FadeFar <= o.FadeNear {
			return fmt.Errorf("fade far must exceed fade near, got %v <= %v", o.FadeFar, o.FadeNear)
		}
	}
	return nil
}

// Stats is a point-in-time summary of the view, safe to read from any
// goroutine.
type Stats struct {
	Session      string  `json:"session"`
	Nodes        int     `json:"nodes"`
	Links        int     `json:"links"`
	Ticks        uint64  `json:"ticks"`
	Movement     float32 `json:"movement"`
	NodeCapacity int     `json:"node_capacity"`
	LinkCapacity int     `json:"link_capacity"`
	Compactions  int     `json:"compactions"`
	Wedged       bool    `json:"wedged"`
}

// View drives the visualization. All methods except Mailbox and Stats must
// be called from the tick goroutine.
type View struct {
	opts    Options
	session string

	graph  *graph.Graph
	src    Source
	driver *layout.Driver
	mail   *source.Mailbox

	device    render.Device
	instances *render.InstanceBuffer
	lines     *render.LineBuffer
	labels    *render.LabelRegistry
	camera    *render.Camera

	// liveSlots remembers which link slots held a segment last tick, so
	// slots vacated by a prune can be collapsed instead of drawing stale
	// geometry.
	liveSlots map[graph.Slot]bool

	ticks       uint64
	movement    float32
	compactions int
	wedged      error

	statsMu   sync.Mutex
	lastStats Stats
}

// New builds a View over the given source.
func New(src Source, opts Options) (*View, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("view options: %w", err)
	}

	dev, err := render.OpenDevice(opts.Device)
	if err != nil {
		return nil, err
	}
	instances, err := render.NewInstanceBuffer(dev, opts.NodeCapacity)
	if err != nil {
		dev.Close()
		return nil, err
	}
	lines, err := render.NewLineBuffer(dev, opts.LinkCapacity)
	if err != nil {
		instances.Release()
		dev.Close()
		return nil, err
	}

	v := &View{
		opts:      opts,
		session:   uuid.NewString(),
		graph:     graph.New(),
		src:       src,
		driver:    layout.NewDriver(force.New(opts.Layout), opts.Layout),
		mail:      source.NewMailbox(),
		device:    dev,
		instances: instances,
		lines:     lines,
		labels:    render.NewLabelRegistry(),
		camera:    render.NewCamera(opts.Surface),
		liveSlots: make(map[graph.Slot]bool),
	}
	if opts.FadeFar > opts.FadeNear && opts.FadeFar > 0 {
		v.labels.FadeNear = opts.FadeNear
		v.labels.FadeFar = opts.FadeFar
	}
	v.publishStats()
	return v, nil
}

// Session returns the view's session identifier.
func (v *View) Session() string { return v.session }

// Mailbox returns the change notification mailbox. Safe for concurrent use.
func (v *View) Mailbox() *source.Mailbox { return v.mail }

// Camera returns the view camera for host-driven orbit and zoom.
func (v *View) Camera() *render.Camera { return v.camera }

// Graph exposes the underlying graph. Tick goroutine only.
func (v *View) Graph() *graph.Graph { return v.graph }

// Stats returns the most recent published snapshot. Readers never block
// the tick loop beyond the copy under the mutex.
func (v *View) Stats() Stats {
	v.statsMu.Lock()
	defer v.statsMu.Unlock()
	return v.lastStats
}

func (v *View) publishStats() {
	s := Stats{
		Session:      v.session,
		Nodes:        v.graph.NodeCount(),
		Links:        v.graph.LinkCount(),
		Ticks:        v.ticks,
		Movement:     v.movement,
		NodeCapacity: v.instances.Capacity(),
		LinkCapacity: v.lines.Capacity(),
		Compactions:  v.compactions,
		Wedged:       v.wedged != nil,
	}
	v.statsMu.Lock()
	v.lastStats = s
	v.statsMu.Unlock()
}

// Tick runs one frame: apply pending source changes, advance the
// simulation, grow and rewrite the GPU buffers, and draw.
func (v *View) Tick(ctx context.Context) (err error) {
	if v.wedged != nil {
		return v.wedged
	}

	start := time.Now()
	observability.View().OnTickStart(ctx)
	defer func() {
		observability.View().OnTickComplete(ctx, time.Since(start), err)
	}()

	if event, ok := v.mail.Drain(); ok {
		v.applyEvent(ctx, event)
	}

	v.maybeCompact(ctx)
	v.driver.Track(v.graph)
	v.movement = v.driver.Step()

	if err = v.growBuffers(ctx); err != nil {
		v.wedged = err
		v.publishStats()
		return err
	}

	if err = v.writeBuffers(ctx); err != nil {
		v.wedged = err
		v.publishStats()
		return err
	}

	v.camera.Poll()
	frame := render.Frame{
		Instances:     v.instances.Buffer(),
		InstanceCount: v.instances.DrawCount(),
		Lines:         v.lines.Buffer(),
		LineVertices:  v.lines.DrawRange(),
		View:          [16]float32(v.camera.View()),
		Projection:    [16]float32(v.camera.Projection()),
	}
	if err = v.device.Draw(frame); err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	v.ticks++
	v.publishStats()
	return nil
}

// Close releases the GPU buffers, the label sprites and the device.
func (v *View) Close() {
	v.lines.Release()
	v.instances.Release()
	v.labels.Close()
	v.device.Close()
}

func (v *View) applyEvent(ctx context.Context, event source.Event) {
	logger := log.FromContext(ctx)
	start := time.Now()

	switch event.Kind {
	case source.EventNote:
		observability.View().OnSyncStart(ctx, "note")
		resolved, unresolved, err := v.src.ScanNote(ctx, event.Label)
		if err != nil {
			logger.Warn("note scan failed, keeping previous graph", "label", event.Label, "error", err)
			observability.View().OnSyncComplete(ctx, "note", 0, 0, 0, time.Since(start), err)
			return
		}
		stats := reconcile.SyncNote(v.graph, event.Label, resolved, unresolved)
		if h, ok := v.graph.Lookup(event.Label); ok {
			v.labels.Invalidate(h)
		}
		observability.View().OnSyncComplete(ctx, "note",
			stats.NodesAdded, stats.LinksAdded, stats.LinksRemoved, time.Since(start), nil)
		if stats.Changed() {
			logger.Debug("note synced", "label", event.Label,
				"nodes_added", stats.NodesAdded, "links_added", stats.LinksAdded)
		}

	default:
		observability.View().OnSyncStart(ctx, "bulk")
		snap, err := v.src.Scan(ctx)
		if err != nil {
			logger.Warn("vault scan failed, keeping previous graph", "error", err)
			observability.View().OnSyncComplete(ctx, "bulk", 0, 0, 0, time.Since(start), err)
			return
		}
		stats := reconcile.Sync(v.graph, snap)
		observability.View().OnSyncComplete(ctx, "bulk",
			stats.NodesAdded, stats.LinksAdded, stats.LinksRemoved, time.Since(start), nil)
		if stats.Changed() {
			logger.Debug("graph synced",
				"nodes", v.graph.NodeCount(), "links", v.graph.LinkCount(),
				"nodes_added", stats.NodesAdded, "links_added", stats.LinksAdded,
				"links_removed", stats.LinksRemoved)
		}
	}
}

// maybeCompact renumbers link slots when removals have left the slot space
// mostly holes. The driver re-registers affected springs on the next Track.
func (v *View) maybeCompact(ctx context.Context) {
	live := v.graph.LinkCount()
	if live == 0 {
		return
	}
	if int(v.graph.SlotHighWater()) <= v.opts.CompactionFactor*2*live {
		return
	}
	changed := v.graph.CompactSlots()
	v.compactions++
	v.liveSlots = make(map[graph.Slot]bool)
	log.FromContext(ctx).Debug("compacted link slots", "moved", changed, "links", live)
}

func (v *View) growBuffers(ctx context.Context) error {
	instBefore := v.instances.Capacity()
	if err := v.instances.EnsureCapacity(v.graph.NodeCount()); err != nil {
		return fmt.Errorf("grow instance buffer: %w", err)
	}
	if after := v.instances.Capacity(); after != instBefore {
		observability.View().OnBufferGrow(ctx, "instances", instBefore, after)
		log.FromContext(ctx).Debug("instance buffer grown", "from", instBefore, "to", after)
	}

	lineBefore := v.lines.Capacity()
	needLinks := int(v.graph.SlotHighWater()) / 2
	if err := v.lines.EnsureCapacity(needLinks); err != nil {
		return fmt.Errorf("grow link buffer: %w", err)
	}
	if after := v.lines.Capacity(); after != lineBefore {
		observability.View().OnBufferGrow(ctx, "lines", lineBefore, after)
		log.FromContext(ctx).Debug("link buffer grown", "from", lineBefore, "to", after)
	}
	return nil
}

func (v *View) writeBuffers(ctx context.Context) error {
	logger := log.FromContext(ctx)

	var firstErr error
	v.graph.EachNode(func(n graph.Node) {
		pos, ok := v.driver.NodePosition(n.Handle)
		if !ok {
			return
		}
		if err := v.instances.SetTransform(n.Handle, mgl32.Translate3D(pos.X(), pos.Y(), pos.Z())); err != nil && firstErr == nil {
			firstErr = err
		}
		color := colorUnresolved
		if n.Resolved {
			color = colorResolved
		}
		if err := v.instances.SetColor(n.Handle, color); err != nil && firstErr == nil {
			firstErr = err
		}
		if _, err := v.labels.GetOrCreate(n.Handle, n.Label); err != nil {
			logger.Warn("label rasterization failed", "label", n.Label, "error", err)
		}
	})
	if firstErr != nil {
		return firstErr
	}

	live := make(map[graph.Slot]bool, v.graph.LinkCount())
	v.graph.EachLink(func(l graph.Link) {
		if firstErr != nil {
			return
		}
		live[l.Slot] = true
		ends := v.driver.LinkEnds(l)
		if err := v.lines.SetSegment(l.Slot, ends.From, ends.To); err != nil {
			firstErr = err
		}
	})
	if firstErr != nil {
		return firstErr
	}

	// Collapse segments whose slot was vacated since last tick.
	for slot := range v.liveSlots {
		if !live[slot] {
			if err := v.lines.SetSegment(slot, mgl32.Vec3{}, mgl32.Vec3{}); err != nil {
				return err
			}
		}
	}
	v.liveSlots = live

	v.instances.SetDrawCount(v.graph.NodeCount())
	v.lines.SetDrawRange(int(v.graph.SlotHighWater()))
	return nil
}
