package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/matzehuels/vaultgraph/pkg/render"
	"github.com/matzehuels/vaultgraph/pkg/source"
)

// fakeSource serves canned snapshots without touching the filesystem.
type fakeSource struct {
	snap      source.Snapshot
	scanErr   error
	notes     map[string][2]map[string]float64
	scans     int
	noteScans int
}

func (f *fakeSource) Scan(context.Context) (source.Snapshot, error) {
	f.scans++
	if f.scanErr != nil {
		return source.Snapshot{}, f.scanErr
	}
	return f.snap, nil
}

func (f *fakeSource) ScanNote(_ context.Context, label string) (map[string]float64, map[string]float64, error) {
	f.noteScans++
	n, ok := f.notes[label]
	if !ok {
		return nil, nil, fmt.Errorf("no note %q", label)
	}
	return n[0], n[1], nil
}

func testSnapshot() source.Snapshot {
	snap := source.NewSnapshot()
	snap.AddResolved("a", "b", 1)
	snap.AddResolved("a", "c", 1)
	snap.AddUnresolved("b", "ghost", 1)
	return snap
}

func newTestView(t *testing.T, src Source, opts Options) *View {
	t.Helper()
	v, err := New(src, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Close)
	return v
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Device != render.DeviceMemory {
		t.Errorf("device = %q", opts.Device)
	}
	if opts.Layout.Dimensions != 3 {
		t.Errorf("layout not defaulted: %+v", opts.Layout)
	}
	if opts.CompactionFactor != 4 {
		t.Errorf("compaction factor = %d", opts.CompactionFactor)
	}
}

func TestOptionsRejectsBadValues(t *testing.T) {
	opts := Options{CompactionFactor: 1}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error for compaction factor 1")
	}
	opts = Options{NodeCapacity: -1}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error for negative node capacity")
	}
}

func TestTickIdleWithoutEvents(t *testing.T) {
	src := &fakeSource{snap: testSnapshot()}
	v := newTestView(t, src, Options{})

	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if src.scans != 0 {
		t.Fatalf("idle tick scanned the source %d times", src.scans)
	}
	if got := v.Stats().Nodes; got != 0 {
		t.Fatalf("nodes = %d, want 0", got)
	}
}

func TestTickAppliesBulkSync(t *testing.T) {
	src := &fakeSource{snap: testSnapshot()}
	v := newTestView(t, src, Options{})

	v.Mailbox().Post(source.Event{Kind: source.EventBulk})
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	stats := v.Stats()
	if stats.Nodes != 4 { // a, b, c, ghost
		t.Fatalf("nodes = %d, want 4", stats.Nodes)
	}
	if stats.Links != 3 {
		t.Fatalf("links = %d, want 3", stats.Links)
	}
	if stats.Ticks != 1 {
		t.Fatalf("ticks = %d, want 1", stats.Ticks)
	}

	// The event was consumed: the next tick does not rescan.
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if src.scans != 1 {
		t.Fatalf("scans = %d, want 1", src.scans)
	}
}

func TestTickAppliesNoteSync(t *testing.T) {
	src := &fakeSource{
		snap: testSnapshot(),
		notes: map[string][2]map[string]float64{
			"a": {{"b": 1, "d": 1}, nil},
		},
	}
	v := newTestView(t, src, Options{})

	v.Mailbox().Post(source.Event{Kind: source.EventBulk})
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	v.Mailbox().Post(source.Event{Kind: source.EventNote, Label: "a"})
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if src.noteScans != 1 {
		t.Fatalf("note scans = %d, want 1", src.noteScans)
	}

	stats := v.Stats()
	if stats.Nodes != 5 { // d appeared
		t.Fatalf("nodes = %d, want 5", stats.Nodes)
	}
	// Single-note sync never prunes: a->c survives alongside a->d.
	if stats.Links != 4 {
		t.Fatalf("links = %d, want 4", stats.Links)
	}
}

func TestTickScanFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{snap: testSnapshot()}
	v := newTestView(t, src, Options{})

	v.Mailbox().Post(source.Event{Kind: source.EventBulk})
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	src.scanErr = errors.New("vault unreadable")
	v.Mailbox().Post(source.Event{Kind: source.EventBulk})
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick after scan failure: %v", err)
	}
	if got := v.Stats().Nodes; got != 4 {
		t.Fatalf("graph should survive a failed scan, nodes = %d", got)
	}
}

func TestTickGrowsBuffers(t *testing.T) {
	snap := source.NewSnapshot()
	for i := 0; i < 40; i++ {
		snap.AddResolved(fmt.Sprintf("note-%02d", i), fmt.Sprintf("note-%02d", (i+1)%40), 1)
	}
	src := &fakeSource{snap: snap}
	v := newTestView(t, src, Options{NodeCapacity: 4, LinkCapacity: 4})

	v.Mailbox().Post(source.Event{Kind: source.EventBulk})
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	stats := v.Stats()
	if stats.Nodes != 40 || stats.Links != 40 {
		t.Fatalf("graph = %d nodes %d links", stats.Nodes, stats.Links)
	}
	if stats.NodeCapacity < 40 {
		t.Fatalf("instance capacity = %d, want >= 40", stats.NodeCapacity)
	}
	if stats.LinkCapacity < 40 {
		t.Fatalf("link capacity = %d, want >= 40", stats.LinkCapacity)
	}
}

func TestTickCompactsFragmentedSlots(t *testing.T) {
	big := source.NewSnapshot()
	for i := 0; i < 30; i++ {
		big.AddResolved("hub", fmt.Sprintf("n%02d", i), 1)
	}
	small := source.NewSnapshot()
	small.AddResolved("hub", "n00", 1)

	src := &fakeSource{snap: big}
	v := newTestView(t, src, Options{})

	v.Mailbox().Post(source.Event{Kind: source.EventBulk})
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// Prune to one link: slot high water (60) far exceeds 4x the live
	// footprint (2), so the following tick compacts.
	src.snap = small
	v.Mailbox().Post(source.Event{Kind: source.EventBulk})
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if err := v.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	stats := v.Stats()
	if stats.Compactions == 0 {
		t.Fatal("expected a slot compaction")
	}
	if got := v.Graph().SlotHighWater(); got != 2 {
		t.Fatalf("slot high water after compaction = %d, want 2", got)
	}
}

func TestTickWedgesOnGrowthFailure(t *testing.T) {
	src := &fakeSource{snap: testSnapshot()}
	v := newTestView(t, src, Options{Device: deviceFlaky, NodeCapacity: 2, LinkCapacity: 2})

	v.Mailbox().Post(source.Event{Kind: source.EventBulk})
	err := v.Tick(context.Background())
	if !errors.Is(err, render.ErrAllocationFailed) {
		t.Fatalf("expected allocation failure, got %v", err)
	}
	if !v.Stats().Wedged {
		t.Fatal("view should report wedged")
	}

	// Terminal: every later tick returns the same error without working.
	again := v.Tick(context.Background())
	if !errors.Is(again, render.ErrAllocationFailed) {
		t.Fatalf("expected terminal error, got %v", again)
	}
	if err.Error() != again.Error() {
		t.Fatalf("terminal error changed: %v vs %v", err, again)
	}
}

func TestStatsConcurrentWithTicks(t *testing.T) {
	src := &fakeSource{snap: testSnapshot()}
	v := newTestView(t, src, Options{})
	v.Mailbox().Post(source.Event{Kind: source.EventBulk})

	// Readers hammer Stats from other goroutines while the tick loop runs;
	// neither side may block the other or observe a torn snapshot.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				s := v.Stats()
				if s.Session != v.Session() {
					t.Error("stats snapshot lost its session id")
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if err := v.Tick(context.Background()); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}
	close(done)
	wg.Wait()

	if got := v.Stats().Ticks; got != 200 {
		t.Fatalf("ticks = %d, want 200", got)
	}
}

// deviceFlaky allows the two initial buffers and fails every later
// allocation, simulating an out-of-memory GPU.
const deviceFlaky = "flaky-test-device"

func init() {
	render.RegisterDevice(deviceFlaky, func() (render.Device, error) {
		mem, err := render.OpenDevice(render.DeviceMemory)
		if err != nil {
			return nil, err
		}
		return &flakyDevice{Device: mem, budget: 2}, nil
	})
}

type flakyDevice struct {
	render.Device
	budget int
}

func (d *flakyDevice) NewBuffer(n int) (render.Buffer, error) {
	if d.budget <= 0 {
		return nil, render.ErrAllocationFailed
	}
	d.budget--
	return d.Device.NewBuffer(n)
}
