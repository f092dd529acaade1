package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/vaultgraph/pkg/graph"
)

// vertexStride is the float32 footprint of one line vertex (xyz).
const vertexStride = 3

// DefaultLinkCapacity is the initial slot capacity of a view's line
// buffer. Power of two, doubled on demand.
const DefaultLinkCapacity = 64

// LineBuffer holds link segments as a flat vertex position array on the
// device: each link slot owns two consecutive xyz vertices. Growth doubles
// the slot capacity and copies the flat array - positions are addressed by
// slot index, never by link identity, so the byte layout must survive
// growth untouched.
type LineBuffer struct {
	dev       Device
	buf       Buffer
	shadow    []float32
	capacity  int // link slots (2 vertices each)
	drawRange int // live vertices
}

// NewLineBuffer allocates a line buffer with the given initial slot
// capacity (DefaultLinkCapacity if zero or negative).
func NewLineBuffer(dev Device, capacity int) (*LineBuffer, error) {
	if capacity <= 0 {
		capacity = DefaultLinkCapacity
	}
	buf, err := dev.NewBuffer(capacity * 2 * vertexStride)
	if err != nil {
		return nil, fmt.Errorf("line buffer: %w", err)
	}
	return &LineBuffer{
		dev:      dev,
		buf:      buf,
		shadow:   make([]float32, capacity*2*vertexStride),
		capacity: capacity,
	}, nil
}

// Capacity returns the current capacity in link slots.
func (b *LineBuffer) Capacity() int { return b.capacity }

// DrawRange returns the number of leading vertices live for the next draw.
func (b *LineBuffer) DrawRange() int { return b.drawRange }

// Buffer exposes the active device buffer for frame submission.
func (b *LineBuffer) Buffer() Buffer { return b.buf }

// EnsureCapacity grows the buffer until it holds at least n link slots,
// doubling each time, with the same swap discipline as the instance
// buffer: flat copy, atomic swap, release old, draw range untouched.
func (b *LineBuffer) EnsureCapacity(n int) error {
	if n <= b.capacity {
		return nil
	}
	capacity := b.capacity
	for capacity < n {
		capacity *= 2
	}

	next, err := b.dev.NewBuffer(capacity * 2 * vertexStride)
	if err != nil {
		return fmt.Errorf("grow line buffer to %d slots: %w", capacity, err)
	}

	shadow := make([]float32, capacity*2*vertexStride)
	copy(shadow, b.shadow)
	if err := next.Write(0, shadow); err != nil {
		next.Release()
		return fmt.Errorf("grow line buffer to %d slots: %w", capacity, err)
	}

	old := b.buf
	b.buf = next
	b.shadow = shadow
	b.capacity = capacity
	old.Release()
	return nil
}

// SetSegment writes both endpoints of the link occupying the given slot.
// Stale slots left behind by removed links are legal targets - they are
// simply overwritten in place by whichever link owns the slot next.
func (b *LineBuffer) SetSegment(slot graph.Slot, from, to mgl32.Vec3) error {
	off := int(slot) * vertexStride
	seg := [6]float32{from[0], from[1], from[2], to[0], to[1], to[2]}
	copy(b.shadow[off:off+6], seg[:])
	return b.buf.Write(off, seg[:])
}

// SetDrawRange declares how many leading vertices are live this frame:
// exactly 2 × the current link count. Clamped to capacity.
func (b *LineBuffer) SetDrawRange(vertices int) {
	if limit := b.capacity * 2; vertices > limit {
		vertices = limit
	}
	if vertices < 0 {
		vertices = 0
	}
	b.drawRange = vertices
}

// Segment reads a slot's endpoints back from the shadow copy.
func (b *LineBuffer) Segment(slot graph.Slot) (from, to mgl32.Vec3) {
	off := int(slot) * vertexStride
	copy(from[:], b.shadow[off:off+3])
	copy(to[:], b.shadow[off+3:off+6])
	return from, to
}

// Release frees the device buffer.
func (b *LineBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}
