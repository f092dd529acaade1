package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/vaultgraph/pkg/graph"
)

// InstanceStride is the float32 footprint of one node record: a 4×4
// transform followed by an RGBA color.
const InstanceStride = 16 + 4

// DefaultInstanceCapacity is the initial node capacity of a view's
// instance buffer. Power of two, doubled on demand.
const DefaultInstanceCapacity = 64

// InstanceBuffer holds per-node transform and color records on the device,
// indexed by node handle, rendered via instancing. Capacity grows by
// doubling and existing records keep their indices across growth; the draw
// count - not the capacity - decides how many leading records are live.
//
// A host-side shadow of the record data is kept so growth is a flat copy
// with no device readback. The device buffer swap is atomic with respect
// to frames: the old buffer is only released after the new one holds all
// data and the swap completed, so no frame can observe a torn buffer.
type InstanceBuffer struct {
	dev       Device
	buf       Buffer
	shadow    []float32
	capacity  int // records
	drawCount int
}

// NewInstanceBuffer allocates an instance buffer with the given initial
// record capacity (DefaultInstanceCapacity if zero or negative).
func NewInstanceBuffer(dev Device, capacity int) (*InstanceBuffer, error) {
	if capacity <= 0 {
		capacity = DefaultInstanceCapacity
	}
	buf, err := dev.NewBuffer(capacity * InstanceStride)
	if err != nil {
		return nil, fmt.Errorf("instance buffer: %w", err)
	}
	return &InstanceBuffer{
		dev:      dev,
		buf:      buf,
		shadow:   make([]float32, capacity*InstanceStride),
		capacity: capacity,
	}, nil
}

// Capacity returns the current record capacity.
func (b *InstanceBuffer) Capacity() int { return b.capacity }

// DrawCount returns the number of leading records live for the next draw.
func (b *InstanceBuffer) DrawCount() int { return b.drawCount }

// Buffer exposes the active device buffer for frame submission.
func (b *InstanceBuffer) Buffer() Buffer { return b.buf }

// EnsureCapacity grows the buffer until it holds at least n records,
// doubling each time. Existing records are copied to identical indices
// and the old device buffer is released only after the swap. The draw
// count is not touched by growth.
//
// Allocation failure is terminal: the error wraps ErrAllocationFailed and
// the buffer keeps its previous capacity.
func (b *InstanceBuffer) EnsureCapacity(n int) error {
	if n <= b.capacity {
		return nil
	}
	capacity := b.capacity
	for capacity < n {
		capacity *= 2
	}

	next, err := b.dev.NewBuffer(capacity * InstanceStride)
	if err != nil {
		return fmt.Errorf("grow instance buffer to %d: %w", capacity, err)
	}

	shadow := make([]float32, capacity*InstanceStride)
	copy(shadow, b.shadow)
	if err := next.Write(0, shadow); err != nil {
		next.Release()
		return fmt.Errorf("grow instance buffer to %d: %w", capacity, err)
	}

	old := b.buf
	b.buf = next
	b.shadow = shadow
	b.capacity = capacity
	old.Release()
	return nil
}

// SetTransform writes a node's 4×4 transform. Writing beyond the draw
// count is legal pre-staging; the record stays invisible until the draw
// count is raised past it.
func (b *InstanceBuffer) SetTransform(h graph.Handle, m mgl32.Mat4) error {
	off := int(h) * InstanceStride
	copy(b.shadow[off:off+16], m[:])
	return b.buf.Write(off, m[:])
}

// SetColor writes a node's RGBA color.
func (b *InstanceBuffer) SetColor(h graph.Handle, c mgl32.Vec4) error {
	off := int(h)*InstanceStride + 16
	copy(b.shadow[off:off+4], c[:])
	return b.buf.Write(off, c[:])
}

// SetDrawCount declares how many leading records are live this frame.
// The count is clamped to capacity.
func (b *InstanceBuffer) SetDrawCount(n int) {
	if n > b.capacity {
		n = b.capacity
	}
	if n < 0 {
		n = 0
	}
	b.drawCount = n
}

// Transform reads a record's transform back from the shadow copy.
func (b *InstanceBuffer) Transform(h graph.Handle) mgl32.Mat4 {
	var m mgl32.Mat4
	off := int(h) * InstanceStride
	copy(m[:], b.shadow[off:off+16])
	return m
}

// Color reads a record's color back from the shadow copy.
func (b *InstanceBuffer) Color(h graph.Handle) mgl32.Vec4 {
	var c mgl32.Vec4
	off := int(h)*InstanceStride + 16
	copy(c[:], b.shadow[off:off+4])
	return c
}

// Release frees the device buffer.
func (b *InstanceBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}
