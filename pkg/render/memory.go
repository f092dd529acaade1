package render

import "sync/atomic"

// DeviceMemory is the name of the in-memory device backend. It is always
// registered: tests, headless runs, and the TUI monitor all draw against
// it, and it doubles as the reference implementation for the buffer
// semantics real adapters must honor.
const DeviceMemory = "memory"

func init() {
	RegisterDevice(DeviceMemory, func() (Device, error) {
		return &memoryDevice{}, nil
	})
}

// memoryDevice keeps buffers in host memory and counts frames.
type memoryDevice struct {
	frames atomic.Int64
	closed atomic.Bool
}

func (d *memoryDevice) Name() string { return DeviceMemory }

func (d *memoryDevice) NewBuffer(n int) (Buffer, error) {
	if n < 0 {
		return nil, ErrAllocationFailed
	}
	return &memoryBuffer{data: make([]float32, n)}, nil
}

func (d *memoryDevice) Draw(frame Frame) error {
	d.frames.Add(1)
	return nil
}

func (d *memoryDevice) Close() error {
	d.closed.Store(true)
	return nil
}

// Frames returns the number of submitted draws. Test hook.
func (d *memoryDevice) Frames() int64 { return d.frames.Load() }

type memoryBuffer struct {
	data     []float32
	released bool
}

func (b *memoryBuffer) Len() int { return len(b.data) }

func (b *memoryBuffer) Write(off int, src []float32) error {
	if b.released {
		return ErrBufferReleased
	}
	copy(b.data[off:], src)
	return nil
}

func (b *memoryBuffer) Read(off int, dst []float32) error {
	if b.released {
		return ErrBufferReleased
	}
	copy(dst, b.data[off:])
	return nil
}

func (b *memoryBuffer) Release() {
	b.released = true
	b.data = nil
}
