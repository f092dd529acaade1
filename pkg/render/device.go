package render

import (
	"errors"
	"sync"
)

var (
	// ErrDeviceNotAvailable is returned by Open when the requested device
	// backend is not registered.
	ErrDeviceNotAvailable = errors.New("render: device not available")

	// ErrAllocationFailed is returned when a device cannot allocate a
	// buffer. Allocation failure during growth is terminal for the view:
	// there is no safe fallback once device memory is exhausted.
	ErrAllocationFailed = errors.New("render: buffer allocation failed")

	// ErrBufferReleased is returned by writes against a released buffer.
	ErrBufferReleased = errors.New("render: buffer released")
)

// Buffer is a device-side linear allocation. Contents are written in whole
// float32 spans; the draw call addresses a leading range of it.
type Buffer interface {
	// Len returns the buffer capacity in float32 elements.
	Len() int

	// Write copies src into the buffer starting at elem offset off.
	Write(off int, src []float32) error

	// Read copies the buffer span [off, off+len(dst)) into dst.
	// Present on every device so tests and pickers can inspect contents.
	Read(off int, dst []float32) error

	// Release frees the allocation. Safe to call twice.
	Release()
}

// Device abstracts the GPU surface the buffers and draw pass run against.
// A real adapter (wgpu, GL) and the in-memory device used by tests both
// implement it; nothing above this interface knows which is active.
type Device interface {
	// Name returns the device backend identifier (e.g. "memory").
	Name() string

	// NewBuffer allocates a buffer of n float32 elements.
	NewBuffer(n int) (Buffer, error)

	// Draw submits one frame: instanced node records and line vertices,
	// each limited to their declared draw ranges.
	Draw(frame Frame) error

	// Close releases all device resources.
	Close() error
}

// Frame is one submitted draw: which buffers to source and how many
// leading entries of each are live.
type Frame struct {
	Instances     Buffer
	InstanceCount int // live node records
	Lines         Buffer
	LineVertices  int // live line vertices (2 × link count)
	View          [16]float32
	Projection    [16]float32
}

// DeviceFactory creates a device instance.
type DeviceFactory func() (Device, error)

var (
	registryMu sync.RWMutex
	devices    = make(map[string]DeviceFactory)
)

// RegisterDevice registers a device factory under a name, typically from
// an init function in the backend's package. Re-registering replaces.
func RegisterDevice(name string, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	devices[name] = factory
}

// OpenDevice creates a device by backend name.
func OpenDevice(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := devices[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrDeviceNotAvailable
	}
	return factory()
}

// AvailableDevices returns the registered backend names.
func AvailableDevices() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	return names
}
