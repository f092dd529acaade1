// Package render holds the GPU-facing half of the view: device abstraction,
// growable buffers, the camera, and label sprites.
//
// # Devices
//
// A [Device] allocates buffers and accepts one [Frame] per tick. Backends
// register themselves by name via [RegisterDevice]; [OpenDevice] looks them
// up. The package ships a pure in-memory device used by tests and headless
// serving, and a real GPU backend registers the same way from its own
// package.
//
// # Buffers
//
// [InstanceBuffer] holds one 4x4 transform and one RGBA color per node
// handle, drawn instanced. [LineBuffer] holds two xyz vertices per link
// slot as a flat float array. Both grow by doubling: EnsureCapacity
// allocates the new device buffer, copies every existing record at its
// identical index, swaps, and only then releases the old buffer, so no
// frame observes torn data. Visibility is a draw range, not a deletion -
// records beyond the current count stay in the buffer and simply are not
// drawn.
//
// # Labels
//
// [LabelRegistry] caches one billboard sprite per node handle, rasterized
// with fogleman/gg at a fixed height and fading out between the configured
// camera distances. Rasterization failure skips the label and nothing else.
package render
