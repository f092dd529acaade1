// Package view owns the render loop.
//
// A View ties the graph, the vault source, the layout driver and the GPU
// buffers together behind a single-threaded Tick. External change
// notifications land in a coalescing mailbox and are applied at the top of
// the next tick, so the graph, the simulation and the buffers only ever
// mutate on the tick goroutine. Buffer growth failure is terminal: once a
// grow-and-swap fails the view is wedged and every later Tick reports the
// same error. Label rasterization failure is not; the node just renders
// without a caption.
package view
