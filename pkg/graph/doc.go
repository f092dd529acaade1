// Package graph implements the link graph model for vaultgraph.
//
// The model is deliberately small: nodes are dense integer handles with a
// label and a resolved flag, links are directed handle pairs carrying the
// even slot index that addresses their two vertices in the line buffer.
// Everything else - positions, transforms, sprites - lives in side tables
// owned by the layout driver and renderer, keyed by handle or slot. The
// graph never references render resources, which keeps teardown ordering
// trivial and the model unit-testable without a display.
//
// # Handles and slots
//
// Handles are append-only: a new node always receives handle == NodeCount()
// at allocation. While a label is present its handle never changes, which is
// what lets an incremental sync preserve simulation state across structural
// changes. Slots follow the same philosophy for links, except that removal
// never reclaims a slot; see [Graph.CompactSlots] for the explicit
// defragmentation operation.
//
// # Writers and readers
//
// The synchronizer (package reconcile) is the only writer. The layout
// driver and renderer are read-only observers. Nothing in this package
// locks; the view's single-threaded tick loop provides the ordering.
package graph
