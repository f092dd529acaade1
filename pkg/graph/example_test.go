package graph_test

import (
	"fmt"

	"github.com/matzehuels/vaultgraph/pkg/graph"
)

func ExampleGraph_Ensure() {
	// Handles are allocated densely: each new label gets the current node
	// count, and re-ensuring a label returns the same handle.
	g := graph.New()
	a, _ := g.Ensure("index")
	b, _ := g.Ensure("projects/alpha")
	again, created := g.Ensure("index")

	fmt.Println("index:", a)
	fmt.Println("projects/alpha:", b)
	fmt.Println("index again:", again, "created:", created)
	// Output:
	// index: 0
	// projects/alpha: 1
	// index again: 0 created: false
}

func ExampleGraph_AddLink() {
	// Each link reserves an even slot addressing two vertices in the line
	// buffer. Removal keeps the slot numbering; only CompactSlots renumbers.
	g := graph.New()
	a, _ := g.Ensure("a")
	b, _ := g.Ensure("b")
	c, _ := g.Ensure("c")

	ab, _ := g.AddLink(a, b)
	ac, _ := g.AddLink(a, c)
	g.RemoveLink(a, b)
	bc, _ := g.AddLink(b, c)

	fmt.Println("a->b slot:", ab.Slot)
	fmt.Println("a->c slot:", ac.Slot)
	fmt.Println("b->c slot:", bc.Slot)
	fmt.Println("high water:", g.SlotHighWater(), "links:", g.LinkCount())
	// Output:
	// a->b slot: 0
	// a->c slot: 2
	// b->c slot: 4
	// high water: 6 links: 2
}
