package export

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/vaultgraph/pkg/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	a, _ := g.Ensure("index")
	b, _ := g.Ensure("projects/alpha")
	ghost, _ := g.Ensure("ghost")
	_ = g.SetResolved(a, true)
	_ = g.SetResolved(b, true)
	if _, err := g.AddLink(a, b); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddLink(a, ghost); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{})

	for _, want := range []string{
		"digraph vault {",
		`"index"`,
		`"projects/alpha"`,
		`"index" -> "projects/alpha";`,
		`"index" -> "ghost";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// Unresolved nodes are dashed.
	if !strings.Contains(dot, "dashed") {
		t.Errorf("unresolved node should be dashed:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Detailed: true})
	if !strings.Contains(dot, "handle: 0") {
		t.Errorf("detailed DOT missing handle:\n%s", dot)
	}
	if !strings.Contains(dot, "unresolved") {
		t.Errorf("detailed DOT missing resolved state:\n%s", dot)
	}
}

func TestHashTracksContent(t *testing.T) {
	g := testGraph(t)
	h1 := Hash(g)
	if h1 != Hash(g) {
		t.Error("hash should be deterministic")
	}

	a, _ := g.Lookup("index")
	ghost, _ := g.Lookup("ghost")
	g.RemoveLink(a, ghost)
	if Hash(g) == h1 {
		t.Error("hash should change with the graph")
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz render is slow")
	}
	dot := ToDOT(testGraph(t), Options{})
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output does not look like SVG: %.100s", svg)
	}
	if !strings.Contains(string(svg), "index") {
		t.Error("SVG should contain node labels")
	}
}
