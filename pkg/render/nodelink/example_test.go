package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/antpack/pkg/dag"
	"github.com/matzehuels/antpack/pkg/render/nodelink"
)

func ExampleToDOT() {
	g, _ := dag.Build(2, 2)
	best, _ := g.ParsePath([]string{"s", "i0b0", "i1b1", "e"})

	dot := nodelink.ToDOT(g, nodelink.Options{Highlight: best})
	fmt.Println(strings.Count(dot, " -> "), "edges")
	fmt.Println(strings.Count(dot, "penwidth=3"), "highlighted")
	// Output:
	// 8 edges
	// 3 highlighted
}
