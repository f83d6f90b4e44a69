package dag_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/antpack/pkg/dag"
)

func ExampleBuild() {
	// Three items into two bins
	g, _ := dag.Build(3, 2)

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Rows:", g.RowCount())
	// Output:
	// Nodes: 8
	// Edges: 12
	// Rows: 5
}

func ExampleGraph_Children() {
	g, _ := dag.Build(2, 3)

	first, n := g.Children(dag.Start)
	labels := make([]string, 0, n)
	for k := range n {
		labels = append(labels, g.Label(first+dag.NodeID(k)))
	}
	fmt.Println(strings.Join(labels, " "))

	first, n = g.Children(g.ItemNode(1, 2))
	fmt.Println(g.Label(first), n)
	// Output:
	// i0b0 i0b1 i0b2
	// e 1
}

func ExampleGraph_ParsePath() {
	g, _ := dag.Build(3, 3)

	p, err := g.ParsePath([]string{"s", "i0b0", "i1b1", "i2b1", "e"})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(p)
	// Output:
	// [0 1 5 8 10]
}
