// Package dag provides the layered construction graph that encodes every
// assignment of items to bins as a path.
//
// # Overview
//
// For n items and k bins the graph has n+2 rows: a start node, one row of k
// "item i goes to bin b" nodes per item, and an end node. Adjacent rows are
// fully connected, so every start-to-end path picks exactly one bin per item
// and every assignment corresponds to exactly one path.
//
//	s ─┬─ i0b0 ─┬─ i1b0 ─┬─ e
//	   ├─ i0b1 ─┼─ i1b1 ─┤
//	   └─ i0b2 ─┴─ i1b2 ─┘
//
// # Arena Encoding
//
// Nodes are integers rather than strings. [Start] is 0, item i in bin b is
// 1+i*bins+b, and the end node is items*bins+1. Children of a node are a
// contiguous ID range ([Graph.Children]) and so are its outgoing edges
// ([Graph.OutEdges]), which lets a pheromone table be a flat slice indexed by
// [EdgeID] and keeps string handling out of the sampling loop.
//
// The textual names "s", "e" and "i<item>b<bin>" are still available through
// [Graph.Label] and [Graph.Parse] for rendering and for paths typed by users.
//
// # Basic Usage
//
//	g, err := dag.Build(len(items), 3)
//	if err != nil {
//	    return err // INVALID_INPUT for zero items or bins
//	}
//	first, n := g.Children(dag.Start) // item 0's bin choices
//
// # Concurrency
//
// A Graph is immutable after [Build] and safe for concurrent reads.
package dag
