package aco

import (
	"github.com/matzehuels/antpack/pkg/dag"
	"github.com/matzehuels/antpack/pkg/pheromone"
	"github.com/matzehuels/antpack/pkg/rng"
)

// Sampler walks a construction graph from start to end, choosing each next
// node with probability proportional to the pheromone on the edge leading to
// it.
//
// A Sampler reads the table it was built with on every step, so updates to
// the table between calls are visible to later walks.
type Sampler struct {
	graph     *dag.Graph
	table     *pheromone.Table
	src       rng.Source
	fallbacks int
}

// NewSampler creates a sampler over g biased by table and driven by src.
func NewSampler(g *dag.Graph, table *pheromone.Table, src rng.Source) *Sampler {
	return &Sampler{graph: g, table: table, src: src}
}

// Sample returns count independent walks.
func (s *Sampler) Sample(count int) []dag.Path {
	paths := make([]dag.Path, count)
	for i := range paths {
		paths[i] = s.Walk()
	}
	return paths
}

// Walk returns one start-to-end path. It draws exactly one random value per
// step, i.e. len(path)-1 draws, even where a node has a single child.
func (s *Sampler) Walk() dag.Path {
	p := make(dag.Path, 1, s.graph.PathLen())
	end := s.graph.End()
	for cur := dag.Start; cur != end; {
		cur = s.step(cur)
		p = append(p, cur)
	}
	return p
}

// Fallbacks returns how many steps so far fell through the cumulative
// probability walk and took the last candidate.
func (s *Sampler) Fallbacks() int { return s.fallbacks }

// step performs roulette-wheel selection among the children of cur. The
// children are visited in ascending NodeID order, so a fixed source makes the
// choice reproducible.
func (s *Sampler) step(cur dag.NodeID) dag.NodeID {
	first, n := s.graph.Children(cur)
	e, _ := s.graph.OutEdges(cur)
	weights := s.table.Slice(e, n)

	sum := 0.0
	for _, w := range weights {
		sum += w
	}

	r := s.src.Float64()
	cum := 0.0
	for k, w := range weights {
		cum += w / sum
		if cum >= r {
			return first + dag.NodeID(k)
		}
	}

	// Rounding left cum just short of r (or every weight was zero).
	s.fallbacks++
	return first + dag.NodeID(n-1)
}
