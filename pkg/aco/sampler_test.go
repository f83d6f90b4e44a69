package aco

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/antpack/pkg/dag"
	"github.com/matzehuels/antpack/pkg/pheromone"
	"github.com/matzehuels/antpack/pkg/rng"
)

// constSource always returns v.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

// countingSource counts draws.
type countingSource struct {
	src   rng.Source
	draws int
}

func (c *countingSource) Float64() float64 {
	c.draws++
	return c.src.Float64()
}

func mustBuild(t *testing.T, items, bins int) *dag.Graph {
	t.Helper()
	g, err := dag.Build(items, bins)
	if err != nil {
		t.Fatalf("Build(%d, %d) error: %v", items, bins, err)
	}
	return g
}

// uniformTable returns a table with every intensity equal to 1.
func uniformTable(g *dag.Graph) *pheromone.Table {
	table := pheromone.New(g)
	table.Reset(constSource(0))
	return table
}

func TestWalkProducesValidPaths(t *testing.T) {
	g := mustBuild(t, 6, 3)
	table := pheromone.New(g)
	src := rng.New(7)
	table.Reset(src)
	s := NewSampler(g, table, src)

	for i, p := range s.Sample(200) {
		if err := g.ValidatePath(p); err != nil {
			t.Fatalf("path %d invalid: %v", i, err)
		}
		if len(p) != g.PathLen() {
			t.Fatalf("path %d len = %d, want %d", i, len(p), g.PathLen())
		}
	}
}

func TestWalkDrawsOncePerStep(t *testing.T) {
	for _, tt := range []struct{ items, bins int }{{1, 1}, {3, 1}, {4, 3}, {10, 5}} {
		g := mustBuild(t, tt.items, tt.bins)
		src := &countingSource{src: rng.New(1)}
		s := NewSampler(g, uniformTable(g), src)

		s.Walk()
		if want := g.PathLen() - 1; src.draws != want {
			t.Errorf("%dx%d: draws = %d, want %d", tt.items, tt.bins, src.draws, want)
		}
	}
}

func TestWalkRouletteBounds(t *testing.T) {
	g := mustBuild(t, 3, 2)
	table := uniformTable(g)

	tests := []struct {
		name string
		r    float64
		bin  int
	}{
		{"zero draw picks first child", 0, 0},
		{"draw at half picks first child", 0.5, 0},
		{"draw above half picks second child", 0.75, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(g, table, constSource(tt.r))
			got := s.Walk()
			want := dag.Path{dag.Start}
			for i := 0; i < g.Items(); i++ {
				want = append(want, g.ItemNode(i, tt.bin))
			}
			want = append(want, g.End())
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
			}
			if s.Fallbacks() != 0 {
				t.Errorf("Fallbacks() = %d, want 0", s.Fallbacks())
			}
		})
	}
}

func TestWalkFallsBackToLastCandidate(t *testing.T) {
	g := mustBuild(t, 3, 2)
	// A table that was never seeded has only zero weights, so the cumulative
	// walk never reaches the draw.
	s := NewSampler(g, pheromone.New(g), constSource(0.5))

	got := s.Walk()
	want := dag.Path{dag.Start, g.ItemNode(0, 1), g.ItemNode(1, 1), g.ItemNode(2, 1), g.End()}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
	}
	if want := g.PathLen() - 1; s.Fallbacks() != want {
		t.Errorf("Fallbacks() = %d, want %d", s.Fallbacks(), want)
	}
}

func TestWalkFollowsPheromone(t *testing.T) {
	g := mustBuild(t, 1, 3)
	table := uniformTable(g)
	s := NewSampler(g, table, rng.New(99))

	// Uniform weights: each bin about a third of the time.
	const n = 30000
	counts := make([]int, g.Bins())
	for range n {
		p := s.Walk()
		_, bin, _ := dag.Locate(p[1], g.Bins())
		counts[bin]++
	}
	for b, c := range counts {
		if frac := float64(c) / n; math.Abs(frac-1.0/3) > 0.02 {
			t.Errorf("bin %d chosen %.3f of the time, want ~0.333", b, frac)
		}
	}

	// Heavy reinforcement on bin 2 dominates the choice.
	if err := table.Reinforce(dag.Path{dag.Start, g.ItemNode(0, 2), g.End()}, 1000); err != nil {
		t.Fatalf("Reinforce error: %v", err)
	}
	hits := 0
	for range 1000 {
		if s.Walk()[1] == g.ItemNode(0, 2) {
			hits++
		}
	}
	if hits < 990 {
		t.Errorf("reinforced bin chosen %d/1000 times, want >= 990", hits)
	}
}

func TestSamplerDeterministic(t *testing.T) {
	g := mustBuild(t, 8, 3)
	sample := func() []dag.Path {
		src := rng.New(123)
		table := pheromone.New(g)
		table.Reset(src)
		return NewSampler(g, table, src).Sample(50)
	}
	if diff := cmp.Diff(sample(), sample()); diff != "" {
		t.Errorf("same seed produced different paths (-first +second):\n%s", diff)
	}
}
