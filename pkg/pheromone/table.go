// Package pheromone implements the pheromone table of the colony: one
// non-negative intensity per construction-graph edge.
//
// The table is a flat slice indexed by [dag.EdgeID]. Edges are fixed when the
// table is created; values change only through [Table.Reset],
// [Table.Reinforce] and [Table.Evaporate].
package pheromone

import (
	"math"

	"github.com/matzehuels/antpack/pkg/dag"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	"github.com/matzehuels/antpack/pkg/rng"
)

const (
	// DepositScale is the numerator of the deposit rule: amount = DepositScale / fitness.
	DepositScale = 100.0

	// FitnessFloor replaces a zero (or negative) fitness in [Deposit] so that a
	// perfectly balanced path gets a large but finite reinforcement.
	FitnessFloor = 1e-9

	// MinIntensity is the lowest value [Table.Evaporate] leaves on an edge.
	// Keeping every edge strictly positive means a sampling step never sees an
	// all-zero candidate set.
	MinIntensity = 1e-12
)

// Table maps every edge of one graph to its pheromone intensity.
// A Table is owned by a single run and is not safe for concurrent use.
type Table struct {
	graph  *dag.Graph
	values []float64
}

// New creates a table with one zero entry per edge of g. Call [Table.Reset]
// before sampling from it.
func New(g *dag.Graph) *Table {
	return &Table{graph: g, values: make([]float64, g.EdgeCount())}
}

// Graph returns the graph the table was created for.
func (t *Table) Graph() *dag.Graph { return t.graph }

// Len returns the number of edges.
func (t *Table) Len() int { return len(t.values) }

// At returns the intensity of edge e.
func (t *Table) At(e dag.EdgeID) float64 { return t.values[e] }

// Value returns the intensity of the edge from→to, or false if the graph has
// no such edge.
func (t *Table) Value(from, to dag.NodeID) (float64, bool) {
	e, ok := t.graph.EdgeID(from, to)
	if !ok {
		return 0, false
	}
	return t.values[e], true
}

// Slice returns the intensities of edges [first, first+n) without copying.
// Callers must not modify the returned slice.
func (t *Table) Slice(first dag.EdgeID, n int) []float64 {
	return t.values[first : int(first)+n]
}

// Snapshot returns a copy of every intensity in edge order.
func (t *Table) Snapshot() []float64 {
	out := make([]float64, len(t.values))
	copy(out, t.values)
	return out
}

// Reset reseeds every edge with a value in (0, 1]. Float64 draws lie in
// [0, 1), so 1-draw never produces zero.
func (t *Table) Reset(src rng.Source) {
	for i := range t.values {
		t.values[i] = 1 - src.Float64()
	}
}

// Reinforce adds amount to every edge along path. The path must be a valid
// path of the table's graph; otherwise an INVALID_INPUT error is returned and
// the table is unchanged.
func (t *Table) Reinforce(path dag.Path, amount float64) error {
	if err := t.graph.ValidatePath(path); err != nil {
		return err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return apperr.InvalidInput("reinforcement amount must be finite and non-negative, got %v", amount)
	}
	for _, e := range t.graph.PathEdges(path) {
		t.values[e] += amount
	}
	return nil
}

// Evaporate multiplies every intensity by rate and clamps the result to
// [MinIntensity]. A rate outside (0, 1) is INVALID_CONFIGURATION.
func (t *Table) Evaporate(rate float64) error {
	if err := ValidateRate(rate); err != nil {
		return err
	}
	for i, v := range t.values {
		t.values[i] = max(v*rate, MinIntensity)
	}
	return nil
}

// ValidateRate checks that an evaporation rate lies in the open interval (0, 1).
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || rate <= 0 || rate >= 1 {
		return apperr.InvalidConfiguration("evaporation rate must be in (0, 1), got %v", rate)
	}
	return nil
}

// Deposit returns the reinforcement for a path with the given fitness,
// DepositScale/fitness. A fitness at or below [FitnessFloor] (in practice, a
// perfectly balanced assignment) is replaced by the floor and reported with
// degenerate=true; it is never an error.
func Deposit(fitness float64) (amount float64, degenerate bool) {
	if fitness <= FitnessFloor || math.IsNaN(fitness) {
		return DepositScale / FitnessFloor, true
	}
	return DepositScale / fitness, false
}
