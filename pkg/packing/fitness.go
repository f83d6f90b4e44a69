package packing

import (
	"slices"
	"sort"
	"strings"

	apperr "github.com/matzehuels/antpack/pkg/errors"
)

// Evaluator scores a bin assignment. Scores are non-negative and lower is
// better. Implementations must reject an empty bin list with INVALID_INPUT.
type Evaluator interface {
	Evaluate(bins []Bin) (float64, error)
}

// EvaluatorFunc adapts a function to [Evaluator].
type EvaluatorFunc func(bins []Bin) (float64, error)

// Evaluate calls f(bins).
func (f EvaluatorFunc) Evaluate(bins []Bin) (float64, error) { return f(bins) }

// Spread scores an assignment as max(bin weight) - min(bin weight).
type Spread struct{}

// Evaluate implements [Evaluator].
func (Spread) Evaluate(bins []Bin) (float64, error) {
	if len(bins) == 0 {
		return 0, apperr.InvalidInput("bin list is empty")
	}
	w := BinWeights(bins)
	return float64(slices.Max(w) - slices.Min(w)), nil
}

// Variance scores an assignment as the population variance of bin weights.
// It penalises one outlier bin more strongly than [Spread] does.
type Variance struct{}

// Evaluate implements [Evaluator].
func (Variance) Evaluate(bins []Bin) (float64, error) {
	if len(bins) == 0 {
		return 0, apperr.InvalidInput("bin list is empty")
	}
	w := BinWeights(bins)
	mean := 0.0
	for _, x := range w {
		mean += float64(x)
	}
	mean /= float64(len(w))

	v := 0.0
	for _, x := range w {
		d := float64(x) - mean
		v += d * d
	}
	return v / float64(len(w)), nil
}

// Fitness names accepted by [EvaluatorByName].
const (
	FitnessSpread   = "spread"
	FitnessVariance = "variance"
)

var evaluators = map[string]Evaluator{
	FitnessSpread:   Spread{},
	FitnessVariance: Variance{},
}

// EvaluatorByName returns the built-in evaluator registered under name.
// An empty name selects [Spread].
func EvaluatorByName(name string) (Evaluator, error) {
	if name == "" {
		return Spread{}, nil
	}
	if e, ok := evaluators[strings.ToLower(name)]; ok {
		return e, nil
	}
	return nil, apperr.InvalidConfiguration("unknown fitness %q (available: %s)", name, strings.Join(EvaluatorNames(), ", "))
}

// EvaluatorNames lists the registered evaluator names in sorted order.
func EvaluatorNames() []string {
	names := make([]string, 0, len(evaluators))
	for n := range evaluators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
