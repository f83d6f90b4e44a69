// Package packing holds the bin-assignment side of the problem: items, bins,
// the conversion from a construction-graph path to bins, and the fitness
// functions that score an assignment.
//
// Fitness is "lower is better". The default [Spread] objective is the weight
// difference between the heaviest and the lightest bin, so a perfectly
// balanced assignment scores 0.
package packing

import (
	"fmt"
	"strings"

	"github.com/matzehuels/antpack/pkg/dag"
	apperr "github.com/matzehuels/antpack/pkg/errors"
)

// Item is an immutable positive weight. An item's identity is its position in
// the input slice, which decides the graph row it occupies.
type Item struct {
	Weight int `json:"weight" toml:"weight" yaml:"weight"`
}

func (it Item) String() string { return fmt.Sprint(it.Weight) }

// Items wraps raw weights.
func Items(weights ...int) []Item {
	items := make([]Item, len(weights))
	for i, w := range weights {
		items[i] = Item{Weight: w}
	}
	return items
}

// Weights returns the raw weights of items.
func Weights(items []Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Weight
	}
	return out
}

// ValidateItems rejects empty item lists and non-positive weights.
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return apperr.InvalidInput("item list is empty")
	}
	for i, it := range items {
		if it.Weight <= 0 {
			return apperr.InvalidInput("item %d: weight must be positive, got %d", i, it.Weight)
		}
	}
	return nil
}

// Bin is the ordered list of items assigned to one bin.
type Bin []Item

// Weight returns the sum of the bin's item weights; an empty bin weighs 0.
func (b Bin) Weight() int {
	w := 0
	for _, it := range b {
		w += it.Weight
	}
	return w
}

func (b Bin) String() string {
	parts := make([]string, len(b))
	for i, it := range b {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// BinWeights returns the weight of every bin.
func BinWeights(bins []Bin) []int {
	out := make([]int, len(bins))
	for i, b := range bins {
		out[i] = b.Weight()
	}
	return out
}

// ItemCount returns the total number of items across bins.
func ItemCount(bins []Bin) int {
	n := 0
	for _, b := range bins {
		n += len(b)
	}
	return n
}

// ToBins reads a bin assignment off a construction-graph path: the i-th
// interior node decides the bin of items[i]. Items keep their input order
// inside each bin, and every item appears exactly once.
//
// The path must start at [dag.Start], end at the end node for
// (len(items), binCount), and hold exactly len(items) interior nodes, the
// i-th of which lies in item row i. Any violation is an INVALID_INPUT error.
func ToBins(items []Item, binCount int, path dag.Path) ([]Bin, error) {
	if len(items) == 0 {
		return nil, apperr.InvalidInput("item list is empty")
	}
	if binCount < 1 {
		return nil, apperr.InvalidInput("bin count must be >= 1, got %d", binCount)
	}
	if len(path) == 0 {
		return nil, apperr.InvalidInput("path is empty")
	}
	if path[0] != dag.Start {
		return nil, apperr.InvalidInput("path must begin at the start node")
	}
	if end := dag.EndFor(len(items), binCount); path[len(path)-1] != end {
		return nil, apperr.InvalidInput("path must finish at the end node %d, got %d", end, path[len(path)-1])
	}
	if interior := len(path) - 2; interior != len(items) {
		return nil, apperr.InvalidInput("path has %d interior nodes for %d items", interior, len(items))
	}

	bins := make([]Bin, binCount)
	for i, id := range path[1 : len(path)-1] {
		item, bin, ok := dag.Locate(id, binCount)
		if !ok || item != i {
			return nil, apperr.InvalidInput("path position %d: node %d is not a choice for item %d", i+1, id, i)
		}
		bins[bin] = append(bins[bin], items[i])
	}
	return bins, nil
}

// Assignment returns, for each item, the bin index chosen by path. It applies
// the same checks as [ToBins].
func Assignment(items []Item, binCount int, path dag.Path) ([]int, error) {
	if _, err := ToBins(items, binCount, path); err != nil {
		return nil, err
	}
	out := make([]int, len(items))
	for i, id := range path[1 : len(path)-1] {
		_, out[i], _ = dag.Locate(id, binCount)
	}
	return out, nil
}
