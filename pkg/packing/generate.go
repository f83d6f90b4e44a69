package packing

import (
	apperr "github.com/matzehuels/antpack/pkg/errors"
	"github.com/matzehuels/antpack/pkg/rng"
)

// Sequence returns n items weighing 1, 2, ..., n.
func Sequence(n int) ([]Item, error) {
	if n < 1 {
		return nil, apperr.InvalidInput("item count must be >= 1, got %d", n)
	}
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Weight: i + 1}
	}
	return items, nil
}

// Uniform returns n items with weights drawn uniformly from [lo, hi].
func Uniform(src rng.IntSource, n, lo, hi int) ([]Item, error) {
	switch {
	case n < 1:
		return nil, apperr.InvalidInput("item count must be >= 1, got %d", n)
	case lo < 1:
		return nil, apperr.InvalidInput("minimum weight must be >= 1, got %d", lo)
	case hi < lo:
		return nil, apperr.InvalidInput("maximum weight %d is below minimum %d", hi, lo)
	case src == nil:
		return nil, apperr.InvalidInput("random source is nil")
	}
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Weight: lo + src.IntN(hi-lo+1)}
	}
	return items, nil
}
