// Package rng provides the random-number capability injected into the search
// engine.
//
// The engine never reaches for a global generator: every component that needs
// randomness receives a [Source], so a fixed seed reproduces a run exactly.
// math/rand/v2's *rand.Rand satisfies Source directly.
//
// A Source is not safe for concurrent use. Give each run its own Source.
package rng

import "math/rand/v2"

// Source draws uniform values in [0, 1).
type Source interface {
	Float64() float64
}

// IntSource is a Source that can also draw bounded integers, used by the item
// generators.
type IntSource interface {
	Source
	IntN(n int) int
}

// New returns a deterministic PCG generator for seed.
// The second PCG word is derived from the first so a single uint64 seed is
// enough to reproduce a run.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Derive returns the seed for the stream-th independent run derived from a
// base seed, using a SplitMix64 finalizer so consecutive streams are
// decorrelated.
func Derive(base uint64, stream uint64) uint64 {
	x := base ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
