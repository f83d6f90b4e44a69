// Package cache stores solved results keyed by problem and configuration.
//
// Identical problems solved with identical settings and seed produce
// bit-identical results, so a finished run can be memoized and replayed.
// Only final results are cached; runs are never resumed from partial state.
//
// # Backends
//
//   - [FileCache]: JSON files under a directory, used by the CLI
//   - [RedisCache]: a shared Redis instance, used by the HTTP server
//   - [NullCache]: stores nothing, used when caching is disabled
//
// Wrap any backend with [NewObserved] to report hits and misses through the
// registered [observability.CacheHooks].
//
// # Keys
//
// A [Keyer] derives keys from a content hash of the problem and the options
// that influence the result. [ScopedKeyer] prefixes every key for tenant
// isolation.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	TTLResult   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ResultKeyOpts lists every setting that changes a solve's result.
type ResultKeyOpts struct {
	Bins             int     `json:"bins"`
	BatchSize        int     `json:"batch_size"`
	EvaluationBudget int     `json:"evaluation_budget"`
	EvaporationRate  float64 `json:"evaporation_rate"`
	Seed             uint64  `json:"seed"`
	Reseed           string  `json:"reseed"`
	Fitness          string  `json:"fitness"`
}

// ArtifactKeyOpts identifies a rendering of a result.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	PathOnly bool   `json:"path_only"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ResultKey returns the key of a solve of the problem with the given
	// content hash.
	ResultKey(problemHash string, opts ResultKeyOpts) string

	// ArtifactKey returns the key of a rendered result.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the key components into "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(problemHash string, opts ResultKeyOpts) string {
	return hashKey(KeyTypeResult, problemHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, resultHash, opts)
}

// Key types, also used as the keyType label of cache hooks.
const (
	KeyTypeResult   = "result"
	KeyTypeArtifact = "artifact"
)
