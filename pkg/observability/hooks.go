// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about optimizer runs, cache operations, and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The optimizer calls these hooks between batches only, never inside the
// sampling loop.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    reg := metrics.NewRegistry()
//	    observability.SetOptimizerHooks(reg)
//	    observability.SetCacheHooks(reg)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Optimizer().OnRunStart(ctx, items, bins, budget)
//	// ... search ...
//	observability.Optimizer().OnRunComplete(ctx, evaluations, best, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Recovery kinds reported through OptimizerHooks.OnNumericRecovery.
const (
	// RecoveryDegenerateFitness: a zero fitness was floored before computing
	// the pheromone deposit.
	RecoveryDegenerateFitness = "degenerate_fitness"
	// RecoverySamplingExhaustion: cumulative probability never reached the
	// random draw and the last candidate was selected.
	RecoverySamplingExhaustion = "sampling_exhaustion"
)

// =============================================================================
// Optimizer Hooks
// =============================================================================

// OptimizerHooks receives events from ant colony runs.
type OptimizerHooks interface {
	// Run events
	OnRunStart(ctx context.Context, items, bins, budget int)
	OnRunComplete(ctx context.Context, evaluations int, bestFitness float64, duration time.Duration, err error)

	// Batch events
	OnBatchComplete(ctx context.Context, batch, evaluations int, bestFitness float64, duration time.Duration)
	OnImprovement(ctx context.Context, evaluation int, fitness float64)

	// OnNumericRecovery reports count internally recovered numeric edge cases
	// of the given kind within one batch.
	OnNumericRecovery(ctx context.Context, kind string, count int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records a served request.
	OnRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopOptimizerHooks is a no-op implementation of OptimizerHooks.
type NoopOptimizerHooks struct{}

func (NoopOptimizerHooks) OnRunStart(context.Context, int, int, int) {}
func (NoopOptimizerHooks) OnRunComplete(context.Context, int, float64, time.Duration, error) {
}
func (NoopOptimizerHooks) OnBatchComplete(context.Context, int, int, float64, time.Duration) {
}
func (NoopOptimizerHooks) OnImprovement(context.Context, int, float64)    {}
func (NoopOptimizerHooks) OnNumericRecovery(context.Context, string, int) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Fan-out
// =============================================================================

// MultiOptimizerHooks forwards every event to each hook in order.
type MultiOptimizerHooks []OptimizerHooks

func (m MultiOptimizerHooks) OnRunStart(ctx context.Context, items, bins, budget int) {
	for _, h := range m {
		h.OnRunStart(ctx, items, bins, budget)
	}
}

func (m MultiOptimizerHooks) OnRunComplete(ctx context.Context, evaluations int, best float64, d time.Duration, err error) {
	for _, h := range m {
		h.OnRunComplete(ctx, evaluations, best, d, err)
	}
}

func (m MultiOptimizerHooks) OnBatchComplete(ctx context.Context, batch, evaluations int, best float64, d time.Duration) {
	for _, h := range m {
		h.OnBatchComplete(ctx, batch, evaluations, best, d)
	}
}

func (m MultiOptimizerHooks) OnImprovement(ctx context.Context, evaluation int, fitness float64) {
	for _, h := range m {
		h.OnImprovement(ctx, evaluation, fitness)
	}
}

func (m MultiOptimizerHooks) OnNumericRecovery(ctx context.Context, kind string, count int) {
	for _, h := range m {
		h.OnNumericRecovery(ctx, kind, count)
	}
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	optimizerHooks OptimizerHooks = NoopOptimizerHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetOptimizerHooks registers custom optimizer hooks.
// This should be called once at application startup before any run starts.
func SetOptimizerHooks(h OptimizerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		optimizerHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving requests.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Optimizer returns the registered optimizer hooks.
func Optimizer() OptimizerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return optimizerHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	optimizerHooks = NoopOptimizerHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
