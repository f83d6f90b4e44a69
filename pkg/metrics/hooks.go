package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/matzehuels/antpack/pkg/observability"
)

var (
	_ observability.OptimizerHooks = (*Registry)(nil)
	_ observability.CacheHooks     = (*Registry)(nil)
	_ observability.HTTPHooks      = (*Registry)(nil)
)

// OnRunStart implements observability.OptimizerHooks.
func (r *Registry) OnRunStart(context.Context, int, int, int) {
	r.RunsInFlight.Inc()
}

// OnRunComplete implements observability.OptimizerHooks.
func (r *Registry) OnRunComplete(_ context.Context, _ int, best float64, d time.Duration, err error) {
	r.RunsInFlight.Dec()
	r.RunDuration.Observe(d.Seconds())
	switch {
	case err == nil:
		r.RunsTotal.WithLabelValues("ok").Inc()
		r.BestFitness.Observe(best)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.RunsTotal.WithLabelValues("cancelled").Inc()
	default:
		r.RunsTotal.WithLabelValues("error").Inc()
	}
}

// OnBatchComplete implements observability.OptimizerHooks. evaluations is
// cumulative, so the counter is advanced by the batch's share.
func (r *Registry) OnBatchComplete(_ context.Context, batch, evaluations int, _ float64, d time.Duration) {
	r.BatchDuration.Observe(d.Seconds())
	if batch > 0 {
		r.EvaluationsTotal.Add(float64(evaluations / batch))
	}
}

// OnImprovement implements observability.OptimizerHooks.
func (r *Registry) OnImprovement(context.Context, int, float64) {
	r.ImprovementsTotal.Inc()
}

// OnNumericRecovery implements observability.OptimizerHooks.
func (r *Registry) OnNumericRecovery(_ context.Context, kind string, count int) {
	r.NumericRecoveries.WithLabelValues(kind).Add(float64(count))
}

// OnCacheHit implements observability.CacheHooks.
func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheRequestsTotal.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheRequestsTotal.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheWriteBytes.WithLabelValues(keyType).Observe(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (r *Registry) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	r.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}
