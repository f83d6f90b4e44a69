package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/antpack/pkg/aco"
	"github.com/matzehuels/antpack/pkg/cache"
	"github.com/matzehuels/antpack/pkg/dag"
	resultio "github.com/matzehuels/antpack/pkg/io"
	"github.com/matzehuels/antpack/pkg/problem"
	"github.com/matzehuels/antpack/pkg/render"
	"github.com/matzehuels/antpack/pkg/render/nodelink"
	"github.com/matzehuels/antpack/pkg/rng"
)

// Runner executes solves with caching.
//
// The Runner is stateless except for the cache and logger; it does not keep
// results. Multiple goroutines can use the same Runner concurrently.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means DefaultKeyer, a nil cache
// means NullCache (caching disabled) and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// RunInfo summarizes one run of a multi-run solve.
type RunInfo struct {
	Seed        uint64        `json:"seed"`
	Fitness     float64       `json:"fitness"`
	Evaluations int           `json:"evaluations"`
	Duration    time.Duration `json:"duration"`
	CacheHit    bool          `json:"cache_hit"`
}

// Stats records where time was spent.
type Stats struct {
	SolveTime  time.Duration
	RenderTime time.Duration
}

// Result is the outcome of Execute.
type Result struct {
	// Problem is the solved problem with the seed of the best run.
	Problem *problem.Problem
	// Best is the best result over all runs; ties keep the earliest run.
	Best    aco.Result
	BestRun int
	Runs    []RunInfo

	// Document is Best in export form.
	Document resultio.Document

	// Artifacts holds the rendered diagrams by format.
	Artifacts map[render.Format][]byte

	Stats Stats
}

// Execute solves opts.Problem opts.Runs times and renders the best result.
//
// If ctx is cancelled, Execute stops after the current batch and returns
// the error; results of completed runs are not returned.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[render.Format][]byte), BestRun: -1}
	solveStart := time.Now()
	for run := range opts.Runs {
		p := withSeed(opts.Problem, RunSeed(opts.Problem.Config.Seed, run))

		var progress func(aco.Progress)
		if opts.Progress != nil {
			progress = func(ap aco.Progress) { opts.Progress(run, ap) }
		}
		res, hit, err := r.SolveWithCacheInfo(ctx, p, opts.Refresh, progress)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", run+1, err)
		}
		result.Runs = append(result.Runs, RunInfo{
			Seed:        p.Config.Seed,
			Fitness:     res.Fitness,
			Evaluations: res.Evaluations,
			Duration:    res.Duration,
			CacheHit:    hit,
		})
		if result.BestRun < 0 || res.Fitness < result.Best.Fitness {
			result.Best, result.BestRun, result.Problem = res, run, p
		}
		r.Logger.Debug("run complete", "run", run+1, "of", opts.Runs, "fitness", res.Fitness, "cached", hit)
	}
	result.Stats.SolveTime = time.Since(solveStart)
	result.Document = resultio.FromResult(result.Problem, result.Best)

	r.Logger.Info("solved",
		"items", len(opts.Problem.Items),
		"bins", opts.Problem.Bins,
		"runs", opts.Runs,
		"fitness", result.Best.Fitness,
		"duration", result.Stats.SolveTime)

	if len(opts.Formats) == 0 {
		return result, nil
	}
	renderStart := time.Now()
	for _, f := range opts.Formats {
		data, err := r.Render(ctx, result.Problem, result.Best, f, opts.PathOnly)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		result.Artifacts[f] = data
	}
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Debug("rendered", "formats", opts.Formats, "duration", result.Stats.RenderTime)
	return result, nil
}

// RunSeed returns the seed of the run-th run of a solve seeded with base.
func RunSeed(base uint64, run int) uint64 {
	if run == 0 {
		return base
	}
	return rng.Derive(base, uint64(run))
}

func withSeed(p *problem.Problem, seed uint64) *problem.Problem {
	cp := *p
	cp.Config.Seed = seed
	return &cp
}

// SolveWithCacheInfo runs the optimizer once on p, or replays a cached
// result, and reports whether the cache was hit.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, p *problem.Problem, refresh bool, progress func(aco.Progress)) (aco.Result, bool, error) {
	key := r.Keyer.ResultKey(p.Hash(), p.CacheKeyOpts())

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if res, ok := r.restore(data); ok {
				return res, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
	}

	g, err := dag.Build(len(p.Items), p.Bins)
	if err != nil {
		return aco.Result{}, false, err
	}
	opts := []aco.Option{aco.WithLogger(r.Logger)}
	if progress != nil {
		opts = append(opts, aco.WithProgress(progress))
	}
	opt, err := aco.New(p.Config, opts...)
	if err != nil {
		return aco.Result{}, false, err
	}
	res, err := opt.Run(ctx, g, p.Items, p.Bins, p.Evaluator())
	if err != nil {
		return res, false, err
	}

	var buf bytes.Buffer
	if err := resultio.WriteJSON(resultio.FromResult(p, res), &buf); err == nil {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLResult); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		}
	}
	return res, false, nil
}

// Solve is SolveWithCacheInfo without the cache information.
func (r *Runner) Solve(ctx context.Context, p *problem.Problem) (aco.Result, error) {
	res, _, err := r.SolveWithCacheInfo(ctx, p, false, nil)
	return res, err
}

func (r *Runner) restore(data []byte) (aco.Result, bool) {
	doc, err := resultio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		r.Logger.Debug("discarding unreadable cache entry", "error", err)
		return aco.Result{}, false
	}
	_, res, err := doc.Restore()
	if err != nil || res.Path == nil {
		r.Logger.Debug("discarding inconsistent cache entry", "error", err)
		return aco.Result{}, false
	}
	return res, true
}

// Render draws p's construction graph with res's best path highlighted.
func (r *Runner) Render(ctx context.Context, p *problem.Problem, res aco.Result, format render.Format, pathOnly bool) ([]byte, error) {
	var doc bytes.Buffer
	if err := resultio.WriteJSON(resultio.FromResult(p, res), &doc); err != nil {
		return nil, err
	}
	key := r.Keyer.ArtifactKey(cache.Hash(doc.Bytes()), cache.ArtifactKeyOpts{Format: string(format), PathOnly: pathOnly})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	g, err := dag.Build(len(p.Items), p.Bins)
	if err != nil {
		return nil, err
	}
	data, err := nodelink.Render(ctx, g, nodelink.Options{
		Highlight: res.Path,
		Items:     p.Items,
		PathOnly:  pathOnly,
	}, format)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	}
	return data, nil
}
