package aco

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/antpack/pkg/dag"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	"github.com/matzehuels/antpack/pkg/observability"
	"github.com/matzehuels/antpack/pkg/packing"
	"github.com/matzehuels/antpack/pkg/pheromone"
	"github.com/matzehuels/antpack/pkg/rng"
)

// Improvement records a strict improvement of the best fitness.
type Improvement struct {
	Evaluation int     `json:"evaluation"`
	Fitness    float64 `json:"fitness"`
}

// Progress is reported to a WithProgress callback after every batch.
type Progress struct {
	Batch       int
	Batches     int
	Evaluations int
	BestFitness float64
}

// Result is the outcome of a run.
type Result struct {
	// Path is the best path found; ties keep the earliest.
	Path dag.Path
	// Fitness is the score of Path. Lower is better.
	Fitness float64
	// Bins is Path converted to an assignment.
	Bins []packing.Bin

	Evaluations int
	Batches     int

	// Improvements lists every strict improvement in order.
	Improvements []Improvement

	// DegenerateFitness counts paths whose fitness was floored before
	// computing the deposit.
	DegenerateFitness int
	// SamplingFallbacks counts sampling steps that fell back to the last
	// candidate.
	SamplingFallbacks int

	Duration time.Duration
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithSource sets the random source. The default is rng.New(cfg.Seed).
func WithSource(src rng.Source) Option {
	return func(o *Optimizer) { o.src = src }
}

// WithLogger sets the logger for the run summary (info) and per-batch
// progress (debug). Without it the optimizer logs nothing.
func WithLogger(l *log.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// WithHooks overrides the globally registered optimizer hooks.
func WithHooks(h observability.OptimizerHooks) Option {
	return func(o *Optimizer) { o.hooks = h }
}

// WithProgress registers a callback invoked after every batch.
func WithProgress(fn func(Progress)) Option {
	return func(o *Optimizer) { o.progress = fn }
}

// Optimizer runs the seed, sample, score and evaporate loop.
//
// An Optimizer holds its random source, so it is not safe for concurrent
// use. Running it twice continues the same random stream; create a new
// Optimizer (or pass a fresh source) to reproduce a run.
type Optimizer struct {
	cfg      Config
	src      rng.Source
	logger   *log.Logger
	hooks    observability.OptimizerHooks
	progress func(Progress)
}

// New validates cfg and returns an optimizer.
func New(cfg Config, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.src == nil {
		o.src = rng.New(cfg.Seed)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	if o.hooks == nil {
		o.hooks = observability.Optimizer()
	}
	return o, nil
}

// Config returns the validated configuration.
func (o *Optimizer) Config() Config { return o.cfg }

// Run searches g for the path whose assignment of items into bins scores
// lowest under eval.
//
// The graph must have been built for len(items) items and binCount bins.
// Exactly cfg.Evaluations() paths are scored unless ctx is cancelled; the
// context is checked between batches, and on cancellation Run returns the
// best result found so far together with ctx.Err().
func (o *Optimizer) Run(ctx context.Context, g *dag.Graph, items []packing.Item, binCount int, eval packing.Evaluator) (Result, error) {
	if err := checkProblem(g, items, binCount, eval); err != nil {
		return Result{}, err
	}

	start := time.Now()
	o.hooks.OnRunStart(ctx, len(items), binCount, o.cfg.EvaluationBudget)

	res, err := o.run(ctx, g, items, binCount, eval)
	res.Duration = time.Since(start)

	o.hooks.OnRunComplete(ctx, res.Evaluations, res.Fitness, res.Duration, err)
	o.logger.Info("search finished",
		"evaluations", res.Evaluations,
		"batches", res.Batches,
		"fitness", res.Fitness,
		"fallbacks", res.SamplingFallbacks,
		"degenerate", res.DegenerateFitness,
		"duration", res.Duration)
	return res, err
}

func (o *Optimizer) run(ctx context.Context, g *dag.Graph, items []packing.Item, binCount int, eval packing.Evaluator) (Result, error) {
	table := pheromone.New(g)
	sampler := NewSampler(g, table, o.src)
	batches := o.cfg.Batches()

	res := Result{Fitness: math.Inf(1)}
	if o.cfg.reseed() == ReseedOnce {
		table.Reset(o.src)
	}

	for batch := 1; batch <= batches; batch++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batchStart := time.Now()

		if o.cfg.reseed() == ReseedEveryBatch {
			table.Reset(o.src)
		}

		fallbacks := sampler.Fallbacks()
		paths := sampler.Sample(o.cfg.BatchSize)
		if n := sampler.Fallbacks() - fallbacks; n > 0 {
			res.SamplingFallbacks += n
			o.hooks.OnNumericRecovery(ctx, observability.RecoverySamplingExhaustion, n)
		}

		degenerate := 0
		for _, p := range paths {
			bins, err := packing.ToBins(items, binCount, p)
			if err != nil {
				return res, apperr.Wrap(apperr.ErrCodeInternal, err, "convert sampled path")
			}
			fitness, err := eval.Evaluate(bins)
			if err != nil {
				return res, err
			}
			if math.IsNaN(fitness) || fitness < 0 {
				return res, apperr.New(apperr.ErrCodeInternal, "evaluator returned invalid fitness %v", fitness)
			}
			res.Evaluations++

			if fitness < res.Fitness {
				res.Path, res.Fitness, res.Bins = p, fitness, bins
				res.Improvements = append(res.Improvements, Improvement{Evaluation: res.Evaluations, Fitness: fitness})
				o.hooks.OnImprovement(ctx, res.Evaluations, fitness)
				o.logger.Debug("improved", "evaluation", res.Evaluations, "fitness", fitness)
			}

			amount, floored := pheromone.Deposit(fitness)
			if floored {
				degenerate++
			}
			if err := table.Reinforce(p, amount); err != nil {
				return res, apperr.Wrap(apperr.ErrCodeInternal, err, "reinforce sampled path")
			}
		}
		if degenerate > 0 {
			res.DegenerateFitness += degenerate
			o.hooks.OnNumericRecovery(ctx, observability.RecoveryDegenerateFitness, degenerate)
		}

		if err := table.Evaporate(o.cfg.EvaporationRate); err != nil {
			return res, err
		}
		res.Batches = batch

		elapsed := time.Since(batchStart)
		o.hooks.OnBatchComplete(ctx, batch, res.Evaluations, res.Fitness, elapsed)
		o.logger.Debug("batch complete",
			"batch", batch,
			"of", batches,
			"evaluations", res.Evaluations,
			"best", res.Fitness,
			"duration", elapsed)
		if o.progress != nil {
			o.progress(Progress{
				Batch:       batch,
				Batches:     batches,
				Evaluations: res.Evaluations,
				BestFitness: res.Fitness,
			})
		}
	}
	return res, nil
}

func checkProblem(g *dag.Graph, items []packing.Item, binCount int, eval packing.Evaluator) error {
	if g == nil {
		return apperr.InvalidInput("construction graph is required")
	}
	if eval == nil {
		return apperr.InvalidInput("fitness evaluator is required")
	}
	if err := packing.ValidateItems(items); err != nil {
		return err
	}
	if len(items) != g.Items() {
		return apperr.InvalidInput("graph was built for %d items, got %d", g.Items(), len(items))
	}
	if binCount != g.Bins() {
		return apperr.InvalidInput("graph was built for %d bins, got %d", g.Bins(), binCount)
	}
	return nil
}

// Run is a one-shot helper around New and Optimizer.Run with reseeding every
// batch. src must not be nil.
func Run(g *dag.Graph, items []packing.Item, binCount, batchSize, budget int, rate float64, eval packing.Evaluator, src rng.Source) (Result, error) {
	if src == nil {
		return Result{}, apperr.InvalidInput("random source is required")
	}
	cfg := Config{
		BatchSize:        batchSize,
		EvaluationBudget: budget,
		EvaporationRate:  rate,
		Reseed:           ReseedEveryBatch,
	}
	o, err := New(cfg, WithSource(src))
	if err != nil {
		return Result{}, err
	}
	return o.Run(context.Background(), g, items, binCount, eval)
}
