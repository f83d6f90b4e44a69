package aco

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/antpack/pkg/dag"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	"github.com/matzehuels/antpack/pkg/observability"
	"github.com/matzehuels/antpack/pkg/packing"
	"github.com/matzehuels/antpack/pkg/rng"
)

var quiet = log.New(io.Discard)

func newOptimizer(t *testing.T, cfg Config, opts ...Option) *Optimizer {
	t.Helper()
	opts = append([]Option{WithLogger(quiet)}, opts...)
	o, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return o
}

func smallConfig(batch, budget int) Config {
	return Config{BatchSize: batch, EvaluationBudget: budget, EvaporationRate: 0.5, Seed: 42}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"reseed once", func(c *Config) { c.Reseed = ReseedOnce }, false},
		{"empty reseed", func(c *Config) { c.Reseed = "" }, false},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, true},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }, true},
		{"zero budget", func(c *Config) { c.EvaluationBudget = 0 }, true},
		{"rate zero", func(c *Config) { c.EvaporationRate = 0 }, true},
		{"rate one", func(c *Config) { c.EvaporationRate = 1 }, true},
		{"rate above one", func(c *Config) { c.EvaporationRate = 1.5 }, true},
		{"rate negative", func(c *Config) { c.EvaporationRate = -0.1 }, true},
		{"rate NaN", func(c *Config) { c.EvaporationRate = math.NaN() }, true},
		{"unknown reseed", func(c *Config) { c.Reseed = "sometimes" }, true},
		{"max budget", func(c *Config) { c.EvaluationBudget = math.MaxInt }, true},
		{"max budget single batch", func(c *Config) { c.EvaluationBudget, c.BatchSize = math.MaxInt, math.MaxInt }, false},
		{"max budget unit batch", func(c *Config) { c.EvaluationBudget, c.BatchSize = math.MaxInt, 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperr.Is(err, apperr.ErrCodeInvalidConfiguration) {
				t.Errorf("error code = %s, want %s", apperr.GetCode(err), apperr.ErrCodeInvalidConfiguration)
			}
			if _, err := New(cfg); (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigBatches(t *testing.T) {
	tests := []struct {
		batch, budget   int
		wantBatches     int
		wantEvaluations int
	}{
		{100, 10000, 100, 10000},
		{100, 50, 1, 100},
		{3, 10, 4, 12},
		{1, 1, 1, 1},
		{7, 14, 2, 14},
		{math.MaxInt, math.MaxInt, 1, math.MaxInt},
		{1, math.MaxInt, math.MaxInt, math.MaxInt},
	}
	for _, tt := range tests {
		cfg := smallConfig(tt.batch, tt.budget)
		if got := cfg.Batches(); got != tt.wantBatches {
			t.Errorf("Batches(%d, %d) = %d, want %d", tt.batch, tt.budget, got, tt.wantBatches)
		}
		if got := cfg.Evaluations(); got != tt.wantEvaluations {
			t.Errorf("Evaluations(%d, %d) = %d, want %d", tt.batch, tt.budget, got, tt.wantEvaluations)
		}
	}
}

func TestRunEvaluatesWholeBatches(t *testing.T) {
	items := packing.Items(1, 2, 3, 4, 5)
	g := mustBuild(t, len(items), 2)

	for _, tt := range []struct{ batch, budget, want int }{{3, 10, 12}, {100, 50, 100}, {5, 5, 5}} {
		calls := 0
		eval := packing.EvaluatorFunc(func(bins []packing.Bin) (float64, error) {
			calls++
			return packing.Spread{}.Evaluate(bins)
		})
		res, err := newOptimizer(t, smallConfig(tt.batch, tt.budget)).Run(context.Background(), g, items, 2, eval)
		if err != nil {
			t.Fatalf("Run error: %v", err)
		}
		if res.Evaluations != tt.want || calls != tt.want {
			t.Errorf("batch=%d budget=%d: evaluations = %d (calls %d), want %d",
				tt.batch, tt.budget, res.Evaluations, calls, tt.want)
		}
		if want := (tt.budget + tt.batch - 1) / tt.batch; res.Batches != want {
			t.Errorf("batches = %d, want %d", res.Batches, want)
		}
	}
}

func TestRunResultIsConsistent(t *testing.T) {
	items := packing.Items(10, 20, 30, 15, 7, 3)
	g := mustBuild(t, len(items), 3)

	res, err := newOptimizer(t, smallConfig(20, 200)).Run(context.Background(), g, items, 3, packing.Spread{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if err := g.ValidatePath(res.Path); err != nil {
		t.Fatalf("best path invalid: %v", err)
	}
	bins, err := packing.ToBins(items, 3, res.Path)
	if err != nil {
		t.Fatalf("ToBins error: %v", err)
	}
	if diff := cmp.Diff(bins, res.Bins); diff != "" {
		t.Errorf("Bins mismatch (-want +got):\n%s", diff)
	}
	fitness, _ := packing.Spread{}.Evaluate(res.Bins)
	if fitness != res.Fitness {
		t.Errorf("Fitness = %v, evaluating Bins gives %v", res.Fitness, fitness)
	}
	if packing.ItemCount(res.Bins) != len(items) {
		t.Errorf("bins hold %d items, want %d", packing.ItemCount(res.Bins), len(items))
	}
}

func TestRunImprovementsStrictlyDecrease(t *testing.T) {
	items := packing.Items(9, 8, 7, 6, 5, 4, 3, 2, 1)
	g := mustBuild(t, len(items), 3)

	res, err := newOptimizer(t, smallConfig(10, 500)).Run(context.Background(), g, items, 3, packing.Spread{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(res.Improvements) == 0 {
		t.Fatal("no improvements recorded")
	}
	if res.Improvements[0].Evaluation != 1 {
		t.Errorf("first improvement at evaluation %d, want 1", res.Improvements[0].Evaluation)
	}
	for i := 1; i < len(res.Improvements); i++ {
		prev, cur := res.Improvements[i-1], res.Improvements[i]
		if cur.Fitness >= prev.Fitness || cur.Evaluation <= prev.Evaluation {
			t.Errorf("improvement %d (%+v) does not strictly improve on %+v", i, cur, prev)
		}
	}
	if last := res.Improvements[len(res.Improvements)-1]; last.Fitness != res.Fitness {
		t.Errorf("last improvement fitness %v != result fitness %v", last.Fitness, res.Fitness)
	}
}

func TestRunKeepsEarliestOnTies(t *testing.T) {
	items := packing.Items(1, 2, 3)
	g := mustBuild(t, len(items), 2)
	constant := packing.EvaluatorFunc(func([]packing.Bin) (float64, error) { return 7, nil })

	res, err := newOptimizer(t, smallConfig(10, 100)).Run(context.Background(), g, items, 2, constant)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(res.Improvements) != 1 {
		t.Errorf("improvements = %d, want 1", len(res.Improvements))
	}
	if res.Fitness != 7 {
		t.Errorf("Fitness = %v, want 7", res.Fitness)
	}
}

func TestRunDeterministic(t *testing.T) {
	items := packing.Items(12, 7, 5, 9, 3, 8, 1)
	g := mustBuild(t, len(items), 3)

	for _, reseed := range []Reseed{ReseedEveryBatch, ReseedOnce} {
		run := func() Result {
			cfg := smallConfig(15, 300)
			cfg.Reseed = reseed
			res, err := newOptimizer(t, cfg).Run(context.Background(), g, items, 3, packing.Spread{})
			if err != nil {
				t.Fatalf("Run error: %v", err)
			}
			res.Duration = 0
			return res
		}
		if diff := cmp.Diff(run(), run()); diff != "" {
			t.Errorf("reseed=%s: same seed produced different results (-first +second):\n%s", reseed, diff)
		}
	}
}

func TestRunSilentWithoutLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Default()
	log.SetDefault(log.New(&buf))
	t.Cleanup(func() { log.SetDefault(prev) })

	items := packing.Items(3, 1, 2)
	g := mustBuild(t, len(items), 2)
	if _, err := Run(g, items, 2, 5, 20, 0.5, packing.Spread{}, rng.New(1)); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Run logged without a logger:\n%s", buf.String())
	}
}

func TestRunReseedDraws(t *testing.T) {
	items := packing.Items(4, 9, 2, 7, 5)
	g := mustBuild(t, len(items), 3)
	cfg := smallConfig(6, 40)
	walk := cfg.Evaluations() * (g.PathLen() - 1)

	tests := []struct {
		reseed Reseed
		want   int
	}{
		{"", cfg.Batches()*g.EdgeCount() + walk},
		{ReseedEveryBatch, cfg.Batches()*g.EdgeCount() + walk},
		{ReseedOnce, g.EdgeCount() + walk},
	}
	for _, tt := range tests {
		cfg.Reseed = tt.reseed
		src := &countingSource{src: rng.New(3)}
		if _, err := newOptimizer(t, cfg, WithSource(src)).Run(context.Background(), g, items, 3, packing.Spread{}); err != nil {
			t.Fatalf("reseed=%q: Run error: %v", tt.reseed, err)
		}
		if src.draws != tt.want {
			t.Errorf("reseed=%q: draws = %d, want %d", tt.reseed, src.draws, tt.want)
		}
	}
}

func TestRunFindsPerfectSplit(t *testing.T) {
	// {1,4} and {2,3} both weigh 5.
	items := packing.Items(1, 2, 3, 4)
	g := mustBuild(t, len(items), 2)

	res, err := newOptimizer(t, smallConfig(50, 1000)).Run(context.Background(), g, items, 2, packing.Spread{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Fitness != 0 {
		t.Errorf("Fitness = %v, want 0", res.Fitness)
	}
	if res.DegenerateFitness == 0 {
		t.Error("zero-fitness paths should be counted as degenerate")
	}
	if diff := cmp.Diff([]int{5, 5}, packing.BinWeights(res.Bins)); diff != "" {
		t.Errorf("bin weights mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSingleBin(t *testing.T) {
	items := packing.Items(4, 5, 6)
	g := mustBuild(t, len(items), 1)

	res, err := newOptimizer(t, smallConfig(5, 5)).Run(context.Background(), g, items, 1, packing.Spread{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Fitness != 0 {
		t.Errorf("Fitness = %v, want 0", res.Fitness)
	}
	if diff := cmp.Diff([]packing.Bin{items}, res.Bins); diff != "" {
		t.Errorf("Bins mismatch (-want +got):\n%s", diff)
	}
}

func TestRunInvalidProblem(t *testing.T) {
	items := packing.Items(1, 2, 3)
	g := mustBuild(t, len(items), 2)
	o := newOptimizer(t, smallConfig(5, 10))
	ctx := context.Background()

	tests := []struct {
		name  string
		g     *dag.Graph
		items []packing.Item
		bins  int
		eval  packing.Evaluator
	}{
		{"nil graph", nil, items, 2, packing.Spread{}},
		{"nil evaluator", g, items, 2, nil},
		{"no items", g, nil, 2, packing.Spread{}},
		{"zero weight", g, packing.Items(1, 0, 3), 2, packing.Spread{}},
		{"item count mismatch", g, packing.Items(1, 2), 2, packing.Spread{}},
		{"bin count mismatch", g, items, 3, packing.Spread{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Run(ctx, tt.g, tt.items, tt.bins, tt.eval)
			if !apperr.Is(err, apperr.ErrCodeInvalidInput) {
				t.Errorf("Run() error = %v, want %s", err, apperr.ErrCodeInvalidInput)
			}
		})
	}
}

func TestRunEvaluatorFailure(t *testing.T) {
	items := packing.Items(1, 2, 3)
	g := mustBuild(t, len(items), 2)
	boom := errors.New("boom")

	_, err := newOptimizer(t, smallConfig(5, 10)).Run(context.Background(), g, items, 2,
		packing.EvaluatorFunc(func([]packing.Bin) (float64, error) { return 0, boom }))
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}

	_, err = newOptimizer(t, smallConfig(5, 10)).Run(context.Background(), g, items, 2,
		packing.EvaluatorFunc(func([]packing.Bin) (float64, error) { return math.NaN(), nil }))
	if !apperr.Is(err, apperr.ErrCodeInternal) {
		t.Errorf("NaN fitness: error = %v, want %s", err, apperr.ErrCodeInternal)
	}
}

func TestRunCancellation(t *testing.T) {
	items := packing.Items(1, 2, 3, 4, 5)
	g := mustBuild(t, len(items), 2)

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := newOptimizer(t, smallConfig(5, 100)).Run(ctx, g, items, 2, packing.Spread{})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		if res.Evaluations != 0 {
			t.Errorf("Evaluations = %d, want 0", res.Evaluations)
		}
	})

	t.Run("between batches", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		progress := WithProgress(func(p Progress) {
			if p.Batch == 2 {
				cancel()
			}
		})
		res, err := newOptimizer(t, smallConfig(5, 100), progress).Run(ctx, g, items, 2, packing.Spread{})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		if res.Batches != 2 || res.Evaluations != 10 {
			t.Errorf("stopped after %d batches / %d evaluations, want 2 / 10", res.Batches, res.Evaluations)
		}
		if res.Path == nil {
			t.Error("partial result should carry the best path so far")
		}
	})
}

type recordingHooks struct {
	observability.NoopOptimizerHooks
	starts, completes, batches, improvements int
	recoveries                               map[string]int
}

func (h *recordingHooks) OnRunStart(context.Context, int, int, int) { h.starts++ }
func (h *recordingHooks) OnRunComplete(context.Context, int, float64, time.Duration, error) {
	h.completes++
}
func (h *recordingHooks) OnBatchComplete(context.Context, int, int, float64, time.Duration) {
	h.batches++
}
func (h *recordingHooks) OnImprovement(context.Context, int, float64) { h.improvements++ }
func (h *recordingHooks) OnNumericRecovery(_ context.Context, kind string, n int) {
	h.recoveries[kind] += n
}

func TestRunReportsHooks(t *testing.T) {
	items := packing.Items(1, 2, 3, 4)
	g := mustBuild(t, len(items), 2)
	h := &recordingHooks{recoveries: map[string]int{}}

	res, err := newOptimizer(t, smallConfig(10, 95), WithHooks(h)).Run(context.Background(), g, items, 2, packing.Spread{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if h.starts != 1 || h.completes != 1 {
		t.Errorf("start/complete = %d/%d, want 1/1", h.starts, h.completes)
	}
	if h.batches != 10 {
		t.Errorf("batches = %d, want 10", h.batches)
	}
	if h.improvements != len(res.Improvements) {
		t.Errorf("improvement hooks = %d, want %d", h.improvements, len(res.Improvements))
	}
	if got := h.recoveries[observability.RecoveryDegenerateFitness]; got != res.DegenerateFitness {
		t.Errorf("degenerate recoveries = %d, want %d", got, res.DegenerateFitness)
	}
}

func TestRunHelper(t *testing.T) {
	items := packing.Items(10, 20, 30, 15)
	g := mustBuild(t, len(items), 3)

	res, err := Run(g, items, 3, 10, 25, 0.5, packing.Spread{}, rng.New(5))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Evaluations != 30 {
		t.Errorf("Evaluations = %d, want 30", res.Evaluations)
	}

	if _, err := Run(g, items, 3, 10, 25, 1, packing.Spread{}, rng.New(5)); !apperr.Is(err, apperr.ErrCodeInvalidConfiguration) {
		t.Errorf("rate 1: error = %v, want %s", err, apperr.ErrCodeInvalidConfiguration)
	}
	if _, err := Run(g, items, 3, 0, 25, 0.5, packing.Spread{}, rng.New(5)); !apperr.Is(err, apperr.ErrCodeInvalidConfiguration) {
		t.Errorf("batch 0: error = %v, want %s", err, apperr.ErrCodeInvalidConfiguration)
	}
	if res, err := Run(g, items, 3, 100, math.MaxInt, 0.5, packing.Spread{}, rng.New(5)); !apperr.Is(err, apperr.ErrCodeInvalidConfiguration) {
		t.Errorf("overflowing budget: error = %v (evaluations %d), want %s", err, res.Evaluations, apperr.ErrCodeInvalidConfiguration)
	}
	if _, err := Run(g, items, 3, 10, 25, 0.5, packing.Spread{}, nil); !apperr.Is(err, apperr.ErrCodeInvalidInput) {
		t.Errorf("nil source: error = %v, want %s", err, apperr.ErrCodeInvalidInput)
	}
}

func TestQualityPresets(t *testing.T) {
	for _, q := range []Quality{QualityFast, QualityBalanced, QualityThorough} {
		if err := q.Preset().Validate(); err != nil {
			t.Errorf("%s preset invalid: %v", q, err)
		}
		parsed, err := ParseQuality(q.String())
		if err != nil || parsed != q {
			t.Errorf("ParseQuality(%q) = %v, %v", q.String(), parsed, err)
		}
		if q.Timeout() <= 0 {
			t.Errorf("%s timeout = %v", q, q.Timeout())
		}
	}
	if diff := cmp.Diff(DefaultConfig(), QualityBalanced.Preset()); diff != "" {
		t.Errorf("balanced preset differs from default (-want +got):\n%s", diff)
	}
	if _, err := ParseQuality("extreme"); err == nil {
		t.Error("ParseQuality(extreme) should fail")
	}
}
