package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/antpack/pkg/aco"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	resultio "github.com/matzehuels/antpack/pkg/io"
	"github.com/matzehuels/antpack/pkg/packing"
	"github.com/matzehuels/antpack/pkg/pipeline"
	"github.com/matzehuels/antpack/pkg/problem"
	"github.com/matzehuels/antpack/pkg/render"
)

// solveOpts holds the command-line flags for the solve command. Optimizer
// flags only override the problem file when set explicitly.
type solveOpts struct {
	items     string
	bins      int
	batchSize int
	budget    int
	rate      float64
	seed      uint64
	reseed    string
	fitness   string
	quality   string
	runs      int
	timeout   time.Duration
	output    string
	formats   string
	pathOnly  bool
	tui       bool
	noCache   bool
	refresh   bool
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	opts := solveOpts{runs: pipeline.DefaultRuns}

	cmd := &cobra.Command{
		Use:   "solve [problem.toml]",
		Short: "Split items into bins with the most even weights",
		Long: `Split items into bins with the most even weights.

The problem is read from a TOML, YAML or JSON file, or given inline with
--items and --bins. Optimizer flags override the file's [optimizer] table.

The best result is written as JSON (default: <input>.result.json) and can be
rendered with 'antpack graph'. Results are cached locally, so solving the same
problem with the same settings again is instant.`,
		Example: `  antpack solve problem.toml
  antpack solve --items 7,3,5,2,8,4 --bins 3 --seed 42
  antpack solve problem.toml --runs 5 --quality thorough -f svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runSolve(cmd, input, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.items, "items", "", "item weights, comma-separated (instead of a problem file)")
	f.IntVar(&opts.bins, "bins", 0, "number of bins")
	f.IntVar(&opts.batchSize, "batch-size", aco.DefaultBatchSize, "paths sampled per batch")
	f.IntVar(&opts.budget, "budget", aco.DefaultEvaluationBudget, "number of path evaluations")
	f.Float64Var(&opts.rate, "evaporation", aco.DefaultEvaporationRate, "pheromone retained per batch, in (0, 1)")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed")
	f.StringVar(&opts.reseed, "reseed", string(aco.ReseedEveryBatch), "pheromone reseeding: batch, once")
	f.StringVar(&opts.fitness, "fitness", "", "fitness function: "+strings.Join(packing.EvaluatorNames(), ", "))
	f.StringVarP(&opts.quality, "quality", "q", "", "preset for batch size, budget and timeout: fast, balanced, thorough")
	f.IntVarP(&opts.runs, "runs", "n", opts.runs, "independent runs; the best is reported")
	f.DurationVar(&opts.timeout, "timeout", 0, "stop after this long (default from --quality)")
	f.StringVarP(&opts.output, "output", "o", "", "result file (default: <input>.result.json)")
	f.StringVarP(&opts.formats, "format", "f", "", "also render the best path: dot, svg, pdf, png (comma-separated)")
	f.BoolVar(&opts.pathOnly, "path-only", false, "draw only the best path's edges")
	f.BoolVar(&opts.tui, "tui", false, "show a live progress view")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// buildProblem loads or assembles the problem and applies flag overrides.
func buildProblem(cmd *cobra.Command, input string, opts solveOpts) (*problem.Problem, aco.Quality, error) {
	flags := cmd.Flags()
	quality, err := aco.ParseQuality(opts.quality)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.ErrCodeInvalidConfiguration, err, "quality")
	}

	var p *problem.Problem
	switch {
	case input != "" && opts.items != "":
		return nil, 0, apperr.InvalidInput("give either a problem file or --items, not both")
	case input != "":
		if p, err = problem.Load(input); err != nil {
			return nil, 0, err
		}
	case opts.items != "":
		weights, err := parseInts(opts.items)
		if err != nil {
			return nil, 0, err
		}
		if !flags.Changed("bins") {
			return nil, 0, apperr.InvalidInput("--bins is required with --items")
		}
		if p, err = problem.New(weights, opts.bins); err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, apperr.InvalidInput("a problem file or --items is required")
	}

	if flags.Changed("quality") {
		preset := quality.Preset()
		p.Config.BatchSize, p.Config.EvaluationBudget = preset.BatchSize, preset.EvaluationBudget
	}
	if flags.Changed("bins") {
		p.Bins = opts.bins
	}
	if flags.Changed("batch-size") {
		p.Config.BatchSize = opts.batchSize
	}
	if flags.Changed("budget") {
		p.Config.EvaluationBudget = opts.budget
	}
	if flags.Changed("evaporation") {
		p.Config.EvaporationRate = opts.rate
	}
	if flags.Changed("seed") {
		p.Config.Seed = opts.seed
	}
	if flags.Changed("reseed") {
		p.Config.Reseed = aco.Reseed(opts.reseed)
	}
	if flags.Changed("fitness") {
		p.Fitness = strings.ToLower(opts.fitness)
		if p.Fitness == "" {
			p.Fitness = packing.FitnessSpread
		}
	}

	if p.Bins < 1 {
		return nil, 0, apperr.InvalidInput("bins must be at least 1, got %d", p.Bins)
	}
	if _, err := packing.EvaluatorByName(p.Fitness); err != nil {
		return nil, 0, err
	}
	if err := p.Config.Validate(); err != nil {
		return nil, 0, err
	}
	return p, quality, nil
}

// parseInts parses a comma-separated list such as "3,1,4".
func parseInts(s string) ([]int, error) {
	var values []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, apperr.InvalidInput("%q is not an integer", part)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, apperr.InvalidInput("no values in %q", s)
	}
	return values, nil
}

// runSolve solves the problem, prints the outcome and writes the output files.
func (c *CLI) runSolve(cmd *cobra.Command, input string, opts solveOpts) error {
	p, quality, err := buildProblem(cmd, input, opts)
	if err != nil {
		return err
	}
	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}

	timeout := opts.timeout
	if timeout == 0 {
		timeout = quality.Timeout()
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	popts := pipeline.Options{
		Problem:  p,
		Runs:     opts.runs,
		Refresh:  opts.refresh,
		Formats:  formats,
		PathOnly: opts.pathOnly,
	}
	title := fmt.Sprintf("Solving %d items into %d bins", len(p.Items), p.Bins)

	loggerFromContext(cmd.Context()).Debug("solve",
		"items", len(p.Items),
		"bins", p.Bins,
		"batch_size", p.Config.BatchSize,
		"budget", p.Config.EvaluationBudget,
		"evaporation", p.Config.EvaporationRate,
		"seed", p.Config.Seed,
		"fitness", p.Fitness,
		"timeout", timeout)

	var result *pipeline.Result
	if opts.tui {
		result, err = runSolveTUI(ctx, runner, popts, title)
	} else {
		result, err = solveWithSpinner(ctx, runner, popts, title)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("solve did not finish within %s: %w", timeout, err)
		}
		return err
	}
	return reportSolve(input, opts.output, result, formats)
}

func solveWithSpinner(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, title string) (*pipeline.Result, error) {
	spinner := newSpinner(ctx, title+"...")
	spinner.Start()

	opts.Progress = func(run int, pr aco.Progress) {
		if opts.Runs > 1 {
			spinner.SetMessage("%s · run %d/%d · batch %d/%d · best %g", title, run+1, opts.Runs, pr.Batch, pr.Batches, pr.BestFitness)
			return
		}
		spinner.SetMessage("%s · batch %d/%d · best %g", title, pr.Batch, pr.Batches, pr.BestFitness)
	}

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Solve failed")
		return nil, err
	}
	spinner.Stop()
	return result, nil
}

// reportSolve prints the best assignment and writes the result and diagrams.
func reportSolve(input, output string, result *pipeline.Result, formats []render.Format) error {
	best := result.Best
	cached := len(result.Runs) > 0
	for _, r := range result.Runs {
		cached = cached && r.CacheHit
	}

	printSuccess("Solved %d items into %d bins", len(result.Problem.Items), result.Problem.Bins)
	printKeyValue("fitness", StyleNumber.Render(strconv.FormatFloat(best.Fitness, 'g', -1, 64)))
	printKeyValue("weights", fmt.Sprint(packing.BinWeights(best.Bins)))
	printKeyValue("seed", strconv.FormatUint(result.Problem.Config.Seed, 10))
	fmt.Println(binsTable(best.Bins))
	if len(result.Runs) > 1 {
		fmt.Println(runsTable(result.Runs, result.BestRun))
	}
	printStats(len(result.Problem.Items), result.Problem.Bins, best.Evaluations, cached)
	if best.DegenerateFitness > 0 {
		printWarning("%d paths scored zero; their deposit was capped", best.DegenerateFitness)
	}

	base := outputBase(input, output)
	path := output
	if path == "" {
		path = base + ".result.json"
	}
	if err := resultio.ExportJSON(result.Document, path); err != nil {
		return fmt.Errorf("write result %s: %w", path, err)
	}
	printFile(path)
	if err := writeArtifacts(result.Artifacts, formats, base); err != nil {
		return err
	}

	printNewline()
	printNextStep("Render", "antpack graph --result "+path+" -f svg")
	return nil
}
