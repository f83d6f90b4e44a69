// Package pipeline runs the load → solve → render flow shared by the CLI and
// the HTTP API.
//
// # Architecture
//
// A [Runner] owns a result cache, a keyer and a logger. [Runner.Execute]
// solves a problem one or more times and renders the best result:
//
//  1. Solve: each run builds the construction graph and runs the optimizer.
//     Finished runs are cached under a key derived from the problem's
//     content hash and every setting that influences the result.
//  2. Render: the best path is drawn as a node-link diagram in each
//     requested format. Artifacts are cached as well.
//
// Run 0 uses the configured seed; run i > 0 uses rng.Derive(seed, i), so
// repeating a multi-run solve reproduces every run.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Problem: p,
//	    Runs:    5,
//	    Formats: []render.Format{render.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Best.Fitness)
package pipeline

import (
	"github.com/matzehuels/antpack/pkg/aco"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	"github.com/matzehuels/antpack/pkg/problem"
	"github.com/matzehuels/antpack/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultRuns is the number of independent runs per solve.
	DefaultRuns = 1

	// MaxRuns bounds Options.Runs.
	MaxRuns = 100
)

// =============================================================================
// Options
// =============================================================================

// Options configures one Execute call.
type Options struct {
	// Problem is the resolved problem to solve. Required.
	Problem *problem.Problem

	// Runs is the number of independent runs; the best is reported.
	Runs int

	// Refresh skips cache reads. Results are still written.
	Refresh bool

	// Formats lists the diagram formats to render for the best result.
	Formats []render.Format

	// PathOnly draws only the best path's edges in diagrams.
	PathOnly bool

	// Progress, when set, is called after every batch of every run that
	// is actually computed (cache hits report nothing).
	Progress func(run int, p aco.Progress)
}

// ValidateAndSetDefaults checks required fields and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Problem == nil {
		return apperr.InvalidInput("problem is required")
	}
	if o.Runs == 0 {
		o.Runs = DefaultRuns
	}
	if o.Runs < 1 || o.Runs > MaxRuns {
		return apperr.InvalidConfiguration("runs must be in [1, %d], got %d", MaxRuns, o.Runs)
	}
	for _, f := range o.Formats {
		if _, err := render.ParseFormat(string(f)); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidConfiguration, err, "formats")
		}
	}
	return o.Problem.Config.Validate()
}
