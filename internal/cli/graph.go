package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/antpack/pkg/aco"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	resultio "github.com/matzehuels/antpack/pkg/io"
	"github.com/matzehuels/antpack/pkg/problem"
	"github.com/matzehuels/antpack/pkg/render"
)

type graphOpts struct {
	solveOpts
	result string
}

// graphCommand creates the graph command for drawing construction graphs.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [problem.toml]",
		Short: "Draw the construction graph of a problem",
		Long: `Draw the construction graph of a problem.

Every item is a row of nodes, one per bin; a path from start to end picks one
bin per item. With --result the best path of a solve is highlighted.

Diagrams are cached locally. PDF and PNG output need rsvg-convert.`,
		Example: `  antpack graph --items 1,2,3,4 --bins 2 -f dot
  antpack graph --result problem.result.json -f svg,png --path-only`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runGraph(cmd, input, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.items, "items", "", "item weights, comma-separated (instead of a problem file)")
	f.IntVar(&opts.bins, "bins", 0, "number of bins")
	f.StringVarP(&opts.result, "result", "r", "", "result file whose best path is highlighted")
	f.StringVarP(&opts.formats, "format", "f", "svg", "output format(s): dot, svg, pdf, png (comma-separated)")
	f.StringVarP(&opts.output, "output", "o", "", "output base path (default: derived from the input)")
	f.BoolVar(&opts.pathOnly, "path-only", false, "draw only the highlighted path's edges")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, input string, opts graphOpts) error {
	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		formats = []render.Format{render.FormatSVG}
	}

	p, res, source, err := loadGraphInput(cmd, input, opts)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	artifacts, err := renderAll(cmd.Context(), func(ctx context.Context, f render.Format) ([]byte, error) {
		return runner.Render(ctx, p, res, f, opts.pathOnly)
	}, formats)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(outputBase(source, opts.output), ".result")
	printSuccess("Drew %d items × %d bins", len(p.Items), p.Bins)
	if err := writeArtifacts(artifacts, formats, base); err != nil {
		return err
	}
	if res.Path != nil {
		printDetail("Highlighted path with fitness %g", res.Fitness)
	}
	return nil
}

// loadGraphInput returns the problem to draw, the result to highlight (zero
// when there is none) and the path output names derive from.
func loadGraphInput(cmd *cobra.Command, input string, opts graphOpts) (*problem.Problem, aco.Result, string, error) {
	if opts.result == "" {
		p, _, err := buildProblem(cmd, input, opts.solveOpts)
		return p, aco.Result{}, input, err
	}
	if input != "" || opts.items != "" {
		return nil, aco.Result{}, "", apperr.InvalidInput("--result cannot be combined with a problem")
	}
	doc, err := resultio.ImportJSON(opts.result)
	if err != nil {
		return nil, aco.Result{}, "", err
	}
	p, res, err := doc.Restore()
	if err != nil {
		return nil, aco.Result{}, "", err
	}
	return p, res, opts.result, nil
}

// renderAll renders every format with a spinner.
func renderAll(ctx context.Context, renderFn func(context.Context, render.Format) ([]byte, error), formats []render.Format) (map[render.Format][]byte, error) {
	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()
	st := startStage(loggerFromContext(ctx), "render")

	artifacts := make(map[render.Format][]byte, len(formats))
	for _, f := range formats {
		spinner.SetMessage("Rendering %s...", f)
		data, err := renderFn(ctx, f)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		artifacts[f] = data
	}
	spinner.Stop()
	st.Finish("formats", formats)
	return artifacts, nil
}
