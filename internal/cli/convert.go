package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/antpack/pkg/dag"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	resultio "github.com/matzehuels/antpack/pkg/io"
	"github.com/matzehuels/antpack/pkg/packing"
	"github.com/matzehuels/antpack/pkg/problem"
)

type convertOpts struct {
	solveOpts
	path   string
	assign string
	result string
	json   bool
}

// conversion is the --json output of convert.
type conversion struct {
	Path       []string `json:"path"`
	Bins       [][]int  `json:"bins"`
	BinWeights []int    `json:"bin_weights"`
	Fitness    float64  `json:"fitness"`
	Function   string   `json:"fitness_function"`
}

// convertCommand creates the convert command, which scores a single path.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [problem.toml]",
		Short: "Convert a path to bins and score it",
		Long: `Convert a path through the construction graph to bins and score it.

The path is given as node labels (s, i<item>b<bin>, e) with --path, as one bin
index per item with --assign, or taken from a result file with --result.`,
		Example: `  antpack convert --items 1,2,3,4 --bins 2 --path s,i0b0,i1b1,i2b1,i3b0,e
  antpack convert problem.toml --assign 0,1,1,0 --fitness variance
  antpack convert --result problem.result.json --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runConvert(cmd, input, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.items, "items", "", "item weights, comma-separated (instead of a problem file)")
	f.IntVar(&opts.bins, "bins", 0, "number of bins")
	f.StringVar(&opts.fitness, "fitness", "", "fitness function: "+strings.Join(packing.EvaluatorNames(), ", "))
	f.StringVar(&opts.path, "path", "", "node labels, comma- or space-separated")
	f.StringVar(&opts.assign, "assign", "", "bin index per item, comma-separated")
	f.StringVarP(&opts.result, "result", "r", "", "take problem and path from a result file")
	f.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	cmd.MarkFlagsMutuallyExclusive("path", "assign", "result")
	cmd.MarkFlagsOneRequired("path", "assign", "result")

	return cmd
}

func runConvert(cmd *cobra.Command, input string, opts convertOpts) error {
	p, path, err := convertInput(cmd, input, opts)
	if err != nil {
		return err
	}

	bins, err := packing.ToBins(p.Items, p.Bins, path)
	if err != nil {
		return err
	}
	fitness, err := p.Evaluator().Evaluate(bins)
	if err != nil {
		return err
	}

	g, err := dag.Build(len(p.Items), p.Bins)
	if err != nil {
		return err
	}
	out := conversion{
		Path:       g.Labels(path),
		BinWeights: packing.BinWeights(bins),
		Fitness:    fitness,
		Function:   p.Fitness,
	}
	for _, b := range bins {
		out.Bins = append(out.Bins, packing.Weights(b))
	}

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printSuccess("Converted path %s", strings.Join(out.Path, " "))
	printKeyValue(p.Fitness, StyleNumber.Render(strconv.FormatFloat(fitness, 'g', -1, 64)))
	printKeyValue("weights", fmt.Sprint(out.BinWeights))
	fmt.Println(binsTable(bins))
	return nil
}

// convertInput resolves the problem and the path to convert.
func convertInput(cmd *cobra.Command, input string, opts convertOpts) (*problem.Problem, dag.Path, error) {
	if opts.result != "" {
		if input != "" || opts.items != "" {
			return nil, nil, apperr.InvalidInput("--result cannot be combined with a problem")
		}
		doc, err := resultio.ImportJSON(opts.result)
		if err != nil {
			return nil, nil, err
		}
		p, res, err := doc.Restore()
		if err != nil {
			return nil, nil, err
		}
		if res.Path == nil {
			return nil, nil, apperr.InvalidInput("result %s has no path", opts.result)
		}
		if cmd.Flags().Changed("fitness") {
			if _, err := packing.EvaluatorByName(opts.fitness); err != nil {
				return nil, nil, err
			}
			p.Fitness = strings.ToLower(opts.fitness)
		}
		return p, res.Path, nil
	}

	p, _, err := buildProblem(cmd, input, opts.solveOpts)
	if err != nil {
		return nil, nil, err
	}
	g, err := dag.Build(len(p.Items), p.Bins)
	if err != nil {
		return nil, nil, err
	}

	if opts.assign != "" {
		assignment, err := parseInts(opts.assign)
		if err != nil {
			return nil, nil, err
		}
		path, err := g.PathFromBins(assignment)
		return p, path, err
	}
	labels := strings.FieldsFunc(opts.path, func(r rune) bool { return r == ',' || r == ' ' })
	path, err := g.ParsePath(labels)
	return p, path, err
}
