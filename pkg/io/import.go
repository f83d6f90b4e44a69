package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/antpack/pkg/aco"
	"github.com/matzehuels/antpack/pkg/dag"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	"github.com/matzehuels/antpack/pkg/packing"
	"github.com/matzehuels/antpack/pkg/problem"
)

// ReadJSON decodes a result document from r. Unknown fields are rejected.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode result")
	}
	return &doc, nil
}

// ImportJSON reads the result document at path.
func ImportJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Restore rebuilds the problem and result recorded in d. The path is parsed
// against the problem's construction graph, and the recorded bins and bin
// weights must match the path; any disagreement is an INVALID_INPUT error.
func (d *Document) Restore() (*problem.Problem, aco.Result, error) {
	f := problem.File{
		Name:      d.Problem.Name,
		Bins:      d.Problem.Bins,
		Items:     d.Problem.Items,
		Optimizer: problem.OptimizerFrom(d.Config, d.FitnessFunction),
	}
	p, err := f.Resolve()
	if err != nil {
		return nil, aco.Result{}, err
	}

	res := aco.Result{
		Evaluations:       d.Evaluations,
		Batches:           d.Batches,
		Improvements:      d.Improvements,
		DegenerateFitness: d.Degenerate,
		SamplingFallbacks: d.Fallbacks,
		Duration:          d.Duration(),
	}
	if d.Path == nil {
		return p, res, nil
	}
	if d.Fitness == nil {
		return nil, aco.Result{}, apperr.InvalidInput("result has a path but no fitness")
	}

	g, err := dag.Build(len(p.Items), p.Bins)
	if err != nil {
		return nil, aco.Result{}, err
	}
	if res.Path, err = g.ParsePath(d.Path); err != nil {
		return nil, aco.Result{}, err
	}
	if res.Bins, err = packing.ToBins(p.Items, p.Bins, res.Path); err != nil {
		return nil, aco.Result{}, err
	}
	res.Fitness = *d.Fitness

	if d.Bins != nil {
		for i, b := range res.Bins {
			if i >= len(d.Bins) || !slices.Equal(packing.Weights(b), d.Bins[i]) {
				return nil, aco.Result{}, apperr.InvalidInput("bin %d does not match the recorded path", i)
			}
		}
		if len(d.Bins) != len(res.Bins) {
			return nil, aco.Result{}, apperr.InvalidInput("result lists %d bins, problem has %d", len(d.Bins), len(res.Bins))
		}
	}
	if d.BinWeights != nil && !slices.Equal(d.BinWeights, packing.BinWeights(res.Bins)) {
		return nil, aco.Result{}, apperr.InvalidInput("bin weights do not match the recorded path")
	}
	return p, res, nil
}
