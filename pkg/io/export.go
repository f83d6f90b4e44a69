package io

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/matzehuels/antpack/pkg/aco"
	"github.com/matzehuels/antpack/pkg/dag"
	"github.com/matzehuels/antpack/pkg/packing"
	"github.com/matzehuels/antpack/pkg/problem"
)

// Document is the JSON form of a solved problem.
type Document struct {
	Problem         ProblemSpec       `json:"problem"`
	Config          aco.Config        `json:"config"`
	FitnessFunction string            `json:"fitness_function"`
	Fitness         *float64          `json:"fitness,omitempty"`
	Path            []string          `json:"path,omitempty"`
	Bins            [][]int           `json:"bins,omitempty"`
	BinWeights      []int             `json:"bin_weights,omitempty"`
	Evaluations     int               `json:"evaluations"`
	Batches         int               `json:"batches"`
	Improvements    []aco.Improvement `json:"improvements,omitempty"`
	Degenerate      int               `json:"degenerate_fitness,omitempty"`
	Fallbacks       int               `json:"sampling_fallbacks,omitempty"`
	DurationMillis  int64             `json:"duration_ms,omitempty"`
}

// ProblemSpec identifies the items and bins of a document.
type ProblemSpec struct {
	Name  string `json:"name,omitempty"`
	Bins  int    `json:"bins"`
	Items []int  `json:"items"`
}

// FromResult builds the document for res, a run of p. A result without a
// path (a run cancelled before its first batch) has no fitness, path or bins.
func FromResult(p *problem.Problem, res aco.Result) Document {
	doc := Document{
		Problem: ProblemSpec{
			Name:  p.Name,
			Bins:  p.Bins,
			Items: packing.Weights(p.Items),
		},
		Config:          p.Config,
		FitnessFunction: p.Fitness,
		Evaluations:     res.Evaluations,
		Batches:         res.Batches,
		Improvements:    res.Improvements,
		Degenerate:      res.DegenerateFitness,
		Fallbacks:       res.SamplingFallbacks,
		DurationMillis:  res.Duration.Milliseconds(),
	}
	if res.Path == nil || math.IsInf(res.Fitness, 0) {
		return doc
	}

	g, err := dag.Build(len(p.Items), p.Bins)
	if err != nil {
		return doc
	}
	fitness := res.Fitness
	doc.Fitness = &fitness
	doc.Path = g.Labels(res.Path)
	doc.Bins = make([][]int, len(res.Bins))
	for i, b := range res.Bins {
		doc.Bins[i] = packing.Weights(b)
	}
	doc.BinWeights = packing.BinWeights(res.Bins)
	return doc
}

// WriteJSON encodes doc as indented JSON to w.
func WriteJSON(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes doc to a JSON file at path.
func ExportJSON(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Duration returns the recorded run duration.
func (d Document) Duration() time.Duration {
	return time.Duration(d.DurationMillis) * time.Millisecond
}
