// Package problem loads bin-packing problem files.
//
// A problem file names the items, the bin count and, optionally, optimizer
// settings. Three encodings are accepted, chosen by file extension: TOML
// (.toml), YAML (.yaml, .yml) and JSON (.json).
//
//	name = "demo"
//	bins = 3
//
//	[generator]
//	kind  = "sequence"
//	count = 20
//
//	[optimizer]
//	batch_size        = 100
//	evaluation_budget = 10000
//	evaporation_rate  = 0.5
//	seed              = 42
//	fitness           = "spread"
//
// Items are given either explicitly as a list of weights or by a generator,
// never both. Unknown keys are rejected so typos do not silently fall back to
// defaults.
package problem

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/antpack/pkg/aco"
	"github.com/matzehuels/antpack/pkg/cache"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	"github.com/matzehuels/antpack/pkg/packing"
	"github.com/matzehuels/antpack/pkg/rng"
)

// Generator kinds.
const (
	GeneratorSequence = "sequence"
	GeneratorUniform  = "uniform"
)

// File is the on-disk form of a problem.
type File struct {
	Name      string     `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Bins      int        `json:"bins" toml:"bins" yaml:"bins" validate:"gte=1"`
	Items     []int      `json:"items,omitempty" toml:"items,omitempty" yaml:"items,omitempty"`
	Generator *Generator `json:"generator,omitempty" toml:"generator,omitempty" yaml:"generator,omitempty" validate:"-"`
	Optimizer Optimizer  `json:"optimizer,omitzero" toml:"optimizer" yaml:"optimizer,omitempty" validate:"-"`
}

// Generator describes generated item weights.
type Generator struct {
	Kind  string `json:"kind" toml:"kind" yaml:"kind" validate:"oneof=sequence uniform"`
	Count int    `json:"count" toml:"count" yaml:"count" validate:"gt=0"`
	Min   int    `json:"min,omitempty" toml:"min" yaml:"min,omitempty"`
	Max   int    `json:"max,omitempty" toml:"max" yaml:"max,omitempty"`
	Seed  uint64 `json:"seed,omitempty" toml:"seed" yaml:"seed,omitempty"`
}

// Optimizer holds optional optimizer settings. Omitted numeric settings
// take defaults; settings given explicitly must be valid, including zero.
type Optimizer struct {
	BatchSize        *int     `json:"batch_size,omitempty" toml:"batch_size,omitempty" yaml:"batch_size,omitempty" validate:"omitnil,gt=0"`
	EvaluationBudget *int     `json:"evaluation_budget,omitempty" toml:"evaluation_budget,omitempty" yaml:"evaluation_budget,omitempty" validate:"omitnil,gt=0"`
	EvaporationRate  *float64 `json:"evaporation_rate,omitempty" toml:"evaporation_rate,omitempty" yaml:"evaporation_rate,omitempty" validate:"omitnil,gt=0,lt=1"`
	Seed             uint64   `json:"seed,omitempty" toml:"seed" yaml:"seed,omitempty"`
	Reseed           string   `json:"reseed,omitempty" toml:"reseed" yaml:"reseed,omitempty" validate:"omitempty,oneof=batch once"`
	Fitness          string   `json:"fitness,omitempty" toml:"fitness" yaml:"fitness,omitempty"`
}

// Problem is a resolved, validated problem ready to solve.
type Problem struct {
	Name    string
	Items   []packing.Item
	Bins    int
	Config  aco.Config
	Fitness string
}

// Resolve validates f, applies defaults and expands any generator.
func (f *File) Resolve() (*Problem, error) {
	if err := apperr.ValidateStruct(apperr.ErrCodeInvalidInput, f); err != nil {
		return nil, err
	}
	if err := apperr.ValidateStruct(apperr.ErrCodeInvalidConfiguration, f.Optimizer); err != nil {
		return nil, err
	}

	items, err := f.items()
	if err != nil {
		return nil, err
	}
	if _, err := packing.EvaluatorByName(f.Optimizer.Fitness); err != nil {
		return nil, err
	}

	p := &Problem{
		Name:    f.Name,
		Items:   items,
		Bins:    f.Bins,
		Config:  f.Optimizer.config(),
		Fitness: f.Optimizer.Fitness,
	}
	if p.Fitness == "" {
		p.Fitness = packing.FitnessSpread
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *File) items() ([]packing.Item, error) {
	switch {
	case len(f.Items) > 0 && f.Generator != nil:
		return nil, apperr.InvalidInput("give either items or a generator, not both")
	case len(f.Items) > 0:
		items := packing.Items(f.Items...)
		if err := packing.ValidateItems(items); err != nil {
			return nil, err
		}
		return items, nil
	case f.Generator != nil:
		if err := apperr.ValidateStruct(apperr.ErrCodeInvalidInput, f.Generator); err != nil {
			return nil, err
		}
		return f.Generator.Generate()
	default:
		return nil, apperr.InvalidInput("problem has no items")
	}
}

// Generate expands the generator into items.
func (g *Generator) Generate() ([]packing.Item, error) {
	switch g.Kind {
	case GeneratorSequence:
		return packing.Sequence(g.Count)
	case GeneratorUniform:
		return packing.Uniform(rng.New(g.Seed), g.Count, g.Min, g.Max)
	default:
		return nil, apperr.InvalidInput("unknown generator %q", g.Kind)
	}
}

// OptimizerFrom returns the explicit file form of cfg and fitness.
func OptimizerFrom(cfg aco.Config, fitness string) Optimizer {
	return Optimizer{
		BatchSize:        &cfg.BatchSize,
		EvaluationBudget: &cfg.EvaluationBudget,
		EvaporationRate:  &cfg.EvaporationRate,
		Seed:             cfg.Seed,
		Reseed:           string(cfg.Reseed),
		Fitness:          fitness,
	}
}

func (o Optimizer) config() aco.Config {
	cfg := aco.DefaultConfig()
	if o.BatchSize != nil {
		cfg.BatchSize = *o.BatchSize
	}
	if o.EvaluationBudget != nil {
		cfg.EvaluationBudget = *o.EvaluationBudget
	}
	if o.EvaporationRate != nil {
		cfg.EvaporationRate = *o.EvaporationRate
	}
	if o.Reseed != "" {
		cfg.Reseed = aco.Reseed(o.Reseed)
	}
	cfg.Seed = o.Seed
	return cfg
}

// New builds a problem from explicit weights with default settings.
func New(weights []int, bins int) (*Problem, error) {
	f := File{Bins: bins, Items: weights}
	return f.Resolve()
}

// Evaluator returns the fitness function named by the problem.
func (p *Problem) Evaluator() packing.Evaluator {
	eval, err := packing.EvaluatorByName(p.Fitness)
	if err != nil {
		return packing.Spread{}
	}
	return eval
}

// Hash returns a content hash of the items and bin count. Two problems with
// the same weights in the same order and the same bins share a hash.
func (p *Problem) Hash() string {
	data, _ := json.Marshal(struct {
		Items []int `json:"items"`
		Bins  int   `json:"bins"`
	}{packing.Weights(p.Items), p.Bins})
	return cache.Hash(data)
}

// CacheKeyOpts returns the settings that identify a solve of p.
func (p *Problem) CacheKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Bins:             p.Bins,
		BatchSize:        p.Config.BatchSize,
		EvaluationBudget: p.Config.EvaluationBudget,
		EvaporationRate:  p.Config.EvaporationRate,
		Seed:             p.Config.Seed,
		Reseed:           string(p.Config.Reseed),
		Fitness:          p.Fitness,
	}
}

// File returns the explicit-items file form of p, e.g. for echoing a
// generated problem back to disk.
func (p *Problem) File() File {
	return File{
		Name:      p.Name,
		Bins:      p.Bins,
		Items:     slices.Clone(packing.Weights(p.Items)),
		Optimizer: OptimizerFrom(p.Config, p.Fitness),
	}
}
