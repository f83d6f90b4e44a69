package aco

import (
	"math"

	apperr "github.com/matzehuels/antpack/pkg/errors"
)

// Reseed selects when the pheromone table is reseeded with random values.
type Reseed string

const (
	// ReseedEveryBatch discards all pheromone at the start of every batch.
	// Learning is then limited to the bias a batch leaves behind for the
	// evaporation that follows it. This is the default and the historical
	// behavior of the search.
	ReseedEveryBatch Reseed = "batch"

	// ReseedOnce seeds the table once per run, so reinforcement accumulates
	// across batches as in textbook ant colony optimization.
	ReseedOnce Reseed = "once"
)

// Config holds the fixed parameters of one run.
type Config struct {
	// BatchSize is the number of paths sampled before pheromone is updated.
	BatchSize int `json:"batch_size" toml:"batch_size" yaml:"batch_size" validate:"gt=0"`

	// EvaluationBudget is the minimum number of paths to evaluate. The run
	// always finishes its last batch, so the actual count is rounded up to a
	// multiple of BatchSize.
	EvaluationBudget int `json:"evaluation_budget" toml:"evaluation_budget" yaml:"evaluation_budget" validate:"gt=0"`

	// EvaporationRate multiplies every pheromone value once per batch.
	EvaporationRate float64 `json:"evaporation_rate" toml:"evaporation_rate" yaml:"evaporation_rate" validate:"gt=0,lt=1"`

	// Seed feeds the default random source. Ignored when a source is supplied
	// with WithSource.
	Seed uint64 `json:"seed" toml:"seed" yaml:"seed"`

	// Reseed controls pheromone reseeding; empty means ReseedEveryBatch.
	Reseed Reseed `json:"reseed,omitempty" toml:"reseed" yaml:"reseed" validate:"omitempty,oneof=batch once"`
}

// Defaults used by DefaultConfig.
const (
	DefaultBatchSize        = 100
	DefaultEvaluationBudget = 10000
	DefaultEvaporationRate  = 0.5
)

// DefaultConfig returns 100 paths per batch, 10000 evaluations and an
// evaporation rate of 0.5.
func DefaultConfig() Config {
	return Config{
		BatchSize:        DefaultBatchSize,
		EvaluationBudget: DefaultEvaluationBudget,
		EvaporationRate:  DefaultEvaporationRate,
		Reseed:           ReseedEveryBatch,
	}
}

// Validate reports the first invalid field as an INVALID_CONFIGURATION error.
// A budget whose rounded-up evaluation count does not fit in an int is
// rejected as well.
func (c Config) Validate() error {
	if err := apperr.ValidateStruct(apperr.ErrCodeInvalidConfiguration, c); err != nil {
		return err
	}
	if c.Batches() > math.MaxInt/c.BatchSize {
		return apperr.InvalidConfiguration("evaluation budget %d rounded up to whole batches of %d overflows", c.EvaluationBudget, c.BatchSize)
	}
	return nil
}

// Batches returns the number of batches a run performs:
// ceil(EvaluationBudget / BatchSize).
func (c Config) Batches() int {
	if c.BatchSize <= 0 || c.EvaluationBudget <= 0 {
		return 0
	}
	return (c.EvaluationBudget-1)/c.BatchSize + 1
}

// Evaluations returns the exact number of paths a run evaluates.
func (c Config) Evaluations() int { return c.Batches() * c.BatchSize }

func (c Config) reseed() Reseed {
	if c.Reseed == "" {
		return ReseedEveryBatch
	}
	return c.Reseed
}
