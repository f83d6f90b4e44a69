package aco

import (
	"fmt"
	"strings"
	"time"
)

// Quality represents the desired trade-off between search time and result
// quality.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityThorough
)

const (
	DefaultTimeoutFast     = 5 * time.Second
	DefaultTimeoutBalanced = 60 * time.Second
	DefaultTimeoutThorough = 10 * time.Minute
)

func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityBalanced:
		return "balanced"
	case QualityThorough:
		return "thorough"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// ParseQuality is the inverse of Quality.String.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(s) {
	case "fast":
		return QualityFast, nil
	case "", "balanced":
		return QualityBalanced, nil
	case "thorough":
		return QualityThorough, nil
	}
	return 0, fmt.Errorf("unknown quality %q (want fast, balanced or thorough)", s)
}

// Preset returns the configuration for q. Balanced equals DefaultConfig.
func (q Quality) Preset() Config {
	cfg := DefaultConfig()
	switch q {
	case QualityFast:
		cfg.BatchSize, cfg.EvaluationBudget = 50, 2000
	case QualityThorough:
		cfg.BatchSize, cfg.EvaluationBudget = 200, 50000
	}
	return cfg
}

// Timeout returns the wall-clock limit callers should put on a run of
// quality q.
func (q Quality) Timeout() time.Duration {
	switch q {
	case QualityFast:
		return DefaultTimeoutFast
	case QualityThorough:
		return DefaultTimeoutThorough
	default:
		return DefaultTimeoutBalanced
	}
}
