// Package config defines the engine's Hyperparams bag, loadable from TOML
// via github.com/BurntSushi/toml, with validation of the cross-cutting
// allow-lists (aggregation kinds, loss function name) surfaced as
// errs.Validation.
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/errs"
	"github.com/sqlnet/relboost/lossfunction"
)

// Hyperparams is the full configuration bag accepted by model.Fit.
type Hyperparams struct {
	NumSubfeatures      int      `toml:"num_subfeatures"`
	MaxDepth            int      `toml:"max_depth"`
	MinNumSamples       int      `toml:"min_num_samples"`
	MinReduction        float64  `toml:"min_reduction"`
	RegLambda           float64  `toml:"reg_lambda"`
	Shrinkage           float64  `toml:"shrinkage"`
	SamplingFactor      float64  `toml:"sampling_factor"`
	NumThreads          int      `toml:"num_threads"`
	Seed                int64    `toml:"seed"`
	LossFunction        string   `toml:"loss_function"`
	Aggregations        []string `toml:"aggregations"`
	NumFeaturesPerNode  int      `toml:"num_features_per_node"`
	AllowLaggedTargets  bool     `toml:"allow_lagged_targets"`
	Horizon             float64  `toml:"horizon"`
	Memory              float64  `toml:"memory"`
	EarlyStoppingRounds int      `toml:"early_stopping_rounds"`
}

// Default returns the hyperparameter defaults: shrinkage 0.1, one tree, a
// shallow depth cap, and SquareLoss.
func Default() Hyperparams {
	return Hyperparams{
		NumSubfeatures:     1,
		MaxDepth:           3,
		MinNumSamples:      1,
		RegLambda:          0.0,
		Shrinkage:          0.1,
		SamplingFactor:     1.0,
		NumThreads:         0,
		Seed:               1,
		LossFunction:       "SquareLoss",
		NumFeaturesPerNode: 0, // 0 ⇒ unbounded, every candidate considered
	}
}

// Load reads a TOML file into Hyperparams, starting from Default so a
// partial file only overrides the fields it names.
func Load(path string) (Hyperparams, error) {
	hp := Default()
	if _, err := toml.DecodeFile(path, &hp); err != nil {
		return hp, errs.Trace(err)
	}
	return hp, nil
}

// Validate checks the cross-cutting allow-lists surfaced as pre-fit
// validation errors: unknown loss function name, unknown aggregation kind
// in the allow-list.
func (hp Hyperparams) Validate() error {
	if hp.NumSubfeatures <= 0 {
		return errs.Validation("num_subfeatures must be positive, got %d", hp.NumSubfeatures)
	}
	if _, ok := lossfunction.ByName(hp.LossFunction); !ok {
		return errs.Validation("unknown loss_function %q", hp.LossFunction)
	}
	for _, name := range hp.Aggregations {
		if _, ok := aggregation.ByName(name); !ok {
			return errs.Validation("unknown aggregation %q in allow-list", name)
		}
	}
	if hp.Shrinkage <= 0 {
		return errs.Validation("shrinkage must be positive, got %v", hp.Shrinkage)
	}
	return nil
}

// Loss resolves the configured loss function, assuming Validate already
// passed.
func (hp Hyperparams) Loss() lossfunction.Loss {
	l, _ := lossfunction.ByName(hp.LossFunction)
	return l
}

// AggregationAllowList resolves the configured aggregation allow-list; an
// empty list means every aggregation kind is permitted.
func (hp Hyperparams) AggregationAllowList() map[aggregation.Kind]bool {
	if len(hp.Aggregations) == 0 {
		return nil
	}
	out := make(map[aggregation.Kind]bool, len(hp.Aggregations))
	for _, name := range hp.Aggregations {
		k, _ := aggregation.ByName(name)
		out[k] = true
	}
	return out
}
