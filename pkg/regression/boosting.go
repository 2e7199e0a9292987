package regression

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BoostingConfig holds the gradient boosting hyperparameters.
type BoostingConfig struct {
	Estimators      int     `json:"estimators" yaml:"estimators"`
	LearningRate    float64 `json:"learning_rate" yaml:"learning_rate"`
	MaxDepth        int     `json:"max_depth" yaml:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf" yaml:"min_samples_leaf"`
}

// DefaultBoostingConfig returns the hyperparameters used when none are
// configured.
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		Estimators:      100,
		LearningRate:    0.1,
		MaxDepth:        5,
		MinSamplesSplit: 15,
		MinSamplesLeaf:  1,
	}
}

// GradientBoosted is a gradient boosted ensemble of regression trees
// fitted to squared-error residuals. The aggregator consumes only its
// scalar Predict output and feature-importance ranking; no online
// retraining happens after Fit.
type GradientBoosted struct {
	Config         BoostingConfig `json:"config"`
	BasePrediction float64        `json:"base_prediction"` // mean of training targets
	Trees          []*Tree        `json:"trees"`
	FeatureNames   []string       `json:"feature_names"`
	NumFeatures    int            `json:"num_features"`
}

// NewGradientBoosted creates an unfitted ensemble.
func NewGradientBoosted(cfg BoostingConfig) *GradientBoosted {
	def := DefaultBoostingConfig()
	if cfg.Estimators <= 0 {
		cfg.Estimators = def.Estimators
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinSamplesSplit <= 0 {
		cfg.MinSamplesSplit = def.MinSamplesSplit
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = def.MinSamplesLeaf
	}
	return &GradientBoosted{Config: cfg}
}

// Fit trains the ensemble: the base prediction is the target mean and
// each subsequent tree fits the residuals of the running prediction,
// shrunk by the learning rate.
func (g *GradientBoosted) Fit(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 || len(y) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}

	g.FeatureNames = featureNames
	g.NumFeatures = len(X[0])
	g.BasePrediction = stat.Mean(y, nil)
	g.Trees = g.Trees[:0]

	current := make([]float64, len(y))
	for i := range current {
		current[i] = g.BasePrediction
	}

	residuals := make([]float64, len(y))
	for m := 0; m < g.Config.Estimators; m++ {
		maxAbs := 0.0
		for i := range y {
			residuals[i] = y[i] - current[i]
			if r := residuals[i]; r > maxAbs {
				maxAbs = r
			} else if -r > maxAbs {
				maxAbs = -r
			}
		}
		// Residuals exhausted; further trees would fit noise.
		if maxAbs < 1e-12 {
			break
		}

		tree := NewTree(g.Config.MaxDepth, g.Config.MinSamplesSplit, g.Config.MinSamplesLeaf)
		if err := tree.Fit(X, residuals, featureNames); err != nil {
			return fmt.Errorf("failed to fit tree %d: %w", m, err)
		}
		g.Trees = append(g.Trees, tree)

		for i := range current {
			pred, err := tree.Predict(X[i])
			if err != nil {
				return fmt.Errorf("tree %d prediction failed: %w", m, err)
			}
			current[i] += g.Config.LearningRate * pred
		}
	}

	return nil
}

// Predict returns the predicted effectiveness for one feature row.
func (g *GradientBoosted) Predict(x []float64) (float64, error) {
	if len(g.Trees) == 0 && g.NumFeatures == 0 {
		return 0, fmt.Errorf("model not fitted")
	}
	if len(x) != g.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", g.NumFeatures, len(x))
	}

	out := g.BasePrediction
	for _, tree := range g.Trees {
		pred, err := tree.Predict(x)
		if err != nil {
			return 0, err
		}
		out += g.Config.LearningRate * pred
	}
	return out, nil
}

// FeatureImportances aggregates split importance over all trees,
// normalized to sum to one.
func (g *GradientBoosted) FeatureImportances() map[string]float64 {
	importance := make(map[string]float64, len(g.FeatureNames))
	for _, name := range g.FeatureNames {
		importance[name] = 0
	}
	for _, tree := range g.Trees {
		tree.accumulateImportance(tree.Root, importance)
	}

	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for name := range importance {
			importance[name] /= total
		}
	}
	return importance
}

// ImportanceRanking returns feature names ordered by importance
// descending, ties broken by name, for explainability reporting.
func (g *GradientBoosted) ImportanceRanking() []string {
	importance := g.FeatureImportances()
	names := make([]string, 0, len(importance))
	for name := range importance {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if importance[names[i]] != importance[names[j]] {
			return importance[names[i]] > importance[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
