package ml

import (
	"errors"
	"math"
	"math/rand"
)

// ForestConfig configures the bagging ensemble. Defaults mirror a
// conservative random-forest setup for noisy market data.
type ForestConfig struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`
}

// DefaultForestConfig returns the training defaults.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           50,
		MaxDepth:        8,
		MinSamplesSplit: 10,
		MinSamplesLeaf:  5,
		Seed:            42,
	}
}

// ForestRegressor averages bootstrap-trained regression trees. Once fitted
// the forest is immutable; Predict is pure and safe for concurrent use.
type ForestRegressor struct {
	Config ForestConfig     `json:"config"`
	Trees  []RegressionTree `json:"trees"`
}

// Fit trains the ensemble. The training set must be non-empty and must have
// at least enough samples for one split; a degenerate set fails loudly
// because training is an offline batch step with no partial fallback.
func (f *ForestRegressor) Fit(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("training set is empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}
	config := f.Config
	if config.Trees <= 0 {
		config = DefaultForestConfig()
	}
	if len(features) < config.MinSamplesLeaf {
		return errors.New("not enough samples to fit a single leaf")
	}
	f.Config = config

	treeConfig := TreeConfig{
		MaxDepth:        config.MaxDepth,
		MinSamplesSplit: config.MinSamplesSplit,
		MinSamplesLeaf:  config.MinSamplesLeaf,
	}
	rng := rand.New(rand.NewSource(config.Seed))

	f.Trees = make([]RegressionTree, config.Trees)
	for t := 0; t < config.Trees; t++ {
		sampleFeatures, sampleTargets := bootstrapSample(features, targets, rng)
		if err := f.Trees[t].Fit(sampleFeatures, sampleTargets, treeConfig); err != nil {
			return err
		}
	}
	return nil
}

// Predict returns the mean prediction across all trees.
func (f *ForestRegressor) Predict(features []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, errors.New("forest not fitted")
	}
	sum := 0.0
	for i := range f.Trees {
		value, err := f.Trees[i].Predict(features)
		if err != nil {
			return 0, err
		}
		sum += value
	}
	return sum / float64(len(f.Trees)), nil
}

// Score computes the in-sample R² of the forest against the given set.
// Training diagnostic only; serving never calls it.
func (f *ForestRegressor) Score(features [][]float64, targets []float64) (float64, error) {
	if len(features) == 0 || len(features) != len(targets) {
		return 0, errors.New("invalid evaluation set")
	}
	targetMean := mean(targets)
	var ssRes, ssTot float64
	for i, feature := range features {
		predicted, err := f.Predict(feature)
		if err != nil {
			return 0, err
		}
		ssRes += (targets[i] - predicted) * (targets[i] - predicted)
		ssTot += (targets[i] - targetMean) * (targets[i] - targetMean)
	}
	if ssTot == 0 {
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// ResidualStd computes the standard deviation of in-sample residuals.
func (f *ForestRegressor) ResidualStd(features [][]float64, targets []float64) (float64, error) {
	if len(features) == 0 || len(features) != len(targets) {
		return 0, errors.New("invalid evaluation set")
	}
	residuals := make([]float64, len(features))
	for i, feature := range features {
		predicted, err := f.Predict(feature)
		if err != nil {
			return 0, err
		}
		residuals[i] = targets[i] - predicted
	}
	residualMean := mean(residuals)
	variance := 0.0
	for _, r := range residuals {
		variance += (r - residualMean) * (r - residualMean)
	}
	variance /= float64(len(residuals))
	return math.Sqrt(variance), nil
}

func bootstrapSample(features [][]float64, targets []float64, rng *rand.Rand) ([][]float64, []float64) {
	n := len(features)
	sampleFeatures := make([][]float64, n)
	sampleTargets := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := rng.Intn(n)
		sampleFeatures[i] = features[idx]
		sampleTargets[i] = targets[idx]
	}
	return sampleFeatures, sampleTargets
}
