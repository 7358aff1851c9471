package ml

import (
	"errors"
	"math"
	"sort"
)

// TreeConfig bounds the growth of a single regression tree. The defaults are
// deliberately conservative: the training data is a modest, noisy government
// dataset and smooth predictions beat in-sample fit.
type TreeConfig struct {
	MaxDepth        int `json:"max_depth"`
	MinSamplesSplit int `json:"min_samples_split"`
	MinSamplesLeaf  int `json:"min_samples_leaf"`
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 8
	}
	if c.MinSamplesSplit <= 0 {
		c.MinSamplesSplit = 10
	}
	if c.MinSamplesLeaf <= 0 {
		c.MinSamplesLeaf = 5
	}
	return c
}

// RegressionTree is a CART regressor stored as a flat node array with
// index-linked children.
type RegressionTree struct {
	Nodes []RegressionNode `json:"nodes"`
}

type RegressionNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

func (rt *RegressionTree) Fit(features [][]float64, targets []float64, config TreeConfig) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}
	config = config.withDefaults()

	rt.Nodes = buildRegressionNode(features, targets, 0, config)
	return nil
}

func (rt *RegressionTree) Predict(features []float64) (float64, error) {
	if len(rt.Nodes) == 0 {
		return 0, errors.New("tree not fitted")
	}
	idx := 0
	for {
		node := rt.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(rt.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func buildRegressionNode(features [][]float64, targets []float64, depth int, config TreeConfig) []RegressionNode {
	leaf := RegressionNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      mean(targets),
		IsLeaf:     true,
	}
	if depth >= config.MaxDepth || len(targets) < config.MinSamplesSplit {
		return []RegressionNode{leaf}
	}

	bestFeature, threshold, ok := findBestRegressionSplit(features, targets, config.MinSamplesLeaf)
	if !ok {
		return []RegressionNode{leaf}
	}

	leftFeatures, leftTargets, rightFeatures, rightTargets := splitSamples(features, targets, bestFeature, threshold)
	if len(leftTargets) < config.MinSamplesLeaf || len(rightTargets) < config.MinSamplesLeaf {
		return []RegressionNode{leaf}
	}

	leftNodes := buildRegressionNode(leftFeatures, leftTargets, depth+1, config)
	rightNodes := buildRegressionNode(rightFeatures, rightTargets, depth+1, config)

	root := RegressionNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		Value:      leaf.Value,
		IsLeaf:     false,
	}

	nodes := make([]RegressionNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return nodes
}

// findBestRegressionSplit scans midpoint thresholds between the sorted unique
// values of each feature and keeps the split with the lowest weighted sum of
// squared errors. The feature space here is tiny (category codes plus month),
// so the full scan stays cheap.
func findBestRegressionSplit(features [][]float64, targets []float64, minLeaf int) (int, float64, bool) {
	featureCount := len(features[0])
	bestFeature := -1
	bestThreshold := 0.0
	bestSSE := math.MaxFloat64

	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		for _, threshold := range candidateThresholds(features, featureIdx) {
			leftTargets, rightTargets := partitionTargets(features, targets, featureIdx, threshold)
			if len(leftTargets) < minLeaf || len(rightTargets) < minLeaf {
				continue
			}
			sse := sumSquaredError(leftTargets) + sumSquaredError(rightTargets)
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = featureIdx
				bestThreshold = threshold
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func candidateThresholds(features [][]float64, featureIdx int) []float64 {
	unique := make(map[float64]struct{}, len(features))
	for _, feature := range features {
		unique[feature[featureIdx]] = struct{}{}
	}
	values := make([]float64, 0, len(unique))
	for v := range unique {
		values = append(values, v)
	}
	sort.Float64s(values)

	thresholds := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		thresholds = append(thresholds, (values[i-1]+values[i])/2)
	}
	return thresholds
}

func splitSamples(features [][]float64, targets []float64, featureIdx int, threshold float64) ([][]float64, []float64, [][]float64, []float64) {
	leftFeatures := make([][]float64, 0)
	leftTargets := make([]float64, 0)
	rightFeatures := make([][]float64, 0)
	rightTargets := make([]float64, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftTargets = append(leftTargets, targets[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightTargets = append(rightTargets, targets[i])
		}
	}
	return leftFeatures, leftTargets, rightFeatures, rightTargets
}

func partitionTargets(features [][]float64, targets []float64, featureIdx int, threshold float64) ([]float64, []float64) {
	leftTargets := make([]float64, 0)
	rightTargets := make([]float64, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftTargets = append(leftTargets, targets[i])
		} else {
			rightTargets = append(rightTargets, targets[i])
		}
	}
	return leftTargets, rightTargets
}

func sumSquaredError(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	m := mean(targets)
	sse := 0.0
	for _, t := range targets {
		diff := t - m
		sse += diff * diff
	}
	return sse
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
