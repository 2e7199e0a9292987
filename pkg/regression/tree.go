// Package regression implements the effectiveness regressor: gradient
// boosted regression trees over the full candidate feature row.
package regression

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TreeNode is one node of a regression tree.
type TreeNode struct {
	IsLeaf       bool      `json:"is_leaf"`
	Value        float64   `json:"value"`                   // mean target at this node
	Feature      string    `json:"feature,omitempty"`       // split feature name
	FeatureIndex int       `json:"feature_index,omitempty"` // split feature index
	Threshold    float64   `json:"threshold,omitempty"`     // split threshold (<= goes left)
	Left         *TreeNode `json:"left,omitempty"`
	Right        *TreeNode `json:"right,omitempty"`
	Samples      int       `json:"samples"`
	Depth        int       `json:"depth"`
}

// Tree is a single variance-reducing regression tree.
type Tree struct {
	Root            *TreeNode `json:"root"`
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MinSamplesLeaf  int       `json:"min_samples_leaf"`
	FeatureNames    []string  `json:"feature_names"`
	NumFeatures     int       `json:"num_features"`
}

// NewTree creates a regression tree with the given hyperparameters,
// falling back to defaults for non-positive values.
func NewTree(maxDepth, minSamplesSplit, minSamplesLeaf int) *Tree {
	if maxDepth <= 0 {
		maxDepth = 5
	}
	if minSamplesSplit <= 0 {
		minSamplesSplit = 2
	}
	if minSamplesLeaf <= 0 {
		minSamplesLeaf = 1
	}
	return &Tree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MinSamplesLeaf:  minSamplesLeaf,
	}
}

// Fit builds the tree from training data.
func (t *Tree) Fit(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}

	t.FeatureNames = featureNames
	t.NumFeatures = len(X[0])

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	t.Root = t.build(X, y, indices, 0)
	return nil
}

// Predict returns the tree's output for one feature row.
func (t *Tree) Predict(x []float64) (float64, error) {
	if t.Root == nil {
		return 0, fmt.Errorf("tree not fitted")
	}
	if len(x) != t.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", t.NumFeatures, len(x))
	}
	node := t.Root
	for !node.IsLeaf {
		if x[node.FeatureIndex] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value, nil
}

// build recursively grows the tree by variance reduction.
func (t *Tree) build(X [][]float64, y []float64, indices []int, depth int) *TreeNode {
	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = y[idx]
	}
	mean, variance := stat.MeanVariance(values, nil)
	if len(values) < 2 {
		variance = 0
	}

	node := &TreeNode{
		Value:   mean,
		Samples: len(indices),
		Depth:   depth,
	}

	if depth >= t.MaxDepth || len(indices) < t.MinSamplesSplit || variance < 1e-9 {
		node.IsLeaf = true
		return node
	}

	feature, threshold, gain := t.bestSplit(X, y, indices, variance)
	if gain <= 0 {
		node.IsLeaf = true
		return node
	}

	left, right := split(X, indices, feature, threshold)
	if len(left) < t.MinSamplesLeaf || len(right) < t.MinSamplesLeaf {
		node.IsLeaf = true
		return node
	}

	node.Feature = t.FeatureNames[feature]
	node.FeatureIndex = feature
	node.Threshold = threshold
	node.Left = t.build(X, y, left, depth+1)
	node.Right = t.build(X, y, right, depth+1)
	return node
}

// bestSplit scans every feature and candidate threshold for the split
// with the largest weighted variance reduction.
func (t *Tree) bestSplit(X [][]float64, y []float64, indices []int, parentVariance float64) (int, float64, float64) {
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for feature := 0; feature < t.NumFeatures; feature++ {
		values := make([]float64, len(indices))
		for i, idx := range indices {
			values[i] = X[idx][feature]
		}

		for _, threshold := range thresholds(values) {
			left, right := split(X, indices, feature, threshold)
			if len(left) == 0 || len(right) == 0 {
				continue
			}

			leftVar := subsetVariance(y, left)
			rightVar := subsetVariance(y, right)

			n := float64(len(indices))
			weighted := (float64(len(left))/n)*leftVar + (float64(len(right))/n)*rightVar
			gain := parentVariance - weighted

			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// split partitions indices on a feature threshold; <= goes left.
func split(X [][]float64, indices []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

// subsetVariance computes the variance of y over the given indices.
func subsetVariance(y []float64, indices []int) float64 {
	if len(indices) < 2 {
		return 0
	}
	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = y[idx]
	}
	return stat.Variance(values, nil)
}

// thresholds returns candidate split points: midpoints between the
// sorted unique feature values.
func thresholds(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			out = append(out, (sorted[i]+sorted[i-1])/2)
		}
	}
	return out
}

// accumulateImportance adds each split node's sample count to its
// feature's importance total.
func (t *Tree) accumulateImportance(node *TreeNode, importance map[string]float64) {
	if node == nil || node.IsLeaf {
		return
	}
	importance[node.Feature] += float64(node.Samples)
	t.accumulateImportance(node.Left, importance)
	t.accumulateImportance(node.Right, importance)
}
