// Package cluster assigns players to similarity clusters from centroids
// fitted over player profile vectors at training time.
package cluster

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FitConfig holds the k-means hyperparameters.
type FitConfig struct {
	K              int     `json:"k" yaml:"k"`                             // number of clusters
	MaxIterations  int     `json:"max_iterations" yaml:"max_iterations"`   // Lloyd iteration cap
	RandomSeed     int64   `json:"random_seed" yaml:"random_seed"`         // for reproducible init
	ThresholdSigma float64 `json:"threshold_sigma" yaml:"threshold_sigma"` // std devs above mean distance for the unassigned cutoff
}

// DefaultFitConfig returns the fit parameters used when none are configured.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		K:              8,
		MaxIterations:  50,
		RandomSeed:     42,
		ThresholdSigma: 2.0,
	}
}

// Fit runs Lloyd's k-means over the profile vectors and returns an
// Assigner holding the fitted centroids. The distance threshold for
// "unassigned" is set from the training distance distribution: mean
// plus ThresholdSigma standard deviations.
func Fit(vectors [][]float64, cfg FitConfig) (*Assigner, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty training vectors")
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	k := cfg.K
	if k <= 0 {
		k = DefaultFitConfig().K
	}
	if k > len(vectors) {
		k = len(vectors)
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultFitConfig().MaxIterations
	}

	// Seeded initialization: sample k distinct starting centroids.
	rng := rand.New(rand.NewSource(cfg.RandomSeed))
	perm := rng.Perm(len(vectors))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[perm[i]]...)
	}

	labels := make([]int, len(vectors))
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, v := range vectors {
			label, _ := nearest(centroids, v)
			if label != labels[i] {
				labels[i] = label
				changed = true
			}
		}

		// Recompute centroids as member means.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, v := range vectors {
			floats.Add(sums[labels[i]], v)
			counts[labels[i]]++
		}
		for i := range centroids {
			if counts[i] == 0 {
				continue // empty cluster keeps its previous centroid
			}
			floats.Scale(1/float64(counts[i]), sums[i])
			centroids[i] = sums[i]
		}

		if !changed {
			break
		}
	}

	// Derive the unassigned cutoff from training assignment distances.
	distances := make([]float64, len(vectors))
	for i, v := range vectors {
		_, distances[i] = nearest(centroids, v)
	}
	mean, std := stat.MeanStdDev(distances, nil)
	sigma := cfg.ThresholdSigma
	if sigma <= 0 {
		sigma = DefaultFitConfig().ThresholdSigma
	}
	threshold := mean + sigma*std
	if threshold <= 0 {
		threshold = mean + 1e-9
	}

	return &Assigner{Centroids: centroids, Threshold: threshold}, nil
}

// nearest returns the index of the closest centroid under Euclidean
// distance, ties broken by lowest cluster index.
func nearest(centroids [][]float64, v []float64) (int, float64) {
	best := 0
	bestDist := floats.Distance(centroids[0], v, 2)
	for i := 1; i < len(centroids); i++ {
		d := floats.Distance(centroids[i], v, 2)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}
