// Package likelihood estimates P(candidate is the optimal fifth player
// | lineup context) with class-conditional categorical likelihoods
// fitted at training time.
package likelihood

import (
	"fmt"
	"math"
)

// Example is one training observation: the encoded context features and
// the fifth player actually fielded (the class).
type Example struct {
	Features []int
	Class    int
}

// Scorer holds the fitted class priors and per-feature conditional
// counts. All probabilities are combined in log-space and exponentiated
// only at the end, so many small per-feature likelihoods cannot
// underflow the product. Laplace smoothing gives unseen categories a
// non-zero floor instead of collapsing the whole product to zero.
type Scorer struct {
	ClassCounts map[int]int           `json:"class_counts"`
	Total       int                   `json:"total"`
	Counts      []map[int]map[int]int `json:"counts"`        // feature index -> class -> value -> count
	Cardinality []int                 `json:"cardinality"`   // per-feature value cardinality for smoothing
	FeatureDim  int                   `json:"feature_dim"`
}

// Fit estimates the likelihood tables from training examples.
// cardinality gives the number of distinct values each feature can take
// (including the unknown bucket); it fixes the Laplace denominators.
func Fit(examples []Example, cardinality []int) (*Scorer, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("no training examples")
	}
	dim := len(examples[0].Features)
	if dim == 0 {
		return nil, fmt.Errorf("empty feature vectors")
	}
	if len(cardinality) != dim {
		return nil, fmt.Errorf("cardinality length %d does not match feature dimension %d", len(cardinality), dim)
	}

	s := &Scorer{
		ClassCounts: make(map[int]int),
		Counts:      make([]map[int]map[int]int, dim),
		Cardinality: append([]int(nil), cardinality...),
		FeatureDim:  dim,
	}
	for i := range s.Counts {
		s.Counts[i] = make(map[int]map[int]int)
	}

	for n, ex := range examples {
		if len(ex.Features) != dim {
			return nil, fmt.Errorf("example %d has %d features, expected %d", n, len(ex.Features), dim)
		}
		s.ClassCounts[ex.Class]++
		s.Total++
		for i, v := range ex.Features {
			byClass := s.Counts[i][ex.Class]
			if byClass == nil {
				byClass = make(map[int]int)
				s.Counts[i][ex.Class] = byClass
			}
			byClass[v]++
		}
	}

	return s, nil
}

// Score returns the probability-like likelihood that the class (a
// candidate player code) is the optimal fifth player given the encoded
// context features. A class never seen at fit time still scores via
// the smoothed floor; known=false signals the degraded path.
func (s *Scorer) Score(features []int, class int) (score float64, known bool) {
	classCount := s.ClassCounts[class]
	known = classCount > 0

	// Smoothed log prior.
	logp := math.Log(float64(classCount)+1) - math.Log(float64(s.Total)+float64(len(s.ClassCounts)+1))

	for i, v := range features {
		if i >= s.FeatureDim {
			break
		}
		count := 0
		if byClass := s.Counts[i][class]; byClass != nil {
			count = byClass[v]
		}
		card := s.Cardinality[i]
		if card <= 0 {
			card = 1
		}
		logp += math.Log(float64(count)+1) - math.Log(float64(classCount)+float64(card))
	}

	return math.Exp(logp), known
}
