package models

// Bounds holds the training-time range of one signal. Normalization
// parameters are fixed when the bundle is trained and never recomputed
// per request, so rankings are stable across repeated calls against the
// same model version.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Apply min-max normalizes a value into [0,1], clamping values outside
// the training range. A degenerate range maps everything to 0.5 so the
// signal neither dominates nor vanishes.
func (b Bounds) Apply(v float64) float64 {
	if b.Max <= b.Min {
		return 0.5
	}
	n := (v - b.Min) / (b.Max - b.Min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// BoundsOf computes the observed range of a sample.
func BoundsOf(values []float64) Bounds {
	if len(values) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		if v < b.Min {
			b.Min = v
		}
		if v > b.Max {
			b.Max = v
		}
	}
	return b
}

// NormalizationStats holds the per-signal training-time ranges used to
// bring heterogeneous signals onto a comparable [0,1] scale.
type NormalizationStats struct {
	Regression Bounds `json:"regression"`
	Likelihood Bounds `json:"likelihood"`
	Pattern    Bounds `json:"pattern"`
	Cluster    Bounds `json:"cluster"`
}

// SignalWeights holds the fixed configuration weights combining the
// four normalized signals into the composite score.
type SignalWeights struct {
	Regression float64 `json:"regression" yaml:"regression"`
	Likelihood float64 `json:"likelihood" yaml:"likelihood"`
	Pattern    float64 `json:"pattern" yaml:"pattern"`
	Cluster    float64 `json:"cluster" yaml:"cluster"`
}

// DefaultSignalWeights returns the weighting used when none is
// configured.
func DefaultSignalWeights() SignalWeights {
	return SignalWeights{
		Regression: 0.40,
		Likelihood: 0.25,
		Pattern:    0.20,
		Cluster:    0.15,
	}
}

// Sum returns the total weight, used for validation.
func (w SignalWeights) Sum() float64 {
	return w.Regression + w.Likelihood + w.Pattern + w.Cluster
}
