package models

import (
	"math"
	"testing"
)

func TestBoundsApply(t *testing.T) {
	b := Bounds{Min: 10, Max: 20}

	testCases := []struct {
		in   float64
		want float64
	}{
		{10, 0},
		{15, 0.5},
		{20, 1},
		{5, 0},   // below range clamps
		{25, 1},  // above range clamps
	}
	for _, tc := range testCases {
		if got := b.Apply(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Apply(%.1f) = %.3f, want %.3f", tc.in, got, tc.want)
		}
	}
}

func TestBoundsDegenerateRange(t *testing.T) {
	b := Bounds{Min: 5, Max: 5}
	if got := b.Apply(5); got != 0.5 {
		t.Errorf("Degenerate range should map to 0.5, got %.3f", got)
	}
	if got := b.Apply(100); got != 0.5 {
		t.Errorf("Degenerate range should map everything to 0.5, got %.3f", got)
	}
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]float64{3, -1, 7, 2})
	if b.Min != -1 || b.Max != 7 {
		t.Errorf("Expected [-1, 7], got [%.1f, %.1f]", b.Min, b.Max)
	}

	empty := BoundsOf(nil)
	if empty.Min != 0 || empty.Max != 0 {
		t.Errorf("Empty sample should give zero bounds, got %+v", empty)
	}
}

func TestDefaultSignalWeightsSumToOne(t *testing.T) {
	w := DefaultSignalWeights()
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		t.Errorf("Default weights should sum to 1, got %.4f", w.Sum())
	}
	if w.Regression <= w.Likelihood || w.Likelihood <= w.Pattern || w.Pattern <= w.Cluster {
		t.Error("Default weights should order regression > likelihood > pattern > cluster")
	}
}
