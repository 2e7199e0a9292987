package regression

import (
	"math"
	"testing"
)

// linearData samples y = 2*x0 + x1 with no noise; x0 carries nearly all
// of the signal.
func linearData() ([][]float64, []float64) {
	X := [][]float64{
		{1, 1}, {2, 2}, {3, 1}, {4, 2}, {5, 1},
		{6, 2}, {7, 1}, {8, 2}, {9, 1}, {10, 2},
	}
	y := make([]float64, len(X))
	for i, x := range X {
		y[i] = 2*x[0] + x[1]
	}
	return X, y
}

func TestGradientBoostedFitsTrainingData(t *testing.T) {
	X, y := linearData()

	g := NewGradientBoosted(BoostingConfig{Estimators: 50, LearningRate: 0.1, MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1})
	if err := g.Fit(X, y, []string{"x0", "x1"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for i, x := range X {
		pred, err := g.Predict(x)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if math.Abs(pred-y[i]) > 1.5 {
			t.Errorf("Sample %d: predicted %.2f, expected %.2f", i, pred, y[i])
		}
	}
}

func TestGradientBoostedDeterministic(t *testing.T) {
	X, y := linearData()
	cfg := BoostingConfig{Estimators: 20, LearningRate: 0.1, MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1}

	a := NewGradientBoosted(cfg)
	if err := a.Fit(X, y, []string{"x0", "x1"}); err != nil {
		t.Fatalf("First fit failed: %v", err)
	}
	b := NewGradientBoosted(cfg)
	if err := b.Fit(X, y, []string{"x0", "x1"}); err != nil {
		t.Fatalf("Second fit failed: %v", err)
	}

	for _, x := range X {
		pa, _ := a.Predict(x)
		pb, _ := b.Predict(x)
		if pa != pb {
			t.Fatalf("Identical fits disagree: %f vs %f", pa, pb)
		}
	}
}

func TestGradientBoostedConstantTarget(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{7, 7, 7, 7}

	g := NewGradientBoosted(DefaultBoostingConfig())
	if err := g.Fit(X, y, []string{"x"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Residuals vanish immediately; the ensemble should stop early.
	if len(g.Trees) > 1 {
		t.Errorf("Constant target should need at most one tree, got %d", len(g.Trees))
	}
	pred, err := g.Predict([]float64{99})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(pred-7) > 1e-9 {
		t.Errorf("Expected constant prediction 7, got %f", pred)
	}
}

func TestGradientBoostedInputValidation(t *testing.T) {
	g := NewGradientBoosted(DefaultBoostingConfig())
	if err := g.Fit(nil, nil, nil); err == nil {
		t.Error("Empty training data should fail")
	}
	if err := g.Fit([][]float64{{1}}, []float64{1, 2}, []string{"x"}); err == nil {
		t.Error("Sample count mismatch should fail")
	}
	if err := g.Fit([][]float64{{1, 2}}, []float64{1}, []string{"x"}); err == nil {
		t.Error("Feature name mismatch should fail")
	}

	if _, err := g.Predict([]float64{1}); err == nil {
		t.Error("Predict before fit should fail")
	}
}

func TestFeatureImportancesNormalized(t *testing.T) {
	X, y := linearData()
	g := NewGradientBoosted(BoostingConfig{Estimators: 30, LearningRate: 0.1, MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1})
	if err := g.Fit(X, y, []string{"x0", "x1"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	importance := g.FeatureImportances()
	total := 0.0
	for _, v := range importance {
		total += v
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("Importances should sum to 1, got %f", total)
	}

	// x0 carries twice the slope of x1, so it should dominate splits.
	if importance["x0"] <= importance["x1"] {
		t.Errorf("Expected x0 to dominate importance: %f vs %f", importance["x0"], importance["x1"])
	}

	ranking := g.ImportanceRanking()
	if len(ranking) != 2 || ranking[0] != "x0" {
		t.Errorf("Expected ranking to lead with x0, got %v", ranking)
	}
}

func TestTreePredictsLeafMeans(t *testing.T) {
	X := [][]float64{{1}, {2}, {10}, {11}}
	y := []float64{1, 1, 10, 10}

	tree := NewTree(2, 2, 1)
	if err := tree.Fit(X, y, []string{"x"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	low, err := tree.Predict([]float64{1.5})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	high, err := tree.Predict([]float64{10.5})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(low-1) > 1e-9 || math.Abs(high-10) > 1e-9 {
		t.Errorf("Expected leaf means 1 and 10, got %f and %f", low, high)
	}
}
