package features

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

func TestGateApply(t *testing.T) {
	gate := New([]string{"season", "home_team", "away_team"})

	raw := map[string]string{
		"season":    "2012",
		"home_team": "LAL",
		"away_team": "BOS",
		"referee":   "should be dropped",
	}

	out, err := gate.Apply(raw)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("Expected 3 features, got %d", len(out))
	}

	// Output order follows the allow-list, not map iteration order.
	expected := []string{"season", "home_team", "away_team"}
	for i, f := range out {
		if f.Name != expected[i] {
			t.Errorf("Feature %d: expected %s, got %s", i, expected[i], f.Name)
		}
	}
	for _, f := range out {
		if f.Name == "referee" {
			t.Error("Non-allow-listed feature leaked through the gate")
		}
	}
}

func TestGateMissingRequiredFeature(t *testing.T) {
	gate := New([]string{"season", "home_team"})

	_, err := gate.Apply(map[string]string{"season": "2012"})
	if err == nil {
		t.Fatal("Expected error for missing required feature")
	}

	var dfe *models.DisallowedFeatureError
	if !errors.As(err, &dfe) {
		t.Fatalf("Expected DisallowedFeatureError, got %T", err)
	}
	if dfe.Feature != "home_team" {
		t.Errorf("Expected missing feature home_team, got %s", dfe.Feature)
	}
}

func TestGateDeduplicatesNames(t *testing.T) {
	gate := New([]string{"season", "season", "", "home_team"})
	names := gate.Names()
	if len(names) != 2 {
		t.Fatalf("Expected 2 names after dedup, got %d: %v", len(names), names)
	}
}

func TestGateLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed.txt")
	content := "# comment line\nseason\n\nhome_team\naway_team\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write allow-list: %v", err)
	}

	gate, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(gate.Names()) != 3 {
		t.Errorf("Expected 3 names, got %v", gate.Names())
	}
	if !gate.Allowed("season") || gate.Allowed("# comment line") {
		t.Error("Comment handling is wrong")
	}
}

func TestGateFilterColumns(t *testing.T) {
	gate := New([]string{"season", "home_0"})
	header := []string{"game", "season", "home_0", "outcome"}
	indices := gate.FilterColumns(header)
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 2 {
		t.Errorf("Expected [1 2], got %v", indices)
	}
}
