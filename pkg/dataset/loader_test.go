package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoopsight/lineup-optimizer/pkg/features"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

const matchupHeader = "game,season,starting_min,home_team,away_team," +
	"home_0,home_1,home_2,home_3,home_4,away_0,away_1,away_2,away_3,away_4,outcome"

func writeMatchupCSV(t *testing.T, dir string, year int, rows []string) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("matchups-%d-processed.csv", year))
	content := matchupHeader + "\n"
	for _, r := range rows {
		content += r + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeMatchupCSV(t, dir, 2012, []string{
		"g1,2012,0,LAL,BOS,a,b,c,d,e,p,q,r,s,u,1",
		"g1,2012,12,LAL,BOS,a,b,c,d,f,p,q,r,s,u,-1",
	})

	gate := features.New(DefaultAllowedFeatures())
	rows, err := LoadCSV(path, gate)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	r := rows[0]
	if r.Season != 2012 || r.HomeTeam != "LAL" || r.AwayTeam != "BOS" {
		t.Errorf("Context parsed wrong: %+v", r)
	}
	if len(r.Home) != models.LineupSize || len(r.Away) != models.LineupSize {
		t.Errorf("Lineup sizes wrong: %d home, %d away", len(r.Home), len(r.Away))
	}
	if rows[1].StartingMin != 12 {
		t.Errorf("Expected starting_min 12, got %d", rows[1].StartingMin)
	}
}

func TestLoadCSVSkipsIncompleteLineups(t *testing.T) {
	dir := t.TempDir()
	path := writeMatchupCSV(t, dir, 2012, []string{
		"g1,2012,0,LAL,BOS,a,b,c,d,e,p,q,r,s,u,1",
		"g1,2012,6,LAL,BOS,a,b,c,d,,p,q,r,s,u,1", // missing home_4
	})

	rows, err := LoadCSV(path, features.New(DefaultAllowedFeatures()))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Incomplete lineup should be skipped, got %d rows", len(rows))
	}
}

func TestLoadCSVMissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	content := "game,season,home_team\ng1,2012,LAL\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := LoadCSV(path, features.New(DefaultAllowedFeatures()))
	if err == nil {
		t.Fatal("Expected error for missing allow-listed column")
	}
	var dfe *models.DisallowedFeatureError
	if !errors.As(err, &dfe) {
		t.Errorf("Expected DisallowedFeatureError, got %v", err)
	}
}

func TestLoadDirSkipsMissingYears(t *testing.T) {
	dir := t.TempDir()
	writeMatchupCSV(t, dir, 2012, []string{"g1,2012,0,LAL,BOS,a,b,c,d,e,p,q,r,s,u,1"})
	writeMatchupCSV(t, dir, 2014, []string{"g2,2014,0,LAL,BOS,a,b,c,d,e,p,q,r,s,u,1"})

	rows, err := LoadDir(dir, 2012, 2015, features.New(DefaultAllowedFeatures()))
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows across available years, got %d", len(rows))
	}

	if _, err := LoadDir(dir, 1990, 1991, features.New(DefaultAllowedFeatures())); err == nil {
		t.Error("A range with no files should fail")
	}
}

func TestLoadLabeledRows(t *testing.T) {
	dir := t.TempDir()

	testPath := filepath.Join(dir, "test.csv")
	testContent := "season,starting_min,home_team,away_team," +
		"home_0,home_1,home_2,home_3,home_4,away_0,away_1,away_2,away_3,away_4\n" +
		"2012,0,LAL,BOS,a,b,c,d,?,p,q,r,s,u\n"
	if err := os.WriteFile(testPath, []byte(testContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	labelsPath := filepath.Join(dir, "labels.csv")
	if err := os.WriteFile(labelsPath, []byte("removed_value\ne\n"), 0644); err != nil {
		t.Fatalf("Failed to write labels file: %v", err)
	}

	rows, err := LoadLabeledRows(testPath, labelsPath)
	if err != nil {
		t.Fatalf("LoadLabeledRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 labeled row, got %d", len(rows))
	}
	if rows[0].Actual != "e" {
		t.Errorf("Expected label e, got %s", rows[0].Actual)
	}
	if rows[0].Request.HomeLineup.MissingIndex() != 4 {
		t.Errorf("Expected missing slot 4, got %d", rows[0].Request.HomeLineup.MissingIndex())
	}
	if err := rows[0].Request.Validate(); err != nil {
		t.Errorf("Loaded request should validate: %v", err)
	}
}

func TestLoadLabeledRowsCountMismatch(t *testing.T) {
	dir := t.TempDir()

	testPath := filepath.Join(dir, "test.csv")
	testContent := "season,starting_min,home_team,away_team," +
		"home_0,home_1,home_2,home_3,home_4,away_0,away_1,away_2,away_3,away_4\n" +
		"2012,0,LAL,BOS,a,b,c,d,?,p,q,r,s,u\n"
	if err := os.WriteFile(testPath, []byte(testContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	labelsPath := filepath.Join(dir, "labels.csv")
	if err := os.WriteFile(labelsPath, []byte("removed_value\ne\nf\n"), 0644); err != nil {
		t.Fatalf("Failed to write labels file: %v", err)
	}

	if _, err := LoadLabeledRows(testPath, labelsPath); err == nil {
		t.Error("Row/label count mismatch should fail")
	}
}
