// Package dataset loads historical matchup data and turns it into
// training examples and fitted model bundles.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hoopsight/lineup-optimizer/pkg/features"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// DefaultAllowedFeatures is the allow-list used when no
// allowed_features.txt is supplied: the columns of a processed matchup
// file that the models may consume.
func DefaultAllowedFeatures() []string {
	names := []string{"season", "starting_min", "home_team", "away_team"}
	for i := 0; i < models.LineupSize; i++ {
		names = append(names, fmt.Sprintf("home_%d", i))
	}
	for i := 0; i < models.LineupSize; i++ {
		names = append(names, fmt.Sprintf("away_%d", i))
	}
	return names
}

// MatchupRow is one lineup segment of one historical game.
type MatchupRow struct {
	Game        string
	Season      int
	StartingMin int
	HomeTeam    string
	AwayTeam    string
	Home        []string
	Away        []string
}

// LoadCSV reads matchup rows from one processed CSV file, restricting
// columns through the constraint gate. Rows with incomplete lineups are
// skipped with a log line rather than failing the whole file.
func LoadCSV(path string, gate *features.Gate) ([]MatchupRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return readRows(csv.NewReader(f), gate, path)
}

// LoadDir loads matchups-<year>-processed.csv for every year in the
// range, skipping missing files the way a partial archive is expected
// to behave.
func LoadDir(dir string, firstYear, lastYear int, gate *features.Gate) ([]MatchupRow, error) {
	var all []MatchupRow
	for year := firstYear; year <= lastYear; year++ {
		path := filepath.Join(dir, fmt.Sprintf("matchups-%d-processed.csv", year))
		rows, err := LoadCSV(path, gate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Printf("dataset: %s not found, skipping", path)
				continue
			}
			return nil, err
		}
		log.Printf("dataset: loaded %d rows from %s", len(rows), path)
		all = append(all, rows...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no matchup files loaded from %s", dir)
	}
	return all, nil
}

// readRows parses CSV records into matchup rows. The header is indexed
// by name; the gate decides which columns the models may see and fails
// when a required column is missing from the file.
func readRows(r *csv.Reader, gate *features.Gate, source string) ([]MatchupRow, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", source, err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	var rows []MatchupRow
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s line %d: %w", source, line+1, err)
		}
		line++

		raw := make(map[string]string, len(header))
		for col, i := range index {
			if i < len(record) {
				raw[col] = record[i]
			}
		}
		gated, err := gate.Apply(raw)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, line, err)
		}

		row, err := parseRow(gated, raw["game"])
		if err != nil {
			log.Printf("dataset: skipping %s line %d: %v", source, line, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRow converts a gated feature list into a typed matchup row.
func parseRow(gated []features.Feature, game string) (MatchupRow, error) {
	values := make(map[string]string, len(gated))
	for _, f := range gated {
		values[f.Name] = f.Value
	}

	season, err := strconv.Atoi(values["season"])
	if err != nil {
		return MatchupRow{}, fmt.Errorf("bad season %q", values["season"])
	}
	startingMin, err := strconv.Atoi(values["starting_min"])
	if err != nil {
		return MatchupRow{}, fmt.Errorf("bad starting_min %q", values["starting_min"])
	}

	row := MatchupRow{
		Game:        game,
		Season:      season,
		StartingMin: startingMin,
		HomeTeam:    values["home_team"],
		AwayTeam:    values["away_team"],
	}
	for i := 0; i < models.LineupSize; i++ {
		home := values[fmt.Sprintf("home_%d", i)]
		away := values[fmt.Sprintf("away_%d", i)]
		if home == "" || away == "" {
			return MatchupRow{}, fmt.Errorf("incomplete lineup")
		}
		row.Home = append(row.Home, home)
		row.Away = append(row.Away, away)
	}
	return row, nil
}
