package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// LoadLabeledRows reads an evaluation pair: a test CSV whose home
// lineups carry a "?" in the removed slot, and a labels CSV whose
// removed_value column names the player actually fielded there. The
// two files are matched by row order.
func LoadLabeledRows(testPath, labelsPath string) ([]models.LabeledRow, error) {
	requests, err := loadTestRequests(testPath)
	if err != nil {
		return nil, err
	}
	labels, err := loadLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	if len(requests) != len(labels) {
		return nil, fmt.Errorf("test rows (%d) and labels (%d) do not match", len(requests), len(labels))
	}

	rows := make([]models.LabeledRow, len(requests))
	for i := range requests {
		rows[i] = models.LabeledRow{Request: requests[i], Actual: labels[i]}
	}
	return rows, nil
}

func loadTestRequests(path string) ([]models.RecommendRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var requests []models.RecommendRequest
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		season, _ := strconv.Atoi(field(record, "season"))
		startingMin, _ := strconv.Atoi(field(record, "starting_min"))

		req := models.RecommendRequest{
			Context: models.GameContext{
				Season:      season,
				StartingMin: startingMin,
				HomeTeam:    field(record, "home_team"),
				AwayTeam:    field(record, "away_team"),
			},
		}
		for i := 0; i < models.LineupSize; i++ {
			req.HomeLineup.Players = append(req.HomeLineup.Players, field(record, fmt.Sprintf("home_%d", i)))
			req.AwayLineup.Players = append(req.AwayLineup.Players, field(record, fmt.Sprintf("away_%d", i)))
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	col := -1
	for i, name := range header {
		if name == "removed_value" {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("column removed_value not found in %s", path)
	}

	var labels []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if col < len(record) {
			labels = append(labels, strings.TrimSpace(record[col]))
		}
	}
	return labels, nil
}
