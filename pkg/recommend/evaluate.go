package recommend

import (
	"fmt"
	"log"

	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// EvaluateRow scores a labeled row: it ranks the full candidate pool
// and reports whether the actual fifth player landed at top-1 or within
// top-K, plus the composite-score gap between the winner and the actual
// player.
func (a *Aggregator) EvaluateRow(row models.LabeledRow) (*models.RowEvaluation, error) {
	scores, err := a.scoreAll(row.Request)
	if err != nil {
		return nil, err
	}

	topK := row.Request.TopK
	if topK <= 0 {
		topK = a.topK
	}

	eval := &models.RowEvaluation{Actual: row.Actual, Predicted: scores[0].Player}
	eval.Top1Hit = scores[0].Player == row.Actual

	actualComposite := scores[0].Composite
	found := false
	for i, cs := range scores {
		if cs.Player == row.Actual {
			actualComposite = cs.Composite
			found = true
			if i < topK {
				eval.TopKHit = true
			}
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("actual player %q not in candidate pool", row.Actual)
	}
	eval.ScoreDelta = scores[0].Composite - actualComposite

	return eval, nil
}

// EvaluateSet replays labeled rows and aggregates top-1/top-K accuracy.
// Rows whose actual player is outside the candidate pool (for example a
// season the bundle was never trained on) are skipped, not failed, so a
// partial test file still yields a report.
func (a *Aggregator) EvaluateSet(rows []models.LabeledRow) (*models.EvaluationReport, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no labeled rows to evaluate")
	}

	report := &models.EvaluationReport{}
	for i, row := range rows {
		eval, err := a.EvaluateRow(row)
		if err != nil {
			log.Printf("evaluate: skipping row %d: %v", i, err)
			report.Skipped++
			continue
		}
		report.Rows++
		if eval.Top1Hit {
			report.Top1Hits++
		}
		if eval.TopKHit {
			report.TopKHits++
		}
	}

	if report.Rows > 0 {
		report.Top1Accuracy = float64(report.Top1Hits) / float64(report.Rows)
		report.TopKAccuracy = float64(report.TopKHits) / float64(report.Rows)
	}
	return report, nil
}
