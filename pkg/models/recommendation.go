package models

import "fmt"

// SignalBreakdown holds the raw per-signal scores computed for one
// candidate before normalization and weighting.
type SignalBreakdown struct {
	RegressionScore   float64 `json:"regression_score"`
	LikelihoodScore   float64 `json:"likelihood_score"`
	PatternScore      float64 `json:"pattern_score"`
	ClusterSimilarity float64 `json:"cluster_similarity"`
}

// CandidateScore is the per-candidate bundle of signal values produced
// fresh for each recommendation request and discarded after ranking.
type CandidateScore struct {
	Player     string           `json:"player"`
	Raw        SignalBreakdown  `json:"raw"`
	Normalized SignalBreakdown  `json:"normalized"`
	Composite  float64          `json:"composite"`
	Degraded   []DegradedSignal `json:"degraded,omitempty"`
}

// LowConfidence reports whether every signal for the candidate was
// degraded: the player was unseen at fit time, no cluster could be
// assigned, and no historical pattern contained any subset of the
// candidate set.
func (cs CandidateScore) LowConfidence() bool {
	var unknown, unassigned, noPattern bool
	for _, d := range cs.Degraded {
		switch d {
		case DegradedUnknownPlayer:
			unknown = true
		case DegradedUnassignedCluster:
			unassigned = true
		case DegradedNoPattern:
			noPattern = true
		}
	}
	return unknown && unassigned && noPattern
}

// RecommendedPlayer is one entry of a recommendation response.
type RecommendedPlayer struct {
	Player        string          `json:"player"`
	Composite     float64         `json:"composite_score"`
	Breakdown     SignalBreakdown `json:"breakdown"`
	LowConfidence bool            `json:"low_confidence"`
}

// Recommendation is the ordered output of one request: candidates
// ranked by composite score descending, ties broken by player
// identifier ascending. It is not persisted by the core.
type Recommendation struct {
	BundleVersion string              `json:"bundle_version"`
	Players       []RecommendedPlayer `json:"players"`
}

// Top returns the leading recommended player, if any.
func (r Recommendation) Top() (RecommendedPlayer, bool) {
	if len(r.Players) == 0 {
		return RecommendedPlayer{}, false
	}
	return r.Players[0], true
}

// RecommendRequest describes one fifth-player recommendation request.
// HomeLineup must have exactly one unfilled slot; AwayLineup must be
// complete. Candidates is optional: when empty, the aggregator draws
// the pool from the roster table for the home team and season.
type RecommendRequest struct {
	Context    GameContext `json:"context"`
	HomeLineup Lineup      `json:"home_lineup"`
	AwayLineup Lineup      `json:"away_lineup"`
	Candidates []string    `json:"candidates,omitempty"`
	TopK       int         `json:"top_k,omitempty"`
}

// Validate performs the structural checks that abort a request.
func (r RecommendRequest) Validate() error {
	if err := r.Context.Validate(); err != nil {
		return fmt.Errorf("invalid context: %w", err)
	}
	if err := r.HomeLineup.Validate(true); err != nil {
		return fmt.Errorf("invalid home lineup: %w", err)
	}
	if err := r.AwayLineup.Validate(false); err != nil {
		return fmt.Errorf("invalid away lineup: %w", err)
	}
	return nil
}

// LabeledRow is a recommendation request paired with the fifth player
// actually fielded, used by the evaluation interface.
type LabeledRow struct {
	Request RecommendRequest `json:"request"`
	Actual  string           `json:"actual"`
}

// RowEvaluation reports how one labeled row scored against the
// recommendation produced for it.
type RowEvaluation struct {
	Actual     string  `json:"actual"`
	Predicted  string  `json:"predicted"`
	Top1Hit    bool    `json:"top1_hit"`
	TopKHit    bool    `json:"topk_hit"`
	ScoreDelta float64 `json:"score_delta"` // top composite minus actual's composite
}

// EvaluationReport aggregates row evaluations for accuracy reporting.
type EvaluationReport struct {
	Rows         int     `json:"rows"`
	Skipped      int     `json:"skipped"`
	Top1Hits     int     `json:"top1_hits"`
	TopKHits     int     `json:"topk_hits"`
	Top1Accuracy float64 `json:"top1_accuracy"`
	TopKAccuracy float64 `json:"topk_accuracy"`
}
