package recommend

import (
	"fmt"
	"sort"

	"github.com/hoopsight/lineup-optimizer/pkg/bundle"
	"github.com/hoopsight/lineup-optimizer/pkg/cluster"
	"github.com/hoopsight/lineup-optimizer/pkg/features"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// DefaultTopK is the number of recommended players returned when the
// request does not ask for a specific count.
const DefaultTopK = 5

// Aggregator merges the four per-candidate signals into one ranked
// recommendation. It holds only frozen, read-only artifacts, so one
// aggregator serves any number of concurrent requests without
// coordination.
type Aggregator struct {
	bundle  *bundle.ModelBundle
	gate    *features.Gate
	weights models.SignalWeights
	topK    int
}

// New builds an aggregator over a loaded model bundle. Invoking the
// pipeline without a valid bundle is a structural error surfaced here,
// not at request time.
func New(b *bundle.ModelBundle, weights models.SignalWeights, topK int) (*Aggregator, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if weights.Sum() <= 0 {
		weights = models.DefaultSignalWeights()
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Aggregator{
		bundle:  b,
		gate:    features.New(b.AllowedFeatures),
		weights: weights,
		topK:    topK,
	}, nil
}

// Bundle exposes the frozen bundle backing this aggregator.
func (a *Aggregator) Bundle() *bundle.ModelBundle {
	return a.bundle
}

// Recommend produces the ranked fifth-player recommendation for one
// request. Structural problems (bad lineups, missing required features,
// explicit duplicate candidates) abort the request; per-candidate
// degraded signals never do.
func (a *Aggregator) Recommend(req models.RecommendRequest) (*models.Recommendation, error) {
	scores, err := a.scoreAll(req)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = a.topK
	}
	if topK > len(scores) {
		topK = len(scores)
	}

	rec := &models.Recommendation{
		BundleVersion: a.bundle.Version,
		Players:       make([]models.RecommendedPlayer, 0, topK),
	}
	for _, cs := range scores[:topK] {
		rec.Players = append(rec.Players, models.RecommendedPlayer{
			Player:        cs.Player,
			Composite:     cs.Composite,
			Breakdown:     cs.Normalized,
			LowConfidence: cs.LowConfidence(),
		})
	}
	return rec, nil
}

// scoreAll validates the request, assembles the candidate pool, scores
// every candidate, and returns the full ranking.
func (a *Aggregator) scoreAll(req models.RecommendRequest) ([]models.CandidateScore, error) {
	if err := a.bundle.Validate(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := a.gateRequest(req); err != nil {
		return nil, err
	}

	pool, err := a.candidatePool(req)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no eligible candidates for %s in season %d", req.Context.HomeTeam, req.Context.Season)
	}

	teammates := req.HomeLineup.Known()
	opponents := req.AwayLineup.Known()
	likelihoodFeatures := LikelihoodFeatures(a.bundle.Encoder, req.Context, teammates)

	scores := make([]models.CandidateScore, 0, len(pool))
	for _, candidate := range pool {
		scores = append(scores, a.scoreCandidate(req, candidate, teammates, opponents, likelihoodFeatures))
	}

	// Composite descending, candidate identifier ascending on ties.
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Composite != scores[j].Composite {
			return scores[i].Composite > scores[j].Composite
		}
		return scores[i].Player < scores[j].Player
	})

	return scores, nil
}

// scoreCandidate computes the four signals for one candidate and folds
// them into the composite. Every signal degrades to a smoothed or floor
// value instead of failing, so rare and unseen players still rank.
func (a *Aggregator) scoreCandidate(
	req models.RecommendRequest,
	candidate string,
	teammates, opponents []string,
	likelihoodFeatures []int,
) models.CandidateScore {
	b := a.bundle
	cs := models.CandidateScore{Player: candidate}

	_, playerKnown := b.Encoder.Players.Encode(candidate)
	if !playerKnown {
		cs.Degraded = append(cs.Degraded, models.DegradedUnknownPlayer)
	}

	// Cluster signal: players without a fitted profile are unassigned.
	assignment := cluster.Assignment{Label: cluster.UnassignedLabel}
	if profile, ok := b.Profiles[candidate]; ok {
		assignment = b.Assigner.Assign(profile)
	}
	if !assignment.Assigned {
		cs.Degraded = append(cs.Degraded, models.DegradedUnassignedCluster)
	}
	cs.Raw.ClusterSimilarity = b.Assigner.Similarity(assignment)

	// Pattern signal: absence of a pattern is a valid zero, not a fault.
	// Only patterns the candidate itself appears in count.
	match := b.Patterns.LookupFor(req.HomeLineup.WithFifth(candidate), candidate)
	if !match.Found() {
		cs.Degraded = append(cs.Degraded, models.DegradedNoPattern)
	}
	cs.Raw.PatternScore = match.Score()

	// Likelihood signal: unseen classes score through the smoothed floor.
	candidateCode, _ := b.Encoder.Players.Encode(candidate)
	cs.Raw.LikelihoodScore, _ = b.Likelihood.Score(likelihoodFeatures, candidateCode)

	// Regression signal over the full feature row, including the
	// cluster label and pattern score computed above.
	row, _ := RegressorRow(b.Encoder, req.Context, teammates, candidate, opponents, assignment.Label, cs.Raw.PatternScore)
	if pred, err := b.Regressor.Predict(row); err == nil {
		cs.Raw.RegressionScore = pred
	} else {
		cs.Raw.RegressionScore = b.Normalization.Regression.Min
	}

	cs.Normalized = models.SignalBreakdown{
		RegressionScore:   b.Normalization.Regression.Apply(cs.Raw.RegressionScore),
		LikelihoodScore:   b.Normalization.Likelihood.Apply(cs.Raw.LikelihoodScore),
		PatternScore:      b.Normalization.Pattern.Apply(cs.Raw.PatternScore),
		ClusterSimilarity: b.Normalization.Cluster.Apply(cs.Raw.ClusterSimilarity),
	}

	total := a.weights.Sum()
	cs.Composite = (a.weights.Regression*cs.Normalized.RegressionScore +
		a.weights.Likelihood*cs.Normalized.LikelihoodScore +
		a.weights.Pattern*cs.Normalized.PatternScore +
		a.weights.Cluster*cs.Normalized.ClusterSimilarity) / total

	return cs
}

// gateRequest runs the request's raw feature mapping through the
// constraint gate: every allow-listed feature must be present.
func (a *Aggregator) gateRequest(req models.RecommendRequest) error {
	raw := map[string]string{
		"season":       fmt.Sprintf("%d", req.Context.Season),
		"starting_min": fmt.Sprintf("%d", req.Context.StartingMin),
		"home_team":    req.Context.HomeTeam,
		"away_team":    req.Context.AwayTeam,
	}
	for i, p := range req.HomeLineup.Players {
		raw[fmt.Sprintf("home_%d", i)] = p
	}
	for i, p := range req.AwayLineup.Players {
		raw[fmt.Sprintf("away_%d", i)] = p
	}
	for k, v := range req.Context.Extra {
		raw[k] = v
	}

	_, err := a.gate.Apply(raw)
	return err
}

// candidatePool assembles the eligible candidates. An explicit pool is
// checked for duplicates against both lineups (a structural error); a
// derived pool is filtered silently and additionally constrained by the
// missing slot's alphabetical bounds.
func (a *Aggregator) candidatePool(req models.RecommendRequest) ([]string, error) {
	onFloor := make(map[string]bool, 2*models.LineupSize)
	for _, p := range req.HomeLineup.Known() {
		onFloor[p] = true
	}
	for _, p := range req.AwayLineup.Known() {
		onFloor[p] = true
	}

	if len(req.Candidates) > 0 {
		pool := make([]string, 0, len(req.Candidates))
		seen := make(map[string]bool, len(req.Candidates))
		for _, c := range req.Candidates {
			if c == "" || c == models.MissingSlot {
				return nil, &models.InvalidCandidateError{Candidate: c, Reason: "empty identifier"}
			}
			if onFloor[c] {
				return nil, &models.InvalidCandidateError{Candidate: c, Reason: "already in a lineup"}
			}
			if seen[c] {
				return nil, &models.InvalidCandidateError{Candidate: c, Reason: "duplicated in candidate pool"}
			}
			seen[c] = true
			pool = append(pool, c)
		}
		return pool, nil
	}

	after, before := req.HomeLineup.SlotBounds()
	roster := a.bundle.Roster(req.Context.HomeTeam, req.Context.Season)

	var pool []string
	for _, p := range roster {
		if onFloor[p] {
			continue
		}
		if after != "" && p <= after {
			continue
		}
		if before != "" && p >= before {
			continue
		}
		pool = append(pool, p)
	}
	sort.Strings(pool)
	return pool, nil
}
