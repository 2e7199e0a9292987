package dataset

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/hoopsight/lineup-optimizer/pkg/bundle"
	"github.com/hoopsight/lineup-optimizer/pkg/cluster"
	"github.com/hoopsight/lineup-optimizer/pkg/encoding"
	"github.com/hoopsight/lineup-optimizer/pkg/likelihood"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
	"github.com/hoopsight/lineup-optimizer/pkg/patterns"
	"github.com/hoopsight/lineup-optimizer/pkg/recommend"
	"github.com/hoopsight/lineup-optimizer/pkg/regression"
)

// TrainerConfig bundles every fit-time parameter.
type TrainerConfig struct {
	AllowedFeatures []string                  `yaml:"allowed_features"`
	Cluster         cluster.FitConfig         `yaml:"cluster"`
	Miner           patterns.MinerConfig      `yaml:"miner"`
	Boosting        regression.BoostingConfig `yaml:"boosting"`
	Examples        ExampleConfig             `yaml:"examples"`
}

// DefaultTrainerConfig returns the fit parameters used when none are
// configured.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		AllowedFeatures: DefaultAllowedFeatures(),
		Cluster:         cluster.DefaultFitConfig(),
		Miner:           patterns.DefaultMinerConfig(),
		Boosting:        regression.DefaultBoostingConfig(),
		Examples:        DefaultExampleConfig(),
	}
}

// Train fits every model artifact from historical rows and assembles
// the frozen bundle: encoder vocabularies, cluster centroids and player
// profiles, the frequent-pattern table, likelihood tables, the boosted
// regressor, rosters, and the normalization statistics that freeze each
// signal's scale at training time.
func Train(rows []MatchupRow, cfg TrainerConfig) (*bundle.ModelBundle, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(cfg.AllowedFeatures) == 0 {
		cfg.AllowedFeatures = DefaultAllowedFeatures()
	}

	start := time.Now()
	log.Printf("train: building ratings and examples from %d rows", len(rows))

	ratings := BuildRatings(rows)
	examples, err := BuildExamples(rows, ratings, cfg.Examples)
	if err != nil {
		return nil, err
	}
	log.Printf("train: %d training examples", len(examples))

	// Encoder vocabularies over everything observed.
	var players, teams, seasons []string
	for _, row := range rows {
		players = append(players, row.Home...)
		players = append(players, row.Away...)
		teams = append(teams, row.HomeTeam, row.AwayTeam)
		seasons = append(seasons, fmt.Sprintf("%d", row.Season))
	}
	enc := encoding.Fit(players, teams, seasons)

	// Cluster assigner over player profiles, in sorted player order so
	// the fit is reproducible.
	sortedPlayers := make([]string, 0, len(ratings.Players))
	for p := range ratings.Players {
		sortedPlayers = append(sortedPlayers, p)
	}
	sort.Strings(sortedPlayers)

	profiles := make(map[string][]float64, len(sortedPlayers))
	vectors := make([][]float64, 0, len(sortedPlayers))
	for _, p := range sortedPlayers {
		profile := ratings.Profile(p)
		if profile == nil {
			continue
		}
		profiles[p] = profile
		vectors = append(vectors, profile)
	}
	assigner, err := cluster.Fit(vectors, cfg.Cluster)
	if err != nil {
		return nil, fmt.Errorf("cluster fit failed: %w", err)
	}

	// Frequent patterns over complete home lineups.
	lineups := make([][]string, len(rows))
	for i, row := range rows {
		lineups[i] = row.Home
	}
	table, err := patterns.Mine(lineups, cfg.Miner)
	if err != nil {
		return nil, fmt.Errorf("pattern mining failed: %w", err)
	}
	log.Printf("train: mined %d frequent patterns", len(table.Patterns))

	// Likelihood tables from the labeled examples.
	likeExamples := make([]likelihood.Example, len(examples))
	for i, ex := range examples {
		class, _ := enc.Players.Encode(ex.Fifth)
		likeExamples[i] = likelihood.Example{
			Features: recommend.LikelihoodFeatures(enc, ex.Context, ex.Teammates),
			Class:    class,
		}
	}
	scorer, err := likelihood.Fit(likeExamples, recommend.LikelihoodCardinality(enc))
	if err != nil {
		return nil, fmt.Errorf("likelihood fit failed: %w", err)
	}

	// Regressor rows need the candidate's cluster label and pattern
	// score, exactly as they will be built at inference.
	featureNames := recommend.RegressorFeatureNames()
	X := make([][]float64, len(examples))
	y := make([]float64, len(examples))
	clusterSims := make([]float64, len(examples))
	patternScores := make([]float64, len(examples))
	for i, ex := range examples {
		assignment := cluster.Assignment{Label: cluster.UnassignedLabel}
		if profile, ok := profiles[ex.Fifth]; ok {
			assignment = assigner.Assign(profile)
		}
		clusterSims[i] = assigner.Similarity(assignment)

		set := append(append([]string(nil), ex.Teammates...), ex.Fifth)
		match := table.LookupFor(set, ex.Fifth)
		patternScores[i] = match.Score()

		row, _ := recommend.RegressorRow(enc, ex.Context, ex.Teammates, ex.Fifth, ex.Opponents, assignment.Label, patternScores[i])
		X[i] = row
		y[i] = ex.Effectiveness
	}

	regressor := regression.NewGradientBoosted(cfg.Boosting)
	if err := regressor.Fit(X, y, featureNames); err != nil {
		return nil, fmt.Errorf("regressor fit failed: %w", err)
	}

	// Freeze normalization bounds from the signals as observed on the
	// training set.
	regressionScores := make([]float64, len(examples))
	likelihoodScores := make([]float64, len(examples))
	for i := range examples {
		pred, err := regressor.Predict(X[i])
		if err != nil {
			return nil, fmt.Errorf("training prediction failed: %w", err)
		}
		regressionScores[i] = pred
		likelihoodScores[i], _ = scorer.Score(likeExamples[i].Features, likeExamples[i].Class)
	}

	b := &bundle.ModelBundle{
		Version:         time.Now().UTC().Format("20060102-150405"),
		TrainedAt:       time.Now().UTC(),
		AllowedFeatures: cfg.AllowedFeatures,
		Encoder:         enc,
		Assigner:        assigner,
		Patterns:        table,
		Likelihood:      scorer,
		Regressor:       regressor,
		Profiles:        profiles,
		Rosters:         buildRosters(rows),
		Normalization: models.NormalizationStats{
			Regression: models.BoundsOf(regressionScores),
			Likelihood: models.BoundsOf(likelihoodScores),
			Pattern:    models.BoundsOf(patternScores),
			Cluster:    models.BoundsOf(clusterSims),
		},
		FeatureImportance: regressor.FeatureImportances(),
		TrainingRows:      len(examples),
	}

	log.Printf("train: finished in %s", time.Since(start).Round(time.Millisecond))
	return b, nil
}

// buildRosters indexes which players appeared for each team in each
// season, the default candidate pool at inference time.
func buildRosters(rows []MatchupRow) map[string][]string {
	sets := make(map[string]map[string]bool)
	add := func(team string, season int, players []string) {
		key := bundle.RosterKey(team, season)
		set, ok := sets[key]
		if !ok {
			set = make(map[string]bool)
			sets[key] = set
		}
		for _, p := range players {
			set[p] = true
		}
	}
	for _, row := range rows {
		add(row.HomeTeam, row.Season, row.Home)
		add(row.AwayTeam, row.Season, row.Away)
	}

	rosters := make(map[string][]string, len(sets))
	for key, set := range sets {
		roster := make([]string, 0, len(set))
		for p := range set {
			roster = append(roster, p)
		}
		sort.Strings(roster)
		rosters[key] = roster
	}
	return rosters
}
