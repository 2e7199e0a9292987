package dataset

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// TrainingExample is one labeled observation: four teammates plus a
// fifth player in a game context, and the fifth player's effectiveness
// contribution relative to the four-man base lineup.
type TrainingExample struct {
	Context       models.GameContext
	Teammates     []string
	Fifth         string
	Opponents     []string
	Effectiveness float64
}

// ExampleConfig controls training example construction.
type ExampleConfig struct {
	Alternatives int   `json:"alternatives" yaml:"alternatives"` // counterfactual fifth players per lineup
	RandomSeed   int64 `json:"random_seed" yaml:"random_seed"`
}

// DefaultExampleConfig returns the construction parameters used when
// none are configured.
func DefaultExampleConfig() ExampleConfig {
	return ExampleConfig{Alternatives: 2, RandomSeed: 42}
}

// BuildExamples expands each historical row into leave-one-out training
// examples: every lineup member in turn becomes the fifth player, and a
// few randomly drawn alternative players provide counterfactual labels.
// The random draw is seeded so identical inputs always yield identical
// training sets.
func BuildExamples(rows []MatchupRow, ratings *Ratings, cfg ExampleConfig) ([]TrainingExample, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to build examples from")
	}
	if cfg.Alternatives < 0 {
		cfg.Alternatives = DefaultExampleConfig().Alternatives
	}

	allPlayers := make([]string, 0, len(ratings.Players))
	for p := range ratings.Players {
		allPlayers = append(allPlayers, p)
	}
	sort.Strings(allPlayers)

	rng := rand.New(rand.NewSource(cfg.RandomSeed))

	var examples []TrainingExample
	for _, row := range rows {
		ctx := models.GameContext{
			Season:      row.Season,
			StartingMin: row.StartingMin,
			HomeTeam:    row.HomeTeam,
			AwayTeam:    row.AwayTeam,
		}

		actualEffectiveness := ratings.LineupEffectiveness(row.Home, row.HomeTeam, row.AwayTeam, row.Away)

		inLineup := make(map[string]bool, models.LineupSize)
		for _, p := range row.Home {
			inLineup[p] = true
		}

		for leaveOut := 0; leaveOut < len(row.Home); leaveOut++ {
			fifth := row.Home[leaveOut]
			teammates := make([]string, 0, models.LineupSize-1)
			for i, p := range row.Home {
				if i != leaveOut {
					teammates = append(teammates, p)
				}
			}

			// The four-man base sets the reference the fifth player's
			// contribution is measured against.
			base := ratings.LineupEffectiveness(teammates, row.HomeTeam, row.AwayTeam, row.Away) * 0.8

			examples = append(examples, TrainingExample{
				Context:       ctx,
				Teammates:     teammates,
				Fifth:         fifth,
				Opponents:     row.Away,
				Effectiveness: actualEffectiveness - base,
			})

			for alt := 0; alt < cfg.Alternatives; alt++ {
				candidate := allPlayers[rng.Intn(len(allPlayers))]
				if inLineup[candidate] {
					continue
				}
				altLineup := append(append([]string(nil), teammates...), candidate)
				altEffectiveness := ratings.LineupEffectiveness(altLineup, row.HomeTeam, row.AwayTeam, row.Away)

				examples = append(examples, TrainingExample{
					Context:       ctx,
					Teammates:     teammates,
					Fifth:         candidate,
					Opponents:     row.Away,
					Effectiveness: altEffectiveness - base,
				})
			}
		}
	}

	if len(examples) == 0 {
		return nil, fmt.Errorf("no training examples could be built")
	}
	return examples, nil
}
