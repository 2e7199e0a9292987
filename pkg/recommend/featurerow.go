// Package recommend implements the recommendation aggregator: it merges
// the regression, likelihood, pattern, and cluster signals per candidate
// into one deterministic ranked list.
package recommend

import (
	"fmt"
	"sort"

	"github.com/hoopsight/lineup-optimizer/pkg/encoding"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// RegressorFeatureNames returns the ordered feature names of the
// effectiveness regressor's input row. Training and inference must
// build rows in exactly this layout.
func RegressorFeatureNames() []string {
	names := []string{"season", "starting_min", "home_team", "away_team"}
	for i := 1; i <= 4; i++ {
		names = append(names, fmt.Sprintf("player_%d", i))
	}
	names = append(names, "fifth_player")
	for i := 0; i < models.LineupSize; i++ {
		names = append(names, fmt.Sprintf("away_player_%d", i))
	}
	names = append(names, "cluster_label", "pattern_score")
	return names
}

// RegressorRow builds the full regressor feature row for one candidate:
// context scalars, encoded teams and players, the candidate, the
// opposing lineup, the candidate's cluster label, and its pattern
// score. Returns the row and the count of unknown-category encodings.
func RegressorRow(
	enc *encoding.Encoder,
	ctx models.GameContext,
	teammates []string,
	candidate string,
	opponents []string,
	clusterLabel int,
	patternScore float64,
) (row []float64, unknown int) {
	seasonCode, seasonKnown := enc.Seasons.Encode(fmt.Sprintf("%d", ctx.Season))
	homeCode, homeKnown := enc.Teams.Encode(ctx.HomeTeam)
	awayCode, awayKnown := enc.Teams.Encode(ctx.AwayTeam)
	for _, known := range []bool{seasonKnown, homeKnown, awayKnown} {
		if !known {
			unknown++
		}
	}

	row = []float64{float64(seasonCode), float64(ctx.StartingMin), float64(homeCode), float64(awayCode)}

	teammateCodes, u := enc.EncodePlayers(teammates)
	unknown += u
	row = append(row, teammateCodes...)

	candidateCode, candidateKnown := enc.Players.Encode(candidate)
	if !candidateKnown {
		unknown++
	}
	row = append(row, float64(candidateCode))

	opponentCodes, u := enc.EncodePlayers(opponents)
	unknown += u
	row = append(row, opponentCodes...)

	row = append(row, float64(clusterLabel), patternScore)
	return row, unknown
}

// LikelihoodFeatures builds the encoded context feature vector the
// likelihood scorer conditions on: season, both teams, and the four
// known teammates. Teammate codes are sorted so slot order cannot
// change the score.
func LikelihoodFeatures(enc *encoding.Encoder, ctx models.GameContext, teammates []string) []int {
	seasonCode, _ := enc.Seasons.Encode(fmt.Sprintf("%d", ctx.Season))
	homeCode, _ := enc.Teams.Encode(ctx.HomeTeam)
	awayCode, _ := enc.Teams.Encode(ctx.AwayTeam)

	codes := make([]int, 0, len(teammates))
	for _, p := range teammates {
		c, _ := enc.Players.Encode(p)
		codes = append(codes, c)
	}
	sort.Ints(codes)

	return append([]int{seasonCode, homeCode, awayCode}, codes...)
}

// LikelihoodCardinality returns the per-feature value cardinalities
// matching LikelihoodFeatures, used for Laplace smoothing denominators.
func LikelihoodCardinality(enc *encoding.Encoder) []int {
	card := []int{enc.Seasons.Cardinality(), enc.Teams.Cardinality(), enc.Teams.Cardinality()}
	for i := 0; i < 4; i++ {
		card = append(card, enc.Players.Cardinality())
	}
	return card
}
