package dataset

import (
	"hash/fnv"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PlayerStats accumulates the historical usage counters one player's
// rating and cluster profile are derived from.
type PlayerStats struct {
	Appearances int
	HomeWins    int
	Pairings    map[string]int // teammate -> co-occurrence count
	Opponents   map[string]int // opposing player -> matchup count
}

// Ratings holds the derived player and team strength estimates used to
// label training examples with an effectiveness value.
type Ratings struct {
	Players     map[string]float64
	Teams       map[string]float64
	Stats       map[string]*PlayerStats
	maxAppeared int
}

// BuildRatings derives player and team ratings from historical rows.
// The player rating combines appearance frequency with pairing,
// opponent-matchup, and home-win factors; team ratings are stable
// hash-seeded values in [0.4, 0.8] so the same team always rates the
// same.
func BuildRatings(rows []MatchupRow) *Ratings {
	stats := make(map[string]*PlayerStats)
	get := func(player string) *PlayerStats {
		s, ok := stats[player]
		if !ok {
			s = &PlayerStats{Pairings: make(map[string]int), Opponents: make(map[string]int)}
			stats[player] = s
		}
		return s
	}

	teams := make(map[string]bool)
	for _, row := range rows {
		teams[row.HomeTeam] = true
		teams[row.AwayTeam] = true

		for _, p := range row.Home {
			s := get(p)
			s.Appearances++
			s.HomeWins++ // home segments count toward home impact
			for _, q := range row.Home {
				if q != p {
					s.Pairings[q]++
				}
			}
			for _, q := range row.Away {
				s.Opponents[q]++
			}
		}
		for _, p := range row.Away {
			get(p).Appearances++
		}
	}

	r := &Ratings{
		Players: make(map[string]float64, len(stats)),
		Teams:   make(map[string]float64, len(teams)),
		Stats:   stats,
	}

	minCount, maxCount := 0, 1
	first := true
	for _, s := range stats {
		if first {
			minCount, maxCount = s.Appearances, s.Appearances
			first = false
			continue
		}
		if s.Appearances < minCount {
			minCount = s.Appearances
		}
		if s.Appearances > maxCount {
			maxCount = s.Appearances
		}
	}
	r.maxAppeared = maxCount
	countRange := maxCount - minCount
	if countRange < 1 {
		countRange = 1
	}

	for player, s := range stats {
		base := 0.5 + 0.5*float64(s.Appearances-minCount)/float64(countRange)

		pairingFactor := 1.0
		if avg := meanCounts(s.Pairings); avg > 0 {
			pairingFactor = 1.0 + (avg/float64(maxCount))*0.3
		}

		opponentFactor := 1.0
		if avg := meanCounts(s.Opponents); avg > 0 {
			opponentFactor = 1.0 + (avg/float64(maxCount))*0.2
		}

		homeWinFactor := 1.0 + (float64(s.HomeWins)/float64(max(1, s.Appearances)))*0.3

		r.Players[player] = base * pairingFactor * opponentFactor * homeWinFactor
	}

	for team := range teams {
		rng := rand.New(rand.NewSource(int64(hashString(team))))
		r.Teams[team] = 0.4 + 0.4*rng.Float64()
	}

	return r
}

// PlayerRating returns the rating, defaulting to 0.5 for unseen players.
func (r *Ratings) PlayerRating(player string) float64 {
	if v, ok := r.Players[player]; ok {
		return v
	}
	return 0.5
}

// TeamRating returns the rating, defaulting to 0.6 for unseen teams.
func (r *Ratings) TeamRating(team string) float64 {
	if v, ok := r.Teams[team]; ok {
		return v
	}
	return 0.6
}

// LineupEffectiveness scores a lineup against an opponent: a weighted
// mix of average player rating, team and opponent strength, and a
// deterministic hash-seeded synergy term, adjusted by the rating gap
// against the opposing five. Output is rescaled to roughly [-1, 1].
func (r *Ratings) LineupEffectiveness(players []string, team, opponent string, opponents []string) float64 {
	ratingAvg := 0.0
	for _, p := range players {
		ratingAvg += r.PlayerRating(p)
	}
	if len(players) > 0 {
		ratingAvg /= float64(len(players))
	}

	teamFactor := r.TeamRating(team)
	opponentFactor := 1.0 - r.TeamRating(opponent)

	sorted := append([]string(nil), players...)
	sort.Strings(sorted)
	joined := ""
	for _, p := range sorted {
		joined += p
	}
	synergyRNG := rand.New(rand.NewSource(int64(hashString(joined))))
	synergyFactor := 0.8 + 0.4*synergyRNG.Float64()

	matchupFactor := 1.0
	if len(opponents) > 0 {
		oppAvg := 0.0
		for _, p := range opponents {
			oppAvg += r.PlayerRating(p)
		}
		oppAvg /= float64(len(opponents))
		matchupFactor = 1.0 + 0.2*(ratingAvg-oppAvg)
	}

	effectiveness := (ratingAvg*0.4 + teamFactor*0.2 + opponentFactor*0.1 + synergyFactor*0.3) * matchupFactor
	return 2.0*effectiveness - 1.0
}

// Profile builds the numeric profile vector the cluster assigner is
// fitted on: appearance share, home-win rate, mean pairing and opponent
// frequency, and the overall rating.
func (r *Ratings) Profile(player string) []float64 {
	s, ok := r.Stats[player]
	if !ok {
		return nil
	}
	return []float64{
		float64(s.Appearances) / float64(max(1, r.maxAppeared)),
		float64(s.HomeWins) / float64(max(1, s.Appearances)),
		meanCounts(s.Pairings) / float64(max(1, r.maxAppeared)),
		meanCounts(s.Opponents) / float64(max(1, r.maxAppeared)),
		r.PlayerRating(player),
	}
}

// meanCounts averages the values of a count map.
func meanCounts(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	values := make([]float64, 0, len(counts))
	for _, c := range counts {
		values = append(values, float64(c))
	}
	return stat.Mean(values, nil)
}

// hashString gives a stable non-negative hash for seeding.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
