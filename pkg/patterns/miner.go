// Package patterns mines frequent player combinations from historical
// lineups and looks candidate sets up against the mined table at
// inference time.
package patterns

import (
	"fmt"
	"sort"
	"strings"
)

// Pattern is a set of player identifiers that co-occurred in historical
// lineups above the support threshold.
type Pattern struct {
	Players    []string `json:"players"`
	Support    int      `json:"support"`
	Confidence float64  `json:"confidence"`
}

// Table is the read-only frequent-pattern table consulted at inference
// time. Keys are sorted player sets joined with "|".
type Table struct {
	Patterns map[string]Pattern `json:"patterns"`
}

// MinerConfig holds the mining thresholds.
type MinerConfig struct {
	MinSupport int `json:"min_support" yaml:"min_support"` // minimum co-occurrence count
	MinSize    int `json:"min_size" yaml:"min_size"`       // smallest itemset size mined
	MaxSize    int `json:"max_size" yaml:"max_size"`       // largest itemset size mined
}

// DefaultMinerConfig returns the mining thresholds used when none are
// configured.
func DefaultMinerConfig() MinerConfig {
	return MinerConfig{MinSupport: 2, MinSize: 2, MaxSize: 5}
}

// Key canonicalizes a player set into its table key.
func Key(players []string) string {
	sorted := append([]string(nil), players...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// Mine counts every player subset of the given lineups within the
// configured size range and keeps those meeting the support threshold.
// Confidence for a set P is support(P) divided by the support of its
// strongest proper subset one size down, so it approximates how often
// the full set appears when most of it is already on the floor.
func Mine(lineups [][]string, cfg MinerConfig) (*Table, error) {
	if len(lineups) == 0 {
		return nil, fmt.Errorf("no lineups to mine")
	}
	if cfg.MinSupport <= 0 {
		cfg.MinSupport = DefaultMinerConfig().MinSupport
	}
	if cfg.MinSize < 2 {
		cfg.MinSize = DefaultMinerConfig().MinSize
	}
	if cfg.MaxSize <= 0 || cfg.MaxSize > 5 {
		cfg.MaxSize = DefaultMinerConfig().MaxSize
	}

	// Support counts for every subset size from 1 (needed for
	// confidence denominators) through MaxSize.
	counts := make(map[string]int)
	members := make(map[string][]string)
	for _, lineup := range lineups {
		sorted := append([]string(nil), lineup...)
		sort.Strings(sorted)
		for size := 1; size <= cfg.MaxSize && size <= len(sorted); size++ {
			for _, combo := range combinations(sorted, size) {
				key := strings.Join(combo, "|")
				counts[key]++
				if _, ok := members[key]; !ok {
					members[key] = combo
				}
			}
		}
	}

	table := &Table{Patterns: make(map[string]Pattern)}
	for key, support := range counts {
		set := members[key]
		if len(set) < cfg.MinSize || support < cfg.MinSupport {
			continue
		}
		denom := 0
		for _, sub := range combinations(set, len(set)-1) {
			if c := counts[strings.Join(sub, "|")]; c > denom {
				denom = c
			}
		}
		confidence := 1.0
		if denom > 0 {
			confidence = float64(support) / float64(denom)
		}
		if confidence > 1 {
			confidence = 1
		}
		table.Patterns[key] = Pattern{
			Players:    set,
			Support:    support,
			Confidence: confidence,
		}
	}

	return table, nil
}

// combinations enumerates size-k subsets of a sorted slice, preserving
// order within each subset.
func combinations(items []string, k int) [][]string {
	if k <= 0 || k > len(items) {
		return nil
	}
	var out [][]string
	combo := make([]string, k)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			out = append(out, append([]string(nil), combo...))
			return
		}
		for i := start; i <= len(items)-(k-depth); i++ {
			combo[depth] = items[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return out
}
