package patterns

import (
	"sort"
	"strings"

	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// Match is the result of looking a candidate player set up in the
// pattern table. A zero Match (no historical pattern contains any
// subset of the set) is a valid, common outcome — not an error.
type Match struct {
	Support    int     `json:"support"`
	Confidence float64 `json:"confidence"`
	Overlap    int     `json:"overlap"`
	Exact      bool    `json:"exact"`
}

// Found reports whether any pattern matched.
func (m Match) Found() bool {
	return m.Overlap > 0
}

// Score folds the match into a single [0,1] signal: confidence scaled
// by how much of the candidate set the pattern covers. An exact
// five-player match therefore always scores strictly above any partial
// match with equal confidence, and a miss scores zero.
func (m Match) Score() float64 {
	if !m.Found() {
		return 0
	}
	return m.Confidence * float64(m.Overlap) / float64(models.LineupSize)
}

// Lookup finds the closest matching frequent pattern for a player set:
// an exact match on the full set is preferred, otherwise the
// maximum-overlap stored subset. Among subsets of equal size, the
// highest confidence wins, then highest support, then lowest key for
// determinism.
func (t *Table) Lookup(set []string) Match {
	return t.lookup(set, "")
}

// LookupFor matches like Lookup but restricts fallback subsets to those
// containing member. A candidate completing a lineup is only credited
// for patterns it actually appears in; the four incumbents' own synergy
// never leaks into the candidate's score.
func (t *Table) LookupFor(set []string, member string) Match {
	return t.lookup(set, member)
}

func (t *Table) lookup(set []string, member string) Match {
	if t == nil || len(t.Patterns) == 0 || len(set) == 0 {
		return Match{}
	}

	sorted := append([]string(nil), set...)
	sort.Strings(sorted)

	if member != "" && !containsMember(sorted, member) {
		return Match{}
	}

	if p, ok := t.Patterns[strings.Join(sorted, "|")]; ok {
		return Match{
			Support:    p.Support,
			Confidence: p.Confidence,
			Overlap:    len(sorted),
			Exact:      true,
		}
	}

	// Walk subset sizes downward; the first size with any stored
	// pattern is the maximum overlap achievable.
	for size := len(sorted) - 1; size >= 2; size-- {
		var best *Pattern
		var bestKey string
		for _, combo := range combinations(sorted, size) {
			if member != "" && !containsMember(combo, member) {
				continue
			}
			key := strings.Join(combo, "|")
			p, ok := t.Patterns[key]
			if !ok {
				continue
			}
			if best == nil || better(p, key, *best, bestKey) {
				cp := p
				best = &cp
				bestKey = key
			}
		}
		if best != nil {
			return Match{
				Support:    best.Support,
				Confidence: best.Confidence,
				Overlap:    size,
			}
		}
	}

	return Match{}
}

func containsMember(set []string, member string) bool {
	for _, p := range set {
		if p == member {
			return true
		}
	}
	return false
}

// better orders candidate patterns of equal size.
func better(a Pattern, aKey string, b Pattern, bKey string) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Support != b.Support {
		return a.Support > b.Support
	}
	return aKey < bKey
}
