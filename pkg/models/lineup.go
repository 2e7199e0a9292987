package models

import (
	"fmt"
	"sort"
)

// LineupSize is the number of players in a complete NBA lineup segment.
const LineupSize = 5

// MissingSlot marks the unfilled fifth-player position in a prediction lineup.
const MissingSlot = "?"

// GameContext holds the contextual scalars for one lineup segment.
// It is immutable once constructed; one instance is created per
// prediction or training row.
type GameContext struct {
	Season      int    `json:"season"`
	StartingMin int    `json:"starting_min"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`

	// Extra carries any additional permitted contextual scalars as raw
	// key/value pairs; the constraint gate decides which are admitted.
	Extra map[string]string `json:"extra,omitempty"`
}

// Validate checks that the context scalars are in range
func (gc GameContext) Validate() error {
	if gc.HomeTeam == "" {
		return fmt.Errorf("home team is required")
	}
	if gc.AwayTeam == "" {
		return fmt.Errorf("away team is required")
	}
	if gc.StartingMin < 0 || gc.StartingMin > 48 {
		return fmt.Errorf("starting minute %d out of range [0,48]", gc.StartingMin)
	}
	return nil
}

// Lineup is an ordered set of up to five player identifiers for one team
// in one game context. Lineups are stored in alphabetical slot order; at
// most one slot (the fifth player) may be unfilled during prediction,
// marked with MissingSlot.
type Lineup struct {
	Players []string `json:"players"`
}

// NewLineup builds a lineup from slot-ordered player identifiers.
func NewLineup(players ...string) Lineup {
	return Lineup{Players: players}
}

// MissingIndex returns the index of the unfilled slot, or -1 when the
// lineup is complete.
func (l Lineup) MissingIndex() int {
	for i, p := range l.Players {
		if p == MissingSlot || p == "" {
			return i
		}
	}
	return -1
}

// Known returns the filled player identifiers in slot order.
func (l Lineup) Known() []string {
	known := make([]string, 0, len(l.Players))
	for _, p := range l.Players {
		if p != MissingSlot && p != "" {
			known = append(known, p)
		}
	}
	return known
}

// Contains reports whether the player occupies any filled slot.
func (l Lineup) Contains(player string) bool {
	for _, p := range l.Players {
		if p == player {
			return true
		}
	}
	return false
}

// Validate checks the lineup invariants. When partial is true, exactly
// one missing slot is permitted (the fifth player being predicted); any
// other shape is a structural error.
func (l Lineup) Validate(partial bool) error {
	if len(l.Players) != LineupSize {
		return fmt.Errorf("lineup must have %d slots, got %d", LineupSize, len(l.Players))
	}

	missing := 0
	seen := make(map[string]bool, LineupSize)
	for i, p := range l.Players {
		if p == MissingSlot || p == "" {
			missing++
			continue
		}
		if seen[p] {
			return fmt.Errorf("duplicate player %q at slot %d", p, i)
		}
		seen[p] = true
	}

	if !partial && missing > 0 {
		return fmt.Errorf("lineup has %d unfilled slots, expected none", missing)
	}
	if partial && missing != 1 {
		return fmt.Errorf("prediction lineup must have exactly one unfilled slot, got %d", missing)
	}
	return nil
}

// SlotBounds returns the lexicographic constraints a candidate must
// satisfy to occupy the missing slot of an alphabetically ordered
// lineup. Empty strings mean unbounded on that side.
func (l Lineup) SlotBounds() (after, before string) {
	idx := l.MissingIndex()
	if idx < 0 {
		return "", ""
	}
	if idx > 0 {
		after = l.Players[idx-1]
	}
	for j := idx + 1; j < len(l.Players); j++ {
		if l.Players[j] != MissingSlot && l.Players[j] != "" {
			before = l.Players[j]
			break
		}
	}
	return after, before
}

// WithFifth returns a complete sorted player set consisting of the
// known lineup members plus the candidate.
func (l Lineup) WithFifth(candidate string) []string {
	set := append(l.Known(), candidate)
	sort.Strings(set)
	return set
}
