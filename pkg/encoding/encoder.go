// Package encoding maps categorical entities (players, teams, seasons)
// to stable numeric codes using vocabularies fitted at training time.
package encoding

import (
	"fmt"
	"sort"
)

// UnknownCode is the reserved code returned for values unseen at fit
// time. Real codes start at 1 so downstream models can distinguish the
// unknown bucket without a separate flag in the feature row.
const UnknownCode = 0

// Vocabulary is a fitted mapping from categorical values to numeric
// codes. It is built once during training and immutable afterward;
// encoding is deterministic because the vocabulary is sorted at fit
// time.
type Vocabulary struct {
	Codes map[string]int `json:"codes"`
}

// FitVocabulary builds a vocabulary from the unique values observed in
// training data. Values are sorted before assignment so identical
// inputs always produce identical codes.
func FitVocabulary(values []string) *Vocabulary {
	unique := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			unique[v] = true
		}
	}
	sorted := make([]string, 0, len(unique))
	for v := range unique {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)

	codes := make(map[string]int, len(sorted))
	for i, v := range sorted {
		codes[v] = i + 1
	}
	return &Vocabulary{Codes: codes}
}

// Encode returns the numeric code for a value. Unseen values map to
// UnknownCode with known=false rather than failing, so downstream
// scorers can lower confidence instead of aborting.
func (v *Vocabulary) Encode(value string) (code int, known bool) {
	if c, ok := v.Codes[value]; ok {
		return c, true
	}
	return UnknownCode, false
}

// Size returns the number of fitted values, excluding the unknown bucket.
func (v *Vocabulary) Size() int {
	return len(v.Codes)
}

// Cardinality returns the number of code values including the unknown
// bucket, used for smoothing denominators.
func (v *Vocabulary) Cardinality() int {
	return len(v.Codes) + 1
}

// Encoder bundles the vocabularies for every categorical entity in a
// matchup row. All player slots (home, away, candidate) share the
// player vocabulary so a player has one identity regardless of slot.
type Encoder struct {
	Players *Vocabulary `json:"players"`
	Teams   *Vocabulary `json:"teams"`
	Seasons *Vocabulary `json:"seasons"`
}

// Fit builds all vocabularies from training data.
func Fit(players, teams, seasons []string) *Encoder {
	return &Encoder{
		Players: FitVocabulary(players),
		Teams:   FitVocabulary(teams),
		Seasons: FitVocabulary(seasons),
	}
}

// EncodePlayers encodes a slice of player identifiers, reporting how
// many were unseen at fit time.
func (e *Encoder) EncodePlayers(players []string) (codes []float64, unknown int) {
	codes = make([]float64, len(players))
	for i, p := range players {
		code, known := e.Players.Encode(p)
		codes[i] = float64(code)
		if !known {
			unknown++
		}
	}
	return codes, unknown
}

// Validate checks that the encoder holds fitted vocabularies.
func (e *Encoder) Validate() error {
	if e == nil || e.Players == nil || e.Teams == nil || e.Seasons == nil {
		return fmt.Errorf("encoder vocabularies not fitted")
	}
	if e.Players.Size() == 0 {
		return fmt.Errorf("player vocabulary is empty")
	}
	return nil
}
