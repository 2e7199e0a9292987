// Package bundle defines the frozen model artifact bundle and its
// versioned SQLite-backed store. A bundle is loaded once before serving
// and never mutated during inference, so it is safe for unlimited
// concurrent read access.
package bundle

import (
	"fmt"
	"time"

	"github.com/hoopsight/lineup-optimizer/pkg/cluster"
	"github.com/hoopsight/lineup-optimizer/pkg/encoding"
	"github.com/hoopsight/lineup-optimizer/pkg/likelihood"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
	"github.com/hoopsight/lineup-optimizer/pkg/patterns"
	"github.com/hoopsight/lineup-optimizer/pkg/regression"
)

// ModelBundle is the explicit, immutable set of frozen model artifacts
// one recommendation pipeline runs against. It is always passed in as a
// value, never held as process-wide state, so tests can construct fresh
// bundles per case.
type ModelBundle struct {
	ID        string    `json:"id"`
	Version   string    `json:"version"`
	TrainedAt time.Time `json:"trained_at"`

	AllowedFeatures []string `json:"allowed_features"`

	Encoder    *encoding.Encoder           `json:"encoder"`
	Assigner   *cluster.Assigner           `json:"assigner"`
	Patterns   *patterns.Table             `json:"patterns"`
	Likelihood *likelihood.Scorer          `json:"likelihood"`
	Regressor  *regression.GradientBoosted `json:"regressor"`

	// Profiles maps each player seen at fit time to the numeric
	// profile vector the cluster assigner was fitted on. Players
	// absent here are reported unassigned.
	Profiles map[string][]float64 `json:"profiles"`

	// Rosters maps RosterKey(team, season) to the players who appeared
	// for that team in that season, the default candidate pool.
	Rosters map[string][]string `json:"rosters"`

	Normalization     models.NormalizationStats `json:"normalization"`
	FeatureImportance map[string]float64        `json:"feature_importance"`

	TrainingRows int `json:"training_rows"`
}

// RosterKey builds the roster lookup key for a team and season.
func RosterKey(team string, season int) string {
	return fmt.Sprintf("%s|%d", team, season)
}

// Roster returns the candidate pool for a team and season.
func (b *ModelBundle) Roster(team string, season int) []string {
	return b.Rosters[RosterKey(team, season)]
}

// Validate checks that every artifact the pipeline depends on is
// present and fitted. Serving a request against an invalid bundle is a
// structural error.
func (b *ModelBundle) Validate() error {
	if b == nil {
		return models.ErrModelNotLoaded
	}
	if err := b.Encoder.Validate(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrModelNotLoaded, err)
	}
	if b.Assigner == nil || len(b.Assigner.Centroids) == 0 {
		return fmt.Errorf("%w: cluster centroids missing", models.ErrModelNotLoaded)
	}
	if b.Patterns == nil {
		return fmt.Errorf("%w: pattern table missing", models.ErrModelNotLoaded)
	}
	if b.Likelihood == nil || b.Likelihood.Total == 0 {
		return fmt.Errorf("%w: likelihood tables missing", models.ErrModelNotLoaded)
	}
	if b.Regressor == nil || b.Regressor.NumFeatures == 0 {
		return fmt.Errorf("%w: regressor missing", models.ErrModelNotLoaded)
	}
	return nil
}
