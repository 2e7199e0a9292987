package bundle

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/lineup-optimizer/pkg/encoding"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "bundles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleBundle(version string) *ModelBundle {
	return &ModelBundle{
		Version:         version,
		AllowedFeatures: []string{"season", "home_team"},
		Encoder:         encoding.Fit([]string{"p1", "p2"}, []string{"LAL"}, []string{"2012"}),
		Profiles:        map[string][]float64{"p1": {0.1, 0.2}},
		Rosters:         map[string][]string{RosterKey("LAL", 2012): {"p1", "p2"}},
		Normalization: models.NormalizationStats{
			Regression: models.Bounds{Min: -1, Max: 1},
		},
		TrainingRows: 42,
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	b := sampleBundle("v1")
	require.NoError(t, store.Save(b))
	assert.NotEmpty(t, b.ID, "Save should assign an id")

	loaded, err := store.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", loaded.Version)
	assert.Equal(t, 42, loaded.TrainingRows)
	assert.Equal(t, []string{"p1", "p2"}, loaded.Roster("LAL", 2012))

	// The encoder round-trips through the JSON payload.
	code, known := loaded.Encoder.Players.Encode("p1")
	assert.True(t, known)
	assert.NotZero(t, code)
}

func TestStoreLatest(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Latest()
	require.Error(t, err, "empty store has no latest bundle")

	first := sampleBundle("v1")
	first.TrainedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Save(first))

	// created_at has second resolution in RFC3339; force distinct ids
	// and rely on the id tiebreak being deterministic.
	second := sampleBundle("v2")
	second.ID = "zzzz-" + first.ID
	require.NoError(t, store.Save(second))

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.Version)
}

func TestStoreListAndDelete(t *testing.T) {
	store := newTestStore(t)

	a := sampleBundle("v1")
	b := sampleBundle("v2")
	require.NoError(t, store.Save(a))
	require.NoError(t, store.Save(b))

	infos, err := store.List()
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	require.NoError(t, store.Delete(a.ID))
	infos, err = store.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
	assert.Equal(t, b.ID, infos[0].ID)

	require.Error(t, store.Delete(a.ID), "deleting a missing bundle should fail")
}

func TestStoreSaveOverwritesSameID(t *testing.T) {
	store := newTestStore(t)

	b := sampleBundle("v1")
	require.NoError(t, store.Save(b))

	b.Version = "v1-patched"
	require.NoError(t, store.Save(b))

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "v1-patched", infos[0].Version)
}

func TestBundleValidate(t *testing.T) {
	var nilBundle *ModelBundle
	assert.ErrorIs(t, nilBundle.Validate(), models.ErrModelNotLoaded)

	incomplete := sampleBundle("v1")
	err := incomplete.Validate()
	assert.ErrorIs(t, err, models.ErrModelNotLoaded)
}
