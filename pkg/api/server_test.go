package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/lineup-optimizer/pkg/bundle"
	"github.com/hoopsight/lineup-optimizer/pkg/config"
	"github.com/hoopsight/lineup-optimizer/pkg/dataset"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

func trainedBundle(t *testing.T) *bundle.ModelBundle {
	t.Helper()

	core := []string{"alton", "bryce", "caleb", "dario"}
	fifths := []string{"evan", "felix", "evan", "evan", "felix", "gregor"}
	var rows []dataset.MatchupRow
	for i, fifth := range fifths {
		rows = append(rows, dataset.MatchupRow{
			Game:        "g1",
			Season:      2012,
			StartingMin: (i * 6) % 48,
			HomeTeam:    "LAL",
			AwayTeam:    "BOS",
			Home:        append(append([]string(nil), core...), fifth),
			Away:        []string{"pa", "pb", "pc", "pd", "pe"},
		})
	}

	cfg := dataset.DefaultTrainerConfig()
	cfg.Cluster.K = 3
	cfg.Boosting.Estimators = 10
	b, err := dataset.Train(rows, cfg)
	require.NoError(t, err)
	return b
}

func newTestServer(t *testing.T, loadBundle bool) *Server {
	t.Helper()

	store, err := bundle.NewStore(filepath.Join(t.TempDir(), "bundles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := NewServer(config.Default(), store)
	if loadBundle {
		b := trainedBundle(t)
		require.NoError(t, store.Save(b))
		require.NoError(t, s.LoadLatest())
	}
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func recommendRequest() models.RecommendRequest {
	return models.RecommendRequest{
		Context:    models.GameContext{Season: 2012, StartingMin: 12, HomeTeam: "LAL", AwayTeam: "BOS"},
		HomeLineup: models.NewLineup("alton", "bryce", "caleb", "dario", models.MissingSlot),
		AwayLineup: models.NewLineup("pa", "pb", "pc", "pd", "pe"),
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, false)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyRequiresBundle(t *testing.T) {
	s := newTestServer(t, false)
	w := doJSON(t, s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	s = newTestServer(t, true)
	w = doJSON(t, s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecommendEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	w := doJSON(t, s, http.MethodPost, "/api/recommend", recommendRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec models.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.NotEmpty(t, rec.Players)
	assert.NotEmpty(t, rec.BundleVersion)
}

func TestRecommendWithoutBundleIs503(t *testing.T) {
	s := newTestServer(t, false)
	w := doJSON(t, s, http.MethodPost, "/api/recommend", recommendRequest())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecommendRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, true)

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString("{nope"))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Complete home lineup (nothing to recommend).
	bad := recommendRequest()
	bad.HomeLineup = models.NewLineup("alton", "bryce", "caleb", "dario", "evan")
	w = doJSON(t, s, http.MethodPost, "/api/recommend", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Duplicate explicit candidate.
	dup := recommendRequest()
	dup.Candidates = []string{"evan", "evan"}
	w = doJSON(t, s, http.MethodPost, "/api/recommend", dup)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Wrong method.
	w = doJSON(t, s, http.MethodGet, "/api/recommend", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEvaluateEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	body := map[string]interface{}{
		"rows": []models.LabeledRow{
			{Request: recommendRequest(), Actual: "evan"},
		},
	}
	w := doJSON(t, s, http.MethodPost, "/api/evaluate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.EvaluationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Rows+report.Skipped)

	w = doJSON(t, s, http.MethodPost, "/api/evaluate", map[string]interface{}{"rows": []models.LabeledRow{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModelEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	w := doJSON(t, s, http.MethodGet, "/api/model", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["allowed_features"])
}

func TestBundlesEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	w := doJSON(t, s, http.MethodGet, "/api/bundles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var infos []bundle.BundleInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	assert.Len(t, infos, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	// Generate some traffic first.
	doJSON(t, s, http.MethodPost, "/api/recommend", recommendRequest())

	w := doJSON(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lineup_http_requests_total")
}

func TestSetBundleSwapsAggregator(t *testing.T) {
	s := newTestServer(t, true)

	first := doJSON(t, s, http.MethodGet, "/api/model", nil)
	require.Equal(t, http.StatusOK, first.Code)

	b := trainedBundle(t)
	b.Version = "swapped"
	require.NoError(t, s.SetBundle(b))

	var info map[string]interface{}
	w := doJSON(t, s, http.MethodGet, "/api/model", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "swapped", info["version"])
}
