package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// handleReady handles readiness check requests: ready means a bundle is
// loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.aggregator(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
		return
	}
	if _, err := s.store.List(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// handleRecommend handles POST /api/recommend
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	agg, err := s.aggregator()
	if err != nil {
		writeScoringError(w, err)
		return
	}

	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	rec, err := agg.Recommend(req)
	if err != nil {
		writeScoringError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rec)
}

// handleEvaluate handles POST /api/evaluate: it replays labeled rows
// through the active bundle and returns the accuracy report.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	agg, err := s.aggregator()
	if err != nil {
		writeScoringError(w, err)
		return
	}

	var req struct {
		Rows []models.LabeledRow `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Rows) == 0 {
		http.Error(w, "At least one labeled row is required", http.StatusBadRequest)
		return
	}

	report, err := agg.EvaluateSet(req.Rows)
	if err != nil {
		writeScoringError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}

// handleModel handles GET /api/model, describing the active bundle.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	agg, err := s.aggregator()
	if err != nil {
		writeScoringError(w, err)
		return
	}
	b := agg.Bundle()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":                 b.ID,
		"version":            b.Version,
		"trained_at":         b.TrainedAt,
		"training_rows":      b.TrainingRows,
		"allowed_features":   b.AllowedFeatures,
		"feature_importance": b.FeatureImportance,
	})
}

// handleBundles handles GET /api/bundles, listing stored bundles.
func (s *Server) handleBundles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	infos, err := s.store.List()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list bundles: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

// writeScoringError maps pipeline errors onto HTTP status codes:
// structural request problems are the client's fault, a missing bundle
// is a service condition, everything else is internal.
func writeScoringError(w http.ResponseWriter, err error) {
	var disallowed *models.DisallowedFeatureError
	var invalid *models.InvalidCandidateError
	switch {
	case errors.As(err, &disallowed), errors.As(err, &invalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrModelNotLoaded):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
