// Package api serves the recommendation pipeline over HTTP.
package api

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/hoopsight/lineup-optimizer/pkg/bundle"
	"github.com/hoopsight/lineup-optimizer/pkg/config"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
	"github.com/hoopsight/lineup-optimizer/pkg/recommend"
)

// Server provides HTTP API endpoints over a loaded model bundle. The
// active aggregator is swapped atomically on reload, so in-flight
// requests always finish against the bundle they started with.
type Server struct {
	cfg   *config.Config
	store *bundle.Store
	mux   *http.ServeMux
	cron  *cron.Cron

	mu  sync.RWMutex
	agg *recommend.Aggregator
}

// NewServer creates a new API server over the bundle store.
func NewServer(cfg *config.Config, store *bundle.Store) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		mux:   http.NewServeMux(),
	}

	s.registerRoutes()
	return s
}

// registerRoutes sets up the HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/recommend", s.instrument("recommend", s.handleRecommend))
	s.mux.HandleFunc("/api/evaluate", s.instrument("evaluate", s.handleEvaluate))
	s.mux.HandleFunc("/api/model", s.instrument("model", s.handleModel))
	s.mux.HandleFunc("/api/bundles", s.instrument("bundles", s.handleBundles))
}

// LoadLatest loads the newest stored bundle and swaps it in.
func (s *Server) LoadLatest() error {
	b, err := s.store.Latest()
	if err != nil {
		return fmt.Errorf("failed to load latest bundle: %w", err)
	}
	return s.SetBundle(b)
}

// SetBundle builds an aggregator over the bundle and makes it the
// active one.
func (s *Server) SetBundle(b *bundle.ModelBundle) error {
	agg, err := recommend.New(b, s.cfg.Recommend.Weights, s.cfg.Recommend.TopK)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.agg = agg
	s.mu.Unlock()

	bundleReloads.Inc()
	bundleTrainingRows.Set(float64(b.TrainingRows))
	log.Printf("api: serving bundle %s (version %s, %d training rows)", b.ID, b.Version, b.TrainingRows)
	return nil
}

// aggregator returns the active aggregator, or ErrModelNotLoaded when
// no bundle has been loaded yet.
func (s *Server) aggregator() (*recommend.Aggregator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.agg == nil {
		return nil, models.ErrModelNotLoaded
	}
	return s.agg, nil
}

// Start starts the HTTP server and, when a reload schedule is
// configured, the periodic bundle reloader.
func (s *Server) Start() error {
	if spec := s.cfg.Server.ReloadSchedule; spec != "" {
		s.cron = cron.New()
		_, err := s.cron.AddFunc(spec, func() {
			if err := s.LoadLatest(); err != nil {
				log.Printf("api: scheduled bundle reload failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid reload schedule %q: %w", spec, err)
		}
		s.cron.Start()
		log.Printf("api: bundle reload scheduled: %s", spec)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
	}
	log.Printf("Starting API server on %s", addr)
	return srv.ListenAndServe()
}

// Stop halts the periodic reloader, if one is running.
func (s *Server) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Handler exposes the route mux, used by tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}
