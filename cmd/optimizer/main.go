// Command optimizer trains lineup recommendation bundles, evaluates
// them against labeled test files, answers one-off recommendation
// queries, and serves the HTTP API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hoopsight/lineup-optimizer/pkg/api"
	"github.com/hoopsight/lineup-optimizer/pkg/bundle"
	"github.com/hoopsight/lineup-optimizer/pkg/config"
	"github.com/hoopsight/lineup-optimizer/pkg/dataset"
	"github.com/hoopsight/lineup-optimizer/pkg/features"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
	"github.com/hoopsight/lineup-optimizer/pkg/recommend"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		train      = flag.Bool("train", false, "fit a new model bundle from the data directory and store it")
		serve      = flag.Bool("serve", false, "serve the HTTP API over the latest stored bundle")
		evalTest   = flag.String("evaluate", "", "path to a test CSV with '?' slots; requires -labels")
		evalLabels = flag.String("labels", "", "path to the labels CSV paired with -evaluate")
		predict    = flag.String("predict", "", "path to a JSON recommendation request to answer once")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		log.Fatalf("Failed to create store directory: %v", err)
	}
	store, err := bundle.NewStore(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open bundle store: %v", err)
	}
	defer store.Close()

	switch {
	case *train:
		if err := runTrain(cfg, store); err != nil {
			log.Fatalf("Training failed: %v", err)
		}
	case *evalTest != "":
		if *evalLabels == "" {
			log.Fatal("-evaluate requires -labels")
		}
		if err := runEvaluate(cfg, store, *evalTest, *evalLabels); err != nil {
			log.Fatalf("Evaluation failed: %v", err)
		}
	case *predict != "":
		if err := runPredict(cfg, store, *predict); err != nil {
			log.Fatalf("Prediction failed: %v", err)
		}
	case *serve:
		if err := runServe(cfg, store); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// loadGate builds the constraint gate from the configured allow-list
// file, falling back to the built-in column set.
func loadGate(cfg *config.Config) (*features.Gate, []string, error) {
	if cfg.Data.AllowedFeaturesPath != "" {
		gate, err := features.Load(cfg.Data.AllowedFeaturesPath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("optimizer: allow-list loaded from %s (%d features)", cfg.Data.AllowedFeaturesPath, len(gate.Names()))
		return gate, gate.Names(), nil
	}
	names := dataset.DefaultAllowedFeatures()
	return features.New(names), names, nil
}

// runTrain loads the configured season range, fits a bundle, and saves it.
func runTrain(cfg *config.Config, store *bundle.Store) error {
	gate, names, err := loadGate(cfg)
	if err != nil {
		return err
	}

	rows, err := dataset.LoadDir(cfg.Data.Dir, cfg.Data.FirstYear, cfg.Data.LastYear, gate)
	if err != nil {
		return err
	}

	trainCfg := cfg.Training
	trainCfg.AllowedFeatures = names
	b, err := dataset.Train(rows, trainCfg)
	if err != nil {
		return err
	}

	if err := store.Save(b); err != nil {
		return err
	}
	log.Printf("optimizer: saved bundle %s (version %s, %d training rows)", b.ID, b.Version, b.TrainingRows)

	for _, name := range b.Regressor.ImportanceRanking() {
		log.Printf("optimizer: feature importance %-16s %.4f", name, b.FeatureImportance[name])
	}
	return nil
}

// latestAggregator builds an aggregator over the newest stored bundle.
func latestAggregator(cfg *config.Config, store *bundle.Store) (*recommend.Aggregator, error) {
	b, err := store.Latest()
	if err != nil {
		return nil, err
	}
	log.Printf("optimizer: using bundle %s (version %s)", b.ID, b.Version)
	return recommend.New(b, cfg.Recommend.Weights, cfg.Recommend.TopK)
}

// runEvaluate replays a labeled test file through the latest bundle.
func runEvaluate(cfg *config.Config, store *bundle.Store, testPath, labelsPath string) error {
	agg, err := latestAggregator(cfg, store)
	if err != nil {
		return err
	}

	rows, err := dataset.LoadLabeledRows(testPath, labelsPath)
	if err != nil {
		return err
	}

	report, err := agg.EvaluateSet(rows)
	if err != nil {
		return err
	}

	log.Printf("optimizer: evaluated %d rows (%d skipped)", report.Rows, report.Skipped)
	log.Printf("optimizer: top-1 accuracy %.2f%% (%d hits)", report.Top1Accuracy*100, report.Top1Hits)
	log.Printf("optimizer: top-%d accuracy %.2f%% (%d hits)", cfg.Recommend.TopK, report.TopKAccuracy*100, report.TopKHits)
	return nil
}

// runPredict answers one recommendation request read from a JSON file
// and prints the ranked players.
func runPredict(cfg *config.Config, store *bundle.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read request file: %w", err)
	}
	var req models.RecommendRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse request file: %w", err)
	}

	agg, err := latestAggregator(cfg, store)
	if err != nil {
		return err
	}

	rec, err := agg.Recommend(req)
	if err != nil {
		return err
	}

	log.Printf("optimizer: recommendations for %s vs %s (season %d, slot next to %s):",
		req.Context.HomeTeam, req.Context.AwayTeam, req.Context.Season,
		strings.Join(req.HomeLineup.Known(), ", "))
	for i, p := range rec.Players {
		flag := ""
		if p.LowConfidence {
			flag = " (low confidence)"
		}
		log.Printf("optimizer: %d. %-24s composite %.4f%s", i+1, p.Player, p.Composite, flag)
	}
	return nil
}

// runServe loads the latest bundle if one exists and serves the API.
// Starting with an empty store is allowed: requests answer 503 until a
// bundle is trained and the scheduled reload picks it up.
func runServe(cfg *config.Config, store *bundle.Store) error {
	server := api.NewServer(cfg, store)
	if err := server.LoadLatest(); err != nil {
		log.Printf("optimizer: no bundle loaded yet: %v", err)
	}
	defer server.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
		log.Println("Shutting down...")
		return nil
	}
}
