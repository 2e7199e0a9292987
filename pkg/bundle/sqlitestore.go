package bundle

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists versioned model bundles in SQLite. Bundles are opaque
// JSON payloads keyed by id; the store never modifies a saved bundle.
type Store struct {
	db *sql.DB
}

// BundleInfo is the listing metadata for one stored bundle.
type BundleInfo struct {
	ID           string    `json:"id"`
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	TrainingRows int       `json:"training_rows"`
}

// NewStore opens (or creates) the bundle database at the given path.
// ":memory:" gives an ephemeral store for tests.
func NewStore(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are rare (one per training run); keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the bundles table if it does not exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS bundles (
			id            TEXT PRIMARY KEY,
			version       TEXT NOT NULL,
			trained_at    TEXT NOT NULL,
			training_rows INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL,
			payload       BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_bundles_created_at ON bundles(created_at);
	`)
	return err
}

// Save persists a bundle, assigning an id if it has none.
func (s *Store) Save(b *ModelBundle) error {
	if b == nil {
		return fmt.Errorf("nil bundle")
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.TrainedAt.IsZero() {
		b.TrainedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO bundles (id, version, trained_at, training_rows, created_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Version, b.TrainedAt.Format(time.RFC3339), b.TrainingRows,
		time.Now().UTC().Format(time.RFC3339), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save bundle: %w", err)
	}
	return nil
}

// Get loads the bundle with the given id.
func (s *Store) Get(id string) (*ModelBundle, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM bundles WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bundle %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bundle: %w", err)
	}
	return unmarshalBundle(payload)
}

// Latest loads the most recently saved bundle.
func (s *Store) Latest() (*ModelBundle, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM bundles ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no bundles stored")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest bundle: %w", err)
	}
	return unmarshalBundle(payload)
}

// List returns metadata for all stored bundles, newest first.
func (s *Store) List() ([]BundleInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, version, trained_at, training_rows FROM bundles ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	defer rows.Close()

	var out []BundleInfo
	for rows.Next() {
		var info BundleInfo
		var trainedAt string
		if err := rows.Scan(&info.ID, &info.Version, &trainedAt, &info.TrainingRows); err != nil {
			return nil, fmt.Errorf("failed to scan bundle row: %w", err)
		}
		info.TrainedAt, _ = time.Parse(time.RFC3339, trainedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a stored bundle.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM bundles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bundle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bundle %s not found", id)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func unmarshalBundle(payload []byte) (*ModelBundle, error) {
	var b ModelBundle
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bundle: %w", err)
	}
	return &b, nil
}
