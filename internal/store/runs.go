// Package store persists finished generation runs to SQLite so past
// signatures, candidates, and outcomes can be inspected later. The
// pipeline works fine without it; a disabled store is simply never
// constructed.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"codesmith/internal/logging"
)

// Run outcomes.
const (
	StatusDone            = "done"
	StatusRepairExhausted = "repair_exhausted"
	StatusError           = "error"
)

// RunRecord is one finished run, terminal in any state.
type RunRecord struct {
	ID         string
	Task       string
	Signature  string
	Code       string
	Test1      string
	Test2      string
	EdgeTest   string
	Status     string
	Repairs    int
	DurationMs int64
	Error      string
	CreatedAt  time.Time
}

// Stats aggregates the run history.
type Stats struct {
	TotalRuns      int
	Succeeded      int
	AverageRepairs float64
}

// RunStore manages the run history database.
type RunStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewRunStore creates or opens the run history at path, creating the
// parent directory and schema as needed.
func NewRunStore(path string) (*RunStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewRunStore")
	defer timer.Stop()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &RunStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Store("run store ready at %s", path)
	return s, nil
}

func (s *RunStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		code_signature TEXT,
		code TEXT,
		test_1 TEXT,
		test_2 TEXT,
		edge_case_test_1 TEXT,
		status TEXT NOT NULL,
		repairs INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	logging.Store("closing run store")
	return s.db.Close()
}

// Path returns the database file path.
func (s *RunStore) Path() string {
	return s.dbPath
}

// timeLayout is how timestamps are stored. Text in this fixed layout
// sorts chronologically under ORDER BY.
const timeLayout = "2006-01-02 15:04:05"

// SaveRun inserts one finished run. A missing ID or timestamp is filled
// in here.
func (s *RunStore) SaveRun(rec *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, task, code_signature, code, test_1, test_2,
			edge_case_test_1, status, repairs, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Task, rec.Signature, rec.Code, rec.Test1, rec.Test2,
		rec.EdgeTest, rec.Status, rec.Repairs, rec.DurationMs, rec.Error,
		rec.CreatedAt.UTC().Format(timeLayout))

	if err != nil {
		logging.StoreError("failed to save run %s: %v", rec.ID, err)
		return fmt.Errorf("failed to save run: %w", err)
	}
	logging.StoreDebug("saved run %s (%s, %d repairs)", rec.ID, rec.Status, rec.Repairs)
	return nil
}

// GetRecent returns up to limit runs, newest first.
func (s *RunStore) GetRecent(limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, task, code_signature, code, test_1, test_2,
			edge_case_test_1, status, repairs, duration_ms, error, created_at
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStats aggregates totals across the whole history.
func (s *RunStore) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	var avg sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			AVG(repairs)
		FROM runs
	`, StatusDone).Scan(&stats.TotalRuns, &stats.Succeeded, &avg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	if avg.Valid {
		stats.AverageRepairs = avg.Float64
	}
	return &stats, nil
}

func scanRun(rows *sql.Rows) (RunRecord, error) {
	var rec RunRecord
	var signature, code, test1, test2, edge, runErr sql.NullString
	if err := rows.Scan(&rec.ID, &rec.Task, &signature, &code, &test1, &test2,
		&edge, &rec.Status, &rec.Repairs, &rec.DurationMs, &runErr, &rec.CreatedAt); err != nil {
		return rec, err
	}
	rec.Signature = signature.String
	rec.Code = code.String
	rec.Test1 = test1.String
	rec.Test2 = test2.String
	rec.EdgeTest = edge.String
	rec.Error = runErr.String
	return rec, nil
}
