// Package store archives simulation runs in a SQLite database so earlier
// runs can be listed, re-inspected, and compared without rerunning them.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/popdyn-xyz/go-popdyn/results"
)

// Store wraps the runs database.
type Store struct {
	db *sql.DB
}

// Run is one archived run's listing row. The full results document is
// fetched separately via Get.
type Run struct {
	ID          string    `json:"id"`
	Model       string    `json:"model"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	FinalTime   float64   `json:"final_time"`
	ComputeTime float64   `json:"compute_time"`
}

// Open opens (creating if needed) the runs database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		final_time REAL NOT NULL DEFAULT 0,
		compute_time REAL NOT NULL DEFAULT 0,
		document TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put archives a results document, replacing any run with the same id.
func (s *Store) Put(r *results.Results) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO runs (id, model, method, status, timestamp, final_time, compute_time, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Metadata.RunID, r.Model.Name, r.Metadata.Method, r.Metadata.Status,
		r.Metadata.Timestamp, r.Results.Summary.FinalTime, r.Metadata.ComputeTime,
		string(doc))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Get fetches the full results document for one run.
func (s *Store) Get(id string) (*results.Results, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM runs WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var r results.Results
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return &r, nil
}

// Recent lists the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, model, method, status, timestamp, final_time, compute_time
		FROM runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// ByModel lists archived runs of one model, newest first.
func (s *Store) ByModel(model string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, model, method, status, timestamp, final_time, compute_time
		FROM runs WHERE model = ? ORDER BY timestamp DESC LIMIT ?`, model, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Model, &r.Method, &r.Status, &r.Timestamp,
			&r.FinalTime, &r.ComputeTime); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// Delete removes one run.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Prune deletes runs older than the cutoff and reports how many went.
func (s *Store) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM runs WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of archived runs.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}
