// Package history records engine invocations and per-case outcomes in a
// SQLite database so past bless decisions stay auditable.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the run-history database and initializes the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL allows queries against the history while a run is recording
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateRun records the start of an engine invocation. A missing ID is
// filled with a fresh UUID.
func (db *DB) CreateRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := db.conn.Exec(`
		INSERT INTO runs (id, started_at, mode, baseline_name, success)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339), run.Mode, run.BaselineName,
		boolToInt(run.Success),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun records completion time and final success of a run.
func (db *DB) FinishRun(run *Run) error {
	now := time.Now()
	run.CompletedAt = &now

	_, err := db.conn.Exec(`
		UPDATE runs SET completed_at = ?, success = ? WHERE id = ?`,
		now.Format(time.RFC3339), boolToInt(run.Success), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// CreateCaseResult records one case's outcome within a run.
func (db *DB) CreateCaseResult(cr *CaseResult) error {
	result, err := db.conn.Exec(`
		INSERT INTO case_results (run_id, case_name, outcome, detail)
		VALUES (?, ?, ?, ?)`,
		cr.RunID, cr.CaseName, cr.Outcome, cr.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to create case result: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	cr.ID = id
	return nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(id string) (*Run, error) {
	var run Run
	var startedAt string
	var completedAt *string
	var success int

	err := db.conn.QueryRow(`
		SELECT id, started_at, completed_at, mode, baseline_name, success
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &startedAt, &completedAt, &run.Mode, &run.BaselineName, &success)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if completedAt != nil {
		t, _ := time.Parse(time.RFC3339, *completedAt)
		run.CompletedAt = &t
	}
	run.Success = success != 0

	return &run, nil
}

// ListRuns lists all runs, newest first.
func (db *DB) ListRuns() ([]*Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, completed_at, mode, baseline_name, success
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt string
		var completedAt *string
		var success int

		if err := rows.Scan(&run.ID, &startedAt, &completedAt, &run.Mode,
			&run.BaselineName, &success); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt != nil {
			t, _ := time.Parse(time.RFC3339, *completedAt)
			run.CompletedAt = &t
		}
		run.Success = success != 0
		runs = append(runs, &run)
	}

	return runs, nil
}

// ListCaseResults lists all case outcomes for a run, insertion order.
func (db *DB) ListCaseResults(runID string) ([]*CaseResult, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, case_name, outcome, detail
		FROM case_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list case results: %w", err)
	}
	defer rows.Close()

	var results []*CaseResult
	for rows.Next() {
		var cr CaseResult
		if err := rows.Scan(&cr.ID, &cr.RunID, &cr.CaseName, &cr.Outcome, &cr.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan case result: %w", err)
		}
		results = append(results, &cr)
	}

	return results, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
