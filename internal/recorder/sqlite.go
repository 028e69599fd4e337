package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"PriceSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run summaries to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL so the product store and the recorder can share the file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS check_runs (
			id          TEXT PRIMARY KEY,
			trigger_type TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			outcome     TEXT NOT NULL,
			total       INTEGER,
			checked     INTEGER,
			notified    INTEGER,
			skipped     INTEGER,
			failed      INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_check_runs_started ON check_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(rep *model.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errText string
	if rep.Err != nil {
		errText = rep.Err.Error()
	}
	_, err := r.db.Exec(`INSERT INTO check_runs
		(id, trigger_type, started_at, finished_at, outcome, total, checked, notified, skipped, failed, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rep.ID, string(rep.Trigger), rep.StartedAt.UnixMilli(), rep.FinishedAt.UnixMilli(),
		string(rep.Outcome), rep.Total, rep.Checked, rep.Notified, rep.Skipped, rep.Failed, errText,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, trigger_type, started_at, finished_at, outcome,
		total, checked, notified, skipped, failed, error
		FROM check_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var trigger, outcome string
		var errText sql.NullString
		if err := rows.Scan(&rec.ID, &trigger, &rec.StartedAt, &rec.FinishedAt, &outcome,
			&rec.Total, &rec.Checked, &rec.Notified, &rec.Skipped, &rec.Failed, &errText); err != nil {
			return nil, err
		}
		rec.Trigger = model.TriggerType(trigger)
		rec.Outcome = model.Outcome(outcome)
		rec.Error = errText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
