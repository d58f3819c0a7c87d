package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by an incompatible version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 20 * time.Millisecond
	busyRetryMaxBackoff     = 320 * time.Millisecond
)

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset history)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// BeginRun inserts a running run.
func (s *Store) BeginRun(ctx context.Context, runID string, startedAt time.Time, args string) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id required")
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (id, started_at, status, args) VALUES (?, ?, ?, ?)`,
			runID, formatTime(startedAt), RunRunning, nullableString(args),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// Record appends entries for a run in one transaction.
func (s *Store) Record(ctx context.Context, runID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO entries (run_id, file, category, asset, state, path, error, recorded_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare entry insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, entry := range entries {
			recorded := entry.RecordedAt
			if recorded.IsZero() {
				recorded = now
			}
			if _, err := stmt.ExecContext(ctx,
				runID, entry.File, entry.Category, entry.Asset, entry.State,
				nullableString(entry.Path), nullableString(entry.Error), formatTime(recorded),
			); err != nil {
				return fmt.Errorf("insert entry: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit entries: %w", err)
		}
		return nil
	})
}

// FinishRun stores the final counters and status of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, summary Summary) error {
	return retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE runs SET finished_at = ?, status = ?, files = ?, succeeded = ?, failed = ? WHERE id = ?`,
			formatTime(time.Now()), summary.Status, summary.Files, summary.Succeeded, summary.Failed, runID,
		)
		if err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

// RecentRuns returns the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, files, succeeded, failed, args
         FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started           string
			finished, argsCol sql.NullString
			status            string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &status, &run.Files, &run.Succeeded, &run.Failed, &argsCol); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = RunStatus(status)
		run.StartedAt = parseTime(started)
		if finished.Valid {
			t := parseTime(finished.String)
			run.FinishedAt = &t
		}
		run.Args = argsCol.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Entries returns the entries of a run in insertion order.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, file, category, asset, state, path, error, recorded_at
         FROM entries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry        Entry
			path, errCol sql.NullString
			recorded     string
		)
		if err := rows.Scan(&entry.RunID, &entry.File, &entry.Category, &entry.Asset, &entry.State, &path, &errCol, &recorded); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.Path = path.String
		entry.Error = errCol.String
		entry.RecordedAt = parseTime(recorded)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
