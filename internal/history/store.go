package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"funbatch/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users clear the history database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database under the log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.path
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
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'funbatch history clear' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
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

// RecordRun stores a run and its items in a single transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scope, started_at, finished_at, total, skipped, succeeded, failed, errored)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Scope,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Total,
		run.Skipped,
		run.Succeeded,
		run.Failed,
		run.Errored,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_items (run_id, scene_id, video_path, outcome, exit_code, detail, sidecar_path, duration_ms)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			item.SceneID,
			item.VideoPath,
			item.Outcome,
			nullableInt(item.ExitCode),
			nullableString(item.Detail),
			nullableString(item.SidecarPath),
			item.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert run item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// below means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, scope, started_at, finished_at, total, skipped, succeeded, failed, errored
              FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recent run, or ok=false when no runs exist.
func (s *Store) LatestRun(ctx context.Context) (Run, bool, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return Run{}, false, err
	}
	if len(runs) == 0 {
		return Run{}, false, nil
	}
	return runs[0], true, nil
}

// RunItems returns the items of one run in insertion order.
func (s *Store) RunItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, scene_id, video_path, outcome, exit_code, detail, sidecar_path, duration_ms
         FROM run_items WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item        Item
			exitCode    sql.NullInt64
			detail      sql.NullString
			sidecarPath sql.NullString
			durationMS  int64
		)
		if err := rows.Scan(&item.RunID, &item.SceneID, &item.VideoPath, &item.Outcome,
			&exitCode, &detail, &sidecarPath, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			item.ExitCode = &code
		}
		item.Detail = detail.String
		item.SidecarPath = sidecarPath.String
		item.Duration = time.Duration(durationMS) * time.Millisecond
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run items: %w", err)
	}
	return items, nil
}

// Stats aggregates counts across all recorded runs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(total), 0),
                COALESCE(SUM(skipped), 0),
                COALESCE(SUM(succeeded), 0),
                COALESCE(SUM(failed), 0),
                COALESCE(SUM(errored), 0)
         FROM runs`,
	).Scan(&stats.Runs, &stats.Items, &stats.Skipped, &stats.Succeeded, &stats.Failed, &stats.Errored)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

// Clear removes all recorded runs and their items.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs"); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw string
	)
	if err := row.Scan(&run.ID, &run.Scope, &startedRaw, &finishedRaw,
		&run.Total, &run.Skipped, &run.Succeeded, &run.Failed, &run.Errored); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTimestamp(startedRaw)
	run.FinishedAt = parseTimestamp(finishedRaw)
	return run, nil
}

func parseTimestamp(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
