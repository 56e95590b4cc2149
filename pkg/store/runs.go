package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antiwork/shortest/pkg/run"
	"github.com/antiwork/shortest/pkg/types"
	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultDirMode  = 0o755
	defaultFileMode = 0o600

	// RunsFileName is the database file inside the cache directory.
	RunsFileName = "runs.db"

	// ResultsDirName holds the reports of the latest test run.
	ResultsDirName = "results"
)

// RunRepository stores finished test runs.
type RunRepository interface {
	SaveTestRun(ctx context.Context, rec run.Record) error
	LatestPassed(ctx context.Context, testKey string) (run.Record, bool, error)
	ListRuns(ctx context.Context, testKey string, limit int) ([]run.Record, error)
	Close() error
}

// SQLiteRunStore is a RunRepository backed by a single sqlite file.
type SQLiteRunStore struct {
	db   *sql.DB
	path string
}

var _ RunRepository = (*SQLiteRunStore)(nil)

// OpenSQLite opens (creating if needed) the run database at path.
func OpenSQLite(path string) (*SQLiteRunStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("run store: db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("run store: create dir: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("run store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteRunStore{db: db, path: path}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := os.Chmod(path, defaultFileMode); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInCacheDir opens the run database of a cache directory.
func OpenInCacheDir(cacheDir string) (*SQLiteRunStore, error) {
	return OpenSQLite(filepath.Join(cacheDir, RunsFileName))
}

// ResultsDir returns the report directory of a cache directory.
func ResultsDir(cacheDir string) string {
	return filepath.Join(cacheDir, ResultsDirName)
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteRunStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS test_runs (
			id TEXT PRIMARY KEY,
			test_key TEXT NOT NULL,
			test_name TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL,
			steps_json TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL,
			from_cache INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_test_runs_key_finished
			ON test_runs(test_key, finished_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("run store: migrate: %w", err)
		}
	}
	return nil
}

// SaveTestRun inserts or replaces a run record.
func (s *SQLiteRunStore) SaveTestRun(ctx context.Context, rec run.Record) error {
	if rec.ID == "" {
		return errors.New("run store: run id is required")
	}
	if rec.TestKey == "" {
		return errors.New("run store: test key is required")
	}

	steps := rec.Steps
	if steps == nil {
		steps = []types.Step{}
	}
	stepsJSON, err := json.MarshalToString(steps)
	if err != nil {
		return fmt.Errorf("run store: encode steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO test_runs (
			id, test_key, test_name, status, reason, steps_json,
			prompt_tokens, completion_tokens, total_tokens, from_cache, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			reason=excluded.reason,
			steps_json=excluded.steps_json,
			prompt_tokens=excluded.prompt_tokens,
			completion_tokens=excluded.completion_tokens,
			total_tokens=excluded.total_tokens,
			from_cache=excluded.from_cache,
			finished_at=excluded.finished_at
	`, rec.ID, rec.TestKey, rec.TestName, string(rec.Status), rec.Reason, stepsJSON,
		rec.Usage.PromptTokens, rec.Usage.CompletionTokens, rec.Usage.TotalTokens,
		boolToInt(rec.FromCache), rec.StartedAt.UTC(), rec.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("run store: save run %s: %w", rec.ID, err)
	}
	return nil
}

// LatestPassed returns the most recent passing run of testKey that was
// executed by the model, not replayed from cache.
func (s *SQLiteRunStore) LatestPassed(ctx context.Context, testKey string) (run.Record, bool, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns+`
		WHERE test_key = ? AND status = ? AND from_cache = 0
		ORDER BY finished_at DESC
		LIMIT 1`, testKey, string(run.StatusPassed))
	if err != nil {
		return run.Record{}, false, fmt.Errorf("run store: query: %w", err)
	}
	records, err := scanRuns(rows)
	if err != nil {
		return run.Record{}, false, err
	}
	if len(records) == 0 {
		return run.Record{}, false, nil
	}
	return records[0], true, nil
}

// ListRuns returns the runs of testKey, newest first. An empty key lists
// every test; a non-positive limit returns everything.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, testKey string, limit int) ([]run.Record, error) {
	query := selectRuns
	var args []interface{}
	if testKey != "" {
		query += ` WHERE test_key = ?`
		args = append(args, testKey)
	}
	query += ` ORDER BY finished_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("run store: query: %w", err)
	}
	return scanRuns(rows)
}

const selectRuns = `
	SELECT id, test_key, test_name, status, reason, steps_json,
		prompt_tokens, completion_tokens, total_tokens, from_cache, started_at, finished_at
	FROM test_runs`

func scanRuns(rows *sql.Rows) ([]run.Record, error) {
	defer rows.Close()

	var out []run.Record
	for rows.Next() {
		var (
			rec        run.Record
			status     string
			stepsJSON  string
			fromCache  int
			startedAt  time.Time
			finishedAt time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.TestKey, &rec.TestName, &status, &rec.Reason, &stepsJSON,
			&rec.Usage.PromptTokens, &rec.Usage.CompletionTokens, &rec.Usage.TotalTokens,
			&fromCache, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("run store: scan: %w", err)
		}
		if err := json.UnmarshalFromString(stepsJSON, &rec.Steps); err != nil {
			return nil, fmt.Errorf("run store: decode steps of %s: %w", rec.ID, err)
		}
		rec.Status = run.Status(status)
		rec.FromCache = fromCache != 0
		rec.StartedAt = startedAt
		rec.FinishedAt = finishedAt
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run store: rows: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
