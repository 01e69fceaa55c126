// Package journal records engine operations in a SQLite database so runs
// can be inspected after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Entry is one recorded operation.
type Entry struct {
	ID         int64
	Session    string
	StartedAt  time.Time
	Op         string
	Input      string
	Result     string
	ResultKind string
	Error      string
	ErrorClass string
	Duration   time.Duration
}

// Failed reports whether the operation returned an error.
func (e Entry) Failed() bool { return e.Error != "" }

// OpSummary aggregates the entries of one operation.
type OpSummary struct {
	Op          string
	Calls       int
	Failures    int
	AvgDuration time.Duration
}

// Journal is a SQLite-backed operation log. It is safe for concurrent use.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the journal at path. ":memory:" gives a private
// in-memory journal.
func Open(path string) (*Journal, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record appends e and returns its row ID.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	res, err := j.db.ExecContext(ctx, `
		INSERT INTO operations (session, started_at, op, input, result, result_kind, error, error_class, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Session,
		e.StartedAt.UTC().Format(time.RFC3339Nano),
		e.Op,
		nullString(e.Input),
		nullString(e.Result),
		nullString(e.ResultKind),
		nullString(e.Error),
		nullString(e.ErrorClass),
		e.Duration.Microseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record %s: %w", e.Op, err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first. An empty session
// matches every session.
func (j *Journal) Recent(ctx context.Context, session string, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session, started_at, op, input, result, result_kind, error, error_class, duration_us
		FROM operations
		WHERE ? = '' OR session = ?
		ORDER BY id DESC
		LIMIT ?`, session, session, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt string
		var input, result, resultKind, errText, errClass sql.NullString
		var durationUS int64
		if err := rows.Scan(&e.ID, &e.Session, &startedAt, &e.Op, &input, &result, &resultKind, &errText, &errClass, &durationUS); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		e.Input = input.String
		e.Result = result.String
		e.ResultKind = resultKind.String
		e.Error = errText.String
		e.ErrorClass = errClass.String
		e.Duration = time.Duration(durationUS) * time.Microsecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary aggregates entries per operation, ordered by operation name.
func (j *Journal) Summary(ctx context.Context) ([]OpSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT op, COUNT(*), SUM(CASE WHEN error IS NULL THEN 0 ELSE 1 END), AVG(duration_us)
		FROM operations
		GROUP BY op
		ORDER BY op`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize journal: %w", err)
	}
	defer rows.Close()

	var out []OpSummary
	for rows.Next() {
		var (
			s     OpSummary
			avgUS float64
		)
		if err := rows.Scan(&s.Op, &s.Calls, &s.Failures, &avgUS); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		s.AvgDuration = time.Duration(avgUS) * time.Microsecond
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
