// Package journal keeps a SQLite log of executed triggers.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"folderwatch/pkg/watch"
)

const schema = `
CREATE TABLE IF NOT EXISTS triggers (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	path       TEXT NOT NULL,
	change     TEXT NOT NULL DEFAULT '',
	commands   TEXT NOT NULL DEFAULT '[]',
	launched   INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_triggers_path ON triggers(path);
`

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Row is one recorded trigger.
type Row struct {
	ID        int64
	Path      string
	Change    string
	Commands  []string
	Launched  int
	Failed    int
	CreatedAt time.Time
}

// QueryOpts filters Query.
type QueryOpts struct {
	// Path restricts rows to one watched directory.
	Path string
	// After keeps rows created at or after this time.
	After *time.Time
	// Limit caps the result (0 = no limit).
	Limit int
}

// Journal records triggers. It implements watch.Journal.
type Journal struct {
	db *sql.DB
}

var _ watch.Journal = (*Journal)(nil)

// Open opens or creates the journal at path with WAL and a busy timeout.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps :memory: databases shared across queries.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s on %s: %w", pragma, path, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// OpenExisting opens a journal that must already exist. It is used by
// read-only commands so a typo in --journal does not create a new file.
func OpenExisting(path string) (*Journal, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("journal not found: %w", err)
	}
	return Open(path)
}

// Close releases the database. Safe to call more than once.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Record inserts one trigger.
func (j *Journal) Record(ctx context.Context, rec watch.TriggerRecord) error {
	if j.db == nil {
		return errors.New("journal closed")
	}
	commands, err := json.Marshal(nonNil(rec.Commands))
	if err != nil {
		return fmt.Errorf("encode commands: %w", err)
	}
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO triggers (path, change, commands, launched, failed, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.Change, string(commands), rec.Launched, rec.Failed, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert trigger: %w", err)
	}
	return nil
}

// Recent returns the newest limit rows, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Row, error) {
	return j.Query(ctx, QueryOpts{Limit: limit})
}

// Query returns rows matching opts, newest first. No match yields an empty
// slice.
func (j *Journal) Query(ctx context.Context, opts QueryOpts) ([]Row, error) {
	if j.db == nil {
		return nil, errors.New("journal closed")
	}
	query, args := buildQuery(opts)
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query triggers: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var r Row
		var commands, createdAt string
		if err := rows.Scan(&r.ID, &r.Path, &r.Change, &commands, &r.Launched, &r.Failed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan trigger: %w", err)
		}
		if err := json.Unmarshal([]byte(commands), &r.Commands); err != nil {
			return nil, fmt.Errorf("decode commands of trigger %d: %w", r.ID, err)
		}
		r.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of trigger %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triggers: %w", err)
	}
	return out, nil
}

// Count returns the number of recorded triggers.
func (j *Journal) Count(ctx context.Context) (int, error) {
	if j.db == nil {
		return 0, errors.New("journal closed")
	}
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triggers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count triggers: %w", err)
	}
	return n, nil
}

func buildQuery(opts QueryOpts) (string, []any) {
	var conditions []string
	var args []any

	query := "SELECT id, path, change, commands, launched, failed, created_at FROM triggers"
	if opts.Path != "" {
		conditions = append(conditions, "path = ?")
		args = append(args, opts.Path)
	}
	if opts.After != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.After.UTC().Format(timeLayout))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	return query, args
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
