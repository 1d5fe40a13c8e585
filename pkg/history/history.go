// Package history keeps generated validation reports in a SQLite database so
// a solution's score can be tracked across edits.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ormasoftchile/meshcheck/pkg/report"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by Get when no report has the requested id.
var ErrNotFound = errors.New("report not found")

// DefaultLimit caps List when the caller passes a non-positive limit.
const DefaultLimit = 20

// timeLayout is fixed width so generated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded report, newest first in List results.
type Entry struct {
	ID          string        `json:"id"`
	SolutionID  string        `json:"solution_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Status      report.Status `json:"status"`
	Score       int           `json:"score"`
	Errors      int           `json:"errors"`
	Warnings    int           `json:"warnings"`
	Info        int           `json:"info"`
	Digest      string        `json:"digest,omitempty"`
}

// DB is a report history database.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// pending migrations.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Single connection: SQLite serialises writers.
	conn.SetMaxOpenConns(1)
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Close closes the database.
func (db *DB) Close() error { return db.conn.Close() }

// Record stores r. digest identifies the solution snapshot the report was
// generated from and may be empty.
func (db *DB) Record(ctx context.Context, r *report.Report, digest string) error {
	if r == nil || r.ID == "" {
		return errors.New("record: report has no id")
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	s := r.Summary
	_, err = db.conn.ExecContext(ctx, `
INSERT INTO reports(id, solution_id, generated_at, status, score, errors, warnings, info, body, digest)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SolutionID, r.GeneratedAt.UTC().Format(timeLayout),
		string(s.Status), s.Score, s.Errors, s.Warnings, s.Info, string(body), digest)
	if err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	return nil
}

// List returns up to limit entries for solutionID, newest first.
func (db *DB) List(ctx context.Context, solutionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
SELECT id, solution_id, generated_at, status, score, errors, warnings, info, digest
FROM reports WHERE solution_id = ?
ORDER BY generated_at DESC, rowid DESC
LIMIT ?`, solutionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", solutionID, err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.ID, &e.SolutionID, &ts, &e.Status, &e.Score, &e.Errors, &e.Warnings, &e.Info, &e.Digest); err != nil {
			return nil, err
		}
		if e.GeneratedAt, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the full report stored under id.
func (db *DB) Get(ctx context.Context, id string) (*report.Report, error) {
	var body string
	err := db.conn.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var r report.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &r, nil
}

type migration struct {
	version int
	name    string
	up      string
}

func loadMigrations() ([]migration, error) {
	files, err := fs.ReadDir(migrationsFS, "sql")
	if err != nil {
		return nil, err
	}
	var out []migration
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := migrationsFS.ReadFile("sql/" + f.Name())
		if err != nil {
			return nil, err
		}
		var v int
		if _, err := fmt.Sscanf(f.Name(), "%d_", &v); err != nil {
			return nil, fmt.Errorf("invalid migration filename %s: %w", f.Name(), err)
		}
		out = append(out, migration{version: v, name: f.Name(), up: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// migrate applies embedded migrations newer than the recorded version in a
// single transaction.
func migrate(conn *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	var current int
	err = tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema_version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := tx.Exec(m.up); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, m.version); err != nil {
			return fmt.Errorf("update schema_version: %w", err)
		}
		current = m.version
	}
	return tx.Commit()
}
