// Package history records analysis runs in a SQLite database inside the
// workspace so past verdicts can be listed and re-inspected.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/newhook/swereview/internal/logging"
	"github.com/newhook/swereview/internal/signal"
)

// ErrNotFound is returned by Get when no run has the id.
var ErrNotFound = errors.New("run not found")

// Run is one recorded analysis.
type Run struct {
	ID          string
	Path        string
	Instance    string
	Digest      string
	CreatedAt   time.Time
	Violated    []string // rule ids, e.g. "C1"
	Warnings    int
	HasProblems bool
	Report      string // JSON report
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppliedVersions lists the schema versions applied to the database.
func (s *Store) AppliedVersions(ctx context.Context) ([]string, error) {
	return AppliedVersions(ctx, s.db)
}

// Rollback reverts the most recent schema migration.
func (s *Store) Rollback(ctx context.Context) error {
	return Rollback(ctx, s.db)
}

// Record stores a run. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.Report == "" {
		run.Report = "{}"
	}

	err := signal.Critical(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO runs (id, path, instance, digest, created_at, violated, warnings, has_problems, report)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Path, run.Instance, run.Digest, run.CreatedAt.UnixNano(),
			strings.Join(run.Violated, ","), run.Warnings, boolInt(run.HasProblems), run.Report)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	logging.Debug("recorded run", "id", run.ID, "path", run.Path, "violated", run.Violated)
	return nil
}

// List returns the most recent runs first. A limit of zero or less returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, path, instance, digest, created_at, violated, warnings, has_problems, report
		FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get returns one run. An unambiguous id prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, instance, digest, created_at, violated, warnings, has_problems, report
		FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`, id, stripWildcards(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("ambiguous run id prefix %q", id)
	}
}

// Delete removes runs older than cutoff and returns how many were removed.
func (s *Store) Delete(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := signal.Critical(func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE created_at < ?", cutoff.UnixNano())
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run      Run
		created  int64
		violated string
		problems int
	)
	if err := sc.Scan(&run.ID, &run.Path, &run.Instance, &run.Digest, &created,
		&violated, &run.Warnings, &problems, &run.Report); err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(0, created)
	if violated != "" {
		run.Violated = strings.Split(violated, ",")
	}
	run.HasProblems = problems != 0
	return &run, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// stripWildcards removes LIKE metacharacters so a prefix matches literally.
func stripWildcards(s string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(s)
}
