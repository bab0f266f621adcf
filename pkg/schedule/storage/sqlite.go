package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/saturn/pkg/schedule"
	"mercator-hq/saturn/pkg/tier"
)

// SQLiteStore implements schedule.Store using SQLite. The unique index
// on (provider, tier) makes GetOrCreate race-safe: a concurrent insert
// loses to the constraint and falls back to reading the winner's row.
type SQLiteStore struct {
	db *sql.DB
}

const scheduleSchema = `
CREATE TABLE IF NOT EXISTS rotation_schedules (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	tier TEXT NOT NULL,
	cron_expr TEXT NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	last_run_at INTEGER NOT NULL DEFAULT 0,
	UNIQUE(provider, tier)
);
`

// NewSQLiteStore opens (or creates) a SQLite schedule store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(scheduleSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// GetOrCreate inserts the prototype unless the group already has a
// schedule, then reads back whichever row won.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, proto *schedule.Schedule) (*schedule.Schedule, bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO rotation_schedules (id, provider, tier, cron_expr, enabled, created_at, last_run_at)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(provider, tier) DO NOTHING
	`, proto.ID, proto.Provider, proto.Tier.String(), proto.CronExpr, boolToInt(proto.Enabled), proto.CreatedAt.Unix())
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert schedule: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	sched, err := s.Get(ctx, proto.Provider, proto.Tier)
	if err != nil {
		return nil, false, err
	}
	if sched == nil {
		return nil, false, fmt.Errorf("schedule vanished after insert for %s/%s", proto.Provider, proto.Tier)
	}
	return sched, inserted > 0, nil
}

// Get returns the group's schedule, or nil.
func (s *SQLiteStore) Get(ctx context.Context, provider string, t tier.Tier) (*schedule.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, tier, cron_expr, enabled, created_at, last_run_at
		FROM rotation_schedules WHERE provider = ? AND tier = ?
	`, provider, t.String())
	return scanSchedule(row)
}

// List returns all schedules in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]*schedule.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, tier, cron_expr, enabled, created_at, last_run_at
		FROM rotation_schedules ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var out []*schedule.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	return out, rows.Err()
}

// SetEnabled flips the enabled flag.
func (s *SQLiteStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE rotation_schedules SET enabled = ? WHERE id = ?
	`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("failed to toggle schedule: %w", err)
	}
	return requireAffected(result)
}

// MarkRun stamps the last run time.
func (s *SQLiteStore) MarkRun(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE rotation_schedules SET last_run_at = ? WHERE id = ?
	`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to stamp schedule run: %w", err)
	}
	return requireAffected(result)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*schedule.Schedule, error) {
	var (
		sched     schedule.Schedule
		tierName  string
		enabled   int
		createdAt int64
		lastRunAt int64
	)

	err := row.Scan(&sched.ID, &sched.Provider, &tierName, &sched.CronExpr, &enabled, &createdAt, &lastRunAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}

	sched.Tier = tier.Tier(tierName)
	sched.Enabled = enabled != 0
	sched.CreatedAt = time.Unix(createdAt, 0).UTC()
	if lastRunAt != 0 {
		sched.LastRunAt = time.Unix(lastRunAt, 0).UTC()
	}
	return &sched, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
