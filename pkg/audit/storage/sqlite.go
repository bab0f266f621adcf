package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/saturn/pkg/audit"
)

// SQLiteConfig contains configuration for the SQLite audit backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/audit.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStorage implements audit.Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS rotation_audit (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	tier TEXT NOT NULL,
	old_credential_id TEXT NOT NULL DEFAULT '',
	new_credential_id TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	trigger_kind TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rotation_audit_time ON rotation_audit(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_rotation_audit_group ON rotation_audit(provider, tier);
`

// NewSQLiteStorage opens (or creates) the SQLite audit trail.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	dsn := config.Path
	if config.WALMode {
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d",
			config.Path, int(config.BusyTimeout.Milliseconds()))
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Append stores one entry.
func (s *SQLiteStorage) Append(ctx context.Context, entry *audit.RotationEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rotation_audit (
			id, provider, tier, old_credential_id, new_credential_id,
			outcome, trigger_kind, notes, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.Provider, entry.Tier,
		entry.OldCredentialID, entry.NewCredentialID,
		string(entry.Outcome), string(entry.Trigger),
		entry.Notes, entry.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteStorage) Recent(ctx context.Context, limit int) ([]*audit.RotationEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, tier, old_credential_id, new_credential_id,
		       outcome, trigger_kind, notes, timestamp
		FROM rotation_audit
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var out []*audit.RotationEntry
	for rows.Next() {
		var (
			entry   audit.RotationEntry
			outcome string
			trigger string
			ts      int64
		)
		if err := rows.Scan(
			&entry.ID, &entry.Provider, &entry.Tier,
			&entry.OldCredentialID, &entry.NewCredentialID,
			&outcome, &trigger, &entry.Notes, &ts,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Outcome = audit.Outcome(outcome)
		entry.Trigger = audit.Trigger(trigger)
		entry.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
