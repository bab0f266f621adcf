package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/saturn/pkg/credential"
	"mercator-hq/saturn/pkg/tier"
)

// SQLiteStore implements credential.Store using SQLite. Activation runs
// inside a transaction so the single-active invariant holds under
// concurrent rotation attempts.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteConfig configures the SQLite credential store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

const credentialSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	tier TEXT NOT NULL,
	name TEXT NOT NULL,
	sealed_secret BLOB NOT NULL,
	status TEXT NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 0,
	last_used_at INTEGER NOT NULL DEFAULT 0,
	activated_at INTEGER NOT NULL DEFAULT 0,
	added_by TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_credentials_group ON credentials(provider, tier);
CREATE INDEX IF NOT EXISTS idx_credentials_status ON credentials(status);
`

// NewSQLiteStore opens (or creates) a SQLite credential store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens a SQLite credential store with custom
// settings.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(credentialSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

const credentialColumns = `
	id, provider, tier, name, sealed_secret, status,
	usage_count, last_used_at, activated_at, added_by, created_at
`

// Add inserts a new credential. The rowid orders rotation candidates.
func (s *SQLiteStore) Add(ctx context.Context, cred *credential.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		cred.ID, cred.Provider, cred.Tier.String(), cred.Name, cred.SealedSecret,
		string(cred.Status), cred.UsageCount, unixOrZero(cred.LastUsedAt),
		unixOrZero(cred.ActivatedAt), cred.AddedBy, cred.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

// Get returns a credential by ID, or nil.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*credential.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials WHERE id = ?
	`, id)
	return scanCredential(row)
}

// Active returns the ACTIVE credential in the group, or nil.
func (s *SQLiteStore) Active(ctx context.Context, provider string, t tier.Tier) (*credential.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials
		WHERE provider = ? AND tier = ? AND status = ?
		LIMIT 1
	`, provider, t.String(), string(credential.StatusActive))
	return scanCredential(row)
}

// NextForRotation returns the oldest PENDING/INACTIVE credential in the
// group, or nil.
func (s *SQLiteStore) NextForRotation(ctx context.Context, provider string, t tier.Tier) (*credential.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials
		WHERE provider = ? AND tier = ? AND status IN (?, ?)
		ORDER BY rowid ASC
		LIMIT 1
	`, provider, t.String(), string(credential.StatusPending), string(credential.StatusInactive))
	return scanCredential(row)
}

// Activate flips the group inside one transaction: fetch target, demote
// the active sibling, promote the target.
func (s *SQLiteStore) Activate(ctx context.Context, id string, at time.Time) (*credential.Credential, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	target, err := scanCredential(tx.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials WHERE id = ?
	`, id))
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, credential.ErrNotFound
	}

	old, err := scanCredential(tx.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials
		WHERE provider = ? AND tier = ? AND status = ? AND id != ?
		LIMIT 1
	`, target.Provider, target.Tier.String(), string(credential.StatusActive), id))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE credentials SET status = ?
		WHERE provider = ? AND tier = ? AND id != ?
	`, string(credential.StatusInactive), target.Provider, target.Tier.String(), id); err != nil {
		return nil, fmt.Errorf("failed to deactivate siblings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE credentials SET status = ?, activated_at = ? WHERE id = ?
	`, string(credential.StatusActive), at.Unix(), id); err != nil {
		return nil, fmt.Errorf("failed to activate credential: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit activation: %w", err)
	}
	return old, nil
}

// RecordUse increments usage in the database, so concurrent calls cannot
// lose counts.
func (s *SQLiteStore) RecordUse(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE credentials
		SET usage_count = usage_count + 1, last_used_at = ?
		WHERE id = ?
	`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to record use: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return credential.ErrNotFound
	}
	return nil
}

// List returns credentials in insertion order, filtered by provider and
// tier; empty values match everything.
func (s *SQLiteStore) List(ctx context.Context, provider string, t tier.Tier) ([]*credential.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials
		WHERE (? = '' OR provider = ?) AND (? = '' OR tier = ?)
		ORDER BY rowid ASC
	`, provider, provider, t.String(), t.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var out []*credential.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

// ProvidersWithTier returns distinct providers holding the tier.
func (s *SQLiteStore) ProvidersWithTier(ctx context.Context, t tier.Tier) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT provider FROM credentials WHERE tier = ? ORDER BY provider
	`, t.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// Remove deletes the credential record.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return credential.ErrNotFound
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*credential.Credential, error) {
	var (
		cred        credential.Credential
		tierName    string
		status      string
		lastUsedAt  int64
		activatedAt int64
		createdAt   int64
	)

	err := row.Scan(
		&cred.ID, &cred.Provider, &tierName, &cred.Name, &cred.SealedSecret,
		&status, &cred.UsageCount, &lastUsedAt, &activatedAt, &cred.AddedBy, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	cred.Tier = tier.Tier(tierName)
	cred.Status = credential.Status(status)
	cred.LastUsedAt = timeOrZero(lastUsedAt)
	cred.ActivatedAt = timeOrZero(activatedAt)
	cred.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &cred, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}
