package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/saturn/pkg/spend"
)

// SQLiteStore implements spend.Store using SQLite. It is suitable for
// single-instance deployments where spend must survive restarts.
//
// Increments are performed with an upsert that adds to the existing row
// inside the database, so concurrent AddCost calls cannot lose updates.
type SQLiteStore struct {
	db *sql.DB

	setCapStmt    *sql.Stmt
	activeCapStmt *sql.Stmt
	addCostStmt   *sql.Stmt
	recordStmt    *sql.Stmt
}

// SQLiteConfig configures the SQLite spend store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

const spendSchema = `
CREATE TABLE IF NOT EXISTS spend_caps (
	id TEXT PRIMARY KEY,
	amount_cents INTEGER NOT NULL,
	active INTEGER NOT NULL,
	created_by TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_spend_caps_active ON spend_caps(active);

CREATE TABLE IF NOT EXISTS spend_records (
	month TEXT PRIMARY KEY,
	total_cents INTEGER NOT NULL DEFAULT 0,
	llm_cents INTEGER NOT NULL DEFAULT 0,
	tts_cents INTEGER NOT NULL DEFAULT 0,
	total_requests INTEGER NOT NULL DEFAULT 0,
	llm_requests INTEGER NOT NULL DEFAULT 0,
	tts_requests INTEGER NOT NULL DEFAULT 0
);
`

// NewSQLiteStore opens (or creates) a SQLite spend store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens a SQLite spend store with custom settings.
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

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}

	if _, err := db.Exec(spendSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.setCapStmt, err = s.db.Prepare(`
		INSERT INTO spend_caps (id, amount_cents, active, created_by, created_at)
		VALUES (?, ?, 1, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cap insert: %w", err)
	}

	s.activeCapStmt, err = s.db.Prepare(`
		SELECT id, amount_cents, created_by, created_at
		FROM spend_caps
		WHERE active = 1
		ORDER BY created_at DESC
		LIMIT 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cap select: %w", err)
	}

	s.addCostStmt, err = s.db.Prepare(`
		INSERT INTO spend_records (
			month, total_cents, llm_cents, tts_cents,
			total_requests, llm_requests, tts_requests
		) VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (month) DO UPDATE SET
			total_cents = total_cents + excluded.total_cents,
			llm_cents = llm_cents + excluded.llm_cents,
			tts_cents = tts_cents + excluded.tts_cents,
			total_requests = total_requests + 1,
			llm_requests = llm_requests + excluded.llm_requests,
			tts_requests = tts_requests + excluded.tts_requests
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cost upsert: %w", err)
	}

	s.recordStmt, err = s.db.Prepare(`
		SELECT month, total_cents, llm_cents, tts_cents,
		       total_requests, llm_requests, tts_requests
		FROM spend_records
		WHERE month = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record select: %w", err)
	}

	return nil
}

// SetCap activates the cap and deactivates all others in one transaction.
func (s *SQLiteStore) SetCap(ctx context.Context, c *spend.Cap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE spend_caps SET active = 0 WHERE active = 1`); err != nil {
		return fmt.Errorf("failed to deactivate previous caps: %w", err)
	}

	if _, err := tx.StmtContext(ctx, s.setCapStmt).ExecContext(ctx,
		c.ID, c.AmountCents, c.CreatedBy, c.CreatedAt.Unix(),
	); err != nil {
		return fmt.Errorf("failed to insert cap: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cap: %w", err)
	}
	return nil
}

// ActiveCap returns the active cap, or nil if none is configured.
func (s *SQLiteStore) ActiveCap(ctx context.Context) (*spend.Cap, error) {
	var (
		c         spend.Cap
		createdAt int64
	)

	err := s.activeCapStmt.QueryRowContext(ctx).Scan(
		&c.ID, &c.AmountCents, &c.CreatedBy, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active cap: %w", err)
	}

	c.Active = true
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}

// AddCost upserts the month row, incrementing counters in the database.
func (s *SQLiteStore) AddCost(ctx context.Context, month string, category spend.Category, amountCents int64) error {
	var llmCents, ttsCents, llmReq, ttsReq int64
	switch category {
	case spend.CategoryLLM:
		llmCents, llmReq = amountCents, 1
	case spend.CategoryTTS:
		ttsCents, ttsReq = amountCents, 1
	}

	_, err := s.addCostStmt.ExecContext(ctx,
		month, amountCents, llmCents, ttsCents, llmReq, ttsReq,
	)
	if err != nil {
		return fmt.Errorf("failed to add cost: %w", err)
	}
	return nil
}

// Record returns the record for a month, or nil if absent.
func (s *SQLiteStore) Record(ctx context.Context, month string) (*spend.Record, error) {
	var record spend.Record

	err := s.recordStmt.QueryRowContext(ctx, month).Scan(
		&record.Month, &record.TotalCents, &record.LLMCents, &record.TTSCents,
		&record.TotalRequests, &record.LLMRequests, &record.TTSRequests,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	return &record, nil
}

// Close releases prepared statements and the database handle.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.setCapStmt, s.activeCapStmt, s.addCostStmt, s.recordStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}
