package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"mercator-hq/saturn/pkg/audit"
	auditstorage "mercator-hq/saturn/pkg/audit/storage"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/credential"
	credstorage "mercator-hq/saturn/pkg/credential/storage"
	"mercator-hq/saturn/pkg/governor"
	"mercator-hq/saturn/pkg/schedule"
	schedstorage "mercator-hq/saturn/pkg/schedule/storage"
	"mercator-hq/saturn/pkg/seal"
	"mercator-hq/saturn/pkg/spend"
	spendstorage "mercator-hq/saturn/pkg/spend/storage"
	"mercator-hq/saturn/pkg/tier"
)

// app wires the configured storage backends and components together for
// one command invocation.
type app struct {
	cfg       *config.Config
	ledger    *spend.Ledger
	pool      *credential.Pool
	recorder  *audit.Recorder
	trail     audit.Storage
	schedules *schedule.Manager
	governor  *governor.Governor

	closers []io.Closer
}

// newApp loads configuration and assembles the component graph.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	setupLogging(cfg)

	a := &app{cfg: cfg}

	sealer, err := buildSealer(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Storage.Backend {
	case "memory":
		a.ledger = spend.NewLedger(spendstorage.NewMemoryStore())
		a.pool = credential.NewPool(credstorage.NewMemoryStore(), sealer)
		a.trail = auditstorage.NewMemoryStorage()
		a.schedules = schedule.NewManager(schedstorage.NewMemoryStore())

	case "sqlite":
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		spendStore, err := spendstorage.NewSQLiteStore(filepath.Join(cfg.Storage.DataDir, "spend.db"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, spendStore)
		a.ledger = spend.NewLedger(spendStore)

		credStore, err := credstorage.NewSQLiteStore(filepath.Join(cfg.Storage.DataDir, "credentials.db"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, credStore)
		a.pool = credential.NewPool(credStore, sealer)

		trail, err := auditstorage.NewSQLiteStorage(&auditstorage.SQLiteConfig{
			Path: filepath.Join(cfg.Storage.DataDir, "audit.db"),
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, trail)
		a.trail = trail

		schedStore, err := schedstorage.NewSQLiteStore(filepath.Join(cfg.Storage.DataDir, "schedules.db"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, schedStore)
		a.schedules = schedule.NewManager(schedStore)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	a.recorder = audit.NewRecorder(a.trail, &audit.Config{
		AsyncBuffer:  cfg.Audit.AsyncBuffer,
		WriteTimeout: cfg.Audit.WriteTimeout,
	})
	a.closers = append(a.closers, a.recorder)

	a.governor = governor.New(
		a.ledger,
		tier.NewPolicy(cfg.Tier),
		a.pool,
		a.recorder,
		governor.Config{Cooldown: cfg.Governor.Cooldown},
	)

	return a, nil
}

// loadConfig reads the configuration file. A missing file at the
// default path means "run on defaults"; a path passed explicitly with
// --config must exist.
func loadConfig() (*config.Config, error) {
	if rootCmd.PersistentFlags().Changed("config") {
		return config.LoadConfigWithEnvOverrides(cfgFile)
	}
	return config.LoadConfigIfPresent(cfgFile)
}

// Close shuts components down in reverse construction order, draining
// the audit recorder before its storage closes.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}
	a.closers = nil
}

// buildSealer constructs the credential sealer from configuration.
func buildSealer(cfg *config.Config) (seal.Sealer, error) {
	switch cfg.Seal.Mode {
	case "plaintext":
		return seal.Plaintext{}, nil
	case "aesgcm":
		key, err := os.ReadFile(cfg.Seal.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read seal key: %w", err)
		}
		return seal.NewAESGCM(key)
	default:
		return nil, fmt.Errorf("unknown seal mode %q", cfg.Seal.Mode)
	}
}

// setupLogging configures the process-wide slog default.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
