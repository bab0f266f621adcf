package config

import (
	"time"

	"mercator-hq/saturn/pkg/tier"
)

// Config is the root configuration structure for Saturn. It contains
// all configuration sections for spend tracking, tier policy, the
// rotation governor, credential sealing, storage, and logging.
type Config struct {
	// Storage selects and locates the persistence backend shared by the
	// spend ledger, credential pool, audit trail, and schedules.
	Storage StorageConfig `yaml:"storage"`

	// Governor contains the rotation governor settings.
	Governor GovernorConfig `yaml:"governor"`

	// Tier contains the tier policy thresholds and model tables.
	Tier tier.Config `yaml:"tier"`

	// Audit contains the audit recorder settings.
	Audit AuditConfig `yaml:"audit"`

	// Seal contains the credential sealing settings.
	Seal SealConfig `yaml:"seal"`

	// Schedule contains the rotation schedule runner settings.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Logging contains structured logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// DataDir is the directory holding the SQLite database files.
	// Default: "data"
	DataDir string `yaml:"data_dir"`
}

// GovernorConfig contains rotation governor settings.
type GovernorConfig struct {
	// Cooldown is the minimum interval between cap-triggered fallback
	// rotations.
	// Default: 5m
	Cooldown time.Duration `yaml:"cooldown"`

	// CheckInterval is how often the periodic cap check runs. Zero
	// disables the periodic check; cost events still trigger checks.
	// Default: 1m
	CheckInterval time.Duration `yaml:"check_interval"`
}

// AuditConfig contains audit recorder settings.
type AuditConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 256
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing one entry to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SealConfig contains credential sealing settings.
type SealConfig struct {
	// Mode is "aesgcm" or "plaintext". Plaintext stores secrets
	// unencrypted and is intended for development only.
	// Default: "aesgcm"
	Mode string `yaml:"mode"`

	// KeyFile is the path to the 32-byte sealing key. Required when
	// Mode is "aesgcm".
	KeyFile string `yaml:"key_file"`
}

// ScheduleConfig contains rotation schedule runner settings.
type ScheduleConfig struct {
	// Enabled starts the schedule runner.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// DefaultCron is the cron expression assigned to newly created
	// schedules.
	// Default: "0 0 1 * *" (monthly)
	DefaultCron string `yaml:"default_cron"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}
