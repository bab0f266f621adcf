package config

import "time"

// ApplyDefaults fills in default values for unset configuration fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}

	if cfg.Governor.Cooldown == 0 {
		cfg.Governor.Cooldown = 5 * time.Minute
	}
	if cfg.Governor.CheckInterval == 0 {
		cfg.Governor.CheckInterval = time.Minute
	}

	if cfg.Tier.StandardThreshold == 0 {
		cfg.Tier.StandardThreshold = 85
	}
	if cfg.Tier.FallbackThreshold == 0 {
		cfg.Tier.FallbackThreshold = 100
	}

	if cfg.Audit.AsyncBuffer == 0 {
		cfg.Audit.AsyncBuffer = 256
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = 5 * time.Second
	}

	// A configured key file implies sealed storage; without one the only
	// runnable default is plaintext.
	if cfg.Seal.Mode == "" {
		if cfg.Seal.KeyFile != "" {
			cfg.Seal.Mode = "aesgcm"
		} else {
			cfg.Seal.Mode = "plaintext"
		}
	}

	if cfg.Schedule.DefaultCron == "" {
		cfg.Schedule.DefaultCron = "0 0 1 * *"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// DefaultConfig returns a fully defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Schedule: ScheduleConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}
