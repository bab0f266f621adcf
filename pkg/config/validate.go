package config

import "fmt"

// Validate checks a configuration for inconsistent or unusable values.
func Validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be \"memory\" or \"sqlite\", got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required for the sqlite backend")
	}

	if cfg.Governor.Cooldown < 0 {
		return fmt.Errorf("governor.cooldown cannot be negative")
	}
	if cfg.Governor.CheckInterval < 0 {
		return fmt.Errorf("governor.check_interval cannot be negative")
	}

	if cfg.Tier.StandardThreshold <= 0 || cfg.Tier.StandardThreshold > 100 {
		return fmt.Errorf("tier.standard_threshold must be in (0, 100], got %v", cfg.Tier.StandardThreshold)
	}
	if cfg.Tier.FallbackThreshold < cfg.Tier.StandardThreshold {
		return fmt.Errorf("tier.fallback_threshold (%v) cannot be below tier.standard_threshold (%v)",
			cfg.Tier.FallbackThreshold, cfg.Tier.StandardThreshold)
	}

	if cfg.Audit.AsyncBuffer < 0 {
		return fmt.Errorf("audit.async_buffer cannot be negative")
	}

	switch cfg.Seal.Mode {
	case "aesgcm":
		if cfg.Seal.KeyFile == "" {
			return fmt.Errorf("seal.key_file is required when seal.mode is \"aesgcm\"")
		}
	case "plaintext":
	default:
		return fmt.Errorf("seal.mode must be \"aesgcm\" or \"plaintext\", got %q", cfg.Seal.Mode)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be \"json\" or \"text\", got %q", cfg.Logging.Format)
	}

	return nil
}
