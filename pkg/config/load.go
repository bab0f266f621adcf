package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified
// path, applies defaults, and validates the result. Environment
// variables are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	cfg.Schedule.Enabled = true
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigIfPresent behaves like LoadConfigWithEnvOverrides except
// that a missing file is not an error: the defaults apply, adjusted by
// environment overrides. This is the loader for the default config
// path, so a fresh checkout runs without writing a file first.
func LoadConfigIfPresent(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
		}
		return cfg, nil
	}
	return LoadConfigWithEnvOverrides(path)
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention SATURN_SECTION_FIELD (e.g., SATURN_GOVERNOR_COOLDOWN) and
// always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SATURN_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("SATURN_STORAGE_DATA_DIR"); val != "" {
		cfg.Storage.DataDir = val
	}

	if val := os.Getenv("SATURN_GOVERNOR_COOLDOWN"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Governor.Cooldown = d
		}
	}
	if val := os.Getenv("SATURN_GOVERNOR_CHECK_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Governor.CheckInterval = d
		}
	}

	if val := os.Getenv("SATURN_TIER_STANDARD_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Tier.StandardThreshold = f
		}
	}
	if val := os.Getenv("SATURN_TIER_FALLBACK_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Tier.FallbackThreshold = f
		}
	}
	if val := os.Getenv("SATURN_TIER_DEFAULT_PROVIDER"); val != "" {
		cfg.Tier.DefaultProvider = val
	}

	if val := os.Getenv("SATURN_AUDIT_ASYNC_BUFFER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.AsyncBuffer = i
		}
	}
	if val := os.Getenv("SATURN_AUDIT_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Audit.WriteTimeout = d
		}
	}

	if val := os.Getenv("SATURN_SEAL_MODE"); val != "" {
		cfg.Seal.Mode = val
	}
	if val := os.Getenv("SATURN_SEAL_KEY_FILE"); val != "" {
		cfg.Seal.KeyFile = val
	}

	if val := os.Getenv("SATURN_SCHEDULE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Schedule.Enabled = b
		}
	}
	if val := os.Getenv("SATURN_SCHEDULE_DEFAULT_CRON"); val != "" {
		cfg.Schedule.DefaultCron = val
	}

	if val := os.Getenv("SATURN_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("SATURN_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
}
