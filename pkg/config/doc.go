// Package config loads and validates the Saturn configuration.
//
// Configuration comes from a YAML file, with defaults applied for unset
// fields and environment variable overrides applied on top. Environment
// variables follow the SATURN_SECTION_FIELD convention, for example
// SATURN_GOVERNOR_COOLDOWN or SATURN_STORAGE_BACKEND.
//
// The Watcher reloads the file on change with debouncing, so a burst of
// editor writes produces one reload.
package config
