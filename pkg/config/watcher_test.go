package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "seal:\n  mode: plaintext\nlogging:\n  level: info\n")

	watcher, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int64
	var lastLevel atomic.Value
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, func(cfg *Config) {
			lastLevel.Store(cfg.Logging.Level)
			reloads.Add(1)
		})
	}()
	defer watcher.Stop()

	// Give the watcher time to register the file.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(path, []byte("seal:\n  mode: plaintext\nlogging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("watcher never reloaded")
		case <-time.After(50 * time.Millisecond):
		}
	}

	if got := lastLevel.Load(); got != "debug" {
		t.Errorf("reloaded level = %v, want debug", got)
	}
}

func TestWatcher_KeepsConfigOnInvalidReload(t *testing.T) {
	path := writeConfig(t, "seal:\n  mode: plaintext\n")

	watcher, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, func(cfg *Config) {
			reloads.Add(1)
		})
	}()
	defer watcher.Stop()

	time.Sleep(200 * time.Millisecond)

	// Write a config that fails validation. The callback must not fire.
	if err := os.WriteFile(path, []byte("storage:\n  backend: redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	if reloads.Load() != 0 {
		t.Errorf("reloads = %d, want 0 for invalid config", reloads.Load())
	}
}
