package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// failingStorage rejects every append.
type failingStorage struct{}

func (failingStorage) Append(ctx context.Context, entry *RotationEntry) error {
	return errors.New("disk on fire")
}

func (failingStorage) Recent(ctx context.Context, limit int) ([]*RotationEntry, error) {
	return nil, nil
}

func (failingStorage) Close() error { return nil }

// captureStorage records appends in memory for assertions.
type captureStorage struct {
	mu      sync.Mutex
	entries []*RotationEntry
}

func (s *captureStorage) Append(ctx context.Context, entry *RotationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *captureStorage) Recent(ctx context.Context, limit int) ([]*RotationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*RotationEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *captureStorage) Close() error { return nil }

func (s *captureStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestRecorder_WritesAndDrainsOnClose(t *testing.T) {
	store := &captureStorage{}
	rec := NewRecorder(store, nil)

	for i := 0; i < 5; i++ {
		rec.Record(&RotationEntry{
			Provider: "openai",
			Tier:     "fallback",
			Outcome:  OutcomeSuccess,
			Trigger:  TriggerCapExceeded,
		})
	}

	// Close must drain everything still buffered.
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if got := store.count(); got != 5 {
		t.Errorf("stored entries = %d, want 5", got)
	}

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.ID == "" {
			t.Error("entry should get a generated ID")
		}
		if e.Timestamp.IsZero() {
			t.Error("entry should get a timestamp")
		}
	}
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	store := &captureStorage{}
	rec := NewRecorder(store, nil)

	rec.Record(&RotationEntry{
		Provider: "openai",
		Tier:     "fallback",
		Outcome:  OutcomeSuccess,
		Trigger:  TriggerManual,
	})

	// A test helper may close to drain while a cleanup hook closes
	// again on teardown; the second call must be a harmless no-op.
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if got := store.count(); got != 1 {
		t.Errorf("stored entries = %d, want 1", got)
	}
}

func TestRecorder_BestEffortOnStorageFailure(t *testing.T) {
	rec := NewRecorder(failingStorage{}, &Config{AsyncBuffer: 4, WriteTimeout: time.Second})

	// Record must not panic, block, or surface the storage error.
	rec.Record(&RotationEntry{
		Provider: "openai",
		Tier:     "fallback",
		Outcome:  OutcomeFailed,
		Trigger:  TriggerManual,
		Notes:    "no candidate available",
	})

	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRecorder_DropsWhenBufferFull(t *testing.T) {
	store := &captureStorage{}
	rec := NewRecorder(store, &Config{AsyncBuffer: 1, WriteTimeout: time.Second})

	// Flood well past the buffer; Record must never block the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			rec.Record(&RotationEntry{Provider: "p", Tier: "fallback", Outcome: OutcomeSuccess, Trigger: TriggerScheduled})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	rec.Close()
}
