package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"mercator-hq/saturn/pkg/spend"
)

// storeFactories builds each backend fresh for conformance testing.
func storeFactories(t *testing.T) map[string]func(t *testing.T) spend.Store {
	t.Helper()
	return map[string]func(t *testing.T) spend.Store{
		"memory": func(t *testing.T) spend.Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) spend.Store {
			path := filepath.Join(t.TempDir(), "spend.db")
			store, err := NewSQLiteStore(path)
			if err != nil {
				t.Fatalf("failed to open sqlite store: %v", err)
			}
			return store
		},
	}
}

func TestStore_CapLifecycle(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			// No cap yet.
			active, err := store.ActiveCap(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if active != nil {
				t.Fatal("expected nil cap in empty store")
			}

			first := &spend.Cap{
				ID:          uuid.New().String(),
				AmountCents: 10000,
				CreatedBy:   "alice",
				CreatedAt:   time.Now().Truncate(time.Second),
			}
			if err := store.SetCap(ctx, first); err != nil {
				t.Fatal(err)
			}

			second := &spend.Cap{
				ID:          uuid.New().String(),
				AmountCents: 20000,
				CreatedBy:   "bob",
				CreatedAt:   time.Now().Add(time.Second).Truncate(time.Second),
			}
			if err := store.SetCap(ctx, second); err != nil {
				t.Fatal(err)
			}

			active, err = store.ActiveCap(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if active == nil {
				t.Fatal("expected an active cap")
			}
			if active.ID != second.ID {
				t.Errorf("active cap = %s, want %s", active.ID, second.ID)
			}
			if active.AmountCents != 20000 {
				t.Errorf("amount = %d, want 20000", active.AmountCents)
			}
			if !active.Active {
				t.Error("returned cap should be marked active")
			}
		})
	}
}

func TestStore_AddCostCreatesAndIncrements(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			// Absent month reads as nil.
			record, err := store.Record(ctx, "2026-01")
			if err != nil {
				t.Fatal(err)
			}
			if record != nil {
				t.Fatal("expected nil record for untouched month")
			}

			if err := store.AddCost(ctx, "2026-01", spend.CategoryLLM, 500); err != nil {
				t.Fatal(err)
			}
			if err := store.AddCost(ctx, "2026-01", spend.CategoryTTS, 250); err != nil {
				t.Fatal(err)
			}
			if err := store.AddCost(ctx, "2026-02", spend.CategoryLLM, 999); err != nil {
				t.Fatal(err)
			}

			record, err = store.Record(ctx, "2026-01")
			if err != nil {
				t.Fatal(err)
			}
			if record == nil {
				t.Fatal("expected record after cost events")
			}
			if record.TotalCents != 750 {
				t.Errorf("TotalCents = %d, want 750", record.TotalCents)
			}
			if record.LLMCents != 500 || record.TTSCents != 250 {
				t.Errorf("category cents = %d/%d, want 500/250", record.LLMCents, record.TTSCents)
			}
			if record.TotalRequests != 2 {
				t.Errorf("TotalRequests = %d, want 2", record.TotalRequests)
			}

			// Months are independent.
			other, err := store.Record(ctx, "2026-02")
			if err != nil {
				t.Fatal(err)
			}
			if other.TotalCents != 999 {
				t.Errorf("2026-02 TotalCents = %d, want 999", other.TotalCents)
			}
		})
	}
}

func TestStore_ConcurrentIncrements(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			var wg sync.WaitGroup
			numGoroutines := 10
			perGoroutine := 25

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						if err := store.AddCost(ctx, "2026-06", spend.CategoryLLM, 1); err != nil {
							t.Errorf("AddCost: %v", err)
						}
					}
				}()
			}
			wg.Wait()

			record, err := store.Record(ctx, "2026-06")
			if err != nil {
				t.Fatal(err)
			}
			expected := int64(numGoroutines * perGoroutine)
			if record.TotalCents != expected {
				t.Errorf("TotalCents = %d, want %d", record.TotalCents, expected)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spend.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AddCost(ctx, "2026-01", spend.CategoryLLM, 1234); err != nil {
		t.Fatal(err)
	}
	if err := store.SetCap(ctx, &spend.Cap{
		ID:          uuid.New().String(),
		AmountCents: 5000,
		CreatedBy:   "admin",
		CreatedAt:   time.Now(),
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	record, err := reopened.Record(ctx, "2026-01")
	if err != nil {
		t.Fatal(err)
	}
	if record == nil || record.TotalCents != 1234 {
		t.Errorf("record not persisted: %+v", record)
	}

	active, err := reopened.ActiveCap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.AmountCents != 5000 {
		t.Errorf("cap not persisted: %+v", active)
	}
}
