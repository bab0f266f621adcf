package schedule_test

import (
	"context"
	"testing"

	"mercator-hq/saturn/pkg/schedule"
	"mercator-hq/saturn/pkg/schedule/storage"
	"mercator-hq/saturn/pkg/tier"
)

func TestManager_GetOrCreateIdempotent(t *testing.T) {
	mgr := schedule.NewManager(storage.NewMemoryStore())
	ctx := context.Background()

	first, created, err := mgr.GetOrCreate(ctx, "openai", tier.TierPremium, "")
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("first call should create the schedule")
	}
	if first.CronExpr != schedule.DefaultCronExpr {
		t.Errorf("cron = %q, want default", first.CronExpr)
	}
	if !first.Enabled {
		t.Error("new schedules start enabled")
	}

	// Same group again: same schedule back, nothing created, and the
	// differing cron expression is ignored.
	second, created, err := mgr.GetOrCreate(ctx, "openai", tier.TierPremium, "0 3 * * *")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second call should not create a duplicate")
	}
	if second.ID != first.ID {
		t.Errorf("second ID = %s, want %s", second.ID, first.ID)
	}
	if second.CronExpr != first.CronExpr {
		t.Errorf("cron = %q, want original %q", second.CronExpr, first.CronExpr)
	}

	// A different tier for the same provider is a separate group.
	other, created, err := mgr.GetOrCreate(ctx, "openai", tier.TierFallback, "")
	if err != nil {
		t.Fatal(err)
	}
	if !created || other.ID == first.ID {
		t.Error("different tier should get its own schedule")
	}

	all, err := mgr.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("List = %d schedules, want 2", len(all))
	}
}

func TestManager_GetOrCreateValidation(t *testing.T) {
	mgr := schedule.NewManager(storage.NewMemoryStore())
	ctx := context.Background()

	if _, _, err := mgr.GetOrCreate(ctx, "", tier.TierPremium, ""); err == nil {
		t.Error("expected error for empty provider")
	}
	if _, _, err := mgr.GetOrCreate(ctx, "openai", tier.Tier("gold"), ""); err == nil {
		t.Error("expected error for unknown tier")
	}
	if _, _, err := mgr.GetOrCreate(ctx, "openai", tier.TierPremium, "not a cron"); err == nil {
		t.Error("expected error for bad cron expression")
	}
}

func TestManager_SetEnabledAndMarkRun(t *testing.T) {
	mgr := schedule.NewManager(storage.NewMemoryStore())
	ctx := context.Background()

	sched, _, err := mgr.GetOrCreate(ctx, "openai", tier.TierPremium, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := mgr.SetEnabled(ctx, sched.ID, false); err != nil {
		t.Fatal(err)
	}
	if err := mgr.MarkRun(ctx, sched.ID); err != nil {
		t.Fatal(err)
	}

	all, err := mgr.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all[0].Enabled {
		t.Error("schedule should be disabled")
	}
	if all[0].LastRunAt.IsZero() {
		t.Error("LastRunAt should be stamped")
	}

	if err := mgr.SetEnabled(ctx, "nope", true); err != schedule.ErrNotFound {
		t.Errorf("SetEnabled(missing) = %v, want ErrNotFound", err)
	}
}
