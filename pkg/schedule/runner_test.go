package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/saturn/pkg/audit"
	"mercator-hq/saturn/pkg/governor"
	"mercator-hq/saturn/pkg/schedule"
	"mercator-hq/saturn/pkg/schedule/storage"
	"mercator-hq/saturn/pkg/tier"
)

type stubRotator struct {
	calls atomic.Int64
}

func (s *stubRotator) RotateTier(ctx context.Context, provider string, t tier.Tier, trigger audit.Trigger) (*governor.ProviderRotation, error) {
	s.calls.Add(1)
	return &governor.ProviderRotation{
		Provider:        provider,
		Tier:            t,
		NewCredentialID: "cred-1",
	}, nil
}

func TestRunner_ExecutesEnabledSchedules(t *testing.T) {
	mgr := schedule.NewManager(storage.NewMemoryStore())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched, _, err := mgr.GetOrCreate(ctx, "openai", tier.TierFallback, "@every 1s")
	if err != nil {
		t.Fatal(err)
	}

	// A disabled schedule must not be registered.
	disabled, _, err := mgr.GetOrCreate(ctx, "anthropic", tier.TierFallback, "@every 1s")
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.SetEnabled(ctx, disabled.ID, false); err != nil {
		t.Fatal(err)
	}

	rotator := &stubRotator{}
	runner := schedule.NewRunner(mgr, rotator)
	if err := runner.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer runner.Stop()

	if !runner.IsRunning() {
		t.Fatal("runner should be running after Start")
	}
	if runner.NextRun() == nil {
		t.Fatal("expected a next run time")
	}

	// Wait for the enabled schedule to fire and stamp its run.
	deadline := time.After(5 * time.Second)
	for {
		got, err := mgr.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		stamped := false
		for _, s := range got {
			if s.ID == sched.ID && !s.LastRunAt.IsZero() {
				stamped = true
			}
			if s.ID == disabled.ID && !s.LastRunAt.IsZero() {
				t.Fatal("disabled schedule must not fire")
			}
		}
		if stamped {
			break
		}
		select {
		case <-deadline:
			t.Fatal("schedule never fired")
		case <-time.After(100 * time.Millisecond):
		}
	}

	if rotator.calls.Load() == 0 {
		t.Error("rotator was never invoked")
	}

	runner.Stop()
	if runner.IsRunning() {
		t.Error("runner should stop")
	}
}
