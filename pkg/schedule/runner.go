package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/saturn/pkg/audit"
	"mercator-hq/saturn/pkg/governor"
	"mercator-hq/saturn/pkg/tier"
)

// Rotator executes a single group rotation. Satisfied by the governor.
type Rotator interface {
	RotateTier(ctx context.Context, provider string, t tier.Tier, trigger audit.Trigger) (*governor.ProviderRotation, error)
}

// Runner executes enabled schedules as cron jobs.
type Runner struct {
	manager *Manager
	rotator Rotator
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewRunner creates a runner over the given manager and rotator.
func NewRunner(manager *Manager, rotator Rotator) *Runner {
	return &Runner{
		manager: manager,
		rotator: rotator,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "schedule.runner"),
	}
}

// Start registers every enabled schedule as a cron job and starts the
// scheduler. Stops automatically when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	schedules, err := r.manager.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	registered := 0
	for _, sched := range schedules {
		if !sched.Enabled {
			continue
		}
		sched := sched
		if _, err := r.cron.AddFunc(sched.CronExpr, func() {
			r.runRotation(ctx, sched)
		}); err != nil {
			return fmt.Errorf("failed to register schedule %s: %w", sched.ID, err)
		}
		registered++
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("schedule runner started",
		"schedules", registered,
	)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// runRotation executes one scheduled rotation.
func (r *Runner) runRotation(ctx context.Context, sched *Schedule) {
	r.logger.Info("running scheduled rotation",
		"schedule_id", sched.ID,
		"provider", sched.Provider,
		"tier", sched.Tier.String(),
	)

	rotation, err := r.rotator.RotateTier(ctx, sched.Provider, sched.Tier, audit.TriggerScheduled)
	if err != nil {
		r.logger.Error("scheduled rotation failed",
			"schedule_id", sched.ID,
			"provider", sched.Provider,
			"tier", sched.Tier.String(),
			"error", err,
		)
	} else {
		r.logger.Info("scheduled rotation completed",
			"schedule_id", sched.ID,
			"new_credential", rotation.NewCredentialID,
			"old_credential", rotation.OldCredentialID,
		)
	}

	if err := r.manager.MarkRun(ctx, sched.ID); err != nil {
		r.logger.Error("failed to stamp schedule run",
			"schedule_id", sched.ID,
			"error", err,
		)
	}
}

// Stop stops the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil && r.running {
		stopCtx := r.cron.Stop()
		<-stopCtx.Done()
		r.running = false
		r.logger.Info("schedule runner stopped")
	}
}

// IsRunning reports whether the runner is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the earliest next firing time across all registered
// schedules, or nil when nothing is scheduled.
func (r *Runner) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return &next
}
