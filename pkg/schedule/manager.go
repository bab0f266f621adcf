package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"mercator-hq/saturn/pkg/tier"
)

// ErrNotFound is returned when a schedule ID does not exist.
var ErrNotFound = errors.New("schedule not found")

// Manager wraps a Store with validation and logging.
type Manager struct {
	store  Store
	logger *slog.Logger

	// now is overridable in tests.
	now func() time.Time
}

// NewManager creates a schedule manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:  store,
		logger: slog.Default().With("component", "schedule.manager"),
		now:    time.Now,
	}
}

// GetOrCreate returns the schedule for a (provider, tier) group,
// creating one with the given cron expression if none exists. An empty
// cronExpr falls back to DefaultCronExpr. The boolean reports whether a
// new schedule was created.
func (m *Manager) GetOrCreate(ctx context.Context, provider string, t tier.Tier, cronExpr string) (*Schedule, bool, error) {
	if provider == "" {
		return nil, false, fmt.Errorf("provider is required")
	}
	if !t.Valid() {
		return nil, false, fmt.Errorf("unknown tier %q", t)
	}
	if cronExpr == "" {
		cronExpr = DefaultCronExpr
	}
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, false, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	proto := &Schedule{
		ID:        uuid.New().String(),
		Provider:  provider,
		Tier:      t,
		CronExpr:  cronExpr,
		Enabled:   true,
		CreatedAt: m.now(),
	}

	sched, created, err := m.store.GetOrCreate(ctx, proto)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create schedule: %w", err)
	}

	if created {
		m.logger.Info("rotation schedule created",
			"schedule_id", sched.ID,
			"provider", provider,
			"tier", t.String(),
			"cron", sched.CronExpr,
		)
	}

	return sched, created, nil
}

// List returns all schedules.
func (m *Manager) List(ctx context.Context) ([]*Schedule, error) {
	return m.store.List(ctx)
}

// SetEnabled enables or disables a schedule.
func (m *Manager) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := m.store.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}
	m.logger.Info("rotation schedule toggled", "schedule_id", id, "enabled", enabled)
	return nil
}

// MarkRun stamps a schedule's last run time.
func (m *Manager) MarkRun(ctx context.Context, id string) error {
	return m.store.MarkRun(ctx, id, m.now())
}
