package schedule

import (
	"context"
	"time"

	"mercator-hq/saturn/pkg/tier"
)

// DefaultCronExpr rotates a group at midnight on the first of each
// month, matching the monthly spend window.
const DefaultCronExpr = "0 0 1 * *"

// Schedule is a recurring rotation for one (provider, tier) group.
type Schedule struct {
	// ID is a UUID assigned at creation.
	ID string `json:"id"`

	// Provider and Tier identify the credential group.
	Provider string    `json:"provider"`
	Tier     tier.Tier `json:"tier"`

	// CronExpr is a standard 5-field cron expression.
	CronExpr string `json:"cron_expr"`

	// Enabled gates whether the Runner executes this schedule.
	Enabled bool `json:"enabled"`

	// CreatedAt is when the schedule was first created.
	CreatedAt time.Time `json:"created_at"`

	// LastRunAt is when the schedule last fired. Zero if never.
	LastRunAt time.Time `json:"last_run_at"`
}

// Store persists rotation schedules. Implementations must make
// GetOrCreate atomic per (provider, tier) group so concurrent callers
// cannot create duplicates.
type Store interface {
	// GetOrCreate returns the group's schedule, creating it from the
	// prototype if absent. The boolean reports whether a new schedule
	// was created.
	GetOrCreate(ctx context.Context, proto *Schedule) (*Schedule, bool, error)

	// Get returns the group's schedule, or nil if absent.
	Get(ctx context.Context, provider string, t tier.Tier) (*Schedule, error)

	// List returns all schedules.
	List(ctx context.Context) ([]*Schedule, error)

	// SetEnabled flips the enabled flag.
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// MarkRun stamps the last run time.
	MarkRun(ctx context.Context, id string, at time.Time) error

	// Close releases resources held by the store.
	Close() error
}
