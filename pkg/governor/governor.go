package governor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/audit"
	"mercator-hq/saturn/pkg/credential"
	"mercator-hq/saturn/pkg/spend"
	"mercator-hq/saturn/pkg/tier"
)

// Governor coordinates the spend ledger, tier policy, credential pool,
// and audit trail. It is the only component that initiates rotations.
type Governor struct {
	ledger   *spend.Ledger
	pool     *credential.Pool
	recorder *audit.Recorder
	metrics  *Metrics
	logger   *slog.Logger

	// mu guards policy and config, which are replaceable at runtime
	// through Reconfigure.
	mu     sync.RWMutex
	policy *tier.Policy
	config Config

	// now is overridable in tests.
	now func() time.Time
}

// New creates a governor over the given components.
func New(ledger *spend.Ledger, policy *tier.Policy, pool *credential.Pool, recorder *audit.Recorder, config Config) *Governor {
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultConfig().Cooldown
	}

	return &Governor{
		ledger:   ledger,
		policy:   policy,
		pool:     pool,
		recorder: recorder,
		config:   config,
		metrics:  newMetrics(),
		logger:   slog.Default().With("component", "governor"),
		now:      time.Now,
	}
}

// Reconfigure replaces the tier policy and governor settings at runtime.
// The configuration watcher calls this on file reload so threshold, model
// table, and cooldown changes take effect without a restart.
func (g *Governor) Reconfigure(policy *tier.Policy, config Config) {
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultConfig().Cooldown
	}

	g.mu.Lock()
	g.policy = policy
	g.config = config
	g.mu.Unlock()

	g.logger.Info("governor reconfigured", "cooldown", config.Cooldown.String())
}

func (g *Governor) currentPolicy() *tier.Policy {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.policy
}

func (g *Governor) cooldown() time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config.Cooldown
}

// ShouldTrigger evaluates the current spend position against the cap.
// It performs no rotation and applies no cooldown; CheckAndRotate is the
// acting path.
func (g *Governor) ShouldTrigger(ctx context.Context) (*CheckResult, error) {
	status, err := g.ledger.CapStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check cap status: %w", err)
	}

	result := &CheckResult{Percentage: status.Percentage}

	if !status.HasCap {
		result.Reason = "No spending cap configured"
		g.metrics.RecordCheck(false)
		return result, nil
	}

	g.metrics.UpdateSpendPercentage(status.Percentage)

	if !status.OverCap {
		result.Reason = fmt.Sprintf("Spending at %.1f%% of cap", status.Percentage)
		g.metrics.RecordCheck(false)
		return result, nil
	}

	result.Triggered = true
	result.Reason = fmt.Sprintf("Spending exceeded cap: %.1f%%", status.Percentage)
	g.metrics.RecordCheck(true)
	return result, nil
}

// CheckAndRotate runs one governed check cycle: evaluate the cap, apply
// the cooldown, and if both pass, rotate every fallback group. This is
// the entry point for both the cost hook and the periodic check job.
func (g *Governor) CheckAndRotate(ctx context.Context) (*CheckResult, error) {
	result, err := g.ShouldTrigger(ctx)
	if err != nil {
		return nil, err
	}
	if !result.Triggered {
		return result, nil
	}

	inCooldown, err := g.inCooldown(ctx)
	if err != nil {
		return nil, err
	}
	if inCooldown {
		result.Suppressed = true
		result.Reason = "Fallback credentials already activated recently"
		g.metrics.RecordSuppressed()
		g.logger.Info("rotation suppressed by cooldown",
			"cooldown", g.cooldown().String(),
			"percentage", result.Percentage,
		)
		return result, nil
	}

	notes := fmt.Sprintf("spend at %.1f%% of cap", result.Percentage)
	rotation, err := g.rotateAllFallback(ctx, audit.TriggerCapExceeded, notes)
	if err != nil {
		return nil, err
	}
	result.Rotation = rotation
	return result, nil
}

// RotateToFallback forces a fallback sweep regardless of spend position.
// The cooldown does not apply; this is the operator's override.
func (g *Governor) RotateToFallback(ctx context.Context) (*RotationResult, error) {
	return g.rotateAllFallback(ctx, audit.TriggerManual, "operator-initiated fallback sweep")
}

// RotateTier rotates a single (provider, tier) group to its next
// candidate credential. Used by manual rotation and by schedules.
func (g *Governor) RotateTier(ctx context.Context, provider string, t tier.Tier, trigger audit.Trigger) (*ProviderRotation, error) {
	rotation, err := g.rotateGroup(ctx, provider, t, trigger, "")
	if err != nil {
		g.metrics.RecordRotation(string(trigger), false)
		return nil, err
	}
	g.metrics.RecordRotation(string(trigger), true)
	return rotation, nil
}

// inCooldown reports whether any fallback credential was activated
// within the cooldown window. The window is derived from activation
// timestamps rather than held in memory, so it survives restarts.
func (g *Governor) inCooldown(ctx context.Context) (bool, error) {
	providers, err := g.pool.ProvidersWithTier(ctx, tier.TierFallback)
	if err != nil {
		return false, fmt.Errorf("failed to list fallback providers: %w", err)
	}

	cutoff := g.now().Add(-g.cooldown())
	for _, provider := range providers {
		active, err := g.pool.Active(ctx, provider, tier.TierFallback)
		if err != nil {
			return false, err
		}
		if active != nil && active.ActivatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

// rotateAllFallback sweeps every provider holding fallback credentials.
// Failures on one provider never stop the sweep.
func (g *Governor) rotateAllFallback(ctx context.Context, trigger audit.Trigger, notes string) (*RotationResult, error) {
	providers, err := g.pool.ProvidersWithTier(ctx, tier.TierFallback)
	if err != nil {
		return nil, fmt.Errorf("failed to list fallback providers: %w", err)
	}

	result := &RotationResult{}
	for _, provider := range providers {
		rotation, err := g.rotateGroup(ctx, provider, tier.TierFallback, trigger, notes)
		if err != nil {
			g.metrics.RecordRotation(string(trigger), false)
			g.metrics.providersSkipped.Inc()
			result.Failures = append(result.Failures, ProviderFailure{
				Provider: provider,
				Tier:     tier.TierFallback,
				Reason:   err.Error(),
			})
			continue
		}
		g.metrics.RecordRotation(string(trigger), true)
		g.metrics.providersRotated.Inc()
		result.Rotated = append(result.Rotated, *rotation)
	}

	g.logger.Info("fallback rotation sweep finished",
		"trigger", string(trigger),
		"rotated", len(result.Rotated),
		"failed", len(result.Failures),
	)

	return result, nil
}

// rotateGroup activates the next candidate in one (provider, tier)
// group and records the outcome in the audit trail. The audit write is
// best effort and never affects the rotation itself.
func (g *Governor) rotateGroup(ctx context.Context, provider string, t tier.Tier, trigger audit.Trigger, notes string) (*ProviderRotation, error) {
	next, err := g.pool.NextForRotation(ctx, provider, t)
	if err != nil {
		return nil, fmt.Errorf("failed to find rotation candidate for %s/%s: %w", provider, t, err)
	}
	if next == nil {
		g.recorder.Record(&audit.RotationEntry{
			Provider: provider,
			Tier:     t.String(),
			Outcome:  audit.OutcomeFailed,
			Trigger:  trigger,
			Notes:    "no candidate credential available",
		})
		return nil, fmt.Errorf("%w: %s/%s", credential.ErrNoCredentialAvailable, provider, t)
	}

	old, err := g.pool.Activate(ctx, next)
	if err != nil {
		g.recorder.Record(&audit.RotationEntry{
			Provider:        provider,
			Tier:            t.String(),
			NewCredentialID: next.ID,
			Outcome:         audit.OutcomeFailed,
			Trigger:         trigger,
			Notes:           err.Error(),
		})
		return nil, err
	}

	rotation := &ProviderRotation{
		Provider:        provider,
		Tier:            t,
		NewCredentialID: next.ID,
	}
	entry := &audit.RotationEntry{
		Provider:        provider,
		Tier:            t.String(),
		NewCredentialID: next.ID,
		Outcome:         audit.OutcomeSuccess,
		Trigger:         trigger,
		Notes:           notes,
	}
	if old != nil {
		rotation.OldCredentialID = old.ID
		entry.OldCredentialID = old.ID
	}
	g.recorder.Record(entry)

	return rotation, nil
}

// ActiveTier resolves the tier permitted by the current spend position.
// A ledger failure fails open to premium: a budgeting outage must never
// block the request path, and the worst case is one extra premium-tier
// request.
func (g *Governor) ActiveTier(ctx context.Context) (tier.Tier, error) {
	status, err := g.ledger.CapStatus(ctx)
	if err != nil {
		g.logger.Error("cap status unavailable, failing open to premium", "error", err)
		g.metrics.RecordFailOpen()
		return tier.TierPremium, nil
	}
	return g.currentPolicy().ActiveTier(status.HasCap, status.SpentCents, status.CapCents), nil
}

// Overview is the aggregated operator status view.
type Overview struct {
	Cap        *spend.CapStatus  `json:"cap"`
	ActiveTier tier.Tier         `json:"active_tier"`
	Models     map[string]string `json:"models"`
	Fallbacks  map[string]string `json:"fallback_credentials,omitempty"`
}

// Status assembles the operator status view: spend position, permitted
// tier, and the model each provider would serve at that tier.
func (g *Governor) Status(ctx context.Context) (*Overview, error) {
	status, err := g.ledger.CapStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check cap status: %w", err)
	}

	policy := g.currentPolicy()
	activeTier := policy.ActiveTier(status.HasCap, status.SpentCents, status.CapCents)

	overview := &Overview{
		Cap:        status,
		ActiveTier: activeTier,
		Models:     make(map[string]string),
		Fallbacks:  make(map[string]string),
	}

	providers, err := g.pool.ProvidersWithTier(ctx, tier.TierFallback)
	if err != nil {
		return nil, err
	}
	for _, provider := range providers {
		overview.Models[provider] = policy.ModelFor(activeTier, provider)
		active, err := g.pool.Active(ctx, provider, tier.TierFallback)
		if err != nil {
			return nil, err
		}
		if active != nil {
			overview.Fallbacks[provider] = active.ID
		}
	}

	return overview, nil
}
