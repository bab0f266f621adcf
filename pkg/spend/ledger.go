package spend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// MonthKey formats a time as the UTC calendar month key used to key
// monthly records.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Ledger is the append-only accumulator of monthly spend. It wraps a
// Store with input validation, month keying, and cap status derivation.
type Ledger struct {
	store  Store
	logger *slog.Logger

	// now is overridable in tests to pin the current month.
	now func() time.Time
}

// NewLedger creates a ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store:  store,
		logger: slog.Default().With("component", "spend.ledger"),
		now:    time.Now,
	}
}

// AddCost appends a cost event to the current month's record. The amount
// must be non-negative and the category must be known; the store handles
// get-or-create of the month record and atomic increments.
func (l *Ledger) AddCost(ctx context.Context, category Category, amountCents int64) error {
	if amountCents < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amountCents)
	}
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	month := MonthKey(l.now())
	if err := l.store.AddCost(ctx, month, category, amountCents); err != nil {
		return fmt.Errorf("failed to record cost: %w", err)
	}

	l.logger.Debug("cost recorded",
		"month", month,
		"category", string(category),
		"amount_cents", amountCents,
	)

	return nil
}

// SetCap activates a new spending cap, superseding any previous cap.
func (l *Ledger) SetCap(ctx context.Context, amountCents int64, createdBy string) (*Cap, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCap, amountCents)
	}

	newCap := &Cap{
		ID:          uuid.New().String(),
		AmountCents: amountCents,
		Active:      true,
		CreatedBy:   createdBy,
		CreatedAt:   l.now(),
	}

	if err := l.store.SetCap(ctx, newCap); err != nil {
		return nil, fmt.Errorf("failed to set cap: %w", err)
	}

	l.logger.Info("spending cap set",
		"cap_id", newCap.ID,
		"amount_cents", newCap.AmountCents,
		"created_by", createdBy,
	)

	return newCap, nil
}

// ActiveCap returns the cap currently in force, or nil if none.
func (l *Ledger) ActiveCap(ctx context.Context) (*Cap, error) {
	return l.store.ActiveCap(ctx)
}

// CurrentRecord returns the current month's record. A month with no cost
// events yet yields a zero-valued record rather than nil.
func (l *Ledger) CurrentRecord(ctx context.Context) (*Record, error) {
	month := MonthKey(l.now())
	record, err := l.store.Record(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load record for %s: %w", month, err)
	}
	if record == nil {
		record = &Record{Month: month}
	}
	return record, nil
}

// CapStatus derives the budget position for the current month. With no
// active cap configured, HasCap is false and no percentage is computed.
func (l *Ledger) CapStatus(ctx context.Context) (*CapStatus, error) {
	record, err := l.CurrentRecord(ctx)
	if err != nil {
		return nil, err
	}

	status := &CapStatus{
		Month:      record.Month,
		SpentCents: record.TotalCents,
	}

	cap, err := l.store.ActiveCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active cap: %w", err)
	}
	if cap == nil {
		return status, nil
	}

	status.HasCap = true
	status.CapCents = cap.AmountCents
	status.Percentage = float64(record.TotalCents) / float64(cap.AmountCents) * 100
	status.AlertLevel = AlertLevelFor(status.Percentage)
	status.OverCap = record.TotalCents > cap.AmountCents
	if remaining := cap.AmountCents - record.TotalCents; remaining > 0 {
		status.RemainingCents = remaining
	}

	return status, nil
}
