package spend

import (
	"context"
	"time"
)

// Category identifies the kind of cost being recorded.
type Category string

const (
	// CategoryLLM is spend on language model completions.
	CategoryLLM Category = "llm"

	// CategoryTTS is spend on text-to-speech synthesis.
	CategoryTTS Category = "tts"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryLLM || c == CategoryTTS
}

// Cap is an admin-configured monthly spending ceiling. At most one Cap is
// active at a time; setting a new cap deactivates all others inside the
// same store transaction. Superseded caps are retained for history.
type Cap struct {
	// ID is a UUID assigned at creation.
	ID string `json:"id"`

	// AmountCents is the monthly ceiling in cents. Always positive.
	AmountCents int64 `json:"amount_cents"`

	// Active marks the single cap currently in force.
	Active bool `json:"active"`

	// CreatedBy identifies the admin who set the cap.
	CreatedBy string `json:"created_by"`

	// CreatedAt is when the cap was set.
	CreatedAt time.Time `json:"created_at"`
}

// Record accumulates cost for one calendar month. Records are only ever
// incremented; nothing decrements them.
type Record struct {
	// Month is the UTC calendar month key, formatted YYYY-MM.
	Month string `json:"month"`

	// TotalCents is the sum of all categories for the month.
	TotalCents int64 `json:"total_cents"`

	// LLMCents is spend in the llm category.
	LLMCents int64 `json:"llm_cents"`

	// TTSCents is spend in the tts category.
	TTSCents int64 `json:"tts_cents"`

	// TotalRequests counts all cost events for the month.
	TotalRequests int64 `json:"total_requests"`

	// LLMRequests counts llm cost events.
	LLMRequests int64 `json:"llm_requests"`

	// TTSRequests counts tts cost events.
	TTSRequests int64 `json:"tts_requests"`
}

// AlertLevel buckets budget usage for operator dashboards and alerting.
type AlertLevel string

const (
	// AlertOK is under 50% of cap.
	AlertOK AlertLevel = "ok"

	// AlertCaution is 50% to under 75% of cap.
	AlertCaution AlertLevel = "caution"

	// AlertWarning is 75% to under 90% of cap.
	AlertWarning AlertLevel = "warning"

	// AlertCritical is 90% to under 100% of cap.
	AlertCritical AlertLevel = "critical"

	// AlertDanger is at or over 100% of cap.
	AlertDanger AlertLevel = "danger"
)

// AlertLevelFor buckets a cap percentage (0-100 scale) into an AlertLevel.
func AlertLevelFor(percentage float64) AlertLevel {
	switch {
	case percentage >= 100:
		return AlertDanger
	case percentage >= 90:
		return AlertCritical
	case percentage >= 75:
		return AlertWarning
	case percentage >= 50:
		return AlertCaution
	default:
		return AlertOK
	}
}

// CapStatus is a point-in-time view of spend against the active cap.
type CapStatus struct {
	// HasCap is false when no cap is configured. The remaining fields
	// other than SpentCents and Month are zero in that case.
	HasCap bool `json:"has_cap"`

	// Month is the calendar month the status describes.
	Month string `json:"month"`

	// CapCents is the active cap amount.
	CapCents int64 `json:"cap_cents"`

	// SpentCents is the month's total spend.
	SpentCents int64 `json:"spent_cents"`

	// RemainingCents is max(0, cap - spent).
	RemainingCents int64 `json:"remaining_cents"`

	// Percentage is spend as a percentage of cap (0-100 scale, may
	// exceed 100).
	Percentage float64 `json:"percentage"`

	// AlertLevel buckets Percentage for operators.
	AlertLevel AlertLevel `json:"alert_level"`

	// OverCap is true only when spend strictly exceeds the cap.
	OverCap bool `json:"over_cap"`
}

// Store persists caps and monthly records. Implementations must be safe
// for concurrent use, and AddCost must be atomic per month record: lost
// increments under-report spend and delay fallback activation.
type Store interface {
	// SetCap activates the given cap and deactivates every other cap in
	// the same atomic unit.
	SetCap(ctx context.Context, cap *Cap) error

	// ActiveCap returns the single active cap, or nil if none is
	// configured.
	ActiveCap(ctx context.Context) (*Cap, error)

	// AddCost atomically increments the month's category and total
	// counters, creating the record if this is the month's first event.
	AddCost(ctx context.Context, month string, category Category, amountCents int64) error

	// Record returns the record for a month, or nil if no cost has been
	// recorded for it.
	Record(ctx context.Context, month string) (*Record, error)

	// Close releases resources held by the store.
	Close() error
}
