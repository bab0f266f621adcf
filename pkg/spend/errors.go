package spend

import "errors"

var (
	// ErrNegativeAmount is returned when a cost event carries a negative
	// amount. Costs are append-only; corrections happen upstream.
	ErrNegativeAmount = errors.New("cost amount cannot be negative")

	// ErrUnknownCategory is returned for a cost category the ledger does
	// not track.
	ErrUnknownCategory = errors.New("unknown cost category")

	// ErrInvalidCap is returned when a cap amount is zero or negative.
	ErrInvalidCap = errors.New("cap amount must be positive")
)
