package credential

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a credential ID does not exist.
	ErrNotFound = errors.New("credential not found")

	// ErrNoCredentialAvailable is returned when rotation is requested
	// for a group with no PENDING or INACTIVE candidate.
	ErrNoCredentialAvailable = errors.New("no credential available for rotation")

	// ErrInvalidCredential is returned when a credential is missing a
	// provider, tier, or secret at add time.
	ErrInvalidCredential = errors.New("invalid credential")
)

// TransitionError reports an illegal status transition.
type TransitionError struct {
	From Status
	To   Status
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal credential status transition %s -> %s", e.From, e.To)
}
