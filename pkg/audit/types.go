package audit

import (
	"context"
	"time"
)

// Outcome is the result of a rotation attempt.
type Outcome string

const (
	// OutcomeSuccess marks a rotation that activated a credential.
	OutcomeSuccess Outcome = "SUCCESS"

	// OutcomeFailed marks a rotation that could not complete, for
	// example when a group has no candidate credential.
	OutcomeFailed Outcome = "FAILED"
)

// Trigger identifies what initiated a rotation.
type Trigger string

const (
	// TriggerManual is an operator-initiated rotation.
	TriggerManual Trigger = "manual"

	// TriggerScheduled is a rotation fired by a rotation schedule.
	TriggerScheduled Trigger = "scheduled"

	// TriggerCapExceeded is an emergency fallback rotation fired by the
	// governor when spending crosses the monthly cap.
	TriggerCapExceeded Trigger = "cap_exceeded"
)

// RotationEntry is one immutable line in the rotation audit trail.
type RotationEntry struct {
	// ID is a UUID assigned when the entry is recorded.
	ID string `json:"id"`

	// Provider and Tier identify the credential group that rotated.
	Provider string `json:"provider"`
	Tier     string `json:"tier"`

	// OldCredentialID is the displaced credential, empty on a group's
	// first activation.
	OldCredentialID string `json:"old_credential_id,omitempty"`

	// NewCredentialID is the activated credential, empty when the
	// rotation failed before activation.
	NewCredentialID string `json:"new_credential_id,omitempty"`

	// Outcome records whether the rotation completed.
	Outcome Outcome `json:"outcome"`

	// Trigger records what initiated the rotation.
	Trigger Trigger `json:"trigger"`

	// Notes carries free-form context, such as the failure reason or the
	// spend percentage that tripped the cap.
	Notes string `json:"notes,omitempty"`

	// Timestamp is when the rotation happened.
	Timestamp time.Time `json:"timestamp"`
}

// Storage persists audit entries. The trail is append-only; there is no
// update or delete.
type Storage interface {
	// Append stores one entry.
	Append(ctx context.Context, entry *RotationEntry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]*RotationEntry, error)

	// Close releases resources held by the storage backend.
	Close() error
}
