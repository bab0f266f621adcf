// Package governor ties spend tracking to credential rotation.
//
// The governor watches the monthly spend position from the ledger and,
// when spending crosses the active cap, rotates every provider that
// holds fallback-tier credentials onto its next fallback key. A cooldown
// keeps repeated checks from churning through the credential pool while
// spend stays over the cap.
//
// Rotation is per (provider, tier) group and never crosses group
// boundaries. Every rotation attempt, successful or not, lands in the
// audit trail.
package governor
