// Package tier maps budget pressure to a model quality tier.
//
// # Overview
//
// The tier package implements the pure policy at the heart of cost
// governance: given the current monthly spend and the configured cap,
// decide which quality tier (premium, standard, fallback) outbound LLM
// requests may use, and which concrete model serves that tier for each
// provider.
//
// # Fail Open
//
// When no spending cap is configured, or spend cannot be determined, the
// policy returns TierPremium. A budgeting failure must never take AI
// features down; the worst case of staleness is one extra premium-tier
// request.
//
// # Boundaries
//
// The standard threshold is inclusive (exactly 85% is standard) and the
// fallback threshold is exclusive (exactly 100% is still standard; only
// strictly greater triggers fallback).
//
// # Thread Safety
//
// Policy is immutable after construction and safe for concurrent use.
package tier
