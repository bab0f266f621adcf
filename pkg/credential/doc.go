// Package credential manages pools of provider API credentials by tier.
//
// # Overview
//
// Each credential belongs to exactly one (provider, tier) group and moves
// through an explicit status machine: PENDING when added, ACTIVE when
// rotation selects it, INACTIVE when a sibling takes over. Rotation never
// deletes credentials; only an administrator removes records.
//
// # Single Active Invariant
//
// Within a (provider, tier) group, at most one credential is ACTIVE at
// any instant. Activation is a single atomic store operation that
// deactivates every sibling in the group and activates the chosen
// credential, scoped strictly to the pair: activating a premium-tier
// credential never touches fallback-tier state, even for the same
// provider.
//
// # Secrets
//
// The pool stores only sealed secret bytes. Sealing and unsealing are
// delegated to a seal.Sealer; the pool never logs or persists plaintext.
package credential
