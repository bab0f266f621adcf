// Package spend tracks AI spend against a monthly cap.
//
// # Overview
//
// The spend package maintains one append-only Record per calendar month,
// incremented by cost events from the request layer, and a single active
// Cap configured by an administrator. The Ledger combines the two to
// answer "how much of the budget is used" and to bucket that percentage
// into operator alert levels.
//
// # Calendar Months
//
// Records are keyed by UTC calendar month (YYYY-MM), not a rolling
// window. Spend resets at month boundaries because the cap is a monthly
// budget, not a smoothing device.
//
// # Money
//
// All amounts are integer cents. This keeps the over-cap comparison
// exact: spend of exactly the cap amount is not over cap, one cent more
// is.
//
// # Thread Safety
//
// All Ledger operations delegate atomicity to the Store implementation;
// concurrent AddCost calls must never lose increments.
package spend
