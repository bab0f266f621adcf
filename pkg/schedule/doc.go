// Package schedule manages routine credential rotation schedules.
//
// Each (provider, tier) group gets at most one schedule. GetOrCreate is
// idempotent: calling it twice for the same group returns the existing
// schedule rather than a duplicate. The Runner turns enabled schedules
// into cron jobs that rotate their group through the governor.
package schedule
