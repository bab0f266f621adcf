// Saturn is a cost governor and credential rotation daemon for AI
// provider spend.
//
// It tracks monthly spend against an admin-configured cap, selects the
// model quality tier the budget permits, and rotates provider
// credentials, automatically falling back to cheap-tier keys when the
// cap is exceeded.
//
// Usage:
//
//	# Start the daemon with default configuration
//	saturn run
//
//	# Set a monthly cap of $150
//	saturn cap set 150 --by alice
//
//	# Add a fallback credential for openai
//	saturn keys add --provider openai --tier fallback --secret-stdin
//
//	# Show spend position and active tier
//	saturn status
//
//	# Show the rotation audit trail
//	saturn log --limit 20
package main

func main() {
	Execute()
}
