package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "saturn",
	Short: "Saturn - cost governor and credential rotation for AI spend",
	Long: `Saturn tracks monthly AI spend against a configured cap and governs
which model quality tier requests may use:

  - Spend ledger with monthly cap and alert levels
  - Tier policy: premium under 85% of cap, standard to 100%, fallback above
  - Credential pool with one active key per (provider, tier)
  - Automatic rotation to fallback credentials when the cap is exceeded
  - Append-only rotation audit trail and routine rotation schedules`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
