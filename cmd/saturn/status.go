package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show spend position, active tier, and model selection",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	overview, err := a.governor.Status(context.Background())
	if err != nil {
		return err
	}

	printCapStatus(overview.Cap)
	fmt.Printf("Tier:      %s\n", overview.ActiveTier)

	if len(overview.Models) > 0 {
		fmt.Println("\nModel selection:")
		for provider, model := range overview.Models {
			line := fmt.Sprintf("  %-12s %s", provider, model)
			if id, ok := overview.Fallbacks[provider]; ok {
				line += fmt.Sprintf("  (active fallback key %s)", id)
			}
			fmt.Println(line)
		}
	}
	return nil
}
