package main

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/spend"
)

var costFlags struct {
	category string
}

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Record cost events",
}

var costAddCmd = &cobra.Command{
	Use:   "add <amount-dollars>",
	Short: "Record a cost event against the current month",
	Long: `Record a cost event and immediately run a cap check. If the event
pushes the month over the cap, fallback rotation fires in the same
invocation, subject to the rotation cooldown.

Examples:
  # Record $1.25 of LLM spend
  saturn cost add 1.25 --category llm

  # Record TTS spend
  saturn cost add 0.40 --category tts`,
	Args: cobra.ExactArgs(1),
	RunE: runCostAdd,
}

func init() {
	rootCmd.AddCommand(costCmd)
	costCmd.AddCommand(costAddCmd)

	costAddCmd.Flags().StringVar(&costFlags.category, "category", "llm", "cost category: llm or tts")
}

func runCostAdd(cmd *cobra.Command, args []string) error {
	dollars, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	cents := int64(math.Round(dollars * 100))

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.ledger.AddCost(ctx, spend.Category(costFlags.category), cents); err != nil {
		return err
	}

	result, err := a.governor.CheckAndRotate(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Recorded %s (%s). %s\n", formatCents(cents), costFlags.category, result.Reason)
	if result.Rotation != nil {
		for _, r := range result.Rotation.Rotated {
			fmt.Printf("Rotated %s/%s to credential %s\n", r.Provider, r.Tier, r.NewCredentialID)
		}
		for _, f := range result.Rotation.Failures {
			fmt.Printf("Rotation failed for %s/%s: %s\n", f.Provider, f.Tier, f.Reason)
		}
	}
	return nil
}
