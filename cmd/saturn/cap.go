package main

import (
	"context"
	"fmt"
	"math"
	"os/user"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/spend"
)

var capFlags struct {
	by string
}

var capCmd = &cobra.Command{
	Use:   "cap",
	Short: "Manage the monthly spending cap",
}

var capSetCmd = &cobra.Command{
	Use:   "set <amount-dollars>",
	Short: "Set the monthly spending cap",
	Long: `Set the monthly spending cap in dollars. The new cap supersedes any
previous cap immediately; superseded caps are kept for history.

Examples:
  # Cap monthly spend at $150
  saturn cap set 150

  # Record who set the cap
  saturn cap set 99.50 --by alice`,
	Args: cobra.ExactArgs(1),
	RunE: runCapSet,
}

var capShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cap and current spend position",
	Args:  cobra.NoArgs,
	RunE:  runCapShow,
}

func init() {
	rootCmd.AddCommand(capCmd)
	capCmd.AddCommand(capSetCmd, capShowCmd)

	capSetCmd.Flags().StringVar(&capFlags.by, "by", "", "who is setting the cap (defaults to the OS user)")
}

func runCapSet(cmd *cobra.Command, args []string) error {
	dollars, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	cents := int64(math.Round(dollars * 100))
	if cents <= 0 {
		return fmt.Errorf("cap must be positive, got %s", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	newCap, err := a.ledger.SetCap(context.Background(), cents, capCreatedBy())
	if err != nil {
		return err
	}

	fmt.Printf("Monthly cap set to %s (cap ID %s)\n", formatCents(newCap.AmountCents), newCap.ID)
	return nil
}

func runCapShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.ledger.CapStatus(context.Background())
	if err != nil {
		return err
	}

	printCapStatus(status)
	return nil
}

func printCapStatus(status *spend.CapStatus) {
	fmt.Printf("Month:     %s\n", status.Month)
	fmt.Printf("Spent:     %s\n", formatCents(status.SpentCents))
	if !status.HasCap {
		fmt.Println("Cap:       none configured")
		return
	}
	fmt.Printf("Cap:       %s\n", formatCents(status.CapCents))
	fmt.Printf("Remaining: %s\n", formatCents(status.RemainingCents))
	fmt.Printf("Usage:     %.1f%% (%s)\n", status.Percentage, status.AlertLevel)
	if status.OverCap {
		fmt.Println("Status:    OVER CAP")
	}
}

// formatCents renders a cent amount as dollars.
func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// capCreatedBy resolves the --by flag, falling back to the OS user.
func capCreatedBy() string {
	if capFlags.by != "" {
		return capFlags.by
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}
