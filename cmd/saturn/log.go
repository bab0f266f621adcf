package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var logFlags struct {
	limit int
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the rotation audit trail",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVar(&logFlags.limit, "limit", 20, "maximum entries to show")
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.recorder.Recent(context.Background(), logFlags.limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No rotations recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPROVIDER\tTIER\tOUTCOME\tTRIGGER\tOLD\tNEW\tNOTES")
	for _, e := range entries {
		old := e.OldCredentialID
		if old == "" {
			old = "-"
		}
		newID := e.NewCredentialID
		if newID == "" {
			newID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			e.Provider, e.Tier, e.Outcome, e.Trigger, old, newID, e.Notes)
	}
	return w.Flush()
}
