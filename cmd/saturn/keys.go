package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/audit"
	"mercator-hq/saturn/pkg/tier"
)

var keysFlags struct {
	provider    string
	tierName    string
	name        string
	secret      string
	secretStdin bool
	addedBy     string
	output      string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider credentials",
	Long: `Add, list, and rotate provider API credentials.

Each credential belongs to one (provider, tier) group. At most one
credential per group is active at a time; rotating a group activates its
oldest pending or inactive credential and deactivates the previous one.

Examples:
  # Add a fallback key for openai, reading the secret from stdin
  saturn keys add --provider openai --tier fallback --secret-stdin

  # List all anthropic credentials
  saturn keys list --provider anthropic

  # Manually rotate the openai premium group
  saturn keys rotate --provider openai --tier premium`,
}

var keysAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a credential",
	RunE:  runKeysAdd,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credentials",
	RunE:  runKeysList,
}

var keysRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate a credential group",
	RunE:  runKeysRotate,
}

var keysCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the active credential's secret",
	Long: `Print the secret of the active credential for a provider to stdout
and record a use against it. When --tier is omitted the tier permitted by
the current spend position is used, so scripts always fetch the key that
matches the governor's decision.`,
	RunE: runKeysCurrent,
}

var keysGenSealKeyCmd = &cobra.Command{
	Use:   "gen-seal-key",
	Short: "Generate a sealing key",
	Long: `Generate a random 32-byte AES-256 sealing key and write it to the
output path with owner-only permissions. Point seal.key_file at the
generated file.`,
	RunE: runKeysGenSealKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysAddCmd, keysListCmd, keysRotateCmd, keysCurrentCmd, keysGenSealKeyCmd)

	keysAddCmd.Flags().StringVar(&keysFlags.provider, "provider", "", "provider name (required)")
	keysAddCmd.Flags().StringVar(&keysFlags.tierName, "tier", "", "tier: premium, standard, or fallback (required)")
	keysAddCmd.Flags().StringVar(&keysFlags.name, "name", "", "human label for the credential")
	keysAddCmd.Flags().StringVar(&keysFlags.secret, "secret", "", "the API key (prefer --secret-stdin)")
	keysAddCmd.Flags().BoolVar(&keysFlags.secretStdin, "secret-stdin", false, "read the API key from stdin")
	keysAddCmd.Flags().StringVar(&keysFlags.addedBy, "by", "", "who is adding the credential")

	keysListCmd.Flags().StringVar(&keysFlags.provider, "provider", "", "filter by provider")
	keysListCmd.Flags().StringVar(&keysFlags.tierName, "tier", "", "filter by tier")

	keysRotateCmd.Flags().StringVar(&keysFlags.provider, "provider", "", "provider name (required)")
	keysRotateCmd.Flags().StringVar(&keysFlags.tierName, "tier", "", "tier to rotate (required)")

	keysCurrentCmd.Flags().StringVar(&keysFlags.provider, "provider", "", "provider name (required)")
	keysCurrentCmd.Flags().StringVar(&keysFlags.tierName, "tier", "", "tier (defaults to the governed tier)")

	keysGenSealKeyCmd.Flags().StringVarP(&keysFlags.output, "output", "o", "seal.key", "output path for the key")
}

func runKeysAdd(cmd *cobra.Command, args []string) error {
	t, err := requireGroupFlags()
	if err != nil {
		return err
	}

	secret := keysFlags.secret
	if keysFlags.secretStdin {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read secret from stdin: %w", err)
		}
		secret = strings.TrimSpace(line)
	}
	if secret == "" {
		return fmt.Errorf("a secret is required; pass --secret or --secret-stdin")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cred, err := a.pool.Add(context.Background(), keysFlags.provider, t, keysFlags.name, secret, keysFlags.addedBy)
	if err != nil {
		return err
	}

	fmt.Printf("Added credential %s for %s/%s (status %s)\n",
		cred.ID, cred.Provider, cred.Tier, cred.Status)
	return nil
}

func runKeysList(cmd *cobra.Command, args []string) error {
	var t tier.Tier
	if keysFlags.tierName != "" {
		parsed, err := tier.Parse(keysFlags.tierName)
		if err != nil {
			return err
		}
		t = parsed
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	creds, err := a.pool.List(context.Background(), keysFlags.provider, t)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tTIER\tNAME\tSTATUS\tUSES\tACTIVATED")
	for _, c := range creds {
		activated := "-"
		if !c.ActivatedAt.IsZero() {
			activated = c.ActivatedAt.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.Provider, c.Tier, c.Name, c.Status, c.UsageCount, activated)
	}
	return w.Flush()
}

func runKeysRotate(cmd *cobra.Command, args []string) error {
	t, err := requireGroupFlags()
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rotation, err := a.governor.RotateTier(context.Background(), keysFlags.provider, t, audit.TriggerManual)
	if err != nil {
		return err
	}

	if rotation.OldCredentialID != "" {
		fmt.Printf("Rotated %s/%s: %s -> %s\n",
			rotation.Provider, rotation.Tier, rotation.OldCredentialID, rotation.NewCredentialID)
	} else {
		fmt.Printf("Activated %s for %s/%s\n",
			rotation.NewCredentialID, rotation.Provider, rotation.Tier)
	}
	return nil
}

func runKeysCurrent(cmd *cobra.Command, args []string) error {
	if keysFlags.provider == "" {
		return fmt.Errorf("--provider is required")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	var t tier.Tier
	if keysFlags.tierName != "" {
		if t, err = tier.Parse(keysFlags.tierName); err != nil {
			return err
		}
	} else {
		if t, err = a.governor.ActiveTier(ctx); err != nil {
			return err
		}
	}

	cred, err := a.pool.Active(ctx, keysFlags.provider, t)
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("no active credential for %s/%s", keysFlags.provider, t)
	}

	secret, err := a.pool.Secret(cred)
	if err != nil {
		return err
	}
	if err := a.pool.RecordUse(ctx, cred); err != nil {
		return err
	}

	fmt.Println(secret)
	return nil
}

func runKeysGenSealKey(cmd *cobra.Command, args []string) error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	if _, err := os.Stat(keysFlags.output); err == nil {
		return fmt.Errorf("refusing to overwrite existing key file %q", keysFlags.output)
	}

	if err := os.WriteFile(keysFlags.output, key, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}

	fmt.Printf("Wrote 32-byte sealing key to %s\n", keysFlags.output)
	return nil
}

// requireGroupFlags validates the --provider and --tier flags.
func requireGroupFlags() (tier.Tier, error) {
	if keysFlags.provider == "" {
		return "", fmt.Errorf("--provider is required")
	}
	if keysFlags.tierName == "" {
		return "", fmt.Errorf("--tier is required")
	}
	return tier.Parse(keysFlags.tierName)
}
