package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"room-reservation/internal/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage booking policy",
}

var applyPolicyCmd = &cobra.Command{
	Use:   "apply <policy.yaml>",
	Short: "Apply a booking policy file",
	Long: `Reads a YAML policy file describing groups and their room entitlements
and applies it to the database. Groups that do not exist are created; rooms
must exist beforehand. Applying the same file twice is a no-op.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		applyPolicy(context.Background(), args[0])
	},
}

func applyPolicy(ctx context.Context, path string) {
	file, err := policy.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load policy: %v\n", err)
		os.Exit(1)
	}

	if err := policy.Apply(ctx, provider, file); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to apply policy: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Applied policy from %s\n", path)
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(applyPolicyCmd)
}
