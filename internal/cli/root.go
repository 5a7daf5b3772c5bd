// Package cli wires the planner service behind a cobra command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "planner-api",
		Version: "dev",
		Short:   "Activity schedule engine",
		Long: `planner-api allocates catalog activities into free time slots,
spreads a template day across a week and recalculates single days.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newHashSecretCmd())
	return cmd
}

// SetVersion overrides the version reported by --version and tracing.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
