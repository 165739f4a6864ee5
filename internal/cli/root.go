package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opsgate",
	Short: "Natural-language gate for infrastructure commands",
	Long: `opsgate turns free-form operator requests ("create a medium vm named
web-server") into schema-validated infrastructure commands, and holds every
command behind an explicit confirm/cancel step before it is released.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(interpretCmd)
	rootCmd.AddCommand(confirmCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
