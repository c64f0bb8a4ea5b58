package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version",
	Args:              cobra.NoArgs,
	PersistentPreRunE: skipSetup,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prana version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
