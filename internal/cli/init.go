package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hyperjump/prana/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Long: `Write the built-in defaults as YAML to path (default: the --config value).
An existing file is kept unless --force is given.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: skipSetup,
	RunE:              runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if len(args) > 0 {
		path = args[0]
	}
	if err := writeDefaultConfig(path, initForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
	return nil
}

func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return config.Save(path, config.Default())
}
