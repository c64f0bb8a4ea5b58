// Package cli implements the prana command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hyperjump/prana/internal/config"
	"github.com/hyperjump/prana/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

var (
	cfgFile      string
	envFile      string
	debugFlag    bool
	cfg          *config.Config
	resolvedPath string
	logger       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "prana",
	Short: "Prana - grounded yoga and wellness answers",
	Long: `Prana answers yoga and wellness questions from a curated article corpus.
Questions pass a safety check, relevant article chunks are retrieved from a
vector index and a language model writes an answer grounded in them.

Example usage:
  prana chunk                         # Split the corpus into chunks
  prana ingest                        # Embed chunks and write the vector index
  prana server                        # Serve the HTTP API
  prana ask "how do I start yoga?"    # Ask from the command line`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with API keys (ignored when missing)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := loadEnv(envFile); err != nil {
		return err
	}
	c, path, err := loadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debugFlag {
		c.Debug = true
	}
	l, err := utils.NewLogger(c.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	cfg, resolvedPath, logger = c, path, l
	logger.Debug("config loaded", zap.String("config_path", path), zap.Bool("debug", c.Debug))
	return nil
}

// loadEnv loads KEY=value pairs from path into the environment. Variables that are
// already set win. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadConfig loads config from path. When path is the default and no such file exists,
// the built-in defaults are used so that a fresh checkout runs without "prana init".
// Returns the config and the path that was loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			c := config.Default()
			if err := config.Validate(c); err != nil {
				return nil, "", err
			}
			return c, "", nil
		}
	}
	c, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return c, path, nil
}

// skipSetup replaces the config loading hook for commands that must run without one.
func skipSetup(cmd *cobra.Command, args []string) error {
	return nil
}
