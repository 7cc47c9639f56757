// Package cli defines the admet command tree: serve, featurize, version.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "admet",
		Short:         "ADMET property prediction server and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfigPath,
		"path to the configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"override the configured log level (debug|info|warn|error)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newFeaturizeCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig reads the configuration file and applies CLI overrides. A
// missing file falls back to environment variables plus defaults.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		// Only the unchanged default path may silently fall back to
		// environment-only configuration.
		if opts.ConfigPath != defaultConfigPath {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "config file not loaded (%v); using environment and defaults\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			return nil, err
		}
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}
