// Package main is the entry point for the strand CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/strand/internal/config"
	"github.com/dshills/strand/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds state shared by all subcommands, filled in before any of them run.
type cli struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *logging.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "strand",
		Short: "strand - rope text store and edit script runner",
		Long: `strand loads text into a rope and edits it with scripts.

Commands:
  run       Apply a YAML, TOML or Lua edit script to a text
  stats     Show the tree shape of a loaded text`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a TOML or YAML config file")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newRunCommand(c))
	rootCmd.AddCommand(newStatsCommand(c))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// setup loads configuration and builds the logger. A --log-level flag
// overrides the configured level. A --config file that does not exist is an
// error rather than a silent fallback to defaults.
func (c *cli) setup(logOut io.Writer) error {
	var (
		cfg config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.NewLoader().LoadFile(c.configPath)
	} else {
		cfg, err = config.Load("")
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	c.cfg = cfg
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel()
	logCfg.Output = logOut
	c.logger = logging.New(logCfg)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "strand %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
