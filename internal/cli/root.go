// Package cli wires the tradelab commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rustyeddy/tradelab/config"
	"github.com/rustyeddy/tradelab/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootState is shared by every subcommand. cfg and log are set by the root
// PersistentPreRunE before any RunE executes.
type rootState struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *logrus.Logger
}

func NewRootCmd() *cobra.Command {
	rs := &rootState{}

	cmd := &cobra.Command{
		Use:   "tradelab",
		Short: "tradelab - deterministic bar replay backtesting",
		Long: `tradelab replays OHLC bars against a list of trade signals and reports
what the account would have done.

It provides tools for:
  - Single backtests with trade journals, charts and org reports
  - Compact scenario summaries for prompts
  - SL/TP parameter sweeps
  - An HTTP API for UI hosts`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rs.configPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rs.envFile, "env-file", ".env", "dotenv file loaded before TRADELAB_* overrides")
	cmd.PersistentFlags().StringVar(&rs.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&rs.logFormat, "log-format", "", "Log format: text|json")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rs.setup(cmd)
	}

	cmd.AddCommand(
		newBacktestCmd(rs),
		newScenarioCmd(rs),
		newSweepCmd(rs),
		newSignalsCmd(rs),
		newConfigCmd(rs),
		newServeCmd(rs),
		newRunsCmd(rs),
		newVersionCmd(),
	)
	return cmd
}

// setup loads .env, the config file and environment overrides, then builds
// the logger. Flags win over the file and the environment.
func (rs *rootState) setup(cmd *cobra.Command) error {
	if rs.envFile != "" {
		if err := config.LoadDotEnv(rs.envFile); err != nil {
			return err
		}
	}

	cfg := config.Default()
	if rs.configPath != "" {
		loaded, err := config.LoadFromFile(rs.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if rs.logLevel != "" {
		cfg.Log.Level = rs.logLevel
	}
	if rs.logFormat != "" {
		cfg.Log.Format = rs.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	rs.cfg = cfg
	rs.log = log
	return nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
