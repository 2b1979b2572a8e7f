package cli

import (
	"fmt"

	"github.com/rustyeddy/tradelab/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(rs *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage tradelab configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created default configuration: %s\n", output)
			fmt.Fprintf(out, "Run with:\n  tradelab backtest --config %s --bars bars.csv --signals signals.json\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "tradelab.yaml", "output config file path")

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Account: %.2f (leverage %.0f)\n", cfg.Engine.InitialBalance, cfg.Engine.Leverage)
			fmt.Fprintf(out, "  Run: %s (risk %.1f%%, SL %.2fx, TP %.2fx)\n", cfg.Run.Strategy, cfg.Run.RiskPercent*100, cfg.Run.SLMult, cfg.Run.TPMult)
			fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("file")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
