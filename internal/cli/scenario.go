package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/tradelab/backtest"
	"github.com/spf13/cobra"
)

func newScenarioCmd(rs *rootState) *cobra.Command {
	var (
		barsPath    string
		signalsPath string
		balance     float64
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Summarise whether an account survives a signal set",
		Long: `Run the signals once and print a compact survival summary: balance,
drawdown, equity range, whether the account was blown and a sample of
position sizes.

Example:
  tradelab scenario --bars eurusd-h1.csv --signals signals.json --balance 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bars, signals, err := loadInputs(barsPath, signalsPath)
			if err != nil {
				return err
			}
			engine := rs.cfg.Engine
			if balance > 0 {
				engine.InitialBalance = balance
			}

			sum := backtest.RunScenario(bars, signals, engine, rs.cfg.Run.Options())
			rs.log.WithField("blown", sum.Blown).Debug("scenario finished")

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			_, err = fmt.Fprint(out, sum.Prompt())
			return err
		},
	}

	cmd.Flags().StringVar(&barsPath, "bars", "", "OHLC bar CSV")
	cmd.Flags().StringVar(&signalsPath, "signals", "", "Signal file, .json or .csv")
	cmd.Flags().Float64Var(&balance, "balance", 0, "Starting balance (overrides config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	_ = cmd.MarkFlagRequired("bars")

	return cmd
}
