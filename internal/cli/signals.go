package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/market/strategies"
	"github.com/spf13/cobra"
)

func newSignalsCmd(rs *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Generate signal files from bars",
	}

	var (
		barsPath string
		outPath  string
		cfg      = strategies.EMACrossDefaults()
	)
	emaCmd := &cobra.Command{
		Use:   "ema-cross",
		Short: "EMA crossover signals",
		Long: `Emit a LONG on every fast-over-slow EMA cross and a SHORT on every
cross back, as a JSON signal file the backtest commands accept.

Example:
  tradelab signals ema-cross --bars eurusd-h1.csv --fast 20 --slow 50 -o signals.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bars, _, err := loadInputs(barsPath, "")
			if err != nil {
				return err
			}
			signals, err := emaCrossSignals(cfg, bars)
			if err != nil {
				return err
			}
			rs.log.WithField("signals", len(signals)).Info("signals generated")

			if outPath == "" {
				return writeSignals(cmd.OutOrStdout(), signals)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("signals: %w", err)
			}
			if err := writeSignals(f, signals); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	emaCmd.Flags().StringVar(&barsPath, "bars", "", "OHLC bar CSV")
	emaCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	emaCmd.Flags().IntVar(&cfg.FastPeriod, "fast", cfg.FastPeriod, "Fast EMA period")
	emaCmd.Flags().IntVar(&cfg.SlowPeriod, "slow", cfg.SlowPeriod, "Slow EMA period")
	emaCmd.Flags().Float64Var(&cfg.MinSpread, "min-spread", 0, "Minimum |fast-slow| to signal, 0 disables")
	_ = emaCmd.MarkFlagRequired("bars")

	cmd.AddCommand(emaCmd)
	return cmd
}

func emaCrossSignals(cfg strategies.EMACrossConfig, bars []market.Bar) ([]market.Signal, error) {
	x, err := strategies.NewEMACross(cfg)
	if err != nil {
		return nil, err
	}
	return strategies.Generate(x, bars), nil
}

func writeSignals(w io.Writer, signals []market.Signal) error {
	if signals == nil {
		signals = []market.Signal{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Signals []market.Signal `json:"signals"`
	}{signals})
}
