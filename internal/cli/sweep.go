package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/tradelab/backtest"
	"github.com/spf13/cobra"
)

func newSweepCmd(rs *rootState) *cobra.Command {
	var (
		barsPath    string
		signalsPath string
		slMults     []float64
		tpMults     []float64
		workers     int
		top         int
		timeout     time.Duration
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Rank SL/TP multiple combinations by net profit",
		Long: `Evaluate every stop and target multiple pair over the same bars and
signals and print the combinations ranked by net profit.

Example:
  tradelab sweep --bars eurusd-h1.csv --signals signals.csv --sl 0.5,1,1.5 --tp 1,2,3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rs.cfg
			bars, signals, err := loadInputs(barsPath, signalsPath)
			if err != nil {
				return err
			}
			if len(slMults) == 0 {
				slMults = cfg.Sweep.SLMults
			}
			if len(tpMults) == 0 {
				tpMults = cfg.Sweep.TPMults
			}
			if workers <= 0 {
				workers = cfg.Sweep.Workers
			}
			if top < 0 {
				top = cfg.Sweep.Top
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			out := cmd.OutOrStdout()
			sw := &backtest.Sweeper{
				Workers:     workers,
				SliceBudget: cfg.Sweep.SliceBudget(),
				RiskPct:     cfg.Run.RiskPercent,
				Logger:      rs.log,
			}
			report, err := sw.Run(ctx, backtest.SweepRequest{
				Bars:    bars,
				Signals: signals,
				Config:  cfg.Engine,
				SLMults: slMults,
				TPMults: tpMults,
			}, func(p backtest.Progress) {
				if !quiet {
					fmt.Fprintf(out, "progress %d/%d (%.0f%%)\n", p.Completed, p.Total, p.Fraction()*100)
				}
			})

			backtest.PrintSweep(out, report, top)
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("sweep timed out after %s", timeout)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&barsPath, "bars", "", "OHLC bar CSV")
	cmd.Flags().StringVar(&signalsPath, "signals", "", "Signal file, .json or .csv")
	cmd.Flags().Float64SliceVar(&slMults, "sl", nil, "Stop multiples (default from config)")
	cmd.Flags().Float64SliceVar(&tpMults, "tp", nil, "Target multiples (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel grid points (default from config)")
	cmd.Flags().IntVar(&top, "top", -1, "Rows to print, 0 = all (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop the sweep after this long")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress lines")
	_ = cmd.MarkFlagRequired("bars")

	return cmd
}
