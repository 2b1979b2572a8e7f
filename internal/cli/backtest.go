package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rustyeddy/tradelab/backtest"
	"github.com/rustyeddy/tradelab/journal"
	"github.com/rustyeddy/tradelab/market/strategies"
	"github.com/rustyeddy/tradelab/pkg/id"
	"github.com/rustyeddy/tradelab/sim"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newBacktestCmd(rs *rootState) *cobra.Command {
	var (
		barsPath    string
		signalsPath string
		runID       string
		chartPath   string
		orgPath     string
		asJSON      bool
		ema         []int

		// journal overrides
		journalType string
		dbPath      string
		tradesFile  string
		equityFile  string
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay bars against signals and report the run",
		Long: `Replay a bar CSV against a signal file (CSV or JSON) and print the
trades and metrics.

Example:
  tradelab backtest --bars eurusd-h1.csv --signals signals.json --journal sqlite --db runs.sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rs.cfg
			if journalType != "" {
				cfg.Journal.Type = journalType
			}
			if dbPath != "" {
				cfg.Journal.DBPath = dbPath
			}
			if tradesFile != "" {
				cfg.Journal.TradesFile = tradesFile
			}
			if equityFile != "" {
				cfg.Journal.EquityFile = equityFile
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			bars, signals, err := loadInputs(barsPath, signalsPath)
			if err != nil {
				return err
			}
			if len(ema) > 0 {
				if signalsPath != "" {
					return fmt.Errorf("--ema and --signals are mutually exclusive")
				}
				if len(ema) != 2 {
					return fmt.Errorf("--ema needs fast,slow")
				}
				signals, err = emaCrossSignals(strategies.EMACrossConfig{FastPeriod: ema[0], SlowPeriod: ema[1]}, bars)
				if err != nil {
					return err
				}
			}
			if runID == "" {
				runID = id.New()
			}
			log := rs.log.WithField("run_id", runID)

			j, db, err := openJournal(cfg.Journal)
			if err != nil {
				return err
			}
			if j != nil {
				defer j.Close()
			}

			runner := backtest.Runner{Config: cfg.Engine, Options: cfg.Run.Options()}
			var rec *journal.Recorder
			if j != nil {
				rec = &journal.Recorder{J: j, RunID: runID}
				runner.OnTradeClosed = rec
			}
			runner.OnTradeClosed = closeLogger(log, runner.OnTradeClosed)

			log.WithFields(logrus.Fields{
				"bars":    len(bars),
				"signals": len(signals),
			}).Info("backtest started")
			res := runner.Run(bars, signals)

			if rec != nil {
				if rec.Err != nil {
					return fmt.Errorf("journal trades: %w", rec.Err)
				}
				if err := rec.RecordCurve(res.Metrics.EquityCurve); err != nil {
					return fmt.Errorf("journal equity: %w", err)
				}
			}

			if chartPath != "" {
				if err := writeChart(chartPath, runID, res.Metrics.EquityCurve); err != nil {
					return err
				}
			}

			if db != nil || orgPath != "" {
				run, err := journal.NewBacktestRun(runID, cfg.Run.Strategy, res)
				if err != nil {
					return err
				}
				run.Instrument = cfg.Run.Instrument
				run.Timeframe = cfg.Run.Timeframe
				run.Dataset = barsPath
				run.OrgPath = orgPath
				run.EquityChart = chartPath
				if db != nil {
					if err := db.RecordBacktest(cmd.Context(), run); err != nil {
						return err
					}
				}
				if orgPath != "" {
					if err := run.WriteBacktestOrg(); err != nil {
						return err
					}
				}
			}

			log.WithFields(logrus.Fields{
				"trades":     res.Metrics.TotalTrades,
				"net_profit": res.Metrics.NetProfit,
			}).Info("backtest finished")

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			backtest.PrintResult(out, runID, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&barsPath, "bars", "", "OHLC bar CSV (time,open,high,low,close)")
	cmd.Flags().StringVar(&signalsPath, "signals", "", "Signal file, .json or .csv")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run id (default: new ULID)")
	cmd.Flags().StringVar(&chartPath, "chart", "", "Write the equity curve as an HTML chart")
	cmd.Flags().StringVar(&orgPath, "org", "", "Write an org-mode run report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().IntSliceVar(&ema, "ema", nil, "Generate EMA cross signals from the bars: fast,slow")

	cmd.Flags().StringVar(&journalType, "journal", "", "Journal type: none|csv|sqlite (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite journal database")
	cmd.Flags().StringVar(&tradesFile, "trades-file", "", "CSV trade journal")
	cmd.Flags().StringVar(&equityFile, "equity-file", "", "CSV equity journal")
	_ = cmd.MarkFlagRequired("bars")

	return cmd
}

// closeLogger logs each closed trade at debug level before passing it on.
func closeLogger(log logrus.FieldLogger, next sim.TradeClosedListener) sim.TradeClosedListener {
	return sim.TradeClosedFunc(func(t sim.Trade) {
		log.WithFields(logrus.Fields{
			"trade":  t.ID,
			"status": t.Status,
			"pnl":    t.PnL,
		}).Debug("trade closed")
		if next != nil {
			next.OnTradeClosed(t)
		}
	})
}

func writeChart(path, title string, curve []sim.EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if err := backtest.WriteEquityChart(f, title, curve); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
