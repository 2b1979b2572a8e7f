package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/tradelab/market"
)

func fmtTime(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// PrintResult writes a human readable report of one run.
func PrintResult(w io.Writer, name string, r Result) {
	m := r.Metrics

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	if name != "" {
		fmt.Fprintf(w, "Run:           %s\n", name)
	}
	fmt.Fprintf(w, "Start:         %s\n", fmtTime(r.Start))
	fmt.Fprintf(w, "End:           %s\n", fmtTime(r.End))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Risk per Trade: %.2f%%\n", r.Options.RiskPct*100)
	fmt.Fprintf(w, "Stop / Target: %.2fx / %.2fx ATR\n", r.Options.SLMult, r.Options.TPMult)
	fmt.Fprintf(w, "Leverage:      %.2f\n", r.Config.Leverage)
	fmt.Fprintf(w, "Commission:    %.5f\n", r.Config.Commission)
	fmt.Fprintf(w, "Slippage:      %.5f\n", r.Config.Slippage)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", m.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", m.WinningTrades)
	fmt.Fprintf(w, "Losses:        %d\n", m.LosingTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", m.WinRate)
	fmt.Fprintf(w, "Avg Win:       %.2f\n", m.AvgWin)
	fmt.Fprintf(w, "Avg Loss:      %.2f\n", m.AvgLoss)
	fmt.Fprintf(w, "Expectancy:    %.2f\n", m.Expectancy)
	fmt.Fprintf(w, "Avg R:R:       %.2f\n", m.AvgRiskReward)
	fmt.Fprintf(w, "Total Pips:    %.1f\n", m.TotalPips)
	fmt.Fprintf(w, "Avg MAE/MFE:   %.2f / %.2f\n", m.AvgMAE, m.AvgMFE)
	fmt.Fprintf(w, "Streaks:       %d wins / %d losses\n", m.MaxConsecutiveWins, m.MaxConsecutiveLosses)
	fmt.Fprintf(w, "Avg Duration:  %s\n", time.Duration(m.AvgTradeDuration*float64(time.Second)).Round(time.Second))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", m.InitialBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", m.FinalBalance)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", m.NetProfit)
	fmt.Fprintf(w, "Return:        %.2f%%\n", m.ReturnPct)
	fmt.Fprintf(w, "Profit/Hour:   %.2f\n", m.ProfitPerHour)
	if m.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", m.ProfitFactor)
	}
	if m.MaxDrawdown > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%% (%.2f)\n", m.MaxDrawdown, m.MaxDrawdownAbs)
	}
	if m.RecoveryCount > 0 {
		fmt.Fprintf(w, "Recoveries:    %d, avg %.1fh\n", m.RecoveryCount, m.AvgRecoveryTime)
	}
	fmt.Fprintf(w, "Sharpe:        %.2f\n", m.SharpeRatio)
	fmt.Fprintf(w, "SQN:           %.2f\n", m.SQN)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sessions")
	fmt.Fprintln(w, "--------------------------------------------------")
	for _, s := range market.Sessions() {
		fmt.Fprintf(w, "%-14s %d\n", string(s)+":", m.SessionDistribution[s])
	}
	fmt.Fprintln(w)
}

// PrintSweep writes the ranked sweep table. top limits the rows; 0 prints all.
func PrintSweep(w io.Writer, r SweepReport, top int) {
	fmt.Fprintf(w, "Sweep: %d/%d points", r.Completed, r.Total)
	if r.Cancelled {
		fmt.Fprint(w, " (cancelled)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%4s %8s %8s %7s %12s %8s %8s %8s\n", "#", "SL x", "TP x", "Trades", "Net P/L", "Win %", "PF", "MaxDD %")

	rows := r.Results
	if top > 0 && top < len(rows) {
		rows = rows[:top]
	}
	for i, res := range rows {
		m := res.Metrics
		fmt.Fprintf(w, "%4d %8.2f %8.2f %7d %12.2f %8.2f %8.2f %8.2f\n",
			i+1, res.SLMult, res.TPMult, m.TotalTrades, m.NetProfit, m.WinRate, m.ProfitFactor, m.MaxDrawdown)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "failed: SL %.2f TP %.2f: %s\n", f.SLMult, f.TPMult, f.Err)
	}
}
