// Package backtest drives the simulation ledger over whole bar series: single
// runs, headless survival scenarios and SL/TP parameter sweeps.
package backtest

import (
	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/metrics"
	"github.com/rustyeddy/tradelab/sim"
)

// ATRMultiplier scales a bar's range into the volatility proxy used to place
// stops and targets.
const ATRMultiplier = 3

// ATRProxy approximates average true range from a single bar as
// (high - low) * 3. It is a deliberate simplification, not an indicator.
func ATRProxy(b market.Bar) float64 {
	return b.Range() * ATRMultiplier
}

// Levels places the stop and target for side at slMult and tpMult multiples of
// atr away from entry.
func Levels(side market.Side, entry, atr, slMult, tpMult float64) (sl, tp float64) {
	dir := side.Sign()
	return entry - dir*atr*slMult, entry + dir*atr*tpMult
}

// RunOptions controls how signals become trades during a replay. RiskPct is
// the fraction of current equity risked per trade (0.01 = 1%); SLMult and
// TPMult place the stop and target in ATR-proxy units.
type RunOptions struct {
	RiskPct    float64 `json:"riskPct" yaml:"risk_pct"`
	SLMult     float64 `json:"slMult" yaml:"sl_mult"`
	TPMult     float64 `json:"tpMult" yaml:"tp_mult"`
	CloseAtEnd bool    `json:"closeAtEnd" yaml:"close_at_end"`
}

// DefaultRunOptions risks 1% per trade with a 1x stop and 2x target.
func DefaultRunOptions() RunOptions {
	return RunOptions{RiskPct: 0.01, SLMult: 1, TPMult: 2}
}

func (o RunOptions) withDefaults() RunOptions {
	d := DefaultRunOptions()
	if o.RiskPct <= 0 {
		o.RiskPct = d.RiskPct
	}
	if o.SLMult <= 0 {
		o.SLMult = d.SLMult
	}
	if o.TPMult <= 0 {
		o.TPMult = d.TPMult
	}
	return o
}

// Result is everything a single run produces.
type Result struct {
	Config  sim.Config       `json:"config"`
	Options RunOptions       `json:"options"`
	Start   int64            `json:"start"`
	End     int64            `json:"end"`
	Trades  []sim.Trade      `json:"trades"`
	Metrics metrics.Snapshot `json:"metrics"`
}

// Runner replays one bar series against one signal set.
type Runner struct {
	Config  sim.Config
	Options RunOptions

	// OnTradeClosed, when set, sees every trade as the ledger closes it.
	OnTradeClosed sim.TradeClosedListener
}

// Run replays bars in order, opening a trade for every signal whose time
// matches a bar, and returns the trades and a metrics snapshot.
func (r Runner) Run(bars []market.Bar, signals []market.Signal) Result {
	opts := r.Options.withDefaults()
	l := sim.NewLedger(r.Config)
	l.SetTradeClosedListener(r.OnTradeClosed)

	replay(l, bars, market.IndexSignals(signals), opts)
	if opts.CloseAtEnd && len(bars) > 0 {
		last := bars[len(bars)-1]
		if l.CloseAll(last) > 0 {
			l.MarkEquity(last.Time)
		}
	}

	res := Result{
		Config:  r.Config,
		Options: opts,
		Trades:  l.Trades(),
		Metrics: metrics.Calculate(l.Trades(), l.EquityCurve(), r.Config.InitialBalance),
	}
	if len(bars) > 0 {
		res.Start = bars[0].Time
		res.End = bars[len(bars)-1].Time
	}
	return res
}

// replay is the shared bar loop. Each bar is processed before its signals are
// acted on, so a trade opened at a bar's close starts tracking on the next bar.
func replay(l *sim.Ledger, bars []market.Bar, signals map[int64][]market.Signal, opts RunOptions) {
	for _, b := range bars {
		l.ProcessCandle(b)

		for _, sig := range signals[b.Time] {
			atr := ATRProxy(b)
			sl, tp := Levels(sig.Side, b.Close, atr, opts.SLMult, opts.TPMult)
			l.OpenTrade(b, sig.Side, sl, tp, opts.RiskPct, signalLabel(sig))
		}
	}
}

func signalLabel(sig market.Signal) string {
	if sig.Strategy != "" {
		return sig.Strategy
	}
	return sig.Reason
}
