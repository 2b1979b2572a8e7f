package backtest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/metrics"
	"github.com/rustyeddy/tradelab/sim"
	"github.com/shopspring/decimal"
)

// BlownThreshold is the equity at or below which an account counts as wiped out.
const BlownThreshold = 10.0

const sizingSamplePoints = 5

// SizingPoint is one entry of the position-sizing history: the equity the
// trade was sized from and the resulting size.
type SizingPoint struct {
	Time   int64   `json:"time"`
	Equity float64 `json:"equity"`
	Size   float64 `json:"size"`
}

// Summary is the compact outcome of a scenario replay.
type Summary struct {
	InitialBalance float64       `json:"initialBalance"`
	FinalBalance   float64       `json:"finalBalance"`
	NetProfit      float64       `json:"netProfit"`
	Blown          bool          `json:"blown"`
	BlownAt        int64         `json:"blownAt,omitempty"`
	MaxDrawdown    float64       `json:"maxDrawdown"`
	TotalTrades    int           `json:"totalTrades"`
	WinRate        float64       `json:"winRate"`
	MinEquity      float64       `json:"minEquity"`
	MaxEquity      float64       `json:"maxEquity"`
	SizingSample   []SizingPoint `json:"sizingSample"`
}

// RunScenario replays bars on a fresh ledger, opening a trade for every
// matching signal sized from current equity, and reports whether the account
// survived. opts defaults to 1% risk with a 1x stop and 2x target.
func RunScenario(bars []market.Bar, signals []market.Signal, cfg sim.Config, opts RunOptions) Summary {
	opts = opts.withDefaults()
	l := sim.NewLedger(cfg)
	replay(l, bars, market.IndexSignals(signals), opts)

	trades := l.Trades()
	curve := l.EquityCurve()
	snap := metrics.Calculate(trades, curve, cfg.InitialBalance)

	s := Summary{
		InitialBalance: cfg.InitialBalance,
		FinalBalance:   l.Balance(),
		NetProfit:      l.Balance() - cfg.InitialBalance,
		MaxDrawdown:    snap.MaxDrawdown,
		TotalTrades:    len(trades),
		WinRate:        snap.WinRate,
		MinEquity:      cfg.InitialBalance,
		MaxEquity:      cfg.InitialBalance,
	}
	for _, p := range curve {
		s.MinEquity = math.Min(s.MinEquity, p.Value)
		s.MaxEquity = math.Max(s.MaxEquity, p.Value)
		if !s.Blown && p.Value <= BlownThreshold {
			s.Blown = true
			s.BlownAt = p.Time
		}
	}
	s.SizingSample = sizingSample(trades, curve)
	return s
}

// sizingSample picks up to five evenly spaced trades and pairs each with the
// equity recorded on its entry bar.
func sizingSample(trades []sim.Trade, curve []sim.EquityPoint) []SizingPoint {
	equityAt := make(map[int64]float64, len(curve))
	for _, p := range curve {
		equityAt[p.Time] = p.Value
	}
	point := func(t sim.Trade) SizingPoint {
		return SizingPoint{Time: t.EntryTime, Equity: equityAt[t.EntryTime], Size: t.Size}
	}

	n := len(trades)
	if n <= sizingSamplePoints {
		out := make([]SizingPoint, 0, n)
		for _, t := range trades {
			out = append(out, point(t))
		}
		return out
	}

	out := make([]SizingPoint, 0, sizingSamplePoints)
	for i := 0; i < sizingSamplePoints; i++ {
		idx := int(math.Round(float64(i) * float64(n-1) / float64(sizingSamplePoints-1)))
		out = append(out, point(trades[idx]))
	}
	return out
}

// Prompt renders the summary as short plain text suitable for a language
// model's context window. Money is printed with two fixed decimals.
func (s Summary) Prompt() string {
	var b strings.Builder

	initial := money(s.InitialBalance)
	final := money(s.FinalBalance)
	net := money(s.NetProfit)
	sign := ""
	if net.IsPositive() {
		sign = "+"
	}

	fmt.Fprintf(&b, "Scenario: balance %s -> %s (net %s%s)\n", initial.StringFixed(2), final.StringFixed(2), sign, net.StringFixed(2))
	fmt.Fprintf(&b, "Trades: %d, win rate %s%%\n", s.TotalTrades, decimal.NewFromFloat(s.WinRate).StringFixed(2))
	fmt.Fprintf(&b, "Max drawdown: %s%%\n", decimal.NewFromFloat(s.MaxDrawdown).StringFixed(2))
	fmt.Fprintf(&b, "Equity range: %s .. %s\n", money(s.MinEquity).StringFixed(2), money(s.MaxEquity).StringFixed(2))
	if s.Blown {
		fmt.Fprintf(&b, "Account blown: yes, at %s\n", time.Unix(s.BlownAt, 0).UTC().Format(time.RFC3339))
	} else {
		b.WriteString("Account blown: no\n")
	}
	if len(s.SizingSample) > 0 {
		b.WriteString("Position sizing:\n")
		for _, p := range s.SizingSample {
			fmt.Fprintf(&b, "- %s equity %s size %s\n",
				time.Unix(p.Time, 0).UTC().Format(time.RFC3339),
				money(p.Equity).StringFixed(2),
				decimal.NewFromFloat(p.Size).Round(2).String())
		}
	}
	return b.String()
}

func money(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(2)
}
