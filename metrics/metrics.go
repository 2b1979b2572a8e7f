// Package metrics derives trading-performance statistics from a ledger's
// trades and equity curve. Everything here is a pure function of its inputs.
package metrics

import (
	"math"

	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/sim"
)

// Snapshot is a flat summary of a backtest. Durations are in seconds unless
// the field name says otherwise; MaxDrawdown, WinRate and ReturnPct are
// percentages.
type Snapshot struct {
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"`

	NetProfit    float64 `json:"netProfit"`
	GrossProfit  float64 `json:"grossProfit"`
	GrossLoss    float64 `json:"grossLoss"`
	ProfitFactor float64 `json:"profitFactor"`
	AvgWin       float64 `json:"avgWin"`
	AvgLoss      float64 `json:"avgLoss"`
	Expectancy   float64 `json:"expectancy"`

	AvgRiskReward float64 `json:"avgRiskReward"`
	AvgPips       float64 `json:"avgPips"`
	TotalPips     float64 `json:"totalPips"`
	AvgMAE        float64 `json:"avgMae"`
	AvgMFE        float64 `json:"avgMfe"`

	AvgTradeDuration float64 `json:"avgTradeDuration"`
	AvgTimeToWin     float64 `json:"avgTimeToWin"`
	AvgTimeToLoss    float64 `json:"avgTimeToLoss"`
	ProfitPerHour    float64 `json:"profitPerHour"`

	SessionDistribution map[market.Session]int `json:"sessionDistribution"`

	MaxConsecutiveWins   int `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses int `json:"maxConsecutiveLosses"`

	MaxDrawdown     float64 `json:"maxDrawdown"`
	MaxDrawdownAbs  float64 `json:"maxDrawdownAbs"`
	AvgRecoveryTime float64 `json:"avgRecoveryTime"` // hours
	RecoveryCount   int     `json:"recoveryCount"`

	SharpeRatio float64 `json:"sharpeRatio"`
	SQN         float64 `json:"sqn"`

	InitialBalance float64 `json:"initialBalance"`
	FinalBalance   float64 `json:"finalBalance"`
	ReturnPct      float64 `json:"returnPct"`

	EquityCurve []sim.EquityPoint `json:"equityCurve"`
}

// Calculate builds a Snapshot from trades, curve and the starting balance.
// Only closed trades are counted. Open trades still show up in the equity
// curve through their floating P/L.
func Calculate(trades []sim.Trade, curve []sim.EquityPoint, initialBalance float64) Snapshot {
	s := Snapshot{
		SessionDistribution: emptyDistribution(),
		InitialBalance:      initialBalance,
		EquityCurve:         make([]sim.EquityPoint, len(curve)),
	}
	copy(s.EquityCurve, curve)

	closed := closedTrades(trades)
	n := len(closed)
	s.TotalTrades = n

	var (
		rrSum, maeSum, mfeSum   float64
		durSum, winDur, lossDur float64
	)
	returns := make([]float64, 0, n)
	for _, t := range closed {
		s.NetProfit += t.PnL
		if t.PnL > 0 {
			s.WinningTrades++
			s.GrossProfit += t.PnL
			winDur += float64(t.DurationSeconds)
		} else {
			s.LosingTrades++
			s.GrossLoss += t.PnL
			lossDur += float64(t.DurationSeconds)
		}
		rrSum += t.RiskReward
		s.TotalPips += t.Pips
		maeSum += t.MAE
		mfeSum += t.MFE
		durSum += float64(t.DurationSeconds)
		s.SessionDistribution[t.Killzone]++
		returns = append(returns, safeDiv(t.PnL, initialBalance))
	}
	s.GrossLoss = math.Abs(s.GrossLoss)

	s.WinRate = safeDiv(float64(s.WinningTrades), float64(n)) * 100
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	} else {
		s.ProfitFactor = s.GrossProfit
	}
	s.AvgWin = safeDiv(s.GrossProfit, float64(s.WinningTrades))
	s.AvgLoss = safeDiv(-s.GrossLoss, float64(s.LosingTrades))
	s.Expectancy = s.AvgWin*s.WinRate/100 - math.Abs(s.AvgLoss)*(1-s.WinRate/100)
	if n == 0 {
		s.Expectancy = 0
	}

	s.AvgRiskReward = safeDiv(rrSum, float64(n))
	s.AvgPips = safeDiv(s.TotalPips, float64(n))
	s.AvgMAE = safeDiv(maeSum, float64(n))
	s.AvgMFE = safeDiv(mfeSum, float64(n))

	s.AvgTradeDuration = safeDiv(durSum, float64(n))
	s.AvgTimeToWin = safeDiv(winDur, float64(s.WinningTrades))
	s.AvgTimeToLoss = safeDiv(lossDur, float64(s.LosingTrades))
	s.ProfitPerHour = safeDiv(s.NetProfit, durSum/3600)

	s.MaxConsecutiveWins, s.MaxConsecutiveLosses = streaks(closed)

	dd := drawdown(curve, initialBalance)
	s.MaxDrawdown = dd.maxPct
	s.MaxDrawdownAbs = dd.maxAbs
	s.RecoveryCount = dd.recoveries
	s.AvgRecoveryTime = safeDiv(dd.recoverySeconds, float64(dd.recoveries)) / 3600

	mean, std := meanStd(returns)
	s.SharpeRatio = safeDiv(mean, std) * math.Sqrt(float64(n))
	denom := std * initialBalance
	if denom == 0 {
		denom = 1
	}
	s.SQN = math.Sqrt(float64(n)) * s.Expectancy / denom

	s.FinalBalance = initialBalance + s.NetProfit
	s.ReturnPct = safeDiv(s.NetProfit, initialBalance) * 100

	return s
}

func closedTrades(trades []sim.Trade) []sim.Trade {
	out := make([]sim.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Status.Closed() {
			out = append(out, t)
		}
	}
	return out
}

func emptyDistribution() map[market.Session]int {
	m := make(map[market.Session]int, 5)
	for _, s := range market.Sessions() {
		m[s] = 0
	}
	return m
}
