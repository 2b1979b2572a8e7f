package metrics

import (
	"math"

	"github.com/rustyeddy/tradelab/sim"
)

// safeDiv returns a/b, or 0 when the result would not be a finite number.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	v := a / b
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// relStdEpsilon is the deviation, relative to |mean|, below which a sample is
// treated as constant. Equal values still leave rounding noise in the sum.
const relStdEpsilon = 1e-9

// meanStd is the mean and population standard deviation of xs. A deviation
// that is only rounding noise is reported as exactly 0.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	std = math.Sqrt(sq / float64(len(xs)))
	if std <= relStdEpsilon*math.Abs(mean) {
		std = 0
	}
	return mean, std
}

// streaks walks closed trades in storage order and returns the longest run of
// wins (pnl > 0) and of losses (pnl <= 0).
func streaks(closed []sim.Trade) (maxWins, maxLosses int) {
	var wins, losses int
	for _, t := range closed {
		if t.PnL > 0 {
			wins++
			losses = 0
		} else {
			losses++
			wins = 0
		}
		maxWins = max(maxWins, wins)
		maxLosses = max(maxLosses, losses)
	}
	return maxWins, maxLosses
}

type drawdownStats struct {
	maxPct          float64
	maxAbs          float64
	recoveries      int
	recoverySeconds float64
}

// drawdown walks the curve tracking the running peak. A recovery is counted
// when a point strictly exceeds the peak that was in place when the drawdown
// began.
func drawdown(curve []sim.EquityPoint, initialBalance float64) drawdownStats {
	var dd drawdownStats
	if len(curve) == 0 {
		return dd
	}

	peak := initialBalance
	if peak <= 0 {
		peak = curve[0].Value
	}

	var (
		inDrawdown bool
		start      int64
	)
	for _, p := range curve {
		switch {
		case p.Value > peak:
			if inDrawdown {
				dd.recoveries++
				dd.recoverySeconds += float64(p.Time - start)
				inDrawdown = false
			}
			peak = p.Value
		case p.Value < peak:
			if !inDrawdown {
				inDrawdown = true
				start = p.Time
			}
			abs := peak - p.Value
			dd.maxAbs = max(dd.maxAbs, abs)
			dd.maxPct = max(dd.maxPct, safeDiv(abs, peak)*100)
		}
	}
	return dd
}
