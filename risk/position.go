package risk

import "math"

type Inputs struct {
	Equity     float64
	RiskPct    float64 // 0.01 = 1% of equity
	EntryPrice float64
	StopPrice  float64
	Leverage   float64 // values below 1 are treated as 1
}

type Result struct {
	Units        float64
	StopDistance float64
	RiskAmount   float64
}

// PositionSize sizes a position so that a stop-out loses RiskPct of Equity,
// scaled by leverage: units = riskAmount / stopDistance * leverage.
// ok is false when no positive, finite size exists (zero stop distance,
// non-positive risk, NaN inputs).
func PositionSize(in Inputs) (Result, bool) {
	dist := StopDistance(in.EntryPrice, in.StopPrice)
	res := Result{
		StopDistance: dist,
		RiskAmount:   RiskAmount(in.Equity, in.RiskPct),
	}
	if dist == 0 {
		return res, false
	}
	lev := in.Leverage
	if lev < 1 {
		lev = 1
	}
	units := res.RiskAmount / dist * lev
	if !(units > 0) || math.IsInf(units, 0) {
		return res, false
	}
	res.Units = units
	return res, true
}
