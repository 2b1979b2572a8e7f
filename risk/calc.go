package risk

import "math"

// StopDistance is the absolute price distance between entry and stop.
func StopDistance(entry, stop float64) float64 {
	return math.Abs(entry - stop)
}

// RR is the reward distance over the risk distance, 0 when there is no risk distance.
func RR(entry, stop, takeProfit float64) float64 {
	risk := StopDistance(entry, stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

// RiskAmount is the account cash put at risk for a fractional risk of equity.
func RiskAmount(equity, riskPct float64) float64 {
	return equity * riskPct
}
