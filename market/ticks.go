package market

// ExpandTicks turns one bar into the ordered prices the ledger walks.
//
// With synthetic ticks an up bar is assumed to dip to the low before running to
// the high (O,L,H,C) and a down bar to spike to the high first (O,H,L,C).
// Without them the order is always O,H,L,C. Either way the result is an
// approximation of the intrabar path, chosen to be deterministic.
func ExpandTicks(b Bar, synthetic bool) []float64 {
	if synthetic && b.Bullish() {
		return []float64{b.Open, b.Low, b.High, b.Close}
	}
	return []float64{b.Open, b.High, b.Low, b.Close}
}
