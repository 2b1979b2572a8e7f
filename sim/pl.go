package sim

// netPL is the realized P/L of closing t at price after slippage and commission.
func netPL(t *Trade, price float64, cfg Config) float64 {
	gross := t.UnrealizedPL(price)
	return gross - cfg.Slippage*t.Size - cfg.Commission*price*t.Size
}
