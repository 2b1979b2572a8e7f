package market

// Bar is one OHLC candle. Time is the bar open in unix seconds (UTC).
type Bar struct {
	Time  int64   `json:"time" yaml:"time"`
	Open  float64 `json:"open" yaml:"open"`
	High  float64 `json:"high" yaml:"high"`
	Low   float64 `json:"low" yaml:"low"`
	Close float64 `json:"close" yaml:"close"`
}

// Range is High-Low.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Bullish reports whether the bar closed at or above its open.
func (b Bar) Bullish() bool {
	return b.Close >= b.Open
}
