package backtest

import (
	"time"

	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/sim"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC).Unix()

func hour(n int) int64 { return t0 + int64(n)*3600 }

func bar(n int, o, h, l, c float64) market.Bar {
	return market.Bar{Time: hour(n), Open: o, High: h, Low: l, Close: c}
}

// quietBar has a 0.002 range around 1.1 so the ATR proxy is 0.006.
func quietBar(n int) market.Bar {
	return bar(n, 1.1000, 1.1010, 1.0990, 1.1000)
}

func long(n int) market.Signal {
	return market.Signal{Time: hour(n), Side: market.Long, Reason: "test", Strategy: "unit"}
}

func short(n int) market.Signal {
	return market.Signal{Time: hour(n), Side: market.Short, Reason: "test"}
}

// wavySeries trends up and down so different stop/target multiples rank
// differently.
func wavySeries(n int) []market.Bar {
	bars := make([]market.Bar, n)
	price := 1.1000
	for i := range bars {
		step := 0.0008
		if (i/6)%2 == 1 {
			step = -0.0011
		}
		o := price
		c := price + step
		hi := max(o, c) + 0.0006
		lo := min(o, c) - 0.0006
		bars[i] = bar(i, o, hi, lo, c)
		price = c
	}
	return bars
}

func everyNth(bars []market.Bar, n int) []market.Signal {
	var out []market.Signal
	for i := 0; i < len(bars); i += n {
		side := market.Long
		if (i/n)%2 == 1 {
			side = market.Short
		}
		out = append(out, market.Signal{Time: bars[i].Time, Side: side})
	}
	return out
}

func defaultConfig() sim.Config {
	return sim.DefaultConfig()
}
