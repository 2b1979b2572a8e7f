package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/market/indicators"
)

// EMACross signals when a fast EMA crosses a slow EMA. It fires only on the
// cross itself, not on every bar while the EMAs stay crossed.
type EMACross struct {
	fast *indicators.EMA
	slow *indicators.EMA

	// -1 fast below slow, 0 unknown, +1 fast above slow
	prevRel int
	name    string

	minSpread float64
}

type EMACrossConfig struct {
	FastPeriod int `json:"fast" yaml:"fast"`
	SlowPeriod int `json:"slow" yaml:"slow"`

	// Optional noise filter in price units, e.g. 0.00005. 0 disables.
	MinSpread float64 `json:"minSpread,omitempty" yaml:"min_spread,omitempty"`
}

func EMACrossDefaults() EMACrossConfig {
	return EMACrossConfig{FastPeriod: 20, SlowPeriod: 50}
}

func NewEMACross(cfg EMACrossConfig) (*EMACross, error) {
	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= 0 || cfg.FastPeriod >= cfg.SlowPeriod {
		return nil, fmt.Errorf("ema cross: require 0 < fast < slow (got %d/%d)", cfg.FastPeriod, cfg.SlowPeriod)
	}
	if cfg.MinSpread < 0 {
		return nil, fmt.Errorf("ema cross: min spread must not be negative")
	}
	f, err := indicators.NewEMA(cfg.FastPeriod)
	if err != nil {
		return nil, err
	}
	s, err := indicators.NewEMA(cfg.SlowPeriod)
	if err != nil {
		return nil, err
	}
	return &EMACross{
		fast:      f,
		slow:      s,
		minSpread: cfg.MinSpread,
		name:      fmt.Sprintf("EMA_CROSS(%d,%d)", cfg.FastPeriod, cfg.SlowPeriod),
	}, nil
}

func (x *EMACross) Name() string { return x.name }

func (x *EMACross) Reset() {
	x.fast.Reset()
	x.slow.Reset()
	x.prevRel = 0
}

func (x *EMACross) Ready() bool {
	return x.fast.Ready() && x.slow.Ready()
}

func (x *EMACross) Update(b market.Bar) Decision {
	x.fast.Update(b)
	x.slow.Update(b)

	if !x.Ready() {
		return Decision{Action: Hold, Reason: "warming up"}
	}

	diff := x.fast.Value() - x.slow.Value()
	if x.minSpread > 0 && math.Abs(diff) < x.minSpread {
		return Decision{Action: Hold, Reason: "min-spread filter"}
	}

	rel := 0
	if diff > 0 {
		rel = +1
	} else if diff < 0 {
		rel = -1
	}

	// The first non-zero relationship is the baseline and never fires.
	if x.prevRel == 0 {
		x.prevRel = rel
		return Decision{Action: Hold, Reason: "baseline set"}
	}

	prev := x.prevRel
	if rel != 0 {
		x.prevRel = rel
	}
	switch {
	case prev == -1 && rel == +1:
		return Decision{Action: Buy, Reason: "fast EMA crossed above slow EMA"}
	case prev == +1 && rel == -1:
		return Decision{Action: Sell, Reason: "fast EMA crossed below slow EMA"}
	}
	return Decision{Action: Hold, Reason: "no cross"}
}
