// Package strategies turns bar series into signal lists the replay engine
// can consume.
package strategies

import (
	"github.com/rustyeddy/tradelab/market"
)

// Strategy is fed closed bars in order and decides after each one.
type Strategy interface {
	Name() string
	Reset()
	Ready() bool
	Update(b market.Bar) Decision
}

type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

type Decision struct {
	Action Action
	Reason string
}

// Generate resets s, feeds it every bar and returns one signal per Buy or
// Sell decision, stamped with the deciding bar's time.
func Generate(s Strategy, bars []market.Bar) []market.Signal {
	s.Reset()
	var out []market.Signal
	for _, b := range bars {
		d := s.Update(b)
		var side market.Side
		switch d.Action {
		case Buy:
			side = market.Long
		case Sell:
			side = market.Short
		default:
			continue
		}
		out = append(out, market.Signal{
			Time:     b.Time,
			Side:     side,
			Reason:   d.Reason,
			Strategy: s.Name(),
		})
	}
	return out
}
