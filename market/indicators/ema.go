// Package indicators holds streaming indicators fed one closed bar at a time.
package indicators

import (
	"fmt"

	"github.com/rustyeddy/tradelab/market"
)

// EMA is an exponential moving average of bar closes, seeded with the first
// close.
type EMA struct {
	n     int
	alpha float64

	seen  int
	value float64
	ready bool

	name string
}

func NewEMA(period int) (*EMA, error) {
	if period <= 0 {
		return nil, fmt.Errorf("ema: period must be positive, got %d", period)
	}
	return &EMA{
		n:     period,
		alpha: 2.0 / float64(period+1),
		name:  fmt.Sprintf("EMA(%d)", period),
	}, nil
}

func (e *EMA) Name() string   { return e.name }
func (e *EMA) Warmup() int    { return e.n }
func (e *EMA) Ready() bool    { return e.ready }
func (e *EMA) Value() float64 { return e.value }

func (e *EMA) Reset() {
	e.seen = 0
	e.value = 0
	e.ready = false
}

// Update consumes the next closed bar.
func (e *EMA) Update(b market.Bar) {
	e.seen++
	if e.seen == 1 {
		e.value = b.Close
	} else {
		e.value = e.alpha*b.Close + (1.0-e.alpha)*e.value
	}
	if e.seen >= e.n {
		e.ready = true
	}
}
