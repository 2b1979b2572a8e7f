package sim

import "github.com/rustyeddy/tradelab/market"

// Status is the lifecycle state of a Trade.
type Status string

const (
	StatusOpen         Status = "OPEN"
	StatusClosedTP     Status = "CLOSED_TP"
	StatusClosedSL     Status = "CLOSED_SL"
	StatusClosedManual Status = "CLOSED_MANUAL"
)

// Closed reports whether s is one of the terminal CLOSED_* states.
func (s Status) Closed() bool {
	return s == StatusClosedTP || s == StatusClosedSL || s == StatusClosedManual
}

// Trade is one simulated position. MAE and MFE are the running min and max of
// the position's unrealized P/L (account units, not price distance).
type Trade struct {
	ID              string         `json:"id"`
	EntryTime       int64          `json:"entryTime"`
	ExitTime        int64          `json:"exitTime,omitempty"`
	Side            market.Side    `json:"type"`
	EntryPrice      float64        `json:"entryPrice"`
	ExitPrice       float64        `json:"exitPrice,omitempty"`
	Size            float64        `json:"size"`
	SL              float64        `json:"sl"`
	TP              float64        `json:"tp"`
	PnL             float64        `json:"pnl"`
	Status          Status         `json:"status"`
	MAE             float64        `json:"mae"`
	MFE             float64        `json:"mfe"`
	Killzone        market.Session `json:"killzone"`
	Pips            float64        `json:"pips"`
	RiskReward      float64        `json:"riskReward"`
	SetupOrigin     string         `json:"setupOrigin,omitempty"`
	DurationSeconds int64          `json:"durationSeconds"`
}

// Open reports whether the trade is still live.
func (t *Trade) Open() bool {
	return t.Status == StatusOpen
}

// UnrealizedPL is the raw directional P/L at price, before costs.
func (t *Trade) UnrealizedPL(price float64) float64 {
	return t.Side.Sign() * (price - t.EntryPrice) * t.Size
}

// pipScale is 10000 for FX-like quotes and 1 for anything priced above 500.
// It is a heuristic, not an instrument table.
func pipScale(entry float64) float64 {
	if entry > 500 {
		return 1
	}
	return 10000
}
