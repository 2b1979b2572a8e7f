package sim

import (
	"fmt"

	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/pkg/id"
	"github.com/rustyeddy/tradelab/risk"
)

// EquityPoint is the mark-to-market account value after one bar.
type EquityPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// TradeClosedListener is notified each time the ledger closes a trade.
type TradeClosedListener interface {
	OnTradeClosed(t Trade)
}

// TradeClosedFunc adapts a function to TradeClosedListener.
type TradeClosedFunc func(t Trade)

func (f TradeClosedFunc) OnTradeClosed(t Trade) { f(t) }

// Ledger replays bars against a book of simulated positions.
//
// The ledger owns its trades; Trades and EquityCurve hand out copies. It has no
// internal locking and must not be shared between goroutines.
type Ledger struct {
	cfg      Config
	balance  float64
	equity   float64
	trades   []Trade
	curve    []EquityPoint
	ids      *id.Generator
	listener TradeClosedListener
}

func NewLedger(cfg Config) *Ledger {
	return &Ledger{
		cfg:     cfg,
		balance: cfg.InitialBalance,
		equity:  cfg.InitialBalance,
		ids:     id.NewGenerator(0),
	}
}

// SetTradeClosedListener installs an optional close callback. Pass nil to remove it.
func (l *Ledger) SetTradeClosedListener(listener TradeClosedListener) {
	l.listener = listener
}

func (l *Ledger) Config() Config   { return l.cfg }
func (l *Ledger) Balance() float64 { return l.balance }
func (l *Ledger) Equity() float64  { return l.equity }

// Trades returns a copy of every trade, open and closed, in the order opened.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// EquityCurve returns a copy of the equity curve.
func (l *Ledger) EquityCurve() []EquityPoint {
	out := make([]EquityPoint, len(l.curve))
	copy(out, l.curve)
	return out
}

// OpenCount is the number of trades still OPEN.
func (l *Ledger) OpenCount() int {
	n := 0
	for i := range l.trades {
		if l.trades[i].Open() {
			n++
		}
	}
	return n
}

// OpenTrade opens a position at bar.Close sized to risk riskPct of current
// equity at the stop. Orders whose stop sits on the close, or that would
// produce a non-positive size, are dropped and ok is false.
func (l *Ledger) OpenTrade(bar market.Bar, side market.Side, sl, tp, riskPct float64, label string) (tradeID string, ok bool) {
	sz, ok := risk.PositionSize(risk.Inputs{
		Equity:     l.equity,
		RiskPct:    riskPct,
		EntryPrice: bar.Close,
		StopPrice:  sl,
		Leverage:   l.cfg.Leverage,
	})
	if !ok {
		return "", false
	}

	t := Trade{
		ID:          l.ids.At(bar.Time),
		EntryTime:   bar.Time,
		Side:        side,
		EntryPrice:  bar.Close,
		Size:        sz.Units,
		SL:          sl,
		TP:          tp,
		Status:      StatusOpen,
		Killzone:    market.ClassifySession(bar.Time),
		RiskReward:  risk.RR(bar.Close, sl, tp),
		SetupOrigin: label,
	}
	l.trades = append(l.trades, t)
	return t.ID, true
}

// ProcessCandle walks every open trade through the bar's expanded ticks,
// closing at the first stop or target touched, then revalues the account at
// the bar close and appends one equity point.
func (l *Ledger) ProcessCandle(bar market.Bar) {
	if len(l.trades) == 0 {
		l.equity = l.balance
		l.curve = append(l.curve, EquityPoint{Time: bar.Time, Value: l.balance})
		return
	}

	ticks := market.ExpandTicks(bar, l.cfg.UseSyntheticTicks)
	for i := range l.trades {
		t := &l.trades[i]
		if !t.Open() {
			continue
		}
		for _, price := range ticks {
			pl := t.UnrealizedPL(price)
			if pl < t.MAE {
				t.MAE = pl
			}
			if pl > t.MFE {
				t.MFE = pl
			}

			if hitStopLoss(t, price) {
				l.closeTrade(t, t.SL, bar.Time, StatusClosedSL)
				break
			}
			if hitTakeProfit(t, price) {
				l.closeTrade(t, t.TP, bar.Time, StatusClosedTP)
				break
			}
		}
	}

	l.revalue(bar.Close)
	l.curve = append(l.curve, EquityPoint{Time: bar.Time, Value: l.equity})
}

// CloseTrade closes an open trade at price with status CLOSED_MANUAL and
// revalues the account at that price.
func (l *Ledger) CloseTrade(tradeID string, price float64, ts int64) error {
	for i := range l.trades {
		t := &l.trades[i]
		if t.ID != tradeID {
			continue
		}
		if !t.Open() {
			return fmt.Errorf("close trade: trade %q is already closed", tradeID)
		}
		l.closeTrade(t, price, ts, StatusClosedManual)
		l.revalue(price)
		return nil
	}
	return fmt.Errorf("close trade: trade %q not found", tradeID)
}

// CloseAll closes every open trade at bar.Close with status CLOSED_MANUAL and
// returns how many were closed. No equity point is appended.
func (l *Ledger) CloseAll(bar market.Bar) int {
	n := 0
	for i := range l.trades {
		t := &l.trades[i]
		if !t.Open() {
			continue
		}
		l.closeTrade(t, bar.Close, bar.Time, StatusClosedManual)
		n++
	}
	l.revalue(bar.Close)
	return n
}

// MarkEquity records the current equity at ts. A point already recorded at ts
// is overwritten so curve times stay strictly increasing.
func (l *Ledger) MarkEquity(ts int64) {
	if n := len(l.curve); n > 0 && l.curve[n-1].Time == ts {
		l.curve[n-1].Value = l.equity
		return
	}
	l.curve = append(l.curve, EquityPoint{Time: ts, Value: l.equity})
}

func (l *Ledger) closeTrade(t *Trade, price float64, ts int64, status Status) {
	t.ExitPrice = price
	t.ExitTime = ts
	t.Status = status
	t.DurationSeconds = ts - t.EntryTime
	t.PnL = netPL(t, price, l.cfg)
	t.Pips = t.Side.Sign() * (price - t.EntryPrice) * pipScale(t.EntryPrice)

	l.balance += t.PnL

	if l.listener != nil {
		l.listener.OnTradeClosed(*t)
	}
}

// revalue recomputes equity from balance plus open trades marked at price.
func (l *Ledger) revalue(price float64) {
	equity := l.balance
	for i := range l.trades {
		if l.trades[i].Open() {
			equity += l.trades[i].UnrealizedPL(price)
		}
	}
	l.equity = equity
}
