// Package journal persists backtest trades, equity curves and run summaries.
package journal

import (
	"time"

	"github.com/rustyeddy/tradelab/sim"
)

// TradeRecord is a closed (or force-closed) trade as stored in a journal.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Side       string
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	SL         float64
	TP         float64
	OpenTime   time.Time
	CloseTime  time.Time
	PnL        float64
	Pips       float64
	MAE        float64
	MFE        float64
	Status     string
	Killzone   string
	Setup      string
}

// EquitySnapshot is one point of a run's equity curve.
type EquitySnapshot struct {
	RunID  string
	Time   time.Time
	Equity float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

func unix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// NewTradeRecord converts a ledger trade into a journal row for runID.
func NewTradeRecord(runID string, t sim.Trade) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		TradeID:    t.ID,
		Side:       t.Side.String(),
		Size:       t.Size,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		SL:         t.SL,
		TP:         t.TP,
		OpenTime:   unix(t.EntryTime),
		CloseTime:  unix(t.ExitTime),
		PnL:        t.PnL,
		Pips:       t.Pips,
		MAE:        t.MAE,
		MFE:        t.MFE,
		Status:     string(t.Status),
		Killzone:   string(t.Killzone),
		Setup:      t.SetupOrigin,
	}
}

// Recorder writes trades to a journal as the ledger closes them. Since the
// ledger's listener cannot fail, the first write error is kept in Err and
// later trades are skipped.
type Recorder struct {
	J     Journal
	RunID string
	Err   error
	count int
}

func (r *Recorder) OnTradeClosed(t sim.Trade) {
	if r.Err != nil {
		return
	}
	if err := r.J.RecordTrade(NewTradeRecord(r.RunID, t)); err != nil {
		r.Err = err
		return
	}
	r.count++
}

// Count is the number of trades written so far.
func (r *Recorder) Count() int { return r.count }

// RecordCurve writes every equity point for the recorder's run.
func (r *Recorder) RecordCurve(curve []sim.EquityPoint) error {
	for _, p := range curve {
		if err := r.J.RecordEquity(EquitySnapshot{RunID: r.RunID, Time: unix(p.Time), Equity: p.Value}); err != nil {
			return err
		}
	}
	return nil
}
