package sim

import "github.com/rustyeddy/tradelab/market"

func hitStopLoss(t *Trade, price float64) bool {
	if t.Side == market.Long {
		return price <= t.SL
	}
	return price >= t.SL
}

func hitTakeProfit(t *Trade, price float64) bool {
	if t.Side == market.Long {
		return price >= t.TP
	}
	return price <= t.TP
}
