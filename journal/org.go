package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for pasting into a journal.
// Structured facts go in the PROPERTIES drawer; Thesis/Execution/Review are left for notes.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("*** Trade: %s %s (%s)", t.Side, t.Status, shortID(t.TradeID))
	open := t.OpenTime.UTC().Format(time.RFC3339)
	close := t.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":ID: %s\n", t.TradeID))
	if t.RunID != "" {
		b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	}
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", t.Side))
	b.WriteString(fmt.Sprintf(":SIZE: %.2f\n", t.Size))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.5f\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.5f\n", t.ExitPrice))
	b.WriteString(fmt.Sprintf(":SL: %.5f\n", t.SL))
	b.WriteString(fmt.Sprintf(":TP: %.5f\n", t.TP))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", open))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", close))
	b.WriteString(fmt.Sprintf(":PNL: %.2f\n", t.PnL))
	b.WriteString(fmt.Sprintf(":PIPS: %.1f\n", t.Pips))
	b.WriteString(fmt.Sprintf(":MAE: %.2f\n", t.MAE))
	b.WriteString(fmt.Sprintf(":MFE: %.2f\n", t.MFE))
	b.WriteString(fmt.Sprintf(":KILLZONE: %s\n", t.Killzone))
	if t.Setup != "" {
		b.WriteString(fmt.Sprintf(":SETUP: %s\n", t.Setup))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("**** Thesis\n- \n\n")
	b.WriteString("**** Execution\n- \n\n")
	b.WriteString("**** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// shortID keeps the tail of an id; ULIDs share their leading time bytes.
func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
