package backtest

import (
	"encoding/json"
	"strconv"

	"github.com/newthinker/strategylab/internal/table"
)

// Trade column ids
const (
	ColumnSelect        = "select"
	ColumnEntryDate     = "entry_date"
	ColumnExitDate      = "exit_date"
	ColumnHoldingPeriod = "holding_period"
	ColumnPnL           = "pnl"
	ColumnPnLPct        = "pnl_pct"
	ColumnStatus        = "status"
	ColumnActions       = "actions"
)

// TradeColumns describes the trade history table.
func TradeColumns() []table.Column[Trade] {
	return []table.Column[Trade]{
		{
			ID: ColumnSelect,
		},
		{
			ID:         ColumnEntryDate,
			Header:     "Entry Date",
			Value:      func(t Trade) any { return t.EntryDate },
			Render:     func(t Trade) string { return FormatDate(t.EntryDate) },
			Sortable:   true,
			Hideable:   true,
			Filterable: true,
		},
		{
			ID:       ColumnExitDate,
			Header:   "Exit Date",
			Value:    func(t Trade) any { return t.ExitDate },
			Render:   func(t Trade) string { return FormatDate(t.ExitDate) },
			Sortable: true,
			Hideable: true,
		},
		{
			ID:       ColumnHoldingPeriod,
			Header:   "Days Held",
			Value:    func(t Trade) any { return holdingDays(t) },
			Render:   func(t Trade) string { return strconv.Itoa(holdingDays(t)) },
			Hideable: true,
		},
		{
			ID:       ColumnPnL,
			Header:   "P&L",
			Value:    func(t Trade) any { return t.PnL },
			Render:   func(t Trade) string { return FormatCurrency(t.PnL) },
			Class:    func(t Trade) string { return string(signTone(t.PnL)) },
			Sortable: true,
			Hideable: true,
		},
		{
			ID:       ColumnPnLPct,
			Header:   "P&L %",
			Value:    func(t Trade) any { return t.PnLPct },
			Render:   func(t Trade) string { return FormatPercent(t.PnLPct) },
			Class:    func(t Trade) string { return string(signTone(t.PnLPct)) },
			Sortable: true,
			Hideable: true,
		},
		{
			ID:       ColumnStatus,
			Header:   "Status",
			Value:    func(t Trade) any { return string(t.Status) },
			Render:   func(t Trade) string { return string(t.Status) },
			Class:    statusClass,
			Hideable: true,
		},
		{
			ID:     ColumnActions,
			Render: tradeJSON,
		},
	}
}

// ReportColumns drops the select and actions columns, which only make sense
// on the page.
func ReportColumns() []table.Column[Trade] {
	var out []table.Column[Trade]
	for _, c := range TradeColumns() {
		if c.ID != ColumnSelect && c.ID != ColumnActions {
			out = append(out, c)
		}
	}
	return out
}

// tradeJSON is the text placed on the clipboard by the copy action.
func tradeJSON(t Trade) string {
	b, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	return string(b)
}

func holdingDays(t Trade) int {
	days, _ := HoldingPeriod(t.EntryDate, t.ExitDate)
	return days
}

func statusClass(t Trade) string {
	if t.Status == StatusWin {
		return "badge-win"
	}
	return "badge-loss"
}

// NewTradeTable builds the trade history table for a result.
func NewTradeTable(r *Result) *table.Table[Trade] {
	return table.New(TradeColumns(), r.TradeHistory)
}
