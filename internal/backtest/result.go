package backtest

import "github.com/newthinker/strategylab/internal/table"

// TradeStatus marks a closed trade as profitable or not.
type TradeStatus string

const (
	StatusWin  TradeStatus = "win"
	StatusLoss TradeStatus = "loss"
)

// Result is the backend's answer to one backtest run. It is never modified
// after decoding.
type Result struct {
	TotalReturnPct float64       `json:"total_return_pct"`
	WinRate        float64       `json:"win_rate"`
	TotalTrades    int           `json:"total_trades"`
	WinningTrades  int           `json:"winning_trades"`
	LosingTrades   int           `json:"losing_trades"`
	InitialCash    float64       `json:"initial_cash"`
	FinalValue     float64       `json:"final_value"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	TradeHistory   []Trade       `json:"trade_history"`
}

// NetPnL is the absolute gain over the starting cash.
func (r *Result) NetPnL() float64 {
	return r.FinalValue - r.InitialCash
}

// EquityPoint is one sample of the equity curve. Price and SMA are optional.
type EquityPoint struct {
	Date  string   `json:"date"`
	Value float64  `json:"value"`
	Price *float64 `json:"price,omitempty"`
	SMA   *float64 `json:"sma,omitempty"`
}

// Trade is one closed position.
type Trade struct {
	EntryDate string      `json:"entry_date"`
	ExitDate  string      `json:"exit_date"`
	PnL       float64     `json:"pnl"`
	PnLPct    float64     `json:"pnl_pct"`
	Status    TradeStatus `json:"status"`
}

// Fields lists the trade's fields in wire order for delimited exports.
func (t Trade) Fields() []table.Field {
	return []table.Field{
		{Name: "entry_date", Value: t.EntryDate},
		{Name: "exit_date", Value: t.ExitDate},
		{Name: "pnl", Value: t.PnL},
		{Name: "pnl_pct", Value: t.PnLPct},
		{Name: "status", Value: string(t.Status)},
	}
}

// TradeRecord is the columnar export schema of a trade.
type TradeRecord struct {
	EntryDate   string  `parquet:"entry_date"`
	ExitDate    string  `parquet:"exit_date"`
	HoldingDays int64   `parquet:"holding_days"`
	PnL         float64 `parquet:"pnl"`
	PnLPct      float64 `parquet:"pnl_pct"`
	Status      string  `parquet:"status"`
}

// Record converts the trade to its export row. Unparseable dates give a
// holding period of 0.
func (t Trade) Record() TradeRecord {
	days, _ := HoldingPeriod(t.EntryDate, t.ExitDate)
	return TradeRecord{
		EntryDate:   t.EntryDate,
		ExitDate:    t.ExitDate,
		HoldingDays: int64(days),
		PnL:         t.PnL,
		PnLPct:      t.PnLPct,
		Status:      string(t.Status),
	}
}

// Records converts trades to export rows.
func Records(trades []Trade) []TradeRecord {
	out := make([]TradeRecord, len(trades))
	for i, t := range trades {
		out[i] = t.Record()
	}
	return out
}
