package backtest

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/newthinker/strategylab/internal/table"
)

const sampleResult = `{
  "total_return_pct": 12.5,
  "win_rate": 66.67,
  "total_trades": 3,
  "winning_trades": 2,
  "losing_trades": 1,
  "initial_cash": 10000,
  "final_value": 11250,
  "equity_curve": [
    {"date": "2023-01-03", "value": 10000, "price": 125.07, "sma": 0},
    {"date": "2023-01-04", "value": 10010.5}
  ],
  "trade_history": [
    {"entry_date": "2023-01-05", "exit_date": "2023-01-09", "pnl": 120.5, "pnl_pct": 1.2, "status": "win"},
    {"entry_date": "2023-02-01", "exit_date": "2023-02-03", "pnl": -40, "pnl_pct": -0.4, "status": "loss"},
    {"entry_date": "2023-03-01", "exit_date": "2023-03-01T12:00:00", "pnl": 1169.5, "pnl_pct": 11.7, "status": "win"}
  ]
}`

func decodeSample(t *testing.T) *Result {
	t.Helper()
	var r Result
	if err := json.Unmarshal([]byte(sampleResult), &r); err != nil {
		t.Fatalf("decoding sample: %v", err)
	}
	return &r
}

func TestResult_Decode(t *testing.T) {
	r := decodeSample(t)

	if r.NetPnL() != 1250 {
		t.Errorf("NetPnL() = %v, want 1250", r.NetPnL())
	}
	if len(r.EquityCurve) != 2 {
		t.Fatalf("expected 2 equity points, got %d", len(r.EquityCurve))
	}
	if p := r.EquityCurve[0].Price; p == nil || *p != 125.07 {
		t.Errorf("unexpected first price %v", p)
	}
	if r.EquityCurve[1].Price != nil || r.EquityCurve[1].SMA != nil {
		t.Error("missing price and sma should decode as nil")
	}
	if r.TradeHistory[1].Status != StatusLoss {
		t.Errorf("expected loss, got %s", r.TradeHistory[1].Status)
	}
}

func TestTrade_CSVExport(t *testing.T) {
	r := decodeSample(t)

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, r.TradeHistory[:2]); err != nil {
		t.Fatal(err)
	}

	want := "entry_date,exit_date,pnl,pnl_pct,status\n" +
		`"2023-01-05","2023-01-09",120.5,1.2,"win"` + "\n" +
		`"2023-02-01","2023-02-03",-40,-0.4,"loss"`
	if buf.String() != want {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}
}

func TestTrade_Record(t *testing.T) {
	r := decodeSample(t)
	recs := Records(r.TradeHistory)

	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].HoldingDays != 4 || recs[2].HoldingDays != 1 {
		t.Errorf("unexpected holding days %d, %d", recs[0].HoldingDays, recs[2].HoldingDays)
	}
	if recs[1].Status != "loss" {
		t.Errorf("expected loss, got %s", recs[1].Status)
	}

	var buf bytes.Buffer
	if err := table.WriteParquet(&buf, recs); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("expected parquet output")
	}
}
