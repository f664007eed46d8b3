package backtest

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestNewForm_Defaults(t *testing.T) {
	f := NewForm()
	want := Request{
		Ticker:      "AAPL",
		StartDate:   "2023-01-01",
		EndDate:     "2024-01-01",
		SMAPeriod:   20,
		IfCondition: "price > sma",
		ThenAction:  ActionBuy,
		ElseAction:  ActionHold,
		InitialCash: 10000,
		Commission:  0.001,
	}
	if f.Draft != want {
		t.Errorf("Draft = %+v, want %+v", f.Draft, want)
	}

	req, ok := f.Submit()
	if !ok {
		t.Errorf("defaults should submit, got errors %v", f.Errors)
	}
	if len(f.Errors) != 0 {
		t.Errorf("expected no errors, got %v", f.Errors)
	}
	if req != f.Draft {
		t.Errorf("Submit should return the draft unchanged")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		want   FieldErrors
	}{
		{"valid", func(r *Request) {}, FieldErrors{}},
		{"blank ticker", func(r *Request) { r.Ticker = "   " }, FieldErrors{FieldTicker: MsgTickerRequired}},
		{"missing start", func(r *Request) { r.StartDate = "" }, FieldErrors{FieldStartDate: MsgStartDateRequired}},
		{"missing end", func(r *Request) { r.EndDate = "" }, FieldErrors{FieldEndDate: MsgEndDateRequired}},
		{"garbage start", func(r *Request) { r.StartDate = "2023-13-40" }, FieldErrors{FieldStartDate: MsgStartDateInvalid}},
		{"garbage end", func(r *Request) { r.EndDate = "01/02/2024" }, FieldErrors{FieldEndDate: MsgEndDateInvalid}},
		{"equal dates", func(r *Request) { r.EndDate = r.StartDate }, FieldErrors{FieldEndDate: MsgEndBeforeStart}},
		{"end before start", func(r *Request) { r.StartDate, r.EndDate = "2024-02-01", "2024-01-31" }, FieldErrors{FieldEndDate: MsgEndBeforeStart}},
		{"zero sma", func(r *Request) { r.SMAPeriod = 0 }, FieldErrors{FieldSMAPeriod: MsgSMAPeriodPositive}},
		{"negative sma", func(r *Request) { r.SMAPeriod = -5 }, FieldErrors{FieldSMAPeriod: MsgSMAPeriodPositive}},
		{"zero cash", func(r *Request) { r.InitialCash = 0 }, FieldErrors{FieldInitialCash: MsgInitialCashPositive}},
		{"zero commission is fine", func(r *Request) { r.Commission = 0 }, FieldErrors{}},
		{"negative commission", func(r *Request) { r.Commission = -0.01 }, FieldErrors{FieldCommission: MsgCommissionNegative}},
		{"empty condition is not checked", func(r *Request) { r.IfCondition = "" }, FieldErrors{}},
		{
			"several at once",
			func(r *Request) { r.Ticker = ""; r.SMAPeriod = 0; r.InitialCash = -1 },
			FieldErrors{FieldTicker: MsgTickerRequired, FieldSMAPeriod: MsgSMAPeriodPositive, FieldInitialCash: MsgInitialCashPositive},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRequest()
			tt.mutate(&r)
			if got := Validate(r); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForm_SubmitBlockedIffInvalid(t *testing.T) {
	f := NewForm()
	if err := f.Set(FieldSMAPeriod, "0"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Submit(); ok {
		t.Error("expected submit to be blocked")
	}
	if f.Errors[FieldSMAPeriod] != MsgSMAPeriodPositive {
		t.Errorf("unexpected sma error %q", f.Errors[FieldSMAPeriod])
	}

	if err := f.Set(FieldSMAPeriod, "10"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Submit(); !ok {
		t.Errorf("expected submit to pass, got %v", f.Errors)
	}
}

func TestForm_SetClearsOnlyThatField(t *testing.T) {
	f := NewForm()
	f.Set(FieldTicker, "")
	f.Set(FieldInitialCash, "0")
	f.Set(FieldCommission, "-1")
	if _, ok := f.Submit(); ok || len(f.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %v", f.Errors)
	}

	// Still invalid, but the edit clears the message without re-validating
	if err := f.Set(FieldInitialCash, "-5"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Errors[FieldInitialCash]; ok {
		t.Error("initial cash error should be cleared")
	}
	if f.Errors[FieldTicker] != MsgTickerRequired || f.Errors[FieldCommission] != MsgCommissionNegative {
		t.Errorf("other errors should stay, got %v", f.Errors)
	}

	// Fixing a field leaves the others untouched
	if err := f.Set(FieldTicker, "msft"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Errors[FieldTicker]; ok {
		t.Error("ticker error should be cleared")
	}
	if len(f.Errors) != 1 {
		t.Errorf("expected 1 remaining error, got %v", f.Errors)
	}
}

func TestForm_SetParsing(t *testing.T) {
	tests := []struct {
		field Field
		raw   string
		want  func(r *Request)
	}{
		{FieldTicker, " tsla ", func(r *Request) { r.Ticker = " TSLA " }},
		{FieldSMAPeriod, "12abc", func(r *Request) { r.SMAPeriod = 12 }},
		{FieldSMAPeriod, "3.9", func(r *Request) { r.SMAPeriod = 3 }},
		{FieldSMAPeriod, "abc", func(r *Request) { r.SMAPeriod = 0 }},
		{FieldSMAPeriod, "99999999999999999999", func(r *Request) { r.SMAPeriod = math.MaxInt }},
		{FieldSMAPeriod, "-99999999999999999999", func(r *Request) { r.SMAPeriod = math.MinInt }},
		{FieldInitialCash, "2500.75", func(r *Request) { r.InitialCash = 2500.75 }},
		{FieldInitialCash, "", func(r *Request) { r.InitialCash = 0 }},
		{FieldInitialCash, "1e999", func(r *Request) { r.InitialCash = math.MaxFloat64 }},
		{FieldCommission, ".002", func(r *Request) { r.Commission = 0.002 }},
		{FieldCommission, "1e-3", func(r *Request) { r.Commission = 0.001 }},
		{FieldCommission, "-1e999", func(r *Request) { r.Commission = -math.MaxFloat64 }},
		{FieldThenAction, "sell", func(r *Request) { r.ThenAction = ActionSell }},
		{FieldThenAction, "short", func(r *Request) {}},
		{FieldElseAction, "exit", func(r *Request) { r.ElseAction = ActionExit }},
		{FieldElseAction, "panic", func(r *Request) {}},
		{FieldIfCondition, "price < sma", func(r *Request) { r.IfCondition = "price < sma" }},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"="+tt.raw, func(t *testing.T) {
			f := NewForm()
			if err := f.Set(tt.field, tt.raw); err != nil {
				t.Fatal(err)
			}
			want := DefaultRequest()
			tt.want(&want)
			if f.Draft != want {
				t.Errorf("Draft = %+v, want %+v", f.Draft, want)
			}
		})
	}
}

func TestForm_HugeSMAPeriodPassesValidation(t *testing.T) {
	f := NewForm()
	if err := f.Set(FieldSMAPeriod, "99999999999999999999"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Submit(); !ok {
		t.Errorf("an oversized period is positive, got errors %v", f.Errors)
	}
}

func TestForm_HugeCashStaysEncodable(t *testing.T) {
	f := NewForm()
	if err := f.Set(FieldInitialCash, "1e999"); err != nil {
		t.Fatal(err)
	}
	if _, err := json.Marshal(f.Draft.Wire()); err != nil {
		t.Errorf("draft should encode: %v", err)
	}
}

func TestForm_SetUnknownField(t *testing.T) {
	f := NewForm()
	if err := f.Set("leverage", "10"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestForm_ValueRoundTrips(t *testing.T) {
	f := NewForm()
	for _, field := range Fields {
		g := NewForm()
		if err := g.Set(field, f.Value(field)); err != nil {
			t.Fatalf("field %s: %v", field, err)
		}
		if g.Draft != f.Draft {
			t.Errorf("field %s: draft changed to %+v", field, g.Draft)
		}
	}
}

func TestForm_Clone(t *testing.T) {
	f := NewForm()
	f.Errors[FieldTicker] = MsgTickerRequired
	c := f.Clone()
	delete(c.Errors, FieldTicker)
	if _, ok := f.Errors[FieldTicker]; !ok {
		t.Error("clone should not share the error map")
	}
}

func TestRequest_Wire(t *testing.T) {
	got := DefaultRequest().Wire()
	want := WireRequest{
		Ticker:      "AAPL",
		StartDate:   "2023-01-01",
		EndDate:     "2024-01-01",
		SMAPeriod:   20,
		InitialCash: 10000,
		Commission:  0.001,
		Rule:        Rule{IfCondition: "price > sma", Then: ActionBuy, ElseAction: ActionHold},
	}
	if got != want {
		t.Errorf("Wire() = %+v, want %+v", got, want)
	}
}
