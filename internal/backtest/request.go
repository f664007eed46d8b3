// Package backtest models the backtest request, its result and the forms
// that collect them.
package backtest

// ThenAction is the action taken when the rule condition holds.
type ThenAction string

const (
	ActionBuy  ThenAction = "buy"
	ActionSell ThenAction = "sell"
)

// ElseAction is the action taken when the rule condition does not hold.
type ElseAction string

const (
	ActionHold ElseAction = "hold"
	ActionExit ElseAction = "exit"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Request is the backtest configuration collected by the form.
type Request struct {
	Ticker      string     `json:"ticker"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	SMAPeriod   int        `json:"sma_period"`
	IfCondition string     `json:"if_condition"`
	ThenAction  ThenAction `json:"then_action"`
	ElseAction  ElseAction `json:"else_action"`
	InitialCash float64    `json:"initial_cash"`
	Commission  float64    `json:"commission"`
}

// DefaultRequest returns the values a fresh form starts with.
func DefaultRequest() Request {
	return Request{
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
}

// Rule is the nested trading rule expected by the backend.
type Rule struct {
	IfCondition string     `json:"if_condition"`
	Then        ThenAction `json:"then"`
	ElseAction  ElseAction `json:"else_action"`
}

// WireRequest is the body of POST /api/v1/backtest/.
type WireRequest struct {
	Ticker      string  `json:"ticker"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	SMAPeriod   int     `json:"sma_period"`
	InitialCash float64 `json:"initial_cash"`
	Commission  float64 `json:"commission"`
	Rule        Rule    `json:"rule"`
}

// Wire reshapes the request into the backend's body. The rule fields move
// into the nested rule object; nothing else changes.
func (r Request) Wire() WireRequest {
	return WireRequest{
		Ticker:      r.Ticker,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		SMAPeriod:   r.SMAPeriod,
		InitialCash: r.InitialCash,
		Commission:  r.Commission,
		Rule: Rule{
			IfCondition: r.IfCondition,
			Then:        r.ThenAction,
			ElseAction:  r.ElseAction,
		},
	}
}
