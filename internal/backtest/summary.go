package backtest

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Tone drives a card's or cell's colour.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
)

// Card is one headline metric.
type Card struct {
	Title string
	Value string
	Tone  Tone
}

// Summarize builds the headline cards for a result.
func Summarize(r *Result) []Card {
	return []Card{
		{Title: "Total Return", Value: FormatPercent(r.TotalReturnPct), Tone: signTone(r.TotalReturnPct)},
		{Title: "Win Rate", Value: FormatPercent(r.WinRate), Tone: ToneNeutral},
		{Title: "Total Trades", Value: humanize.Comma(int64(r.TotalTrades)), Tone: ToneNeutral},
		{Title: "Winning Trades", Value: humanize.Comma(int64(r.WinningTrades)), Tone: TonePositive},
		{Title: "Losing Trades", Value: humanize.Comma(int64(r.LosingTrades)), Tone: ToneNegative},
		{Title: "Net P&L", Value: FormatCurrency(r.NetPnL()), Tone: signTone(r.NetPnL())},
	}
}

func signTone(v float64) Tone {
	if v >= 0 {
		return TonePositive
	}
	return ToneNegative
}

// FormatCurrency renders v as US dollars, e.g. -$1,234.50.
func FormatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", math.Abs(v))
}

// FormatPercent renders an already-scaled percentage, e.g. 12.5 %.
func FormatPercent(v float64) string {
	return FormatNumber(v) + " %"
}

// FormatNumber renders v in its shortest decimal form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatDate renders a trade or curve date as M/D/YYYY. Unparseable input is
// returned unchanged.
func FormatDate(s string) string {
	t, err := ParseTradeTime(s)
	if err != nil {
		return s
	}
	return t.Format("1/2/2006")
}
