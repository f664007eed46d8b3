// Package chart turns an equity curve into line-chart series.
package chart

import "github.com/newthinker/strategylab/internal/backtest"

// Axis ids understood by the page's chart renderer.
const (
	AxisPrimary   = "y"
	AxisSecondary = "y1"
)

// Dataset is one plotted line.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor"`
	BackgroundColor string    `json:"backgroundColor"`
	Tension         float64   `json:"tension"`
	YAxisID         string    `json:"yAxisID,omitempty"`
}

// Data is the labels and datasets of one chart.
type Data struct {
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// HasSecondaryAxis reports whether any dataset is plotted on y1.
func (d Data) HasSecondaryAxis() bool {
	for _, ds := range d.Datasets {
		if ds.YAxisID == AxisSecondary {
			return true
		}
	}
	return false
}

// Equity builds the portfolio chart. Price and SMA lines are added on the
// secondary axis only when the first point carries a non-zero value for
// them; missing samples then plot as 0.
func Equity(curve []backtest.EquityPoint) Data {
	d := Data{
		Title:  "Portfolio Performance",
		Labels: make([]string, len(curve)),
	}

	values := make([]float64, len(curve))
	for i, p := range curve {
		d.Labels[i] = backtest.FormatDate(p.Date)
		values[i] = p.Value
	}
	d.Datasets = append(d.Datasets, Dataset{
		Label:           "Portfolio Value",
		Data:            values,
		BorderColor:     "rgb(59, 130, 246)",
		BackgroundColor: "rgba(59, 130, 246, 0.1)",
		Tension:         0.1,
	})

	if len(curve) == 0 {
		return d
	}

	if present(curve[0].Price) {
		d.Datasets = append(d.Datasets, Dataset{
			Label:           "Stock Price",
			Data:            series(curve, func(p backtest.EquityPoint) *float64 { return p.Price }),
			BorderColor:     "rgb(34, 197, 94)",
			BackgroundColor: "rgba(34, 197, 94, 0.1)",
			Tension:         0.1,
			YAxisID:         AxisSecondary,
		})
	}
	if present(curve[0].SMA) {
		d.Datasets = append(d.Datasets, Dataset{
			Label:           "SMA",
			Data:            series(curve, func(p backtest.EquityPoint) *float64 { return p.SMA }),
			BorderColor:     "rgb(239, 68, 68)",
			BackgroundColor: "rgba(239, 68, 68, 0.1)",
			Tension:         0.1,
			YAxisID:         AxisSecondary,
		})
	}

	return d
}

func present(v *float64) bool {
	return v != nil && *v != 0
}

func series(curve []backtest.EquityPoint, get func(backtest.EquityPoint) *float64) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		if v := get(p); v != nil {
			out[i] = *v
		}
	}
	return out
}
