package web

import (
	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/chart"
	"github.com/newthinker/strategylab/internal/table"
	"github.com/newthinker/strategylab/internal/workspace"
)

// BacktestData holds data for the backtest template
type BacktestData struct {
	Page
	Phase  workspace.Phase
	Busy   bool
	Error  string
	Fields []FieldView
	Result *ResultView
}

// FieldView is one form input.
type FieldView struct {
	Name        backtest.Field
	Label       string
	Type        string
	Placeholder string
	Step        string
	Value       string
	Error       string
	Options     []OptionView
	Disabled    bool
}

// OptionView is one choice of a select input.
type OptionView struct {
	Value    string
	Label    string
	Selected bool
}

// ResultView holds the result sections of the page.
type ResultView struct {
	Ticker string
	Cards  []backtest.Card
	Chart  chart.Data
	Empty  bool
	Table  TableView
}

// TableView is the trade table flattened for the template.
type TableView struct {
	Headers []HeaderView
	Rows    []RowView
	Toggles []ToggleView
	Filter  string

	Page      int
	PageCount int
	CanPrev   bool
	CanNext   bool

	FilteredCount         int
	FilteredSelectedCount int
	AllPageSelected       bool
	SomePageSelected      bool
}

// HeaderView is one column header. Sort is "asc", "desc" or empty.
type HeaderView struct {
	ID       string
	Header   string
	Sortable bool
	Sort     string
	Select   bool
}

type RowView struct {
	Index    int
	Selected bool
	Cells    []CellView
}

// CellView is one table cell. Copy holds the clipboard text of the actions
// cell.
type CellView struct {
	Text   string
	Class  string
	Select bool
	Copy   string
}

type ToggleView struct {
	ID      string
	Header  string
	Visible bool
}

type option struct{ value, label string }

type fieldMeta struct {
	label       string
	kind        string
	placeholder string
	step        string
	options     []option
}

var fieldMetas = map[backtest.Field]fieldMeta{
	backtest.FieldTicker:      {label: "Ticker Symbol", kind: "text", placeholder: "e.g., AAPL"},
	backtest.FieldSMAPeriod:   {label: "SMA Period", kind: "number", placeholder: "20"},
	backtest.FieldStartDate:   {label: "Start Date", kind: "date"},
	backtest.FieldEndDate:     {label: "End Date", kind: "date"},
	backtest.FieldInitialCash: {label: "Initial Cash", kind: "number", placeholder: "10000", step: "any"},
	backtest.FieldCommission:  {label: "Commission Rate", kind: "number", placeholder: "0.001", step: "0.001"},
	backtest.FieldIfCondition: {label: "If Condition", kind: "text", placeholder: "e.g., price > sma"},
	backtest.FieldThenAction: {label: "Then Action", kind: "select", options: []option{
		{string(backtest.ActionBuy), "Buy"}, {string(backtest.ActionSell), "Sell"},
	}},
	backtest.FieldElseAction: {label: "Else Action", kind: "select", options: []option{
		{string(backtest.ActionHold), "Hold"}, {string(backtest.ActionExit), "Exit"},
	}},
}

func fieldView(form *backtest.Form, f backtest.Field, disabled bool) FieldView {
	meta := fieldMetas[f]
	v := FieldView{
		Name:        f,
		Label:       meta.label,
		Type:        meta.kind,
		Placeholder: meta.placeholder,
		Step:        meta.step,
		Value:       form.Value(f),
		Error:       form.Errors[f],
		Disabled:    disabled,
	}
	for _, o := range meta.options {
		v.Options = append(v.Options, OptionView{Value: o.value, Label: o.label, Selected: o.value == v.Value})
	}
	return v
}

func newBacktestData(page Page, snap workspace.Snapshot) BacktestData {
	data := BacktestData{
		Page:  page,
		Phase: snap.Phase,
		Busy:  snap.Busy(),
		Error: snap.Error,
	}
	for _, f := range backtest.Fields {
		data.Fields = append(data.Fields, fieldView(snap.Form, f, data.Busy))
	}
	if snap.Phase == workspace.PhaseResult && snap.Result != nil {
		data.Result = newResultView(snap)
	}
	return data
}

func newResultView(snap workspace.Snapshot) *ResultView {
	r := snap.Result
	rv := &ResultView{
		Ticker: snap.Submitted.Ticker,
		Cards:  backtest.Summarize(r),
		Chart:  chart.Equity(r.EquityCurve),
		Empty:  len(r.TradeHistory) == 0,
	}
	if !rv.Empty {
		rv.Table = newTableView(backtest.NewTradeTable(r).View(snap.Table))
	}
	return rv
}

func newTableView(v table.View[backtest.Trade]) TableView {
	tv := TableView{
		Filter:                v.Filter,
		Page:                  v.Page,
		PageCount:             v.PageCount,
		CanPrev:               v.CanPrev,
		CanNext:               v.CanNext,
		FilteredCount:         v.FilteredCount,
		FilteredSelectedCount: v.FilteredSelectedCount,
		AllPageSelected:       v.AllPageSelected,
		SomePageSelected:      v.SomePageSelected,
	}

	for _, c := range v.Columns {
		hv := HeaderView{ID: c.ID, Header: c.Header, Sortable: c.Sortable, Select: c.ID == backtest.ColumnSelect}
		if v.Sort.Column == c.ID {
			hv.Sort = "asc"
			if v.Sort.Desc {
				hv.Sort = "desc"
			}
		}
		tv.Headers = append(tv.Headers, hv)
	}

	for _, row := range v.Rows {
		rv := RowView{Index: row.Index, Selected: row.Selected}
		for _, c := range v.Columns {
			switch c.ID {
			case backtest.ColumnSelect:
				rv.Cells = append(rv.Cells, CellView{Select: true})
				continue
			case backtest.ColumnActions:
				rv.Cells = append(rv.Cells, CellView{Copy: c.Text(row.Item)})
				continue
			}
			rv.Cells = append(rv.Cells, CellView{Text: c.Text(row.Item), Class: c.CellClass(row.Item)})
		}
		tv.Rows = append(tv.Rows, rv)
	}

	for _, c := range v.HideableColumns {
		tv.Toggles = append(tv.Toggles, ToggleView{ID: c.ID, Header: c.Header, Visible: !v.Hidden[c.ID]})
	}
	return tv
}
