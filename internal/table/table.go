// Package table implements sort, filter, selection and paging state for
// tabular views as a pure reducer over typed column descriptors.
package table

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Column describes one column of a table over rows of type T.
type Column[T any] struct {
	ID     string
	Header string

	// Value returns the raw cell value used for sorting and filtering.
	// Display-only columns leave it nil.
	Value func(T) any

	// Render returns the cell text. Nil falls back to Value.
	Render func(T) string

	// Class returns an optional CSS class for the cell.
	Class func(T) string

	Sortable   bool
	Hideable   bool
	Filterable bool
}

// Text renders the cell for row.
func (c Column[T]) Text(row T) string {
	switch {
	case c.Render != nil:
		return c.Render(row)
	case c.Value != nil:
		return fmt.Sprint(c.Value(row))
	}
	return ""
}

// CellClass returns the CSS class for the cell, if any.
func (c Column[T]) CellClass(row T) string {
	if c.Class == nil {
		return ""
	}
	return c.Class(row)
}

// Sort is the active ordering. An empty Column means source order.
type Sort struct {
	Column string `json:"column,omitempty"`
	Desc   bool   `json:"desc,omitempty"`
}

// State is everything the user changed about the table. Rows are identified
// by their index in the source data.
type State struct {
	Sort     Sort            `json:"sort"`
	Filter   string          `json:"filter,omitempty"`
	Hidden   map[string]bool `json:"hidden,omitempty"`
	Selected map[int]bool    `json:"selected,omitempty"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// NewState returns the initial state.
func NewState(pageSize int) State {
	if pageSize < 1 {
		pageSize = 10
	}
	return State{
		Hidden:   map[string]bool{},
		Selected: map[int]bool{},
		PageSize: pageSize,
	}
}

func (s State) clone() State {
	c := s
	c.Hidden = make(map[string]bool, len(s.Hidden))
	for k, v := range s.Hidden {
		c.Hidden[k] = v
	}
	c.Selected = make(map[int]bool, len(s.Selected))
	for k, v := range s.Selected {
		c.Selected[k] = v
	}
	return c
}

// ActionKind names a state transition.
type ActionKind string

const (
	ActionToggleSort     ActionKind = "sort"
	ActionSetFilter      ActionKind = "filter"
	ActionToggleColumn   ActionKind = "column"
	ActionToggleRow      ActionKind = "row"
	ActionTogglePage     ActionKind = "page_rows"
	ActionClearSelection ActionKind = "clear"
	ActionNextPage       ActionKind = "next"
	ActionPrevPage       ActionKind = "prev"
)

// Action is one user interaction. Column, Filter and Row are read only by
// the kinds that need them.
type Action struct {
	Kind   ActionKind
	Column string
	Filter string
	Row    int
}

// Table binds columns to a fixed set of rows.
type Table[T any] struct {
	Columns []Column[T]
	Rows    []T
}

// New creates a table.
func New[T any](columns []Column[T], rows []T) *Table[T] {
	return &Table[T]{Columns: columns, Rows: rows}
}

func (t *Table[T]) column(id string) (Column[T], bool) {
	for _, c := range t.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Reduce applies a to s and returns the new state. s is not modified.
// Unknown or disallowed actions return an equal state.
func (t *Table[T]) Reduce(s State, a Action) State {
	next := s.clone()
	if next.PageSize < 1 {
		next.PageSize = 10
	}

	switch a.Kind {
	case ActionToggleSort:
		col, ok := t.column(a.Column)
		if !ok || !col.Sortable || col.Value == nil {
			return next
		}
		if next.Sort.Column == a.Column {
			next.Sort.Desc = !next.Sort.Desc
		} else {
			next.Sort = Sort{Column: a.Column}
		}
		next.Page = 0

	case ActionSetFilter:
		next.Filter = a.Filter
		next.Page = 0

	case ActionToggleColumn:
		col, ok := t.column(a.Column)
		if !ok || !col.Hideable {
			return next
		}
		if next.Hidden[a.Column] {
			delete(next.Hidden, a.Column)
		} else {
			next.Hidden[a.Column] = true
		}

	case ActionToggleRow:
		if a.Row < 0 || a.Row >= len(t.Rows) {
			return next
		}
		if next.Selected[a.Row] {
			delete(next.Selected, a.Row)
		} else {
			next.Selected[a.Row] = true
		}

	case ActionTogglePage:
		page := t.pageIndexes(next)
		all := len(page) > 0
		for _, i := range page {
			if !next.Selected[i] {
				all = false
				break
			}
		}
		for _, i := range page {
			if all {
				delete(next.Selected, i)
			} else {
				next.Selected[i] = true
			}
		}

	case ActionClearSelection:
		next.Selected = map[int]bool{}

	case ActionNextPage:
		next.Page++

	case ActionPrevPage:
		next.Page--
	}

	next.Page = clampPage(next.Page, pageCount(len(t.filtered(next)), next.PageSize))
	return next
}

// filtered returns source indexes passing the filter, in source order.
func (t *Table[T]) filtered(s State) []int {
	needle := strings.ToLower(s.Filter)
	out := make([]int, 0, len(t.Rows))
	for i, row := range t.Rows {
		if needle == "" || t.matches(row, needle) {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table[T]) matches(row T, needle string) bool {
	for _, c := range t.Columns {
		if !c.Filterable || c.Value == nil {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(c.Value(row))), needle) {
			return true
		}
	}
	return false
}

// ordered returns filtered indexes in display order.
func (t *Table[T]) ordered(s State) []int {
	idx := t.filtered(s)
	col, ok := t.column(s.Sort.Column)
	if !ok || col.Value == nil {
		return idx
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		c := compareValues(col.Value(t.Rows[a]), col.Value(t.Rows[b]))
		if s.Sort.Desc {
			return -c
		}
		return c
	})
	return idx
}

func (t *Table[T]) pageIndexes(s State) []int {
	idx := t.ordered(s)
	page := clampPage(s.Page, pageCount(len(idx), s.PageSize))
	start := page * s.PageSize
	end := min(start+s.PageSize, len(idx))
	if start >= end {
		return nil
	}
	return idx[start:end]
}

func pageCount(rows, size int) int {
	if size < 1 || rows == 0 {
		return 1
	}
	return (rows + size - 1) / size
}

func clampPage(page, count int) int {
	return max(0, min(page, count-1))
}

// compareValues orders numbers numerically, times chronologically and
// everything else by its text.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
