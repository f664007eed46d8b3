package table

// Row is one displayed row.
type Row[T any] struct {
	Index    int
	Item     T
	Selected bool
}

// View is the derived, render-ready snapshot of a table in some state.
type View[T any] struct {
	Columns []Column[T]
	Rows    []Row[T]

	Page      int
	PageCount int
	CanPrev   bool
	CanNext   bool

	TotalCount            int
	FilteredCount         int
	SelectedCount         int
	FilteredSelectedCount int

	AllPageSelected  bool
	SomePageSelected bool

	// HideableColumns lists the columns a user may toggle, visible or not.
	HideableColumns []Column[T]
	Hidden          map[string]bool
	Sort            Sort
	Filter          string
}

// View derives what to render for state s.
func (t *Table[T]) View(s State) View[T] {
	if s.PageSize < 1 {
		s.PageSize = 10
	}
	filtered := t.filtered(s)
	count := pageCount(len(filtered), s.PageSize)
	page := clampPage(s.Page, count)
	s.Page = page

	v := View[T]{
		Page:       page,
		PageCount:  count,
		CanPrev:    page > 0,
		CanNext:    page < count-1,
		TotalCount: len(t.Rows),

		FilteredCount: len(filtered),
		Hidden:        s.Hidden,
		Sort:          s.Sort,
		Filter:        s.Filter,
	}

	for _, c := range t.Columns {
		if c.Hideable {
			v.HideableColumns = append(v.HideableColumns, c)
		}
		if !s.Hidden[c.ID] {
			v.Columns = append(v.Columns, c)
		}
	}

	for i := range t.Rows {
		if s.Selected[i] {
			v.SelectedCount++
		}
	}
	for _, i := range filtered {
		if s.Selected[i] {
			v.FilteredSelectedCount++
		}
	}

	pageRows := t.pageIndexes(s)
	selectedOnPage := 0
	for _, i := range pageRows {
		sel := s.Selected[i]
		if sel {
			selectedOnPage++
		}
		v.Rows = append(v.Rows, Row[T]{Index: i, Item: t.Rows[i], Selected: sel})
	}
	v.AllPageSelected = len(pageRows) > 0 && selectedOnPage == len(pageRows)
	v.SomePageSelected = selectedOnPage > 0 && !v.AllPageSelected

	return v
}

// Export returns the selected rows that pass the filter, in source order.
// With no such rows it returns every row.
func (t *Table[T]) Export(s State) []T {
	var out []T
	for _, i := range t.filtered(s) {
		if s.Selected[i] {
			out = append(out, t.Rows[i])
		}
	}
	if len(out) == 0 {
		return t.Rows
	}
	return out
}
