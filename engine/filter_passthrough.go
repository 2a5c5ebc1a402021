package engine

import "sheetcore/filter"

// ApplyFilter, ClearFilter, ClearAllFilters, HasFilters, IsColumnFiltered,
// and GetFilteredRows expose the sheet-wide Filter Manager. Filter state
// is view state, not content, so it is deliberately left off the undo
// stack — clearing a filter is not something a user expects Ctrl+Z to
// bring back, the way an edited cell value is.
func (e *Engine) ApplyFilter(col int, p filter.Predicate) {
	e.filters.ApplyFilter(col, p)
	e.invalidateViews()
}

func (e *Engine) ClearFilter(col int) {
	e.filters.ClearFilter(col)
	e.invalidateViews()
}

func (e *Engine) ClearAllFilters() {
	e.filters.ClearAllFilters()
	e.invalidateViews()
}

func (e *Engine) HasFilters() bool             { return e.filters.HasFilters() }
func (e *Engine) IsColumnFiltered(col int) bool { return e.filters.IsColumnFiltered(col) }
func (e *Engine) GetFilteredRows() map[int]bool { return e.filters.GetFilteredRows() }
