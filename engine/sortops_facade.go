package engine

import (
	"sheetcore/cellstore"
	"sheetcore/filter"
	"sheetcore/sortops"
)

// SortRange reorders the rows of r according to rules, physically moving
// whole cells (value, formula, format, borders) to their new row. Formula
// text is left unrewritten: sorting relocates data the way dragging a row
// does, it does not adjust the references a formula holds, matching the
// value-only view of a row the sort/filter batch component works with.
func (e *Engine) SortRange(r cellstore.CellRange, rules []sortops.SortRule) error {
	r = r.Normalize()
	height := r.EndRow - r.StartRow + 1
	width := r.EndCol - r.StartCol + 1

	before := make([][]*cellstore.Cell, height)
	rows := make([]sortops.Row, height)
	for i := 0; i < height; i++ {
		row := r.StartRow + i
		rows[i] = sortops.Row{OriginalRow: i, Values: make(map[int]sortops.CellValue, width)}
		rowCells := make([]*cellstore.Cell, width)
		for j := 0; j < width; j++ {
			col := r.StartCol + j
			c := e.store.GetCell(row, col)
			rowCells[j] = c
			rows[i].Values[col] = sortValueOf(c)
		}
		before[i] = rowCells
	}

	writeRows := func(order func(i int) []*cellstore.Cell) {
		for i := 0; i < height; i++ {
			row := r.StartRow + i
			srcCells := order(i)
			for j := 0; j < width; j++ {
				col := r.StartCol + j
				src := srcCells[j]
				if src == nil {
					e.store.DeleteCell(row, col)
					continue
				}
				clone := src.Clone()
				clone.Row, clone.Col = row, col
				e.store.SetCell(row, col, clone)
			}
		}
		e.rebuildGraph()
		e.filters.InvalidateCache()
		e.view.InvalidateCache(r.StartRow, r.StartCol)
	}

	var result []CellKey
	apply := func() error {
		sorted := sortops.Sort(rows, rules)
		writeRows(func(i int) []*cellstore.Cell { return before[sorted[i].OriginalRow] })
		result = e.recalcAll()
		e.bumpAndNotify(result)
		return nil
	}
	revert := func() error {
		writeRows(func(i int) []*cellstore.Cell { return before[i] })
		affected := e.recalcAll()
		e.bumpAndNotify(affected)
		return nil
	}
	return e.undoRedo.Do(newCommand("sortRange", "Sort range", approxCellBytes*height*width, apply, revert))
}

func sortValueOf(c *cellstore.Cell) sortops.CellValue {
	if c == nil {
		return sortops.CellValue{IsBlank: true}
	}
	switch v := c.Value.(type) {
	case float64:
		return sortops.CellValue{Number: v, IsNumber: true}
	case bool:
		return sortops.CellValue{Bool: v, IsBool: true}
	case string:
		if v == "" {
			return sortops.CellValue{IsBlank: true}
		}
		return sortops.CellValue{Text: v}
	case cellstore.FormattedText:
		if v.Text == "" {
			return sortops.CellValue{IsBlank: true}
		}
		return sortops.CellValue{Text: v.Text}
	default:
		return sortops.CellValue{IsBlank: true}
	}
}

// ApplyRangeFilter hides rows in [startRow, endRow] that fail predicates,
// independent of the sheet-wide Filter Manager. Like the Filter Manager's
// own filters, this is view state and is not recorded on the undo stack.
func (e *Engine) ApplyRangeFilter(startRow, endRow int, predicates map[int]filter.Predicate) {
	src := &filterSource{e: e}
	sortops.ApplyRangeFilter(e.store, startRow, endRow, predicates, src.GetCellValue)
	e.view.InvalidateCache(startRow, 0)
	e.bumpAndNotify(nil)
}
