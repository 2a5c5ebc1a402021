package engine

import (
	"strconv"

	"sheetcore/cellstore"
	"sheetcore/filter"
	"sheetcore/merge"
)

// filterSource adapts the engine's single sheet to filter.DataSource.
type filterSource struct {
	e *Engine
}

func (f *filterSource) GetCellValue(row, col int) filter.CellValue {
	c := f.e.store.GetCell(row, col)
	if c == nil {
		return filter.CellValue{IsBlank: true}
	}
	switch v := c.Value.(type) {
	case float64:
		return filter.CellValue{Text: strconv.FormatFloat(v, 'f', -1, 64), Number: v, IsNumber: true}
	case bool:
		if v {
			return filter.CellValue{Text: "TRUE"}
		}
		return filter.CellValue{Text: "FALSE"}
	case string:
		if v == "" {
			return filter.CellValue{IsBlank: true}
		}
		return filter.CellValue{Text: v}
	case cellstore.FormattedText:
		if v.Text == "" {
			return filter.CellValue{IsBlank: true}
		}
		return filter.CellValue{Text: v.Text}
	default:
		return filter.CellValue{IsBlank: true}
	}
}

func (f *filterSource) UsedRowRange() (minRow, maxRow int, ok bool) {
	r, ok := f.e.store.GetUsedRange()
	if !ok {
		return 0, 0, false
	}
	return r.StartRow, r.EndRow, true
}

// mergeSink adapts merge.Manager's cell-metadata callbacks onto the cell
// store's denormalized MergeMeta mirror, so a cell's own Merge field
// stays in sync with the manager without every caller consulting it.
type mergeSink struct {
	e *Engine
}

func (m *mergeSink) SetMergeAnchor(row, col, anchorRow, anchorCol, rowSpan, colSpan int) {
	c := m.e.cellOrEmpty(row, col)
	c.Merge = &cellstore.MergeMeta{
		Role:      cellstore.MergeAnchor,
		RowSpan:   rowSpan,
		ColSpan:   colSpan,
		AnchorRow: anchorRow,
		AnchorCol: anchorCol,
	}
	m.e.store.SetCell(row, col, c)
}

func (m *mergeSink) SetMergeMember(row, col, anchorRow, anchorCol int) {
	c := m.e.cellOrEmpty(row, col)
	c.Merge = &cellstore.MergeMeta{
		Role:      cellstore.MergeMember,
		AnchorRow: anchorRow,
		AnchorCol: anchorCol,
	}
	m.e.store.SetCell(row, col, c)
}

func (m *mergeSink) ClearMerge(row, col int) {
	c := m.e.store.GetCell(row, col)
	if c == nil {
		return
	}
	c.Merge = nil
	m.e.store.SetCell(row, col, c)
}

// ClearEmptyCell removes a cell entirely once it carries no value, format,
// borders, or merge metadata, so unmerging a blank member doesn't leave a
// ghost entry in the store's sparse index.
func (m *mergeSink) ClearEmptyCell(row, col int) {
	c := m.e.store.GetCell(row, col)
	if c == nil {
		return
	}
	if c.Type == cellstore.Empty && c.Formula == "" && c.Format == nil && c.Borders == nil && c.Merge == nil {
		m.e.store.DeleteCell(row, col)
	}
}

func (e *Engine) cellOrEmpty(row, col int) *cellstore.Cell {
	if c := e.store.GetCell(row, col); c != nil {
		return c
	}
	return &cellstore.Cell{Row: row, Col: col, Type: cellstore.Empty}
}

// filterAwareDimension adapts the cell store to viewport.DimensionProvider,
// folding the filter manager's hidden-row set into IsRowHidden so a
// filtered-out row disappears from the viewport the same way an
// explicitly hidden one does, without the viewport needing to know
// filtering exists.
type filterAwareDimension struct {
	store   *cellstore.Store
	filters *filter.Manager
}

func (d *filterAwareDimension) GetRowHeight(r int) int { return d.store.GetRowHeight(r) }
func (d *filterAwareDimension) GetColWidth(c int) int  { return d.store.GetColWidth(c) }
func (d *filterAwareDimension) IsRowHidden(r int) bool {
	if d.store.IsRowHidden(r) {
		return true
	}
	if !d.filters.HasFilters() {
		return false
	}
	used, ok := d.store.GetUsedRange()
	if !ok || r < used.StartRow || r > used.EndRow {
		return false
	}
	return !d.filters.GetFilteredRows()[r]
}
func (d *filterAwareDimension) IsColHidden(c int) bool { return d.store.IsColHidden(c) }
func (d *filterAwareDimension) GetLastUsedRow() int    { return d.store.GetLastUsedRow() }
func (d *filterAwareDimension) GetLastUsedCol() int    { return d.store.GetLastUsedCol() }

// mergeViewLookup adapts merge.Manager to viewport.MergeLookup.
type mergeViewLookup struct {
	m *merge.Manager
}

func (l *mergeViewLookup) GetEditTarget(row, col int) (anchorRow, anchorCol, rowSpan, colSpan int) {
	return l.m.GetEditTarget(row, col)
}
