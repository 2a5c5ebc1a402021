// Package engine is the headless spreadsheet façade: it wires the cell
// store, formula engine, filter manager, sort/filter ops, find/replace,
// comment store, merge manager, and undo/redo stack into one
// coordinated API, following the coordination-rules cascade a structural
// edit must run in: Cell Store -> Comment Store -> Merge Manager ->
// Formula Engine -> Filter Manager -> Viewport -> version bump ->
// listeners.
//
// Grounded on sheetcore/spreadsheet's Engine (the teacher's own
// cell-store + dependency-graph + broadcast façade), generalized from
// "cells run a general-purpose language" to the full nine-component
// coordination this module's formula grammar and data-management layers
// require.
package engine

import (
	"strings"

	"sheetcore/cellstore"
	"sheetcore/comments"
	"sheetcore/filter"
	"sheetcore/formula"
	"sheetcore/merge"
	"sheetcore/undo"
	"sheetcore/viewport"
)

// Listener is invoked synchronously, exactly once per mutation, after
// the version counter has been bumped. It must not re-enter a mutating
// call; callers that need to mutate in response should queue the work.
type Listener func(version int64, affected []CellKey)

// CellKey is a sheet-qualified coordinate, matching formula.CellKey's
// wire shape.
type CellKey struct {
	Sheet    string
	Row, Col int
}

const defaultSheet = "Sheet1"

// Engine is the coordinated façade over every component.
type Engine struct {
	store    *cellstore.Store
	graph    *formula.DependencyGraph
	filters  *filter.Manager
	comments *comments.Store
	merges   *merge.Manager
	undoRedo *undo.Stack
	view     *viewport.Viewport

	version   int64
	listeners []Listener

	frozenRows int
	frozenCols int
	cancelFlag bool
}

// New returns a fully wired, empty Engine.
func New() *Engine {
	e := &Engine{
		store:    cellstore.New(),
		graph:    formula.NewDependencyGraph(),
		comments: comments.New(),
		undoRedo: undo.NewStack(),
	}
	e.filters = filter.New(&filterSource{e: e})
	e.merges = merge.New(&mergeSink{e: e})
	e.view = viewport.New(&filterAwareDimension{store: e.store, filters: e.filters}, &mergeViewLookup{m: e.merges})
	return e
}

// Subscribe registers listener for future mutations.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

// GetVersion returns the monotonically increasing mutation counter.
func (e *Engine) GetVersion() int64 { return e.version }

func (e *Engine) bumpAndNotify(affected []CellKey) {
	e.version++
	for _, l := range e.listeners {
		l(e.version, affected)
	}
}

// -- reads --

// GetCell returns the stored cell at (row, col), or nil.
func (e *Engine) GetCell(row, col int) *cellstore.Cell {
	return e.store.GetCell(row, col)
}

// GetCellDisplayValue returns the raw value, or the cached formula
// result if the cell holds a formula; FormattedText is flattened to
// plain text.
func (e *Engine) GetCellDisplayValue(row, col int) interface{} {
	c := e.store.GetCell(row, col)
	if c == nil {
		return nil
	}
	if ft, ok := c.Value.(cellstore.FormattedText); ok {
		return ft.Text
	}
	return c.Value
}

// GetUsedRange returns the smallest range covering every stored cell.
func (e *Engine) GetUsedRange() (cellstore.CellRange, bool) {
	return e.store.GetUsedRange()
}

// SelectionStats summarizes a range for status-bar-style display.
type SelectionStats struct {
	Sum, Average, Min, Max float64
	Count, NumericCount    int
}

// GetSelectionStats computes aggregate stats over r.
func (e *Engine) GetSelectionStats(r cellstore.CellRange) SelectionStats {
	cells := e.store.GetCellsInRange(r)
	var st SelectionStats
	first := true
	for _, c := range cells {
		st.Count++
		if n, ok := c.Value.(float64); ok {
			st.NumericCount++
			st.Sum += n
			if first || n < st.Min {
				st.Min = n
			}
			if first || n > st.Max {
				st.Max = n
			}
			first = false
		}
	}
	if st.NumericCount > 0 {
		st.Average = st.Sum / float64(st.NumericCount)
	}
	return st
}

// EngineStats reports data and formula statistics for observability.
type EngineStats struct {
	CellCount    int
	FormulaCount int
	Version      int64
}

// GetStats returns coarse engine-wide counters.
func (e *Engine) GetStats() EngineStats {
	r, ok := e.store.GetUsedRange()
	stats := EngineStats{Version: e.version}
	if !ok {
		return stats
	}
	cells := e.store.GetCellsInRange(r)
	stats.CellCount = len(cells)
	for _, c := range cells {
		if c.Formula != "" {
			stats.FormulaCount++
		}
	}
	return stats
}

// -- writes --

// cloneCellOrNil returns a deep copy of the stored cell at (row, col), or
// nil if it is unset — the shared "prior state" capture every single-cell
// undo command takes before mutating.
func (e *Engine) cloneCellOrNil(row, col int) *cellstore.Cell {
	if c := e.store.GetCell(row, col); c != nil {
		return c.Clone()
	}
	return nil
}

// restoreCell puts back a prior cell (or clears the cell if prev is nil)
// along with its dependency edges, then recalculates downstream and
// notifies. Shared revert path for every single-cell mutation command.
func (e *Engine) restoreCell(row, col int, prev *cellstore.Cell, prevPrecedents []string) error {
	key := formula.CellKey(defaultSheet, row, col)
	if prev == nil {
		if err := e.store.DeleteCell(row, col); err != nil {
			return err
		}
	} else if err := e.store.SetCell(row, col, prev.Clone()); err != nil {
		return err
	}
	e.graph.SetPrecedents(key, prevPrecedents)
	e.filters.InvalidateCache()
	affected := e.recalcFrom(row, col)
	e.bumpAndNotify(affected)
	return nil
}

// SetCellValue stores value at (row, col). A string beginning with "="
// is treated as a formula source; anything else is a raw value. Returns
// the set of cells whose displayed value changed as a result. The
// mutation is recorded on the undo stack.
func (e *Engine) SetCellValue(row, col int, value interface{}) ([]CellKey, error) {
	key := formula.CellKey(defaultSheet, row, col)
	prevCell := e.cloneCellOrNil(row, col)
	prevPrecedents := e.graph.Precedents(key)
	isFormula := false
	if s, ok := value.(string); ok && strings.HasPrefix(s, "=") {
		isFormula = true
	}

	var result []CellKey
	apply := func() error {
		affected, err := e.applySetCellValue(row, col, value, isFormula)
		if err != nil {
			return err
		}
		result = affected
		return nil
	}
	revert := func() error { return e.restoreCell(row, col, prevCell, prevPrecedents) }

	cmd := newCommand("setCellValue", "Set "+formula.BuildCellReference(&formula.CellRef{Row: row, Col: col}), approxCellBytes, apply, revert)
	if err := e.undoRedo.Do(cmd); err != nil {
		return nil, err
	}
	return result, nil
}

// applySetCellValue is SetCellValue's undo-agnostic core, also used by
// LoadFromArray's bulk import path where recording 10,000 individual undo
// commands for one paste would be absurd.
func (e *Engine) applySetCellValue(row, col int, value interface{}, isFormula bool) ([]CellKey, error) {
	key := formula.CellKey(defaultSheet, row, col)
	if isFormula {
		return e.setFormula(row, col, value.(string))
	}
	if err := e.store.DeleteCell(row, col); err != nil {
		return nil, err
	}
	// Clear only this cell's own outgoing edges (it no longer has a
	// formula); its address may still be a precedent of other formulas,
	// so severing incoming edges too would stop those from recalculating.
	e.graph.SetPrecedents(key, nil)
	cell := valueToCell(row, col, value)
	if err := e.store.SetCell(row, col, cell); err != nil {
		return nil, err
	}
	e.filters.InvalidateCache()
	affected := append([]CellKey{{Sheet: defaultSheet, Row: row, Col: col}}, e.recalcFrom(row, col)...)
	e.bumpAndNotify(affected)
	return affected, nil
}

func valueToCell(row, col int, value interface{}) *cellstore.Cell {
	c := &cellstore.Cell{Row: row, Col: col}
	switch v := value.(type) {
	case float64:
		c.Type = cellstore.Number
		c.Value = v
	case bool:
		c.Type = cellstore.Boolean
		c.Value = v
	case string:
		c.Type = cellstore.Text
		c.Value = v
	case nil:
		c.Type = cellstore.Empty
	default:
		c.Type = cellstore.Text
		c.Value = value
	}
	return c
}

// RemoveFormula clears (row, col)'s formula, severing its outgoing
// dependency edges and marking successors dirty.
func (e *Engine) RemoveFormula(row, col int) []CellKey {
	key := formula.CellKey(defaultSheet, row, col)
	prevCell := e.cloneCellOrNil(row, col)
	prevPrecedents := e.graph.Precedents(key)

	var result []CellKey
	apply := func() error {
		e.graph.SetPrecedents(key, nil)
		if c := e.store.GetCell(row, col); c != nil {
			c.Formula = ""
		}
		result = e.recalcFrom(row, col)
		e.bumpAndNotify(result)
		return nil
	}
	revert := func() error { return e.restoreCell(row, col, prevCell, prevPrecedents) }

	cmd := newCommand("removeFormula", "Remove formula", approxCellBytes, apply, revert)
	e.undoRedo.Do(cmd) // apply never errors
	return result
}

// SetCellFormat merges patch into (row, col)'s existing format.
func (e *Engine) SetCellFormat(row, col int, patch cellstore.CellFormat) error {
	prevCell := e.cloneCellOrNil(row, col)

	apply := func() error {
		c := e.store.GetCell(row, col)
		if c == nil {
			c = &cellstore.Cell{Row: row, Col: col, Type: cellstore.Empty}
		}
		base := cellstore.CellFormat{}
		if c.Format != nil {
			base = *c.Format
		}
		merged := cellstore.MergeFormat(base, patch)
		c.Format = &merged
		if err := e.store.SetCell(row, col, c); err != nil {
			return err
		}
		e.bumpAndNotify([]CellKey{{Sheet: defaultSheet, Row: row, Col: col}})
		return nil
	}
	revert := func() error {
		if prevCell == nil {
			if err := e.store.DeleteCell(row, col); err != nil {
				return err
			}
			e.bumpAndNotify([]CellKey{{Sheet: defaultSheet, Row: row, Col: col}})
			return nil
		}
		if err := e.store.SetCell(row, col, prevCell.Clone()); err != nil {
			return err
		}
		e.bumpAndNotify([]CellKey{{Sheet: defaultSheet, Row: row, Col: col}})
		return nil
	}

	cmd := newCommand("setCellFormat", "Format cell", approxCellBytes, apply, revert)
	return e.undoRedo.Do(cmd)
}

// DeleteSelection clears every cell in r and rewrites downstream formulas.
func (e *Engine) DeleteSelection(r cellstore.CellRange) []CellKey {
	before := e.store.GetCellsInRange(r)
	prevCells := make([]*cellstore.Cell, len(before))
	prevPrecedents := make([][]string, len(before))
	for i, c := range before {
		prevCells[i] = c.Clone()
		prevPrecedents[i] = e.graph.Precedents(formula.CellKey(defaultSheet, c.Row, c.Col))
	}

	var result []CellKey
	apply := func() error {
		cells := e.store.GetCellsInRange(r)
		e.store.ClearRange(r)
		var affected []CellKey
		for _, c := range cells {
			key := formula.CellKey(defaultSheet, c.Row, c.Col)
			e.graph.SetPrecedents(key, nil)
			affected = append(affected, e.recalcFrom(c.Row, c.Col)...)
		}
		e.filters.InvalidateCache()
		e.bumpAndNotify(affected)
		result = dedupeKeys(affected)
		return nil
	}
	revert := func() error {
		var affected []CellKey
		for i, prev := range prevCells {
			row, col := prev.Row, prev.Col
			if err := e.store.SetCell(row, col, prev.Clone()); err != nil {
				return err
			}
			e.graph.SetPrecedents(formula.CellKey(defaultSheet, row, col), prevPrecedents[i])
			affected = append(affected, e.recalcFrom(row, col)...)
		}
		e.filters.InvalidateCache()
		e.bumpAndNotify(affected)
		return nil
	}

	cmd := newCommand("deleteSelection", "Delete", approxCellBytes*len(before), apply, revert)
	e.undoRedo.Do(cmd) // apply never errors
	return result
}

func dedupeKeys(keys []CellKey) []CellKey {
	seen := make(map[CellKey]bool, len(keys))
	var out []CellKey
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// HideRow/ShowRow/HideColumn/ShowColumn toggle row/column visibility,
// recorded on the undo stack.
func (e *Engine) HideRow(row int)    { e.toggleRowHidden(row, true) }
func (e *Engine) ShowRow(row int)    { e.toggleRowHidden(row, false) }
func (e *Engine) HideColumn(col int) { e.toggleColHidden(col, true) }
func (e *Engine) ShowColumn(col int) { e.toggleColHidden(col, false) }

func (e *Engine) toggleRowHidden(row int, hidden bool) {
	prev := e.store.IsRowHidden(row)
	apply := func() error { e.store.SetRowHidden(row, hidden); e.invalidateViews(); return nil }
	revert := func() error { e.store.SetRowHidden(row, prev); e.invalidateViews(); return nil }
	e.undoRedo.Do(newCommand("toggleRowHidden", "Hide/show row", 8, apply, revert))
}

func (e *Engine) toggleColHidden(col int, hidden bool) {
	prev := e.store.IsColHidden(col)
	apply := func() error { e.store.SetColHidden(col, hidden); e.invalidateViews(); return nil }
	revert := func() error { e.store.SetColHidden(col, prev); e.invalidateViews(); return nil }
	e.undoRedo.Do(newCommand("toggleColHidden", "Hide/show column", 8, apply, revert))
}

func (e *Engine) invalidateViews() {
	e.filters.InvalidateCache()
	e.view.InvalidateCache(0, 0)
	e.bumpAndNotify(nil)
}

// SetFrozenRows and SetFrozenCols configure the viewport's frozen band.
// Both are tracked locally since viewport only exposes a combined setter.
func (e *Engine) SetFrozenRows(rows int) {
	e.frozenRows = rows
	e.view.SetFrozenPanes(e.frozenRows, e.frozenCols)
}

func (e *Engine) SetFrozenCols(cols int) {
	e.frozenCols = cols
	e.view.SetFrozenPanes(e.frozenRows, e.frozenCols)
}

// CancelCalculation requests that an in-flight CalculateAsync stop
// before its next cell; already-computed cells remain valid.
func (e *Engine) CancelCalculation() { e.cancelFlag = true }
