package engine

import (
	"strings"

	"sheetcore/cellstore"
	"sheetcore/comments"
	"sheetcore/formula"
	"sheetcore/merge"
)

// structuralSnapshot is everything a destructive structural edit (a row or
// column deletion) must capture before mutating, so Revert can put the
// whole sheet back exactly as it was rather than compute a precise
// inverse shift — the same "deep clone beats precise inverse" choice the
// Sparse Cell Store itself makes for Restore.
type structuralSnapshot struct {
	cells    *cellstore.Snapshot
	comments comments.WireSnapshot
	merges   []merge.Info
}

func (e *Engine) captureStructuralSnapshot() structuralSnapshot {
	return structuralSnapshot{
		cells:    e.store.Snapshot(),
		comments: e.comments.Serialize(),
		merges:   e.merges.Regions(),
	}
}

// restoreStructuralSnapshot reverses captureStructuralSnapshot, then
// rebuilds the dependency graph and recalculates the whole sheet since a
// wholesale cell restore invalidates any coordinate-keyed graph state.
func (e *Engine) restoreStructuralSnapshot(snap structuralSnapshot) []CellKey {
	e.store.Restore(snap.cells)
	e.comments.Deserialize(snap.comments)
	e.merges.Restore(snap.merges)
	e.rebuildGraph()
	affected := e.recalcAll()
	e.filters.InvalidateCache()
	e.view.InvalidateCache(0, 0)
	e.bumpAndNotify(affected)
	return affected
}

// rebuildGraph discards the dependency graph and re-derives it from the
// formulas currently stored, the only sound response to a structural edit
// relocating cells out from under their old coordinate-keyed graph nodes.
func (e *Engine) rebuildGraph() {
	e.graph = formula.NewDependencyGraph()
	r, ok := e.store.GetUsedRange()
	if !ok {
		return
	}
	for _, c := range e.store.GetCellsInRange(r) {
		if c.Formula == "" {
			continue
		}
		key := formula.CellKey(defaultSheet, c.Row, c.Col)
		toks, err := formula.NewLexer(strings.TrimPrefix(c.Formula, "=")).Tokenize()
		if err != nil {
			continue
		}
		ast, perr := formula.NewParser(toks).Parse()
		if perr != nil {
			continue
		}
		e.graph.SetPrecedents(key, formula.CollectReferences(ast, defaultSheet))
	}
}

// rewriteFormulaReferences rewrites every stored formula's references to
// account for count rows or columns having been inserted/deleted at
// startIndex, then rebuilds the dependency graph against the rewritten
// text and the cells' post-shift coordinates.
func (e *Engine) rewriteFormulaReferences(shiftType string, startIndex, count int) {
	r, ok := e.store.GetUsedRange()
	if !ok {
		return
	}
	for _, c := range e.store.GetCellsInRange(r) {
		if c.Formula == "" {
			continue
		}
		rewritten := formula.ShiftFormula(c.Formula, shiftType, startIndex, count, defaultSheet)
		if rewritten == c.Formula {
			continue
		}
		c.Formula = rewritten
		c.Dirty = true
		e.store.SetCell(c.Row, c.Col, c)
	}
	e.rebuildGraph()
}

// InsertRows shifts every row at or below row down by count, carrying
// comment threads, merge regions, and formula references along with
// them. Non-destructive, so its undo is simply the matching delete.
func (e *Engine) InsertRows(row, count int) ([]CellKey, error) {
	var result []CellKey
	apply := func() error {
		if err := e.store.InsertRows(row, count); err != nil {
			return err
		}
		e.comments.OnRowsInserted(row, count)
		e.merges.OnRowsInserted(row, count)
		e.rewriteFormulaReferences("row", row, count)
		e.filters.InvalidateCache()
		e.view.InvalidateCache(0, 0)
		result = e.recalcAll()
		e.bumpAndNotify(result)
		return nil
	}
	revert := func() error {
		if err := e.store.DeleteRows(row, count); err != nil {
			return err
		}
		e.comments.OnRowsDeleted(row, count)
		if err := e.merges.OnRowsDeleted(row, count); err != nil {
			return err
		}
		e.rewriteFormulaReferences("row", row, -count)
		e.filters.InvalidateCache()
		e.view.InvalidateCache(0, 0)
		affected := e.recalcAll()
		e.bumpAndNotify(affected)
		return nil
	}
	cmd := newCommand("insertRows", "Insert rows", approxCellBytes, apply, revert)
	if err := e.undoRedo.Do(cmd); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteRows removes count rows starting at row. Fails with Conflict,
// leaving the sheet untouched, if the deletion would partially cover a
// merge region — the caller must Unmerge or
// ExpandRangeToIncludeMerges first.
func (e *Engine) DeleteRows(row, count int) ([]CellKey, error) {
	snap := e.captureStructuralSnapshot()
	var result []CellKey
	apply := func() error {
		if err := e.merges.OnRowsDeleted(row, count); err != nil {
			return err
		}
		if err := e.store.DeleteRows(row, count); err != nil {
			return err
		}
		e.comments.OnRowsDeleted(row, count)
		e.rewriteFormulaReferences("row", row, -count)
		e.filters.InvalidateCache()
		e.view.InvalidateCache(0, 0)
		result = e.recalcAll()
		e.bumpAndNotify(result)
		return nil
	}
	revert := func() error {
		result = e.restoreStructuralSnapshot(snap)
		return nil
	}
	cmd := newCommand("deleteRows", "Delete rows", approxCellBytes, apply, revert)
	if err := e.undoRedo.Do(cmd); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertColumns and DeleteColumns mirror InsertRows/DeleteRows on the
// column axis.
func (e *Engine) InsertColumns(col, count int) ([]CellKey, error) {
	var result []CellKey
	apply := func() error {
		if err := e.store.InsertColumns(col, count); err != nil {
			return err
		}
		e.comments.OnColumnsInserted(col, count)
		e.merges.OnColumnsInserted(col, count)
		e.rewriteFormulaReferences("col", col, count)
		e.filters.InvalidateCache()
		e.view.InvalidateCache(0, 0)
		result = e.recalcAll()
		e.bumpAndNotify(result)
		return nil
	}
	revert := func() error {
		if err := e.store.DeleteColumns(col, count); err != nil {
			return err
		}
		e.comments.OnColumnsDeleted(col, count)
		if err := e.merges.OnColumnsDeleted(col, count); err != nil {
			return err
		}
		e.rewriteFormulaReferences("col", col, -count)
		e.filters.InvalidateCache()
		e.view.InvalidateCache(0, 0)
		affected := e.recalcAll()
		e.bumpAndNotify(affected)
		return nil
	}
	cmd := newCommand("insertColumns", "Insert columns", approxCellBytes, apply, revert)
	if err := e.undoRedo.Do(cmd); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) DeleteColumns(col, count int) ([]CellKey, error) {
	snap := e.captureStructuralSnapshot()
	var result []CellKey
	apply := func() error {
		if err := e.merges.OnColumnsDeleted(col, count); err != nil {
			return err
		}
		if err := e.store.DeleteColumns(col, count); err != nil {
			return err
		}
		e.comments.OnColumnsDeleted(col, count)
		e.rewriteFormulaReferences("col", col, -count)
		e.filters.InvalidateCache()
		e.view.InvalidateCache(0, 0)
		result = e.recalcAll()
		e.bumpAndNotify(result)
		return nil
	}
	revert := func() error {
		result = e.restoreStructuralSnapshot(snap)
		return nil
	}
	cmd := newCommand("deleteColumns", "Delete columns", approxCellBytes, apply, revert)
	if err := e.undoRedo.Do(cmd); err != nil {
		return nil, err
	}
	return result, nil
}
