package engine

import "sheetcore/merge"

// Merge records a new merge region, recorded on the undo stack via a
// whole-manager region snapshot (merge regions are few enough per sheet
// that this is cheaper to reason about than a precise per-region inverse).
func (e *Engine) Merge(r merge.Range) error {
	prevRegions := e.merges.Regions()
	apply := func() error {
		if err := e.merges.Merge(r); err != nil {
			return err
		}
		e.view.InvalidateCache(r.StartRow, r.StartCol)
		e.bumpAndNotify(nil)
		return nil
	}
	revert := func() error {
		e.merges.Restore(prevRegions)
		e.view.InvalidateCache(0, 0)
		e.bumpAndNotify(nil)
		return nil
	}
	return e.undoRedo.Do(newCommand("merge", "Merge cells", approxCellBytes, apply, revert))
}

// Unmerge removes every merge region intersecting r.
func (e *Engine) Unmerge(r merge.Range) {
	prevRegions := e.merges.Regions()
	apply := func() error {
		e.merges.Unmerge(r)
		e.view.InvalidateCache(0, 0)
		e.bumpAndNotify(nil)
		return nil
	}
	revert := func() error {
		e.merges.Restore(prevRegions)
		e.view.InvalidateCache(0, 0)
		e.bumpAndNotify(nil)
		return nil
	}
	e.undoRedo.Do(newCommand("unmerge", "Unmerge cells", approxCellBytes, apply, revert)) // apply never errors
}

func (e *Engine) IsMerged(row, col int) bool        { return e.merges.IsMerged(row, col) }
func (e *Engine) IsMergeAnchor(row, col int) bool   { return e.merges.IsMergeAnchor(row, col) }
func (e *Engine) GetMergeInfo(row, col int) (merge.Info, bool) {
	return e.merges.GetMergeInfo(row, col)
}
func (e *Engine) GetDisplayRange(row, col int) merge.Range {
	return e.merges.GetDisplayRange(row, col)
}
func (e *Engine) ExpandRangeToIncludeMerges(r merge.Range) merge.Range {
	return e.merges.ExpandRangeToIncludeMerges(r)
}
