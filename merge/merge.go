// Package merge tracks merged rectangular regions: a dual index (anchor
// cell -> region info, member cell -> anchor) so both "is this cell
// merged" and "what region owns this cell" are O(1), overlap rejection
// on merge, and a fixpoint expansion helper for callers that must grow a
// selection to fully contain every merge it touches.
//
// Grounded on sheetcore/spreadsheet's Sheet merge-cell bookkeeping
// (anchor-centric cell metadata), generalized into the engine's own
// Manager with an explicit reverse index rather than a per-cell scan.
package merge

import "sheetcore/sherr"

type cellKey struct{ row, col int }

// Range is a normalized rectangular region.
type Range struct {
	StartRow, StartCol, EndRow, EndCol int
}

func (r Range) normalize() Range {
	if r.EndRow < r.StartRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	if r.EndCol < r.StartCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	return r
}

func (r Range) contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartCol && col <= r.EndCol
}

func (r Range) intersects(o Range) bool {
	return r.StartRow <= o.EndRow && o.StartRow <= r.EndRow &&
		r.StartCol <= o.EndCol && o.StartCol <= r.EndCol
}

// Info describes one merged region, keyed by its anchor (top-left) cell.
type Info struct {
	AnchorRow, AnchorCol int
	RowSpan, ColSpan     int
}

func (i Info) rangeOf() Range {
	return Range{i.AnchorRow, i.AnchorCol, i.AnchorRow + i.RowSpan - 1, i.AnchorCol + i.ColSpan - 1}
}

// CellMetaSink receives merge-metadata updates so the cell store's
// denormalized MergeMeta mirror stays in sync with the manager's own
// bookkeeping.
type CellMetaSink interface {
	SetMergeAnchor(row, col, anchorRow, anchorCol, rowSpan, colSpan int)
	SetMergeMember(row, col, anchorRow, anchorCol int)
	ClearMerge(row, col int)
	ClearEmptyCell(row, col int)
}

// Manager owns the merge region index.
type Manager struct {
	byAnchor map[cellKey]Info
	byMember map[cellKey]cellKey // member -> anchor
	sink     CellMetaSink
}

// New returns an empty Manager. sink may be nil if the caller doesn't
// need cell-level metadata mirrored (e.g. in isolated tests).
func New(sink CellMetaSink) *Manager {
	return &Manager{
		byAnchor: make(map[cellKey]Info),
		byMember: make(map[cellKey]cellKey),
		sink:     sink,
	}
}

// Merge creates a merge region covering r. Fails with Conflict if any
// cell of the normalized range already belongs to another merge.
func (m *Manager) Merge(r Range) error {
	r = r.normalize()
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			if m.IsMerged(row, col) {
				return sherr.New(sherr.Conflict, "cell (%d,%d) already belongs to a merge", row, col)
			}
		}
	}
	info := Info{AnchorRow: r.StartRow, AnchorCol: r.StartCol, RowSpan: r.EndRow - r.StartRow + 1, ColSpan: r.EndCol - r.StartCol + 1}
	anchorKey := cellKey{r.StartRow, r.StartCol}
	m.byAnchor[anchorKey] = info
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			if row == r.StartRow && col == r.StartCol {
				continue
			}
			m.byMember[cellKey{row, col}] = anchorKey
		}
	}
	if m.sink != nil {
		m.sink.SetMergeAnchor(r.StartRow, r.StartCol, r.StartRow, r.StartCol, info.RowSpan, info.ColSpan)
		for row := r.StartRow; row <= r.EndRow; row++ {
			for col := r.StartCol; col <= r.EndCol; col++ {
				if row == r.StartRow && col == r.StartCol {
					continue
				}
				m.sink.SetMergeMember(row, col, r.StartRow, r.StartCol)
			}
		}
	}
	return nil
}

// Unmerge removes every merge region intersecting r.
func (m *Manager) Unmerge(r Range) {
	r = r.normalize()
	var toRemove []cellKey
	for anchorKey, info := range m.byAnchor {
		if info.rangeOf().intersects(r) {
			toRemove = append(toRemove, anchorKey)
		}
	}
	for _, anchorKey := range toRemove {
		m.removeRegion(anchorKey)
	}
}

func (m *Manager) removeRegion(anchorKey cellKey) {
	info, ok := m.byAnchor[anchorKey]
	if !ok {
		return
	}
	delete(m.byAnchor, anchorKey)
	rng := info.rangeOf()
	for row := rng.StartRow; row <= rng.EndRow; row++ {
		for col := rng.StartCol; col <= rng.EndCol; col++ {
			delete(m.byMember, cellKey{row, col})
		}
	}
	if m.sink != nil {
		for row := rng.StartRow; row <= rng.EndRow; row++ {
			for col := rng.StartCol; col <= rng.EndCol; col++ {
				m.sink.ClearMerge(row, col)
				if row != anchorKey.row || col != anchorKey.col {
					m.sink.ClearEmptyCell(row, col)
				}
			}
		}
	}
}

// IsMerged reports whether (row, col) belongs to any merge region.
func (m *Manager) IsMerged(row, col int) bool {
	k := cellKey{row, col}
	if _, ok := m.byAnchor[k]; ok {
		return true
	}
	_, ok := m.byMember[k]
	return ok
}

// IsMergeAnchor reports whether (row, col) is specifically the anchor of
// a merge region.
func (m *Manager) IsMergeAnchor(row, col int) bool {
	_, ok := m.byAnchor[cellKey{row, col}]
	return ok
}

// GetMergeInfo returns the region info for the merge containing
// (row, col), if any.
func (m *Manager) GetMergeInfo(row, col int) (Info, bool) {
	anchor, ok := m.GetMergeAnchor(row, col)
	if !ok {
		return Info{}, false
	}
	info, ok := m.byAnchor[cellKey{anchor[0], anchor[1]}]
	return info, ok
}

// GetMergeAnchor returns the [row, col] of the anchor owning (row, col),
// or false if the cell is not merged.
func (m *Manager) GetMergeAnchor(row, col int) ([2]int, bool) {
	k := cellKey{row, col}
	if _, ok := m.byAnchor[k]; ok {
		return [2]int{row, col}, true
	}
	if a, ok := m.byMember[k]; ok {
		return [2]int{a.row, a.col}, true
	}
	return [2]int{}, false
}

// GetDisplayRange returns the span covering (row, col): the full merge
// region if merged, otherwise the 1x1 range of the cell itself.
func (m *Manager) GetDisplayRange(row, col int) Range {
	if info, ok := m.GetMergeInfo(row, col); ok {
		return info.rangeOf()
	}
	return Range{row, col, row, col}
}

// GetEditTarget redirects an edit on a merged cell to its anchor.
func (m *Manager) GetEditTarget(row, col int) (anchorRow, anchorCol, rowSpan, colSpan int) {
	if info, ok := m.GetMergeInfo(row, col); ok {
		return info.AnchorRow, info.AnchorCol, info.RowSpan, info.ColSpan
	}
	return row, col, 1, 1
}

// ExpandRangeToIncludeMerges grows r by fixpoint iteration until it
// fully contains every merge region it touches (a merge partially
// overlapping the selection pulls the whole selection out to the
// merge's bounds, which may in turn touch another merge).
func (m *Manager) ExpandRangeToIncludeMerges(r Range) Range {
	r = r.normalize()
	for {
		grew := false
		for _, info := range m.byAnchor {
			rng := info.rangeOf()
			if rng.intersects(r) && !containsRange(r, rng) {
				r = unionRange(r, rng)
				grew = true
			}
		}
		if !grew {
			return r
		}
	}
}

func containsRange(outer, inner Range) bool {
	return inner.StartRow >= outer.StartRow && inner.EndRow <= outer.EndRow &&
		inner.StartCol >= outer.StartCol && inner.EndCol <= outer.EndCol
}

func unionRange(a, b Range) Range {
	out := a
	if b.StartRow < out.StartRow {
		out.StartRow = b.StartRow
	}
	if b.StartCol < out.StartCol {
		out.StartCol = b.StartCol
	}
	if b.EndRow > out.EndRow {
		out.EndRow = b.EndRow
	}
	if b.EndCol > out.EndCol {
		out.EndCol = b.EndCol
	}
	return out
}

// Regions returns every tracked merge region, for undo snapshotting and
// serialization. Order is unspecified.
func (m *Manager) Regions() []Info {
	out := make([]Info, 0, len(m.byAnchor))
	for _, info := range m.byAnchor {
		out = append(out, info)
	}
	return out
}

// Restore clears every tracked region and re-establishes regions exactly
// as given, bypassing the overlap check Merge performs (the caller is
// handing back a previously-valid, already-disjoint set, e.g. an undo
// snapshot or a deserialized document).
func (m *Manager) Restore(regions []Info) {
	for anchorKey := range m.byAnchor {
		m.removeRegion(anchorKey)
	}
	for _, info := range regions {
		r := info.rangeOf()
		anchorKey := cellKey{r.StartRow, r.StartCol}
		m.byAnchor[anchorKey] = info
		if m.sink != nil {
			m.sink.SetMergeAnchor(r.StartRow, r.StartCol, r.StartRow, r.StartCol, info.RowSpan, info.ColSpan)
		}
		for row := r.StartRow; row <= r.EndRow; row++ {
			for col := r.StartCol; col <= r.EndCol; col++ {
				if row == r.StartRow && col == r.StartCol {
					continue
				}
				m.byMember[cellKey{row, col}] = anchorKey
				if m.sink != nil {
					m.sink.SetMergeMember(row, col, r.StartRow, r.StartCol)
				}
			}
		}
	}
}

// OnRowsInserted shifts every region at or below row down by count rows.
func (m *Manager) OnRowsInserted(row, count int) {
	m.rebuild(func(r Range) (Range, bool) {
		if r.StartRow >= row {
			r.StartRow += count
			r.EndRow += count
		}
		return r, true
	})
}

// OnRowsDeleted removes regions fully contained in the deleted band
// [row, row+count), shifts regions entirely below it up by count, and
// fails with Conflict if a region only partially overlaps the deleted
// band — the caller must Unmerge or ExpandRangeToIncludeMerges first, per
// the engine's coordination rules.
func (m *Manager) OnRowsDeleted(row, count int) error {
	deleted := Range{StartRow: row, StartCol: 0, EndRow: row + count - 1, EndCol: 1<<31 - 1}
	return m.rebuildOrFail(func(r Range) (Range, bool, bool) {
		switch {
		case r.StartRow >= deleted.StartRow && r.EndRow <= deleted.EndRow:
			return r, false, true // fully inside: drop
		case r.EndRow < deleted.StartRow:
			return r, true, true // fully above: unchanged
		case r.StartRow > deleted.EndRow:
			r.StartRow -= count
			r.EndRow -= count
			return r, true, true // fully below: shift up
		default:
			return r, true, false // partial overlap: reject
		}
	})
}

// OnColumnsInserted shifts every region at or right of col right by count
// columns.
func (m *Manager) OnColumnsInserted(col, count int) {
	m.rebuild(func(r Range) (Range, bool) {
		if r.StartCol >= col {
			r.StartCol += count
			r.EndCol += count
		}
		return r, true
	})
}

// OnColumnsDeleted is OnRowsDeleted's column-axis twin.
func (m *Manager) OnColumnsDeleted(col, count int) error {
	deleted := Range{StartRow: 0, StartCol: col, EndRow: 1<<31 - 1, EndCol: col + count - 1}
	return m.rebuildOrFail(func(r Range) (Range, bool, bool) {
		switch {
		case r.StartCol >= deleted.StartCol && r.EndCol <= deleted.EndCol:
			return r, false, true
		case r.EndCol < deleted.StartCol:
			return r, true, true
		case r.StartCol > deleted.EndCol:
			r.StartCol -= count
			r.EndCol -= count
			return r, true, true
		default:
			return r, true, false
		}
	})
}

// rebuild applies fn to every region's range unconditionally and
// restores the result via Restore.
func (m *Manager) rebuild(fn func(Range) (Range, bool)) {
	var next []Info
	for _, info := range m.Regions() {
		nr, keep := fn(info.rangeOf())
		if !keep {
			continue
		}
		next = append(next, Info{AnchorRow: nr.StartRow, AnchorCol: nr.StartCol, RowSpan: nr.EndRow - nr.StartRow + 1, ColSpan: nr.EndCol - nr.StartCol + 1})
	}
	m.Restore(next)
}

// rebuildOrFail is rebuild's twin for edits that can be rejected: fn's
// third return value is false for a region that must abort the whole
// structural edit with a Conflict error, leaving the manager untouched.
func (m *Manager) rebuildOrFail(fn func(Range) (Range, bool, bool)) error {
	var next []Info
	for _, info := range m.Regions() {
		nr, keep, ok := fn(info.rangeOf())
		if !ok {
			return sherr.New(sherr.Conflict, "merge region (%d,%d)+%dx%d is partially covered by the deleted band; unmerge or expand the selection first",
				info.AnchorRow, info.AnchorCol, info.RowSpan, info.ColSpan)
		}
		if !keep {
			continue
		}
		next = append(next, Info{AnchorRow: nr.StartRow, AnchorCol: nr.StartCol, RowSpan: nr.EndRow - nr.StartRow + 1, ColSpan: nr.EndCol - nr.StartCol + 1})
	}
	m.Restore(next)
	return nil
}
