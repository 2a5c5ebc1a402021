// Package viewport implements the virtual scrolling window over a sparse
// grid: given a pixel size and scroll offset, it computes which rows and
// columns intersect the viewport, with an optional frozen band and a
// render buffer, using cumulative-sum prefix tables so the computation
// stays sub-linear in grid size.
//
// Grounded on sheetcore/spreadsheet's viewport math (cumulative row/column
// offsets derived from a sparse height/width overlay), generalized to
// support frozen panes, filter-aware hiding, and merge-aware cell
// enumeration.
package viewport

import "sort"

// DimensionProvider is the minimal surface the viewport consults for row
// and column geometry. cellstore.Store satisfies it directly; a
// filter-aware wrapper can additionally report filtered rows as hidden.
type DimensionProvider interface {
	GetRowHeight(r int) int
	GetColWidth(c int) int
	IsRowHidden(r int) bool
	IsColHidden(c int) bool
	GetLastUsedRow() int
	GetLastUsedCol() int
}

// MergeLookup reports, for a cell inside a merge region, the anchor cell
// and row/col span. Anchor equal to (row, col) means the cell itself is
// the anchor (or unmerged).
type MergeLookup interface {
	GetEditTarget(row, col int) (anchorRow, anchorCol, rowSpan, colSpan int)
}

const (
	defaultRowBuffer = 5
	defaultColBuffer = 3
)

// VisibleLine describes one visible row or column.
type VisibleLine struct {
	Index  int
	Offset int
	Size   int
}

// RenderCell is one cell slot to draw, carrying merge span metadata when
// it anchors a merged region.
type RenderCell struct {
	Row, Col         int
	RowSpan, ColSpan int
}

// Viewport computes the visible window over a DimensionProvider.
type Viewport struct {
	dim   DimensionProvider
	merge MergeLookup

	width, height int
	scrollX       int
	scrollY       int
	frozenRows    int
	frozenCols    int
	rowBuffer     int
	colBuffer     int

	rowPrefix []int // rowPrefix[i] = pixel top of row i, cached lazily
	colPrefix []int
}

// New returns a Viewport over dim. merge may be nil if no merge-aware
// rendering is needed.
func New(dim DimensionProvider, merge MergeLookup) *Viewport {
	return &Viewport{
		dim:       dim,
		merge:     merge,
		rowBuffer: defaultRowBuffer,
		colBuffer: defaultColBuffer,
	}
}

// SetViewportSize sets the pixel dimensions of the visible window,
// clamping negative values to zero.
func (v *Viewport) SetViewportSize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	v.width, v.height = w, h
}

// SetScroll sets the scroll offset, clamping negative values to zero.
func (v *Viewport) SetScroll(x, y int) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	v.scrollX, v.scrollY = x, y
}

// SetFrozenPanes sets the count of always-visible leading rows/columns.
func (v *Viewport) SetFrozenPanes(rows, cols int) {
	v.frozenRows, v.frozenCols = rows, cols
}

// SetBuffer overrides the default render buffer (5 rows / 3 columns).
func (v *Viewport) SetBuffer(rows, cols int) {
	v.rowBuffer, v.colBuffer = rows, cols
}

// InvalidateCache truncates the cached prefix-sum tables back to
// fromRow/fromCol, forcing every offset from there on to be
// recomputed on next access. Pass 0 to invalidate the whole table.
func (v *Viewport) InvalidateCache(fromRow, fromCol int) {
	if fromRow < 0 {
		fromRow = 0
	}
	if fromRow < len(v.rowPrefix) {
		v.rowPrefix = v.rowPrefix[:fromRow]
	}
	if fromCol < 0 {
		fromCol = 0
	}
	if fromCol < len(v.colPrefix) {
		v.colPrefix = v.colPrefix[:fromCol]
	}
}

// ensureRowPrefix extends the cached prefix-sum table up to at least
// index (inclusive), skipping hidden rows (they contribute zero height).
func (v *Viewport) ensureRowPrefix(index int) {
	for len(v.rowPrefix) <= index {
		r := len(v.rowPrefix)
		top := 0
		if r > 0 {
			top = v.rowPrefix[r-1] + v.rowHeightAt(r - 1)
		}
		v.rowPrefix = append(v.rowPrefix, top)
	}
}

func (v *Viewport) rowHeightAt(r int) int {
	if v.dim.IsRowHidden(r) {
		return 0
	}
	return v.dim.GetRowHeight(r)
}

func (v *Viewport) ensureColPrefix(index int) {
	for len(v.colPrefix) <= index {
		c := len(v.colPrefix)
		left := 0
		if c > 0 {
			left = v.colPrefix[c-1] + v.colWidthAt(c - 1)
		}
		v.colPrefix = append(v.colPrefix, left)
	}
}

func (v *Viewport) colWidthAt(c int) int {
	if v.dim.IsColHidden(c) {
		return 0
	}
	return v.dim.GetColWidth(c)
}

// GetRowTop returns the pixel offset of row r's top edge.
func (v *Viewport) GetRowTop(r int) int {
	v.ensureRowPrefix(r)
	return v.rowPrefix[r]
}

// GetColLeft returns the pixel offset of column c's left edge.
func (v *Viewport) GetColLeft(c int) int {
	v.ensureColPrefix(c)
	return v.colPrefix[c]
}

// GetMaxScroll returns the maximum meaningful scrollX/scrollY given the
// used range and current viewport size.
func (v *Viewport) GetMaxScroll() (maxX, maxY int) {
	lastRow := v.dim.GetLastUsedRow()
	lastCol := v.dim.GetLastUsedCol()
	totalH := v.GetRowTop(lastRow) + v.rowHeightAt(lastRow)
	totalW := v.GetColLeft(lastCol) + v.colWidthAt(lastCol)
	maxY = totalH - v.height
	maxX = totalW - v.width
	if maxY < 0 {
		maxY = 0
	}
	if maxX < 0 {
		maxX = 0
	}
	return maxX, maxY
}

// GetVisibleRows returns the rows intersecting the viewport plus the
// configured buffer on each side, with the frozen band always included.
func (v *Viewport) GetVisibleRows() []VisibleLine {
	return v.visibleLines(v.scrollY, v.height, v.rowBuffer, v.frozenRows,
		v.rowHeightAt, v.dim.IsRowHidden, v.dim.GetLastUsedRow, v.ensureRowPrefix, func(i int) int { v.ensureRowPrefix(i); return v.rowPrefix[i] })
}

// GetVisibleColumns is GetVisibleRows' column-axis twin.
func (v *Viewport) GetVisibleColumns() []VisibleLine {
	return v.visibleLines(v.scrollX, v.width, v.colBuffer, v.frozenCols,
		v.colWidthAt, v.dim.IsColHidden, v.dim.GetLastUsedCol, v.ensureColPrefix, func(i int) int { v.ensureColPrefix(i); return v.colPrefix[i] })
}

// visibleLines finds the first non-hidden line whose top >= scroll via
// binary search on the cached prefix-sum table, then walks forward while
// the accumulated offset stays under scroll+size, and finally pads
// `buffer` extra non-hidden lines on each side. The frozen band is
// always included regardless of scroll position.
func (v *Viewport) visibleLines(scroll, size, buffer, frozen int, sizeAt func(int) int, hidden func(int) bool, lastUsed func() int, ensure func(int), offsetAt func(int) int) []VisibleLine {
	last := lastUsed()
	if last < 0 {
		return nil
	}
	ensure(last)
	hi := scroll + size

	firstIdx := sort.Search(last+1, func(i int) bool { return offsetAt(i) >= scroll })
	if firstIdx > 0 {
		firstIdx--
	}
	lastIdx := firstIdx
	for lastIdx <= last && offsetAt(lastIdx) < hi {
		lastIdx++
	}
	if lastIdx > last {
		lastIdx = last
	}

	firstIdx = stepBackNonHidden(firstIdx, buffer, hidden)
	lastIdx = stepForwardNonHidden(lastIdx, buffer, last, hidden)

	seen := make(map[int]bool)
	var out []VisibleLine
	add := func(i int) {
		if i < 0 || i > last || hidden(i) || seen[i] {
			return
		}
		seen[i] = true
		out = append(out, VisibleLine{Index: i, Offset: offsetAt(i), Size: sizeAt(i)})
	}
	for i := 0; i < frozen && i <= last; i++ {
		add(i)
	}
	for i := firstIdx; i <= lastIdx; i++ {
		add(i)
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

func stepBackNonHidden(from, count int, hidden func(int) bool) int {
	i := from
	remaining := count
	for i > 0 && remaining > 0 {
		i--
		if !hidden(i) {
			remaining--
		}
	}
	return i
}

func stepForwardNonHidden(from, count, last int, hidden func(int) bool) int {
	i := from
	remaining := count
	for i < last && remaining > 0 {
		i++
		if !hidden(i) {
			remaining--
		}
	}
	return i
}

// GetCellAtPoint returns the (row, col) whose cell contains pixel (x, y),
// found by binary search on the prefix-sum tables.
func (v *Viewport) GetCellAtPoint(x, y int) (row, col int) {
	lastRow := v.dim.GetLastUsedRow()
	lastCol := v.dim.GetLastUsedCol()
	v.ensureRowPrefix(lastRow)
	v.ensureColPrefix(lastCol)
	row = sort.Search(lastRow+1, func(i int) bool { return v.rowPrefix[i] > y }) - 1
	col = sort.Search(lastCol+1, func(i int) bool { return v.colPrefix[i] > x }) - 1
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	return row, col
}

// GetCellsToRender returns the cartesian product of visible rows and
// columns, collapsing cells inside a merge region whose anchor lies
// outside the set down to a single anchor-rendered RenderCell carrying
// the span.
func (v *Viewport) GetCellsToRender() []RenderCell {
	rows := v.GetVisibleRows()
	cols := v.GetVisibleColumns()

	seenAnchor := make(map[[2]int]bool)
	var out []RenderCell
	for _, r := range rows {
		for _, c := range cols {
			row, col := r.Index, c.Index
			anchorRow, anchorCol, rowSpan, colSpan := row, col, 1, 1
			if v.merge != nil {
				anchorRow, anchorCol, rowSpan, colSpan = v.merge.GetEditTarget(row, col)
			}
			key := [2]int{anchorRow, anchorCol}
			if seenAnchor[key] {
				continue
			}
			if anchorRow != row || anchorCol != col {
				// Only render at the anchor; if the anchor itself isn't
				// in the visible set, render it anyway so the merge is
				// never silently dropped.
				seenAnchor[key] = true
				out = append(out, RenderCell{Row: anchorRow, Col: anchorCol, RowSpan: rowSpan, ColSpan: colSpan})
				continue
			}
			seenAnchor[key] = true
			out = append(out, RenderCell{Row: row, Col: col, RowSpan: rowSpan, ColSpan: colSpan})
		}
	}
	return out
}
