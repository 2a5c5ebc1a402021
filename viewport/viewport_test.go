package viewport

import "testing"

type fakeDim struct {
	rowHeight map[int]int
	colWidth  map[int]int
	rowHidden map[int]bool
	colHidden map[int]bool
	lastRow   int
	lastCol   int
}

func newFakeDim(lastRow, lastCol int) *fakeDim {
	return &fakeDim{
		rowHeight: map[int]int{},
		colWidth:  map[int]int{},
		rowHidden: map[int]bool{},
		colHidden: map[int]bool{},
		lastRow:   lastRow,
		lastCol:   lastCol,
	}
}

func (f *fakeDim) GetRowHeight(r int) int {
	if h, ok := f.rowHeight[r]; ok {
		return h
	}
	return 20
}
func (f *fakeDim) GetColWidth(c int) int {
	if w, ok := f.colWidth[c]; ok {
		return w
	}
	return 100
}
func (f *fakeDim) IsRowHidden(r int) bool { return f.rowHidden[r] }
func (f *fakeDim) IsColHidden(c int) bool { return f.colHidden[c] }
func (f *fakeDim) GetLastUsedRow() int    { return f.lastRow }
func (f *fakeDim) GetLastUsedCol() int    { return f.lastCol }

func TestRowTopCumulative(t *testing.T) {
	dim := newFakeDim(10, 10)
	dim.rowHeight[0] = 30
	v := New(dim, nil)
	if top := v.GetRowTop(0); top != 0 {
		t.Fatalf("row 0 top = %d, want 0", top)
	}
	if top := v.GetRowTop(1); top != 30 {
		t.Fatalf("row 1 top = %d, want 30", top)
	}
	if top := v.GetRowTop(2); top != 50 {
		t.Fatalf("row 2 top = %d, want 50", top)
	}
}

func TestHiddenRowsContributeZero(t *testing.T) {
	dim := newFakeDim(5, 5)
	dim.rowHidden[1] = true
	v := New(dim, nil)
	if top := v.GetRowTop(2); top != 20 {
		t.Fatalf("row 2 top with hidden row 1 = %d, want 20", top)
	}
}

func TestGetVisibleRowsIncludesBufferAndFrozen(t *testing.T) {
	dim := newFakeDim(100, 10)
	v := New(dim, nil)
	v.SetViewportSize(200, 100) // 5 rows of height 20 visible
	v.SetScroll(0, 200)         // scrolled to row 10
	v.SetFrozenPanes(1, 0)
	v.SetBuffer(2, 2)

	rows := v.GetVisibleRows()
	indices := make(map[int]bool)
	for _, r := range rows {
		indices[r.Index] = true
	}
	if !indices[0] {
		t.Fatal("frozen row 0 should always be present")
	}
	if !indices[10] {
		t.Fatal("row at scroll position should be visible")
	}
}

func TestInvalidateCacheResetsWatermark(t *testing.T) {
	dim := newFakeDim(20, 20)
	v := New(dim, nil)
	v.GetRowTop(15) // populates cache through row 15
	dim.rowHeight[3] = 999
	v.InvalidateCache(3, 0)
	if top := v.GetRowTop(4); top != 60+999 {
		t.Fatalf("row 4 top after invalidation = %d, want %d", top, 60+999)
	}
}

func TestGetCellAtPoint(t *testing.T) {
	dim := newFakeDim(10, 10)
	v := New(dim, nil)
	row, col := v.GetCellAtPoint(150, 45)
	if row != 2 || col != 1 {
		t.Fatalf("GetCellAtPoint(150,45) = (%d,%d), want (2,1)", row, col)
	}
}
