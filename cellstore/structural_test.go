package cellstore

import "testing"

func TestInsertRowsShiftsCellsAndMeta(t *testing.T) {
	s := New()
	s.SetCell(0, 0, numCell(1))
	s.SetCell(5, 0, numCell(2))
	s.SetRowHeight(5, 50)

	if err := s.InsertRows(2, 3); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if s.HasCell(5, 0) {
		t.Fatal("cell at row 5 should have shifted away")
	}
	if c := s.GetCell(8, 0); c == nil || c.Value.(float64) != 2 {
		t.Fatalf("expected shifted cell at row 8, got %+v", c)
	}
	if c := s.GetCell(0, 0); c == nil || c.Value.(float64) != 1 {
		t.Fatal("cell above insertion point should not move")
	}
	if h := s.GetRowHeight(8); h != 50 {
		t.Fatalf("row meta did not shift with its cell, height = %d", h)
	}
}

func TestDeleteRowsRemovesAndShifts(t *testing.T) {
	s := New()
	s.SetCell(2, 0, numCell(1)) // inside deleted range
	s.SetCell(5, 0, numCell(2)) // below, should shift up
	s.SetCell(0, 0, numCell(3)) // above, unaffected

	if err := s.DeleteRows(1, 3); err != nil { // deletes rows 1,2,3
		t.Fatalf("DeleteRows: %v", err)
	}
	// Row 5's cell shifts up to row 2 (5 - 3 deleted rows), landing exactly
	// on the now-vacated slot that held the deleted row-2 cell.
	if c := s.GetCell(2, 0); c == nil || c.Value.(float64) != 2 {
		t.Fatalf("expected shifted cell (value 2) at row 2, got %+v", c)
	}
	if c := s.GetCell(0, 0); c == nil || c.Value.(float64) != 3 {
		t.Fatal("cell above deletion should be untouched")
	}
}

func TestInsertColumnsAndDeleteColumns(t *testing.T) {
	s := New()
	s.SetCell(0, 5, numCell(9))
	s.SetColWidth(5, 200)

	if err := s.InsertColumns(1, 2); err != nil {
		t.Fatalf("InsertColumns: %v", err)
	}
	if c := s.GetCell(0, 7); c == nil || c.Value.(float64) != 9 {
		t.Fatal("expected cell shifted to col 7")
	}
	if w := s.GetColWidth(7); w != 200 {
		t.Fatalf("col meta should shift too, width = %d", w)
	}

	if err := s.DeleteColumns(0, 1); err != nil {
		t.Fatalf("DeleteColumns: %v", err)
	}
	if c := s.GetCell(0, 6); c == nil || c.Value.(float64) != 9 {
		t.Fatal("expected cell shifted left to col 6 after delete")
	}
}

func TestInsertRowsOverflow(t *testing.T) {
	s := New()
	s.SetCell(MaxRows-1, 0, numCell(1))
	if err := s.InsertRows(0, 5); err == nil {
		t.Fatal("expected GridOverflow error")
	}
}

func TestFindNextNonEmpty(t *testing.T) {
	s := New()
	s.SetCell(0, 0, numCell(1))
	s.SetCell(1, 0, numCell(2))
	s.SetCell(2, 0, numCell(3))
	s.SetCell(5, 0, numCell(4))

	r, c := s.FindNextNonEmpty(0, 0, DirDown)
	if r != 2 || c != 0 {
		t.Fatalf("FindNextNonEmpty from run start = (%d,%d), want (2,0)", r, c)
	}
	r, c = s.FindNextNonEmpty(2, 0, DirDown)
	if r != 5 || c != 0 {
		t.Fatalf("FindNextNonEmpty jump over gap = (%d,%d), want (5,0)", r, c)
	}
}

func TestFindCurrentRegion(t *testing.T) {
	s := New()
	s.SetCell(1, 1, numCell(1))
	s.SetCell(1, 2, numCell(2))
	s.SetCell(2, 1, numCell(3))

	region := s.FindCurrentRegion(1, 1)
	want := CellRange{StartRow: 1, StartCol: 1, EndRow: 2, EndCol: 2}
	if region != want {
		t.Fatalf("FindCurrentRegion = %+v, want %+v", region, want)
	}

	empty := s.FindCurrentRegion(9, 9)
	if empty != (CellRange{StartRow: 9, StartCol: 9, EndRow: 9, EndCol: 9}) {
		t.Fatalf("FindCurrentRegion on empty cell = %+v, want single cell", empty)
	}
}
