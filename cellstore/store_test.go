package cellstore

import "testing"

func numCell(v float64) *Cell {
	return &Cell{Type: Number, Value: v}
}

func TestSetGetDeleteCell(t *testing.T) {
	s := New()
	if s.HasCell(0, 0) {
		t.Fatal("empty store reports HasCell true")
	}
	if err := s.SetCell(3, 4, numCell(10)); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	c := s.GetCell(3, 4)
	if c == nil || c.Value.(float64) != 10 {
		t.Fatalf("GetCell = %+v, want value 10", c)
	}
	if err := s.DeleteCell(3, 4); err != nil {
		t.Fatalf("DeleteCell: %v", err)
	}
	if s.HasCell(3, 4) {
		t.Fatal("cell still present after DeleteCell")
	}
}

func TestSetCellOutOfRange(t *testing.T) {
	s := New()
	if err := s.SetCell(-1, 0, numCell(1)); err == nil {
		t.Fatal("expected error for negative row")
	}
	if err := s.SetCell(MaxRows, 0, numCell(1)); err == nil {
		t.Fatal("expected error for row >= MaxRows")
	}
}

func TestUsedRangeTracking(t *testing.T) {
	s := New()
	if _, ok := s.GetUsedRange(); ok {
		t.Fatal("empty store should report no used range")
	}
	s.SetCell(5, 5, numCell(1))
	s.SetCell(2, 8, numCell(1))
	s.SetCell(10, 1, numCell(1))
	r, ok := s.GetUsedRange()
	if !ok {
		t.Fatal("expected used range")
	}
	want := CellRange{StartRow: 2, StartCol: 1, EndRow: 10, EndCol: 8}
	if r != want {
		t.Fatalf("GetUsedRange = %+v, want %+v", r, want)
	}
	s.DeleteCell(10, 1)
	r, _ = s.GetUsedRange()
	if r.EndRow != 5 {
		t.Fatalf("after deleting boundary cell, EndRow = %d, want 5", r.EndRow)
	}
}

func TestRowColMetaDefaults(t *testing.T) {
	s := New()
	if h := s.GetRowHeight(0); h != DefaultRowHeight {
		t.Fatalf("default row height = %d, want %d", h, DefaultRowHeight)
	}
	s.SetRowHeight(0, 40)
	if h := s.GetRowHeight(0); h != 40 {
		t.Fatalf("row height = %d, want 40", h)
	}
	s.SetColHidden(3, true)
	if !s.IsColHidden(3) {
		t.Fatal("expected column 3 hidden")
	}
	if s.IsColHidden(4) {
		t.Fatal("column 4 should not be hidden")
	}
}

func TestClearRange(t *testing.T) {
	s := New()
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			s.SetCell(r, c, numCell(float64(r*5+c)))
		}
	}
	s.ClearRange(CellRange{StartRow: 1, StartCol: 1, EndRow: 3, EndCol: 3})
	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			if s.HasCell(r, c) {
				t.Fatalf("cell (%d,%d) should have been cleared", r, c)
			}
		}
	}
	if !s.HasCell(0, 0) || !s.HasCell(4, 4) {
		t.Fatal("cells outside cleared range should remain")
	}
}

func TestCellCloneIsDeep(t *testing.T) {
	orig := &Cell{
		Row: 1, Col: 1, Type: Text, Value: "hi",
		Format: &CellFormat{Bold: true},
	}
	clone := orig.Clone()
	clone.Format.Bold = false
	if !orig.Format.Bold {
		t.Fatal("mutating clone's format mutated original")
	}
}
