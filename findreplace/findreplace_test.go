package findreplace

import (
	"testing"

	"sheetcore/cellstore"
)

type fakeStore struct {
	cells map[[2]int]*cellstore.Cell
}

func newFakeStore() *fakeStore {
	return &fakeStore{cells: make(map[[2]int]*cellstore.Cell)}
}

func (f *fakeStore) put(row, col int, text string) {
	f.cells[[2]int{row, col}] = &cellstore.Cell{Row: row, Col: col, Type: cellstore.Text, Value: text}
}

func (f *fakeStore) GetCellsInRange(r cellstore.CellRange) []*cellstore.Cell {
	var out []*cellstore.Cell
	for k, c := range f.cells {
		if k[0] >= r.StartRow && k[0] <= r.EndRow && k[1] >= r.StartCol && k[1] <= r.EndCol {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeStore) IsRowHidden(r int) bool { return false }
func (f *fakeStore) IsColHidden(c int) bool { return false }

func (f *fakeStore) SetCell(row, col int, cell *cellstore.Cell) error {
	f.cells[[2]int{row, col}] = cell
	return nil
}

func TestCompileLiteralEscapesRegexMetachars(t *testing.T) {
	s, err := Compile("a.b", Options{SearchValue: true, Range: cellstore.CellRange{EndRow: 10, EndCol: 10}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	store := newFakeStore()
	store.put(0, 0, "a.b")
	store.put(1, 0, "axb") // should NOT match since '.' is escaped
	s.Run(store)
	if len(s.Matches()) != 1 {
		t.Fatalf("expected 1 literal match, got %d", len(s.Matches()))
	}
}

func TestFindNextWraparound(t *testing.T) {
	store := newFakeStore()
	store.put(0, 0, "foo")
	store.put(1, 0, "foo")
	s, _ := Compile("foo", Options{SearchValue: true, Range: cellstore.CellRange{EndRow: 10, EndCol: 10}})
	s.Run(store)
	if len(s.Matches()) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(s.Matches()))
	}
	m1, _ := s.FindNext()
	m2, _ := s.FindNext()
	m3, _ := s.FindNext() // wraps
	if m1.Row != m3.Row || m1.Col != m3.Col {
		t.Fatal("FindNext should wrap around to the first match")
	}
	_ = m2
}

func TestReplaceOne(t *testing.T) {
	store := newFakeStore()
	store.put(0, 0, "hello world")
	s, _ := Compile("world", Options{SearchValue: true, Range: cellstore.CellRange{EndRow: 10, EndCol: 10}})
	s.Run(store)
	if len(s.Matches()) != 1 {
		t.Fatalf("expected 1 match, got %d", len(s.Matches()))
	}
	if err := s.ReplaceOne(store, s.Matches()[0], "there"); err != nil {
		t.Fatalf("ReplaceOne: %v", err)
	}
	got := DisplayText(store.cells[[2]int{0, 0}])
	if got != "hello there" {
		t.Fatalf("after replace = %q, want %q", got, "hello there")
	}
}

func TestBulkReplaceDescendingWithinCell(t *testing.T) {
	store := newFakeStore()
	store.put(0, 0, "aXaXa")
	s, _ := Compile("X", Options{SearchValue: true, Range: cellstore.CellRange{EndRow: 10, EndCol: 10}})
	s.Run(store)
	result := s.BulkReplace(store, "_")
	if result.Count != 2 {
		t.Fatalf("expected 2 replacements, got %d", result.Count)
	}
	got := DisplayText(store.cells[[2]int{0, 0}])
	if got != "a_a_a" {
		t.Fatalf("after bulk replace = %q, want %q", got, "a_a_a")
	}
}
