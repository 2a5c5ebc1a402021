package filter

import "testing"

type fakeSource struct {
	rows map[int]map[int]CellValue
	min, max int
}

func (f *fakeSource) GetCellValue(row, col int) CellValue {
	if r, ok := f.rows[row]; ok {
		if v, ok := r[col]; ok {
			return v
		}
	}
	return CellValue{IsBlank: true}
}

func (f *fakeSource) UsedRowRange() (int, int, bool) { return f.min, f.max, true }

func numVal(n float64) CellValue {
	return CellValue{Text: floatStr(n), Number: n, IsNumber: true}
}

func floatStr(n float64) string {
	if n == float64(int(n)) {
		return itoa(int(n))
	}
	return "x"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func textVal(s string) CellValue {
	return CellValue{Text: s}
}

func buildSource() *fakeSource {
	src := &fakeSource{rows: map[int]map[int]CellValue{}, min: 0, max: 4}
	src.rows[0] = map[int]CellValue{0: textVal("Alice"), 1: numVal(10)}
	src.rows[1] = map[int]CellValue{0: textVal("Bob"), 1: numVal(20)}
	src.rows[2] = map[int]CellValue{0: textVal("Carl"), 1: numVal(30)}
	src.rows[3] = map[int]CellValue{0: textVal("Dana"), 1: numVal(40)}
	src.rows[4] = map[int]CellValue{0: textVal(""), 1: CellValue{IsBlank: true}}
	return src
}

func TestValueSetFilter(t *testing.T) {
	src := buildSource()
	m := New(src)
	m.ApplyFilter(0, Predicate{IsValueSet: true, Values: map[string]bool{"alice": true, "bob": true}})
	rows := m.GetFilteredRows()
	if !rows[0] || !rows[1] {
		t.Fatal("expected rows 0 and 1 visible")
	}
	if rows[2] || rows[3] {
		t.Fatal("rows 2,3 should be filtered out")
	}
}

func TestConditionGreaterThan(t *testing.T) {
	src := buildSource()
	m := New(src)
	m.ApplyFilter(1, Predicate{Conditions: []Condition{{Op: OpGreaterThan, Value: "15"}}})
	rows := m.GetFilteredRows()
	if rows[0] {
		t.Fatal("row 0 (value 10) should be filtered")
	}
	if !rows[1] || !rows[2] || !rows[3] {
		t.Fatal("rows with value > 15 should be visible")
	}
}

func TestTopNPredicate(t *testing.T) {
	src := buildSource()
	m := New(src)
	m.ApplyFilter(1, Predicate{Conditions: []Condition{{Op: OpTopN, N: 2}}})
	rows := m.GetFilteredRows()
	if rows[0] || rows[1] {
		t.Fatal("bottom two rows should not pass top-2 filter")
	}
	if !rows[2] || !rows[3] {
		t.Fatal("top two rows (30, 40) should pass")
	}
}

func TestInvalidateCacheOnApply(t *testing.T) {
	src := buildSource()
	m := New(src)
	m.GetFilteredRows() // populate cache
	m.ApplyFilter(0, Predicate{IsValueSet: true, Values: map[string]bool{"carl": true}})
	rows := m.GetFilteredRows()
	if len(rows) != 1 || !rows[2] {
		t.Fatalf("expected only row 2 visible after re-filter, got %+v", rows)
	}
}

func TestClearAllFilters(t *testing.T) {
	src := buildSource()
	m := New(src)
	m.ApplyFilter(0, Predicate{IsValueSet: true, Values: map[string]bool{"alice": true}})
	m.ClearAllFilters()
	if m.HasFilters() {
		t.Fatal("expected no active filters")
	}
	rows := m.GetFilteredRows()
	if len(rows) != 5 {
		t.Fatalf("expected all 5 rows visible, got %d", len(rows))
	}
}
