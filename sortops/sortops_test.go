package sortops

import "testing"

func textCell(s string) CellValue { return CellValue{Text: s} }
func numCell(n float64) CellValue { return CellValue{Number: n, IsNumber: true, Text: ""} }
func blankCell() CellValue        { return CellValue{IsBlank: true} }

func TestSortStableSingleKey(t *testing.T) {
	rows := []Row{
		{OriginalRow: 0, Values: map[int]CellValue{0: numCell(3)}},
		{OriginalRow: 1, Values: map[int]CellValue{0: numCell(1)}},
		{OriginalRow: 2, Values: map[int]CellValue{0: numCell(2)}},
	}
	out := Sort(rows, []SortRule{{Column: 0, Order: Ascending}})
	want := []int{1, 2, 0}
	for i, r := range out {
		if r.OriginalRow != want[i] {
			t.Fatalf("position %d = original row %d, want %d", i, r.OriginalRow, want[i])
		}
	}
}

func TestSortBlanksFirst(t *testing.T) {
	rows := []Row{
		{OriginalRow: 0, Values: map[int]CellValue{0: numCell(1)}},
		{OriginalRow: 1, Values: map[int]CellValue{0: blankCell()}},
	}
	out := Sort(rows, []SortRule{{Column: 0, Order: Ascending, BlanksFirst: true}})
	if out[0].OriginalRow != 1 {
		t.Fatalf("expected blank row first, got original row %d", out[0].OriginalRow)
	}
}

func TestSortMixedTypesNumbersBeforeStrings(t *testing.T) {
	rows := []Row{
		{OriginalRow: 0, Values: map[int]CellValue{0: textCell("apple")}},
		{OriginalRow: 1, Values: map[int]CellValue{0: numCell(5)}},
	}
	out := Sort(rows, []SortRule{{Column: 0, Order: Ascending}})
	if out[0].OriginalRow != 1 {
		t.Fatal("expected number to sort before string")
	}
}

func TestSortCustomList(t *testing.T) {
	rows := []Row{
		{OriginalRow: 0, Values: map[int]CellValue{0: textCell("Low")}},
		{OriginalRow: 1, Values: map[int]CellValue{0: textCell("High")}},
		{OriginalRow: 2, Values: map[int]CellValue{0: textCell("Medium")}},
	}
	out := Sort(rows, []SortRule{{Column: 0, Order: Ascending, CustomList: []string{"High", "Medium", "Low"}}})
	want := []string{"High", "Medium", "Low"}
	for i, r := range out {
		if r.Values[0].Text != want[i] {
			t.Fatalf("position %d = %s, want %s", i, r.Values[0].Text, want[i])
		}
	}
}

func TestSortTiebreakByOriginalRow(t *testing.T) {
	// When every key column ties, the original row index is the final
	// tiebreak, so equal-valued rows come out in ascending original
	// order regardless of their position in the input slice.
	rows := []Row{
		{OriginalRow: 2, Values: map[int]CellValue{0: numCell(1)}},
		{OriginalRow: 0, Values: map[int]CellValue{0: numCell(1)}},
		{OriginalRow: 1, Values: map[int]CellValue{0: numCell(1)}},
	}
	out := Sort(rows, []SortRule{{Column: 0, Order: Ascending}})
	want := []int{0, 1, 2}
	for i, r := range out {
		if r.OriginalRow != want[i] {
			t.Fatalf("position %d original row = %d, want %d (tiebreak broken)", i, r.OriginalRow, want[i])
		}
	}
}
