package engine

import (
	"context"
	"testing"

	"sheetcore/cellstore"
)

func TestSetCellValueRawNumber(t *testing.T) {
	e := New()
	if _, err := e.SetCellValue(0, 0, 5.0); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	c := e.GetCell(0, 0)
	if c == nil || c.Value != 5.0 {
		t.Fatalf("GetCell = %+v, want value 5.0", c)
	}
}

func TestFormulaSumPropagation(t *testing.T) {
	e := New()
	e.SetCellValue(0, 0, 2.0)
	e.SetCellValue(0, 1, 3.0)
	if _, err := e.SetCellValue(0, 2, "=A1+B1"); err != nil {
		t.Fatalf("SetCellValue formula: %v", err)
	}
	c := e.GetCell(0, 2)
	if c == nil {
		t.Fatal("expected formula cell to exist")
	}
	if v, ok := c.Value.(float64); !ok || v != 5.0 {
		t.Fatalf("C1 = %+v, want 5.0", c.Value)
	}

	if _, err := e.SetCellValue(0, 0, 10.0); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	c = e.GetCell(0, 2)
	if v, ok := c.Value.(float64); !ok || v != 13.0 {
		t.Fatalf("C1 after A1 update = %+v, want 13.0", c.Value)
	}
}

func TestFormulaSyntaxErrorWritesSyntaxMarker(t *testing.T) {
	e := New()
	if _, err := e.SetCellValue(0, 0, "=1+"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	c := e.GetCell(0, 0)
	if c == nil || c.Value != "#SYNTAX!" {
		t.Fatalf("GetCell = %+v, want #SYNTAX!", c)
	}
}

func TestCircularReferenceWritesCycleMarker(t *testing.T) {
	e := New()
	e.SetCellValue(0, 0, "=B1")
	e.SetCellValue(0, 1, "=A1")

	a1 := e.GetCell(0, 0)
	b1 := e.GetCell(0, 1)
	if a1.Value != "#CYCLE!" || b1.Value != "#CYCLE!" {
		t.Fatalf("expected both cells to carry #CYCLE!, got A1=%+v B1=%+v", a1.Value, b1.Value)
	}
}

func TestDivideByZeroProducesDiv0(t *testing.T) {
	e := New()
	e.SetCellValue(0, 0, 10.0)
	e.SetCellValue(0, 1, 0.0)
	e.SetCellValue(0, 2, "=A1/B1")
	c := e.GetCell(0, 2)
	if c.Value != "#DIV/0!" {
		t.Fatalf("C1 = %+v, want #DIV/0!", c.Value)
	}
}

func TestDeleteRowsPoisonsDependentFormulaWithRef(t *testing.T) {
	e := New()
	e.SetCellValue(0, 0, 5.0)     // A1
	e.SetCellValue(1, 1, "=A1+1") // B2, references A1

	if _, err := e.DeleteRows(0, 1); err != nil {
		t.Fatalf("DeleteRows: %v", err)
	}

	// B2 shifts up to row 0 (now B1); its reference to the deleted A1
	// must resolve to #REF!, not a lex failure that renders #SYNTAX!.
	b1 := e.GetCell(0, 1)
	if b1 == nil || b1.Value != "#REF!" {
		t.Fatalf("GetCell(0,1) = %+v, want #REF!", b1)
	}
	if b1.Formula != "=#REF!+1" {
		t.Fatalf("Formula = %q, want =#REF!+1", b1.Formula)
	}
}

func TestDeleteSelectionClearsCellsAndFormulas(t *testing.T) {
	e := New()
	e.SetCellValue(0, 0, 1.0)
	e.SetCellValue(0, 1, "=A1+1")
	e.DeleteSelection(cellstore.CellRange{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 0})
	if e.GetCell(0, 0) != nil {
		t.Fatal("expected A1 cleared")
	}
	c := e.GetCell(0, 1)
	if c == nil {
		t.Fatal("expected B1 to still exist")
	}
	if v, ok := c.Value.(float64); !ok || v != 1.0 {
		t.Fatalf("B1 after A1 cleared = %+v, want 1.0 (blank treated as 0)", c.Value)
	}
}

func TestHideRowInvalidatesViewsAndBumpsVersion(t *testing.T) {
	e := New()
	before := e.GetVersion()
	e.HideRow(3)
	if e.GetVersion() <= before {
		t.Fatal("expected version to bump after HideRow")
	}
	if !e.store.IsRowHidden(3) {
		t.Fatal("expected row 3 hidden")
	}
}

func TestSetFrozenRowsAndColsIndependent(t *testing.T) {
	e := New()
	e.SetFrozenRows(2)
	if e.frozenRows != 2 {
		t.Fatalf("frozenRows = %d, want 2", e.frozenRows)
	}
	e.SetFrozenCols(3)
	if e.frozenRows != 2 || e.frozenCols != 3 {
		t.Fatalf("frozenRows/frozenCols = %d/%d, want 2/3", e.frozenRows, e.frozenCols)
	}
}

func TestCalculateAsyncProcessesAllFormulas(t *testing.T) {
	e := New()
	e.SetCellValue(0, 0, 1.0)
	for i := 1; i < 50; i++ {
		e.SetCellValue(0, i, "=A1+1")
	}
	var lastProcessed int
	err := e.CalculateAsync(context.Background(), func(processed, total int) {
		lastProcessed = processed
	})
	if err != nil {
		t.Fatalf("CalculateAsync: %v", err)
	}
	if lastProcessed == 0 {
		t.Fatal("expected progress to be reported")
	}
	c := e.GetCell(0, 10)
	if v, ok := c.Value.(float64); !ok || v != 2.0 {
		t.Fatalf("cell = %+v, want 2.0", c.Value)
	}
}

func TestCalculateAsyncCancellation(t *testing.T) {
	e := New()
	e.SetCellValue(0, 0, 1.0)
	for i := 1; i < 10; i++ {
		e.SetCellValue(0, i, "=A1+1")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.CalculateAsync(ctx, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
