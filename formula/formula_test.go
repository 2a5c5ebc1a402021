package formula

import "testing"

func TestLexerTokenizesArithmeticAndReferences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"numbers and operator", "1+2", []TokenType{TokenNumber, TokenOperator, TokenNumber, TokenEOF}},
		{"cell ref", "A1", []TokenType{TokenReference, TokenEOF}},
		{"range", "A1:B2", []TokenType{TokenReference, TokenColon, TokenReference, TokenEOF}},
		{"function call", "SUM(A1,B1)", []TokenType{TokenFunction, TokenLParen, TokenReference, TokenComma, TokenReference, TokenRParen, TokenEOF}},
		{"string literal", `"hi"`, []TokenType{TokenString, TokenEOF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize(%q): %v", tt.input, err)
			}
			if len(toks) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %d tokens, want %d (%+v)", tt.input, len(toks), len(tt.want), toks)
			}
			for i, want := range tt.want {
				if toks[i].Type != want {
					t.Errorf("token %d = %v, want %v", i, toks[i].Type, want)
				}
			}
		})
	}
}

func mustParse(t *testing.T, src string) Node {
	t.Helper()
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	node, err := NewParser(toks).Parse()
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return node
}

// fakeGrid is a CellGetter over a tiny in-memory map, enough to exercise
// the evaluator without pulling in cellstore.
type fakeGrid map[string]interface{}

func (g fakeGrid) GetCellValue(sheet string, row, col int) (interface{}, error) {
	return g[CellKey(sheet, row, col)], nil
}

func (g fakeGrid) GetRangeValues(sheet string, startRow, startCol, endRow, endCol int) ([][]interface{}, error) {
	rows := make([][]interface{}, 0, endRow-startRow+1)
	for r := startRow; r <= endRow; r++ {
		row := make([]interface{}, 0, endCol-startCol+1)
		for c := startCol; c <= endCol; c++ {
			row = append(row, g[CellKey(sheet, r, c)])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g fakeGrid) GetNamedRange(name string) (interface{}, error) { return nil, ErrName }
func (g fakeGrid) ResolveSheetName(name string) (string, bool)    { return name, true }

func evalSrc(t *testing.T, grid fakeGrid, sheet, src string) interface{} {
	t.Helper()
	node := mustParse(t, src)
	ev := NewEvaluator(EvalContext{SheetID: sheet, CellGetter: grid})
	v, err := ev.Evaluate(EvalContext{SheetID: sheet, CellGetter: grid}, node)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", src, err)
	}
	return v
}

func TestEvaluatorArithmeticAndReferences(t *testing.T) {
	grid := fakeGrid{
		CellKey("Sheet1", 0, 0): 5.0,
		CellKey("Sheet1", 0, 1): 7.0,
	}
	got := evalSrc(t, grid, "Sheet1", "A1+B1")
	if got != 12.0 {
		t.Fatalf("A1+B1 = %v, want 12", got)
	}
}

func TestEvaluatorDivByZero(t *testing.T) {
	grid := fakeGrid{}
	got := evalSrc(t, grid, "Sheet1", "5/0")
	if got != ErrDiv0 {
		t.Fatalf("5/0 = %v, want #DIV/0!", got)
	}
}

func TestEvaluatorSumFunction(t *testing.T) {
	grid := fakeGrid{
		CellKey("Sheet1", 0, 0): 1.0,
		CellKey("Sheet1", 1, 0): 2.0,
		CellKey("Sheet1", 2, 0): 3.0,
	}
	got := evalSrc(t, grid, "Sheet1", "SUM(A1:A3)")
	if got != 6.0 {
		t.Fatalf("SUM(A1:A3) = %v, want 6", got)
	}
}

func TestEvaluatorIfLazyBranch(t *testing.T) {
	grid := fakeGrid{CellKey("Sheet1", 0, 1): 0.0}
	got := evalSrc(t, grid, "Sheet1", "IF(B1=0,0,A1/B1)")
	if got != 0.0 {
		t.Fatalf("IF short-circuit = %v, want 0 (A1/B1 must not evaluate)", got)
	}
}

func TestEvaluatorCircularDetection(t *testing.T) {
	grid := fakeGrid{}
	ctx := EvalContext{SheetID: "Sheet1", CellGetter: grid, Circular: map[string]bool{"Sheet1!A1": true}}
	node := mustParse(t, "A1")
	ev := NewEvaluator(ctx)
	v, err := ev.Evaluate(ctx, node)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v != ErrCycle {
		t.Fatalf("got %v, want #CYCLE!", v)
	}
}

func TestColLetterRoundTrip(t *testing.T) {
	cases := map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"}
	for col, letters := range cases {
		if got := ColToLetter(col); got != letters {
			t.Errorf("ColToLetter(%d) = %q, want %q", col, got, letters)
		}
		got, err := ColFromLetter(letters)
		if err != nil {
			t.Fatalf("ColFromLetter(%q): %v", letters, err)
		}
		if got != col {
			t.Errorf("ColFromLetter(%q) = %d, want %d", letters, got, col)
		}
	}
}

func TestParseCellRefAndBack(t *testing.T) {
	row, col, err := ParseCellRef("B12")
	if err != nil {
		t.Fatalf("ParseCellRef: %v", err)
	}
	if row != 11 || col != 1 {
		t.Fatalf("ParseCellRef(B12) = (%d,%d), want (11,1)", row, col)
	}
	if got := CellRefString(row, col); got != "B12" {
		t.Fatalf("CellRefString = %q, want B12", got)
	}
}

func TestShiftFormulaRowInsertShiftsRelativeReference(t *testing.T) {
	got := ShiftFormula("=A6+1", "row", 3, 2, "Sheet1")
	if got != "=A8+1" {
		t.Fatalf("ShiftFormula insert = %q, want =A8+1", got)
	}
}

func TestShiftFormulaRowDeleteInsideBandBecomesRef(t *testing.T) {
	got := ShiftFormula("=A4+1", "row", 3, -2, "Sheet1")
	if got != "=#REF!+1" {
		t.Fatalf("ShiftFormula delete-inside = %q, want =#REF!+1", got)
	}
}

func TestShiftFormulaAbsoluteReferenceUnaffected(t *testing.T) {
	got := ShiftFormula("=$A$1+1", "row", 0, 5, "Sheet1")
	if got != "=$A$1+1" {
		t.Fatalf("ShiftFormula absolute = %q, want unchanged", got)
	}
}

func TestShiftFormulaRowDeleteBelowShiftsUp(t *testing.T) {
	got := ShiftFormula("=A10+1", "row", 0, -3, "Sheet1")
	if got != "=A7+1" {
		t.Fatalf("ShiftFormula delete-above = %q, want =A7+1", got)
	}
}

func TestShiftFormulaRangeBothEndpointsDeletedCollapsesToSingleRef(t *testing.T) {
	got := ShiftFormula("=SUM(A2:A3)", "row", 1, -3, "Sheet1")
	if got != "=SUM(#REF!)" {
		t.Fatalf("ShiftFormula range delete = %q, want =SUM(#REF!)", got)
	}
}

func TestShiftFormulaRangeOneEndpointDeletedKeepsOtherEndpoint(t *testing.T) {
	got := ShiftFormula("=SUM(A2:A10)", "row", 1, -3, "Sheet1")
	if got != "=SUM(#REF!:A7)" {
		t.Fatalf("ShiftFormula range partial delete = %q, want =SUM(#REF!:A7)", got)
	}
}

func TestCollectReferencesExpandsRange(t *testing.T) {
	node := mustParse(t, "SUM(A1:A2)+B1")
	refs := CollectReferences(node, "Sheet1")
	want := map[string]bool{
		"Sheet1!A1": true,
		"Sheet1!A2": true,
		"Sheet1!B1": true,
	}
	if len(refs) != len(want) {
		t.Fatalf("CollectReferences = %v, want keys %v", refs, want)
	}
	for _, r := range refs {
		if !want[r] {
			t.Errorf("unexpected reference %q", r)
		}
	}
}

func TestDependencyGraphPlanOrdersPrecedentsBeforeDependents(t *testing.T) {
	g := NewDependencyGraph()
	g.SetPrecedents("Sheet1!B1", []string{"Sheet1!A1"})
	g.SetPrecedents("Sheet1!C1", []string{"Sheet1!B1"})

	plan := g.Plan([]string{"Sheet1!A1"})
	if len(plan.Cycles) != 0 {
		t.Fatalf("unexpected cycles: %v", plan.Cycles)
	}
	pos := make(map[string]int, len(plan.Order))
	for i, n := range plan.Order {
		pos[n] = i
	}
	if pos["Sheet1!A1"] >= pos["Sheet1!B1"] || pos["Sheet1!B1"] >= pos["Sheet1!C1"] {
		t.Fatalf("Plan order = %v, want A1 before B1 before C1", plan.Order)
	}
}

func TestDependencyGraphPlanDetectsCycle(t *testing.T) {
	g := NewDependencyGraph()
	g.SetPrecedents("Sheet1!A1", []string{"Sheet1!B1"})
	g.SetPrecedents("Sheet1!B1", []string{"Sheet1!A1"})

	plan := g.Plan([]string{"Sheet1!A1"})
	if len(plan.Cycles) != 1 || len(plan.Cycles[0]) != 2 {
		t.Fatalf("Plan.Cycles = %v, want one 2-cell cycle", plan.Cycles)
	}
}

func TestDependencyGraphRemoveCellSeversEdges(t *testing.T) {
	g := NewDependencyGraph()
	g.SetPrecedents("Sheet1!B1", []string{"Sheet1!A1"})
	g.RemoveCell("Sheet1!B1")
	if deps := g.Dependents("Sheet1!A1"); len(deps) != 0 {
		t.Fatalf("Dependents(A1) = %v, want empty after RemoveCell(B1)", deps)
	}
}
