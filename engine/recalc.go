package engine

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sheetcore/cellstore"
	"sheetcore/formula"
	"sheetcore/sherr"
)

// setFormula compiles source (with its leading "=" already expected) into
// an AST, registers its precedents with the dependency graph, stores the
// formula cell, and recalculates everything downstream of it.
func (e *Engine) setFormula(row, col int, source string) ([]CellKey, error) {
	trimmed := strings.TrimPrefix(source, "=")
	key := formula.CellKey(defaultSheet, row, col)

	toks, err := formula.NewLexer(trimmed).Tokenize()
	if err != nil {
		e.graph.SetPrecedents(key, nil)
		c := &cellstore.Cell{Row: row, Col: col, Formula: source}
		if serr := e.store.SetCell(row, col, c); serr != nil {
			return nil, serr
		}
		e.writeErrorResult(row, col, source, formula.ErrSyntax)
		affected := e.recalcFrom(row, col)
		e.bumpAndNotify(affected)
		return affected, nil
	}

	ast, perr := formula.NewParser(toks).Parse()
	if perr != nil {
		e.graph.SetPrecedents(key, nil)
		c := &cellstore.Cell{Row: row, Col: col, Formula: source}
		if serr := e.store.SetCell(row, col, c); serr != nil {
			return nil, serr
		}
		e.writeErrorResult(row, col, source, formula.ErrSyntax)
		affected := e.recalcFrom(row, col)
		e.bumpAndNotify(affected)
		return affected, nil
	}

	refs := formula.CollectReferences(ast, defaultSheet)
	e.graph.SetPrecedents(key, refs)

	c := &cellstore.Cell{Row: row, Col: col, Formula: source, Dirty: true}
	if err := e.store.SetCell(row, col, c); err != nil {
		return nil, err
	}
	e.filters.InvalidateCache()
	affected := e.recalcFrom(row, col)
	e.bumpAndNotify(affected)
	return affected, nil
}

// writeErrorResult stores errVal as a cell's displayed value without
// touching its formula source or dependency edges.
func (e *Engine) writeErrorResult(row, col int, source string, errVal formula.ErrorValue) {
	c := e.store.GetCell(row, col)
	if c == nil {
		c = &cellstore.Cell{Row: row, Col: col, Formula: source}
	}
	c.Type = cellstore.Text
	c.Value = string(errVal)
	c.Dirty = false
	e.store.SetCell(row, col, c)
}

// parseCellKey splits a "Sheet1!A1"-shaped dependency graph key back into
// its sheet name and zero-based coordinates.
func parseCellKey(key string) (sheet string, row, col int, err error) {
	i := strings.IndexByte(key, '!')
	if i < 0 {
		return "", 0, 0, sherr.New(sherr.InvalidArgument, "malformed cell key %q", key)
	}
	sheet = key[:i]
	row, col, perr := formula.ParseCellRef(key[i+1:])
	if perr != nil {
		return "", 0, 0, sherr.New(sherr.InvalidArgument, "malformed cell key %q: %v", key, perr)
	}
	return sheet, row, col, nil
}

// recalcFrom replans and re-evaluates everything transitively dependent
// on (row, col), including the cell itself.
func (e *Engine) recalcFrom(row, col int) []CellKey {
	return e.runPlan([]string{formula.CellKey(defaultSheet, row, col)})
}

// recalcAll replans and re-evaluates every formula cell currently stored,
// in one synchronous pass.
func (e *Engine) recalcAll() []CellKey {
	r, ok := e.store.GetUsedRange()
	if !ok {
		return nil
	}
	var seeds []string
	for _, c := range e.store.GetCellsInRange(r) {
		if c.Formula != "" {
			seeds = append(seeds, formula.CellKey(defaultSheet, c.Row, c.Col))
		}
	}
	return e.runPlan(seeds)
}

// runPlan asks the dependency graph for a recalculation plan over seeds,
// writes #CYCLE! into every cell caught in a strongly-connected
// component, and evaluates the acyclic remainder in dependency order.
func (e *Engine) runPlan(seeds []string) []CellKey {
	if len(seeds) == 0 {
		return nil
	}
	plan := e.graph.Plan(seeds)
	var affected []CellKey

	for _, group := range plan.Cycles {
		for _, key := range group {
			sheet, row, col, err := parseCellKey(key)
			if err != nil {
				continue
			}
			c := e.store.GetCell(row, col)
			source := ""
			if c != nil {
				source = c.Formula
			}
			e.writeErrorResult(row, col, source, formula.ErrCycle)
			affected = append(affected, CellKey{Sheet: sheet, Row: row, Col: col})
		}
	}

	getter := &storeCellGetter{e: e}
	for _, key := range plan.Order {
		sheet, row, col, err := parseCellKey(key)
		if err != nil {
			continue
		}
		c := e.store.GetCell(row, col)
		if c == nil || c.Formula == "" {
			continue
		}
		e.evaluateFormulaCell(getter, sheet, c)
		affected = append(affected, CellKey{Sheet: sheet, Row: row, Col: col})
	}
	return affected
}

func (e *Engine) evaluateFormulaCell(getter *storeCellGetter, sheet string, c *cellstore.Cell) {
	trimmed := strings.TrimPrefix(c.Formula, "=")
	toks, err := formula.NewLexer(trimmed).Tokenize()
	if err != nil {
		e.writeErrorResult(c.Row, c.Col, c.Formula, formula.ErrSyntax)
		return
	}
	ast, perr := formula.NewParser(toks).Parse()
	if perr != nil {
		e.writeErrorResult(c.Row, c.Col, c.Formula, formula.ErrSyntax)
		return
	}

	ctx := formula.EvalContext{SheetID: sheet, CellGetter: getter}
	eval := formula.NewEvaluator(ctx)
	val, everr := eval.Evaluate(ctx, ast)
	if everr != nil {
		e.writeErrorResult(c.Row, c.Col, c.Formula, formula.ErrGeneric)
		return
	}

	c.Dirty = false
	switch v := val.(type) {
	case float64:
		c.Type = cellstore.Number
		c.Value = v
	case bool:
		c.Type = cellstore.Boolean
		c.Value = v
	case formula.ErrorValue:
		c.Type = cellstore.Text
		c.Value = string(v)
	default:
		c.Type = cellstore.Text
		c.Value = val
	}
	e.store.SetCell(c.Row, c.Col, c)
}

// resyncFormulaCell re-derives (row, col)'s dependency edges from its
// current stored formula — or clears them if it no longer holds one — and
// recalculates downstream. Find/replace edits cells directly through
// CellSource, bypassing setFormula entirely; this is the hook that brings
// the graph back in sync with whatever text landed in the cell.
func (e *Engine) resyncFormulaCell(row, col int) []CellKey {
	key := formula.CellKey(defaultSheet, row, col)
	c := e.store.GetCell(row, col)
	if c == nil || c.Formula == "" {
		e.graph.SetPrecedents(key, nil)
		e.filters.InvalidateCache()
		affected := e.recalcFrom(row, col)
		e.bumpAndNotify(affected)
		return affected
	}
	toks, err := formula.NewLexer(strings.TrimPrefix(c.Formula, "=")).Tokenize()
	if err != nil {
		e.graph.SetPrecedents(key, nil)
		e.writeErrorResult(row, col, c.Formula, formula.ErrSyntax)
		affected := e.recalcFrom(row, col)
		e.bumpAndNotify(affected)
		return affected
	}
	ast, perr := formula.NewParser(toks).Parse()
	if perr != nil {
		e.graph.SetPrecedents(key, nil)
		e.writeErrorResult(row, col, c.Formula, formula.ErrSyntax)
		affected := e.recalcFrom(row, col)
		e.bumpAndNotify(affected)
		return affected
	}
	e.graph.SetPrecedents(key, formula.CollectReferences(ast, defaultSheet))
	c.Dirty = true
	e.store.SetCell(row, col, c)
	e.filters.InvalidateCache()
	affected := e.recalcFrom(row, col)
	e.bumpAndNotify(affected)
	return affected
}

// storeCellGetter adapts the cell store to formula.CellGetter. The engine
// is single-sheet today, so every lookup outside defaultSheet resolves to
// #REF! via a lookup failure, matching a broken external reference.
type storeCellGetter struct {
	e *Engine
}

func (g *storeCellGetter) GetCellValue(sheet string, row, col int) (interface{}, error) {
	if sheet != defaultSheet {
		return nil, sherr.New(sherr.NotFound, "unknown sheet %q", sheet)
	}
	c := g.e.store.GetCell(row, col)
	if c == nil {
		return nil, nil
	}
	return c.Value, nil
}

func (g *storeCellGetter) GetRangeValues(sheet string, startRow, startCol, endRow, endCol int) ([][]interface{}, error) {
	if sheet != defaultSheet {
		return nil, sherr.New(sherr.NotFound, "unknown sheet %q", sheet)
	}
	rows := endRow - startRow + 1
	cols := endCol - startCol + 1
	out := make([][]interface{}, rows)
	for i := range out {
		out[i] = make([]interface{}, cols)
	}
	r := cellstore.CellRange{StartRow: startRow, StartCol: startCol, EndRow: endRow, EndCol: endCol}
	for _, c := range g.e.store.GetCellsInRange(r) {
		out[c.Row-startRow][c.Col-startCol] = c.Value
	}
	return out, nil
}

func (g *storeCellGetter) GetNamedRange(name string) (interface{}, error) {
	return nil, sherr.New(sherr.NotFound, "no named range %q", name)
}

func (g *storeCellGetter) ResolveSheetName(name string) (string, bool) {
	if name == defaultSheet || name == "" {
		return defaultSheet, true
	}
	return "", false
}

// -- calculation --

// CalculateSync processes every dirty cell in one synchronous pass.
func (e *Engine) CalculateSync() []CellKey {
	return e.recalcAll()
}

// asyncSliceBudget bounds how long each CalculateAsync batch runs before
// yielding, checking for cancellation, and reporting progress.
const asyncSliceBudget = 4 * time.Millisecond

// CalculateAsync slices the dirty topological order into ~4ms batches,
// yielding between slices and invoking progress after each. Supervised
// by an errgroup; the caller's context cancellation (or
// CancelCalculation) is checked before each cell, so the loop stops
// between two cells and leaves every cell evaluated so far valid.
func (e *Engine) CalculateAsync(ctx context.Context, progress func(processed, total int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.runAsyncSlices(ctx, progress)
	})
	return g.Wait()
}

func (e *Engine) runAsyncSlices(ctx context.Context, progress func(processed, total int)) error {
	e.cancelFlag = false

	r, ok := e.store.GetUsedRange()
	if !ok {
		return nil
	}
	var seeds []string
	for _, c := range e.store.GetCellsInRange(r) {
		if c.Formula != "" {
			seeds = append(seeds, formula.CellKey(defaultSheet, c.Row, c.Col))
		}
	}
	if len(seeds) == 0 {
		return nil
	}
	plan := e.graph.Plan(seeds)

	for _, group := range plan.Cycles {
		for _, key := range group {
			_, row, col, err := parseCellKey(key)
			if err != nil {
				continue
			}
			c := e.store.GetCell(row, col)
			source := ""
			if c != nil {
				source = c.Formula
			}
			e.writeErrorResult(row, col, source, formula.ErrCycle)
		}
	}

	total := len(plan.Order)
	getter := &storeCellGetter{e: e}
	var affected []CellKey
	processed := 0
	sliceStart := time.Now()

	for _, key := range plan.Order {
		if ctx.Err() != nil || e.cancelFlag {
			e.bumpAndNotify(affected)
			return ctx.Err()
		}
		sheet, row, col, err := parseCellKey(key)
		if err == nil {
			c := e.store.GetCell(row, col)
			if c != nil && c.Formula != "" {
				e.evaluateFormulaCell(getter, sheet, c)
				affected = append(affected, CellKey{Sheet: sheet, Row: row, Col: col})
			}
		}
		processed++

		if time.Since(sliceStart) >= asyncSliceBudget {
			if progress != nil {
				progress(processed, total)
			}
			sliceStart = time.Now()
		}
	}
	if progress != nil {
		progress(processed, total)
	}
	e.bumpAndNotify(affected)
	return nil
}
