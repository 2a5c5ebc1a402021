package engine

import (
	"sheetcore/cellstore"
	"sheetcore/findreplace"
	"sheetcore/formula"
)

// FindReplaceSession binds a compiled findreplace.Session to this
// engine's store and keeps the dependency graph in sync across replaces —
// findreplace.Session itself edits cells through the bare CellSource
// surface and knows nothing about formulas depending on what it rewrites.
type FindReplaceSession struct {
	e       *Engine
	session *findreplace.Session
}

// Find compiles query and runs it over the current sheet.
func (e *Engine) Find(query string, opts findreplace.Options) (*FindReplaceSession, error) {
	s, err := findreplace.Compile(query, opts)
	if err != nil {
		return nil, err
	}
	s.Run(e.store)
	return &FindReplaceSession{e: e, session: s}, nil
}

func (f *FindReplaceSession) Matches() []findreplace.Match { return f.session.Matches() }
func (f *FindReplaceSession) FindNext() (findreplace.Match, bool) {
	return f.session.FindNext()
}
func (f *FindReplaceSession) FindPrevious() (findreplace.Match, bool) {
	return f.session.FindPrevious()
}

// ReplaceOne rewrites m's span and resyncs the touched cell's formula
// dependencies, recorded as a single undo command.
func (f *FindReplaceSession) ReplaceOne(m findreplace.Match, replacement string) error {
	e := f.e
	prev := e.cloneCellOrNil(m.Row, m.Col)
	prevPrecedents := e.graph.Precedents(formula.CellKey(defaultSheet, m.Row, m.Col))

	apply := func() error {
		if err := f.session.ReplaceOne(e.store, m, replacement); err != nil {
			return err
		}
		e.resyncFormulaCell(m.Row, m.Col)
		return nil
	}
	revert := func() error {
		if err := e.restoreCell(m.Row, m.Col, prev, prevPrecedents); err != nil {
			return err
		}
		f.session.Run(e.store)
		return nil
	}
	return e.undoRedo.Do(newCommand("findReplaceOne", "Replace", approxCellBytes, apply, revert))
}

// BulkReplace rewrites every currently matched cell and resyncs formula
// dependencies for each, as a single undo command.
func (f *FindReplaceSession) BulkReplace(replacement string) findreplace.ReplaceResult {
	e := f.e
	type prior struct {
		cell       *cellstore.Cell
		precedents []string
	}
	type coord struct{ row, col int }
	priors := make(map[coord]prior)
	for _, m := range f.session.Matches() {
		k := coord{m.Row, m.Col}
		if _, ok := priors[k]; ok {
			continue
		}
		priors[k] = prior{
			cell:       e.cloneCellOrNil(m.Row, m.Col),
			precedents: e.graph.Precedents(formula.CellKey(defaultSheet, m.Row, m.Col)),
		}
	}

	var result findreplace.ReplaceResult
	apply := func() error {
		result = f.session.BulkReplace(e.store, replacement)
		for k := range priors {
			e.resyncFormulaCell(k.row, k.col)
		}
		return nil
	}
	revert := func() error {
		for k, p := range priors {
			if err := e.restoreCell(k.row, k.col, p.cell, p.precedents); err != nil {
				return err
			}
		}
		f.session.Run(e.store)
		return nil
	}
	e.undoRedo.Do(newCommand("findReplaceBulk", "Replace all", approxCellBytes*len(priors), apply, revert)) // apply never errors
	return result
}
