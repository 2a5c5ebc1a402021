package engine

import (
	"time"

	"sheetcore/undo"
)

// funcCommand adapts a pair of apply/revert closures to undo.Command, so
// every façade mutation method can describe its own forward/backward
// behavior inline instead of a bespoke struct per operation — the
// closures themselves do the real work (including the version bump and
// listener fan-out), so Do() and a later Redo() both run the identical
// code path rather than one "real" mutation and a separately-maintained
// replay.
type funcCommand struct {
	undo.BaseCommand
	doApply  func() error
	doRevert func() error
}

func (c *funcCommand) Apply() error  { return c.doApply() }
func (c *funcCommand) Revert() error { return c.doRevert() }

func newCommand(kind, description string, memoryCost int, apply, revert func() error) *funcCommand {
	return &funcCommand{
		BaseCommand: undo.NewBase(kind, description, time.Now(), memoryCost),
		doApply:     apply,
		doRevert:    revert,
	}
}

// Undo reverts the most recent command. Returns false if the undo stack
// is empty.
func (e *Engine) Undo() (bool, error) {
	_, ok, err := e.undoRedo.Undo()
	return ok, err
}

// Redo re-applies the most recently undone command. Returns false if the
// redo stack is empty.
func (e *Engine) Redo() (bool, error) {
	_, ok, err := e.undoRedo.Redo()
	return ok, err
}

// CanUndo and CanRedo report stack non-emptiness.
func (e *Engine) CanUndo() bool { return e.undoRedo.CanUndo() }
func (e *Engine) CanRedo() bool { return e.undoRedo.CanRedo() }

// UndoDescriptions and RedoDescriptions return human-readable history
// labels, most-recent first, for a host application's history menu.
func (e *Engine) UndoDescriptions() []string { return e.undoRedo.UndoDescriptions() }
func (e *Engine) RedoDescriptions() []string { return e.undoRedo.RedoDescriptions() }

const approxCellBytes = 96 // rough per-cell memory estimate for undo eviction accounting
