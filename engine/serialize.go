package engine

import (
	"strings"

	"sheetcore/cellstore"
	"sheetcore/comments"
	"sheetcore/filter"
	"sheetcore/merge"
	"sheetcore/sherr"
	"sheetcore/undo"
)

const workbookWireVersion = 1

// WireWorkbook is the façade's own wire format, combining every
// component's independently-versioned wire shape plus the engine-level
// state (frozen panes) those components don't own themselves.
type WireWorkbook struct {
	Version    int                                 `json:"version"`
	Cells      cellstore.WireSnapshot              `json:"cells"`
	Comments   comments.WireSnapshot               `json:"comments"`
	Merges     []merge.Info                        `json:"merges,omitempty"`
	Filters    map[int]filter.SerializedPredicate  `json:"filters,omitempty"`
	FrozenRows int                                 `json:"frozenRows,omitempty"`
	FrozenCols int                                 `json:"frozenCols,omitempty"`
}

// Serialize captures the full workbook state as a JSON-marshalable value.
func (e *Engine) Serialize() WireWorkbook {
	return WireWorkbook{
		Version:    workbookWireVersion,
		Cells:      e.store.Serialize(),
		Comments:   e.comments.Serialize(),
		Merges:     e.merges.Regions(),
		Filters:    e.filters.Serialize(),
		FrozenRows: e.frozenRows,
		FrozenCols: e.frozenCols,
	}
}

// Deserialize replaces the entire workbook state with w, rebuilding the
// dependency graph and recalculating from scratch. The undo/redo history
// is discarded — it refers to a sheet that no longer exists.
func (e *Engine) Deserialize(w WireWorkbook) error {
	if w.Version != workbookWireVersion {
		return sherr.New(sherr.UnsupportedFormat, "workbook version %d unsupported (want %d)", w.Version, workbookWireVersion)
	}
	if err := e.store.Deserialize(w.Cells); err != nil {
		return err
	}
	if err := e.comments.Deserialize(w.Comments); err != nil {
		return err
	}
	e.merges.Restore(w.Merges)
	e.filters.Deserialize(w.Filters)
	e.frozenRows, e.frozenCols = w.FrozenRows, w.FrozenCols
	e.view.SetFrozenPanes(e.frozenRows, e.frozenCols)
	e.undoRedo = undo.NewStack()

	e.rebuildGraph()
	e.filters.InvalidateCache()
	e.view.InvalidateCache(0, 0)
	affected := e.recalcAll()
	e.bumpAndNotify(affected)
	return nil
}

// LoadFromArray populates the sheet starting at (0, 0) from a 2D array of
// raw values (nil entries are skipped), as a bulk import entry point. Not
// recorded on the undo stack.
func (e *Engine) LoadFromArray(rows [][]interface{}) []CellKey {
	var affected []CellKey
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			isFormula := false
			if s, ok := v.(string); ok && strings.HasPrefix(s, "=") {
				isFormula = true
			}
			keys, err := e.applySetCellValue(r, c, v, isFormula)
			if err == nil {
				affected = append(affected, keys...)
			}
		}
	}
	e.undoRedo = undo.NewStack()
	return dedupeKeys(affected)
}

// ToArrayOptions configures ToArray's export shape.
type ToArrayOptions struct {
	IncludeFormulas bool
}

// ToArray renders the used range as a dense 2D array, top-left anchored.
func (e *Engine) ToArray(opts ToArrayOptions) [][]interface{} {
	r, ok := e.store.GetUsedRange()
	if !ok {
		return nil
	}
	height := r.EndRow - r.StartRow + 1
	width := r.EndCol - r.StartCol + 1
	out := make([][]interface{}, height)
	for i := range out {
		out[i] = make([]interface{}, width)
	}
	for _, c := range e.store.GetCellsInRange(r) {
		var v interface{}
		switch {
		case opts.IncludeFormulas && c.Formula != "":
			v = c.Formula
		default:
			if ft, ok := c.Value.(cellstore.FormattedText); ok {
				v = ft.Text
			} else {
				v = c.Value
			}
		}
		out[c.Row-r.StartRow][c.Col-r.StartCol] = v
	}
	return out
}
