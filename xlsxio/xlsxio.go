// Package xlsxio is a thin one-way convenience adapter between an
// engine.Engine and a single-sheet .xlsx workbook. It depends on
// engine, never the reverse — file-format codecs are an external
// collaborator's concern, not a core component.
//
// Grounded on the rast-excel employee writer's CellName/SetCellStr/
// SetCellFloat/SaveAs shape, generalized from a fixed employee-record
// layout to an arbitrary dense grid taken from engine.ToArray /
// destined for engine.LoadFromArray.
package xlsxio

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"sheetcore/engine"
)

const defaultSheet = "Sheet1"

// Export writes eng's used range to a new .xlsx file at path. Formulas
// are written as formula text (a cell like "=A1+B1"); everything else
// is written by its Go type.
func Export(eng *engine.Engine, path string) error {
	f := excelize.NewFile()
	if err := writeRows(f, eng.ToArray(engine.ToArrayOptions{IncludeFormulas: true})); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsxio: save %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, rows [][]interface{}) error {
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("xlsxio: cell name (%d,%d): %w", r, c, err)
			}
			if s, ok := v.(string); ok && len(s) > 0 && s[0] == '=' {
				if err := f.SetCellFormula(defaultSheet, cell, s); err != nil {
					return fmt.Errorf("xlsxio: set formula %s: %w", cell, err)
				}
				continue
			}
			if err := f.SetCellValue(defaultSheet, cell, v); err != nil {
				return fmt.Errorf("xlsxio: set value %s: %w", cell, err)
			}
		}
	}
	return nil
}

// Import reads the first sheet of the .xlsx file at path and loads it
// into eng at (0, 0) via engine.LoadFromArray, returning the affected
// cell keys.
func Import(eng *engine.Engine, path string) ([]engine.CellKey, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsxio: open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsxio: %s has no sheets", path)
	}
	sheetRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("xlsxio: read rows: %w", err)
	}

	grid := make([][]interface{}, len(sheetRows))
	for r, row := range sheetRows {
		grid[r] = make([]interface{}, len(row))
		for c, cell := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			if formulaText, err := f.GetCellFormula(sheets[0], axis); err == nil && formulaText != "" {
				grid[r][c] = "=" + formulaText
				continue
			}
			grid[r][c] = coerceCellText(cell)
		}
	}
	return eng.LoadFromArray(grid), nil
}

func coerceCellText(s string) interface{} {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if s == "TRUE" || s == "FALSE" {
		return s == "TRUE"
	}
	return s
}
