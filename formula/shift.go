package formula

import (
	"regexp"
	"strconv"
	"strings"
)

// CellRef is a parsed, mutable view of a single reference — the shape the
// structural-edit rewriters operate on, as opposed to the read-only AST
// CellReference node the parser produces.
type CellRef struct {
	Sheet  string
	Col    int
	Row    int
	ColAbs bool
	RowAbs bool
}

// RangeRef is a parsed two-corner range.
type RangeRef struct {
	Sheet string
	Start CellRef
	End   CellRef
}

func splitSheet(ref string) (sheet string, rest string) {
	if strings.HasPrefix(ref, "'") {
		if idx := strings.Index(ref[1:], "'!"); idx >= 0 {
			return strings.ReplaceAll(ref[1:idx+1], "''", "'"), ref[idx+3:]
		}
	}
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		return ref[:idx], ref[idx+1:]
	}
	return "", ref
}

// ParseCellReference parses a possibly sheet-qualified single-cell
// reference. It returns nil rather than an error on malformed input,
// matching the "reference or give up" shape structural-edit callers want.
func ParseCellReference(ref string) *CellRef {
	sheet, rest := splitSheet(ref)
	colPart, rowPart, colAbs, rowAbs, err := splitColRow(rest)
	if err != nil {
		return nil
	}
	col, err := ColFromLetter(colPart)
	if err != nil {
		return nil
	}
	row, err := strconv.Atoi(rowPart)
	if err != nil || row < 1 {
		return nil
	}
	return &CellRef{Sheet: sheet, Col: col, Row: row - 1, ColAbs: colAbs, RowAbs: rowAbs}
}

// ParseRangeReference parses "A1:B10", "Sheet1!A1:B10" etc. into a RangeRef.
// Returns nil if either corner fails to parse.
func ParseRangeReference(ref string) *RangeRef {
	sheet, rest := splitSheet(ref)
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	start := ParseCellReference(parts[0])
	end := ParseCellReference(parts[1])
	if start == nil || end == nil {
		return nil
	}
	start.Sheet, end.Sheet = sheet, sheet
	return &RangeRef{Sheet: sheet, Start: *start, End: *end}
}

func needsSheetQuoting(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		isAlnum := ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_'
		if !isAlnum {
			return true
		}
	}
	return false
}

func quoteSheet(name string) string {
	if needsSheetQuoting(name) {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// BuildCellReference renders a CellRef back to "A1" text. A negative row
// or column (the result of a deleted row/column shifting a reference off
// the grid) renders as "#REF!" per spec, matching how a deleted precedent
// poisons a formula instead of silently resolving to a wrong cell.
func BuildCellReference(ref *CellRef) string {
	if ref == nil || ref.Row < 0 || ref.Col < 0 {
		return "#REF!"
	}
	colPin, rowPin := "", ""
	if ref.ColAbs {
		colPin = "$"
	}
	if ref.RowAbs {
		rowPin = "$"
	}
	cell := colPin + ColToLetter(ref.Col) + rowPin + strconv.Itoa(ref.Row+1)
	if ref.Sheet != "" {
		return quoteSheet(ref.Sheet) + "!" + cell
	}
	return cell
}

// refTokenRegexp matches a single reference optionally followed by a
// ":ref2" range continuation, both captured in the same match so a range
// rewrites atomically instead of each endpoint being revisited by a
// second pass over the other's already-rewritten text.
var refTokenRegexp = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*!)?(\$?[A-Za-z]{1,3}\$?[0-9]+)(?::([A-Za-z_][A-Za-z0-9_]*!)?(\$?[A-Za-z]{1,3}\$?[0-9]+))?\b`)

// rewriteReferences finds every bare or sheet-qualified reference token
// (and range) in formula and lets fn decide each endpoint's replacement
// text. fn receives the reference's own (possibly empty) sheet qualifier
// separately from the parsed cell so callers can compare it against a
// "current sheet" without re-parsing. Per spec, a range whose two
// endpoints both land on "#REF!" collapses to a single "#REF!" rather
// than "#REF!:#REF!" — the whole range is gone, not two broken corners.
func rewriteReferences(formula string, fn func(sheetPrefix string, ref *CellRef) string) string {
	return refTokenRegexp.ReplaceAllStringFunc(formula, func(m string) string {
		sub := refTokenRegexp.FindStringSubmatch(m)
		startSheet := strings.TrimSuffix(sub[1], "!")
		start := ParseCellReference(sub[2])
		if start == nil {
			return m
		}
		newStart := fn(startSheet, start)
		if sub[4] == "" {
			return newStart
		}
		endSheet := strings.TrimSuffix(sub[3], "!")
		end := ParseCellReference(sub[4])
		if end == nil {
			return m
		}
		newEnd := fn(endSheet, end)
		if newStart == "#REF!" && newEnd == "#REF!" {
			return "#REF!"
		}
		return newStart + ":" + newEnd
	})
}

// shiftIndex computes where a row or column index lands after count items
// are inserted (count > 0) or removed (count < 0) at startIndex. It
// returns -1 when index falls inside a deleted span, the caller's signal
// to poison the reference.
func shiftIndex(index, startIndex, count int) int {
	if count > 0 {
		if index >= startIndex {
			return index + count
		}
		return index
	}
	if count < 0 {
		n := -count
		if index >= startIndex+n {
			return index + count
		}
		if index >= startIndex {
			return -1
		}
		return index
	}
	return index
}

// ShiftFormula rewrites every same-sheet reference in formula to account
// for count rows or columns having been inserted (count > 0) or deleted
// (count < 0) at startIndex on currentSheet. shiftType is "row" or "col".
// References qualified to a different sheet pass through untouched, and a
// $-pinned row (for "row") or column (for "col") is left as written.
func ShiftFormula(formula string, shiftType string, startIndex, count int, currentSheet string) string {
	return rewriteReferences(formula, func(sheetPrefix string, ref *CellRef) string {
		if sheetPrefix != "" && sheetPrefix != currentSheet {
			ref.Sheet = sheetPrefix
			return BuildCellReference(ref)
		}
		switch shiftType {
		case "row":
			if ref.RowAbs {
				break
			}
			newRow := shiftIndex(ref.Row, startIndex, count)
			if newRow == -1 {
				return "#REF!"
			}
			ref.Row = newRow
		case "col":
			if ref.ColAbs {
				break
			}
			newCol := shiftIndex(ref.Col, startIndex, count)
			if newCol == -1 {
				return "#REF!"
			}
			ref.Col = newCol
		}
		ref.Sheet = sheetPrefix
		return BuildCellReference(ref)
	})
}

// AdjustFormulaForCopy rewrites formula's relative references by
// (rowOffset, colOffset) the way pasting a formula into a new cell does;
// $-pinned references on either axis are left alone. sheet is the sheet
// the formula's cell lives on — cross-sheet references are never adjusted
// by a local copy.
func AdjustFormulaForCopy(formula string, rowOffset, colOffset int, sheet string) string {
	return rewriteReferences(formula, func(sheetPrefix string, ref *CellRef) string {
		if sheetPrefix != "" && sheetPrefix != sheet {
			ref.Sheet = sheetPrefix
			return BuildCellReference(ref)
		}
		if !ref.RowAbs {
			ref.Row += rowOffset
		}
		if !ref.ColAbs {
			ref.Col += colOffset
		}
		ref.Sheet = sheetPrefix
		return BuildCellReference(ref)
	})
}

// UpdateSheetReferences renames every reference qualified to oldName so it
// instead qualifies to newName, e.g. after a sheet rename. Unqualified and
// differently-qualified references are untouched.
func UpdateSheetReferences(formula, oldName, newName string) string {
	return rewriteReferences(formula, func(sheetPrefix string, ref *CellRef) string {
		if sheetPrefix == oldName {
			ref.Sheet = newName
		} else {
			ref.Sheet = sheetPrefix
		}
		return BuildCellReference(ref)
	})
}

// MarkDeletedSheetReferences poisons every reference qualified to
// deletedSheet with "#REF!", e.g. after that sheet is removed from the
// workbook.
func MarkDeletedSheetReferences(formula, deletedSheet string) string {
	return rewriteReferences(formula, func(sheetPrefix string, ref *CellRef) string {
		if sheetPrefix == deletedSheet {
			return "#REF!"
		}
		ref.Sheet = sheetPrefix
		return BuildCellReference(ref)
	})
}
