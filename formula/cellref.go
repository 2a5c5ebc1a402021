package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// ColToLetter converts a zero-based column index into its bijective base-26
// letter encoding (0 -> "A", 25 -> "Z", 26 -> "AA", ...).
func ColToLetter(col int) string {
	if col < 0 {
		return ""
	}
	var letters []byte
	n := col + 1
	for n > 0 {
		n--
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n /= 26
	}
	return string(letters)
}

// ColFromLetter is the inverse of ColToLetter: "A" -> 0, "AA" -> 26.
func ColFromLetter(letters string) (int, error) {
	letters = strings.ToUpper(letters)
	if letters == "" {
		return 0, fmt.Errorf("empty column letters")
	}
	col := 0
	for i := 0; i < len(letters); i++ {
		ch := letters[i]
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q", letters)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// splitColRow splits "A1", "$A$1" or "AA100" into its letter and digit
// runs, stripping any '$' pins along the way.
func splitColRow(ref string) (col string, row string, colAbs, rowAbs bool, err error) {
	i := 0
	if i < len(ref) && ref[i] == '$' {
		colAbs = true
		i++
	}
	start := i
	for i < len(ref) && ((ref[i] >= 'A' && ref[i] <= 'Z') || (ref[i] >= 'a' && ref[i] <= 'z')) {
		i++
	}
	if i == start {
		return "", "", false, false, fmt.Errorf("malformed reference %q", ref)
	}
	col = ref[start:i]
	if i < len(ref) && ref[i] == '$' {
		rowAbs = true
		i++
	}
	start = i
	for i < len(ref) && ref[i] >= '0' && ref[i] <= '9' {
		i++
	}
	if i == start || i != len(ref) {
		return "", "", false, false, fmt.Errorf("malformed reference %q", ref)
	}
	row = ref[start:i]
	return col, row, colAbs, rowAbs, nil
}

// ParseCellRef parses a bare (non-sheet-qualified) reference like "A1" or
// "$B$12" into zero-based row and column indices.
func ParseCellRef(ref string) (row, col int, err error) {
	colPart, rowPart, _, _, err := splitColRow(ref)
	if err != nil {
		return 0, 0, err
	}
	col, err = ColFromLetter(colPart)
	if err != nil {
		return 0, 0, err
	}
	rowNum, err := strconv.Atoi(rowPart)
	if err != nil || rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row in reference %q", ref)
	}
	return rowNum - 1, col, nil
}

// CellRefString formats zero-based row/col indices as an "A1"-style
// reference.
func CellRefString(row, col int) string {
	return fmt.Sprintf("%s%d", ColToLetter(col), row+1)
}

// ParseRangeRef parses "A1:B10" into zero-based start/end row and column
// indices. A single-cell argument ("A1") is treated as a degenerate range
// whose start equals its end.
func ParseRangeRef(ref string) (startRow, startCol, endRow, endCol int, err error) {
	parts := strings.SplitN(ref, ":", 2)
	startRow, startCol, err = ParseCellRef(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(parts) == 1 {
		return startRow, startCol, startRow, startCol, nil
	}
	endRow, endCol, err = ParseCellRef(parts[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}
	return startRow, startCol, endRow, endCol, nil
}
