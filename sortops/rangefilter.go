package sortops

import (
	"strings"

	"sheetcore/filter"
)

// RowHider is the subset of cellstore.Store that per-range filters need:
// they materialize as a hidden-row marking on row metadata rather than a
// separate visibility layer, unlike the sheet-global Filter Manager.
type RowHider interface {
	SetRowHidden(row int, hidden bool)
}

// ApplyRangeFilter evaluates predicates (the same tagged-union Predicate
// type the Filter Manager uses) against every row in [startRow, endRow]
// using valueAt to read column values, and marks non-matching rows
// hidden on store.
func ApplyRangeFilter(store RowHider, startRow, endRow int, predicates map[int]filter.Predicate, valueAt func(row, col int) filter.CellValue) {
	for row := startRow; row <= endRow; row++ {
		visible := true
		for col, p := range predicates {
			cv := valueAt(row, col)
			if !predicateMatchesRange(p, cv) {
				visible = false
				break
			}
		}
		store.SetRowHidden(row, !visible)
	}
}

// predicateMatchesRange duplicates filter's ValueSet/blank matching
// (the Condition variant's numeric pre-pass stats are sheet-scoped and
// out of reach here by design: per-range filters operate on a single
// column slice without a used-range-wide scan).
func predicateMatchesRange(p filter.Predicate, cv filter.CellValue) bool {
	if p.IsValueSet {
		if cv.IsBlank {
			return p.IncludeBlanks
		}
		return p.Values[strings.ToLower(cv.Text)]
	}
	return true
}
