// Package sortops implements bulk, range-scoped operations that operate
// on a chosen rectangular region rather than the whole sheet: stable
// multi-key sort and per-range filter materialization.
//
// Grounded on sheetcore/spreadsheet's range-copy helpers for the
// payload-capture/write-back shape, with string comparison delegated to
// golang.org/x/text/collate for locale-aware, numeric-aware ordering
// instead of a hand-rolled comparator.
package sortops

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Order is ascending or descending.
type Order int

const (
	Ascending Order = iota
	Descending
)

// SortRule is one key of a multi-key sort.
type SortRule struct {
	Column        int
	Order         Order
	CustomList    []string // values in this list sort before non-list values, in list order
	CaseSensitive bool
	BlanksFirst   bool
}

// CellValue is the minimal typed read the comparator needs.
type CellValue struct {
	Text     string
	Number   float64
	Bool     bool
	IsNumber bool
	IsBool   bool
	IsBlank  bool
}

// Row is one captured payload: every column value in the sorted range,
// keyed by column index, plus the row's original position for the
// stability tiebreak and for writing results back.
type Row struct {
	OriginalRow int
	Values      map[int]CellValue
}

var defaultCollator = collate.New(language.Und, collate.IgnoreCase)

// Sort stably reorders rows per rules and returns the new ordering as a
// new slice; rows itself is not modified. The caller is expected to have
// already excluded any header row before calling. Descending reverses
// the value order but not blank placement, which follows BlanksFirst.
func Sort(rows []Row, rules []SortRule) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		for _, rule := range rules {
			a, b := out[i].Values[rule.Column], out[j].Values[rule.Column]
			c := compareByRule(a, b, rule)
			if c != 0 {
				if rule.Order == Descending && a.IsBlank == b.IsBlank {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].OriginalRow < out[j].OriginalRow
	})
	return out
}

// compareByRule returns <0, 0, >0 per spec's comparator ordering: blanks
// placed per BlanksFirst, custom-list membership takes priority, numbers
// compare numerically, booleans TRUE before FALSE, mixed types order
// numbers < strings < booleans < other, and strings use locale-aware,
// numeric-aware collation (case-insensitive unless CaseSensitive).
func compareByRule(a, b CellValue, rule SortRule) int {
	if a.IsBlank != b.IsBlank {
		if rule.BlanksFirst {
			if a.IsBlank {
				return -1
			}
			return 1
		}
		if a.IsBlank {
			return 1
		}
		return -1
	}
	if a.IsBlank && b.IsBlank {
		return 0
	}

	if len(rule.CustomList) > 0 {
		ai, aok := customListIndex(rule.CustomList, a)
		bi, bok := customListIndex(rule.CustomList, b)
		if aok && bok {
			return ai - bi
		}
		if aok != bok {
			if aok {
				return -1
			}
			return 1
		}
	}

	ta, tb := typeRank(a), typeRank(b)
	if ta != tb {
		return ta - tb
	}

	switch ta {
	case rankNumber:
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		default:
			return 0
		}
	case rankBool:
		// TRUE before FALSE.
		if a.Bool == b.Bool {
			return 0
		}
		if a.Bool {
			return -1
		}
		return 1
	default:
		return compareStrings(a.Text, b.Text, rule.CaseSensitive)
	}
}

const (
	rankNumber = 0
	rankString = 1
	rankBool   = 2
	rankOther  = 3
)

func typeRank(v CellValue) int {
	switch {
	case v.IsNumber:
		return rankNumber
	case v.IsBool:
		return rankBool
	default:
		return rankString
	}
}

func customListIndex(list []string, v CellValue) (int, bool) {
	for i, item := range list {
		if strings.EqualFold(item, v.Text) {
			return i, true
		}
	}
	return 0, false
}

func compareStrings(a, b string, caseSensitive bool) int {
	if caseSensitive {
		c := collate.New(language.Und)
		return c.CompareString(a, b)
	}
	return defaultCollator.CompareString(a, b)
}
