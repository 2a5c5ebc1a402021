// Package findreplace implements pattern search across cell values,
// formulas, and format attributes, with ordered match navigation and
// single/bulk replace.
//
// Grounded on sheetcore/lexer's regexp-driven scanning style (compile
// once, scan many), generalized from token matching to cell-value match
// spans, and on sheetcore/interpreter's per-item error accumulation
// pattern for BulkReplace's per-cell error list.
package findreplace

import (
	"regexp"
	"strconv"

	"sheetcore/cellstore"
	"sheetcore/sherr"
)

// Scope restricts the search to the whole sheet, the current selection,
// or an explicit range. ScopeSheet searches every cell of the grid;
// ScopeSelection and ScopeRange search the cells inside Options.Range.
type Scope int

const (
	ScopeSheet Scope = iota
	ScopeSelection
	ScopeRange
)

// IterationOrder controls match traversal order.
type IterationOrder int

const (
	RowsFirst IterationOrder = iota
	ColumnsFirst
)

// Options configures a search.
type Options struct {
	CaseSensitive bool
	WholeCell     bool
	Regex         bool
	Scope         Scope
	Range         cellstore.CellRange
	Order         IterationOrder
	IncludeHidden bool
	SearchValue   bool
	SearchFormula bool
	SearchFormat  bool
}

// Match is one located occurrence.
type Match struct {
	Row, Col    int
	StartIndex  int
	Length      int
	MatchedText string
	InFormula   bool
	InFormat    bool
	Snapshot    *cellstore.Cell
}

// CellSource is the read surface findreplace needs from the cell store.
type CellSource interface {
	GetCellsInRange(r cellstore.CellRange) []*cellstore.Cell
	IsRowHidden(r int) bool
	IsColHidden(c int) bool
	SetCell(row, col int, cell *cellstore.Cell) error
}

// DisplayText renders a cell's value the way the search scans it.
func DisplayText(c *cellstore.Cell) string {
	if c == nil {
		return ""
	}
	switch c.Type {
	case cellstore.Number:
		if n, ok := c.Value.(float64); ok {
			return trimFloat(n)
		}
	case cellstore.Boolean:
		if b, ok := c.Value.(bool); ok {
			if b {
				return "TRUE"
			}
			return "FALSE"
		}
	case cellstore.Text:
		if s, ok := c.Value.(string); ok {
			return s
		}
	case cellstore.Formatted:
		if ft, ok := c.Value.(cellstore.FormattedText); ok {
			return ft.Text
		}
	}
	return ""
}

// trimFloat renders n the way a plain numeric cell displays by default: no
// trailing zeros, no trailing decimal point. A cell's NumberFormat is not
// applied here.
func trimFloat(n float64) string {
	s := strconv.FormatFloat(n, 'f', -1, 64)
	return s
}

// Session holds a compiled query and its current match cursor.
type Session struct {
	opts    Options
	pattern *regexp.Regexp
	matches []Match
	cursor  int
}

// Compile builds a Session from a query string and options. A literal
// (non-regex) query is escaped before compilation; WholeCell anchors the
// pattern to the full string.
func Compile(query string, opts Options) (*Session, error) {
	pattern := query
	if !opts.Regex {
		pattern = regexp.QuoteMeta(query)
	}
	if opts.WholeCell {
		pattern = "^" + pattern + "$"
	}
	flags := ""
	if !opts.CaseSensitive {
		flags = "(?i)"
	}
	re, err := regexp.Compile(flags + pattern)
	if err != nil {
		return nil, sherr.New(sherr.InvalidArgument, "invalid search pattern: %v", err)
	}
	return &Session{opts: opts, pattern: re, cursor: -1}, nil
}

// Run scans src over the configured scope and populates the match list
// in traversal order, resetting the cursor.
func (s *Session) Run(src CellSource) {
	s.matches = nil
	s.cursor = -1

	r := s.opts.Range
	if s.opts.Scope == ScopeSheet {
		r = cellstore.CellRange{EndRow: cellstore.MaxRows - 1, EndCol: cellstore.MaxCols - 1}
	}
	cells := src.GetCellsInRange(r)
	ordered := orderCells(cells, s.opts.Order)

	for _, c := range ordered {
		if !s.opts.IncludeHidden && (src.IsRowHidden(c.Row) || src.IsColHidden(c.Col)) {
			continue
		}
		if s.opts.SearchValue {
			s.collectMatches(c, DisplayText(c), false)
		}
		if s.opts.SearchFormula && c.Formula != "" {
			s.collectMatches(c, c.Formula, true)
		}
		if s.opts.SearchFormat && c.Format != nil && s.formatMatches(*c.Format) {
			s.matches = append(s.matches, Match{Row: c.Row, Col: c.Col, InFormat: true, Snapshot: c.Clone()})
		}
	}
}

func (s *Session) formatMatches(f cellstore.CellFormat) bool {
	return s.pattern.MatchString(f.NumberFormat) || s.pattern.MatchString(f.Color)
}

func (s *Session) collectMatches(c *cellstore.Cell, text string, inFormula bool) {
	for _, loc := range s.pattern.FindAllStringIndex(text, -1) {
		s.matches = append(s.matches, Match{
			Row: c.Row, Col: c.Col,
			StartIndex:  loc[0],
			Length:      loc[1] - loc[0],
			MatchedText: text[loc[0]:loc[1]],
			InFormula:   inFormula,
			Snapshot:    c.Clone(),
		})
	}
}

func orderCells(cells []*cellstore.Cell, order IterationOrder) []*cellstore.Cell {
	out := make([]*cellstore.Cell, len(cells))
	copy(out, cells)
	less := func(i, j int) bool {
		if order == RowsFirst {
			if out[i].Row != out[j].Row {
				return out[i].Row < out[j].Row
			}
			return out[i].Col < out[j].Col
		}
		if out[i].Col != out[j].Col {
			return out[i].Col < out[j].Col
		}
		return out[i].Row < out[j].Row
	}
	insertionSort(out, less)
	return out
}

func insertionSort(s []*cellstore.Cell, less func(i, j int) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Matches returns the current ordered match list.
func (s *Session) Matches() []Match { return s.matches }

// FindNext advances the cursor to the next match, wrapping to the first
// match after the last. Returns false if there are no matches.
func (s *Session) FindNext() (Match, bool) {
	if len(s.matches) == 0 {
		return Match{}, false
	}
	s.cursor = (s.cursor + 1) % len(s.matches)
	return s.matches[s.cursor], true
}

// FindPrevious retreats the cursor, wrapping to the last match before
// the first.
func (s *Session) FindPrevious() (Match, bool) {
	if len(s.matches) == 0 {
		return Match{}, false
	}
	s.cursor--
	if s.cursor < 0 {
		s.cursor = len(s.matches) - 1
	}
	return s.matches[s.cursor], true
}

// ReplaceResult reports the outcome of a bulk replace.
type ReplaceResult struct {
	Count         int
	ModifiedCells []cellstore.CellRange // one 1x1 range per modified cell, for caller convenience
	Errors        map[string]error      // keyed by "<row>_<col>"
}

// ReplaceOne rewrites a single match's span in its owning string (value
// or formula), writes the cell back, and re-runs the query so match
// positions stay accurate.
func (s *Session) ReplaceOne(src CellSource, m Match, replacement string) error {
	cells := src.GetCellsInRange(cellstore.CellRange{StartRow: m.Row, StartCol: m.Col, EndRow: m.Row, EndCol: m.Col})
	if len(cells) == 0 {
		return sherr.New(sherr.NotFound, "no cell at (%d,%d)", m.Row, m.Col)
	}
	c := cells[0].Clone()
	if m.InFormula {
		c.Formula = spliceString(c.Formula, m.StartIndex, m.Length, replacement)
	} else {
		text := DisplayText(c)
		text = spliceString(text, m.StartIndex, m.Length, replacement)
		c.Type = cellstore.Text
		c.Value = text
	}
	if err := src.SetCell(c.Row, c.Col, c); err != nil {
		return err
	}
	s.Run(src)
	return nil
}

// BulkReplace groups matches by cell and applies them in descending
// startIndex order within a single rewrite per cell, so earlier spans'
// offsets are never invalidated by a later splice. A per-cell failure is
// accumulated in the result rather than aborting the whole operation.
func (s *Session) BulkReplace(src CellSource, replacement string) ReplaceResult {
	result := ReplaceResult{Errors: make(map[string]error)}

	type cellKey struct{ row, col int }
	byCell := make(map[cellKey][]Match)
	for _, m := range s.matches {
		if m.InFormat {
			continue // format matches are not text-replaceable
		}
		k := cellKey{m.Row, m.Col}
		byCell[k] = append(byCell[k], m)
	}

	for k, ms := range byCell {
		insertionSortMatches(ms)
		cells := src.GetCellsInRange(cellstore.CellRange{StartRow: k.row, StartCol: k.col, EndRow: k.row, EndCol: k.col})
		if len(cells) == 0 {
			continue
		}
		c := cells[0].Clone()
		value := DisplayText(c)
		formula := c.Formula
		modified := false
		for _, m := range ms {
			if m.InFormula {
				formula = spliceString(formula, m.StartIndex, m.Length, replacement)
			} else {
				value = spliceString(value, m.StartIndex, m.Length, replacement)
			}
			modified = true
		}
		if !modified {
			continue
		}
		c.Formula = formula
		if formula == "" {
			c.Type = cellstore.Text
			c.Value = value
		}
		if err := src.SetCell(c.Row, c.Col, c); err != nil {
			result.Errors[cellKeyString(k.row, k.col)] = err
			continue
		}
		result.Count += len(ms)
		result.ModifiedCells = append(result.ModifiedCells, cellstore.CellRange{StartRow: k.row, StartCol: k.col, EndRow: k.row, EndCol: k.col})
	}

	s.Run(src)
	return result
}

func insertionSortMatches(ms []Match) {
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && ms[j].StartIndex > ms[j-1].StartIndex; j-- {
			ms[j], ms[j-1] = ms[j-1], ms[j]
		}
	}
}

func spliceString(s string, start, length int, replacement string) string {
	if start < 0 || start+length > len(s) {
		return s
	}
	return s[:start] + replacement + s[start+length:]
}

func cellKeyString(row, col int) string {
	return itoa(row) + "_" + itoa(col)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}
