package cellstore

import "sheetcore/sherr"

// InsertRows shifts every cell and row-metadata entry at row >= row down by
// count, per spec.md 4.1: "for every cell at row >= R, shift to row+k; row
// metadata shifts likewise; MAX_ROWS bounds enforced with a fatal error on
// overflow."
func (s *Store) InsertRows(row, count int) error {
	if row < 0 {
		return sherr.New(sherr.InvalidArgument, "row must be non-negative")
	}
	if count <= 0 {
		return sherr.New(sherr.InvalidArgument, "count must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasUsed && s.usedMaxRow+count >= MaxRows {
		return sherr.New(sherr.GridOverflow, "insertRows would push cells past MaxRows")
	}

	type pending struct {
		row, col int
		cell     *Cell
	}
	var affected []pending
	for c, cell := range s.cells {
		if c.row >= row {
			affected = append(affected, pending{c.row, c.col, cell})
		}
	}
	for _, p := range affected {
		s.removeFromIndicesLocked(p.row, p.col)
	}
	for _, p := range affected {
		newRow := p.row + count
		p.cell.Row = newRow
		s.insertIntoIndicesLocked(newRow, p.col, p.cell)
	}

	s.shiftRowMetaLocked(row, count)
	s.recomputeUsedRangeLocked()
	return nil
}

// DeleteRows removes cells in [row, row+count) and shifts cells at
// row >= row+count up by count.
func (s *Store) DeleteRows(row, count int) error {
	if row < 0 {
		return sherr.New(sherr.InvalidArgument, "row must be non-negative")
	}
	if count <= 0 {
		return sherr.New(sherr.InvalidArgument, "count must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	type pending struct {
		row, col int
		cell     *Cell
	}
	var toDelete, toShift []pending
	for c, cell := range s.cells {
		switch {
		case c.row >= row && c.row < row+count:
			toDelete = append(toDelete, pending{c.row, c.col, cell})
		case c.row >= row+count:
			toShift = append(toShift, pending{c.row, c.col, cell})
		}
	}
	for _, p := range toDelete {
		s.removeFromIndicesLocked(p.row, p.col)
	}
	for _, p := range toShift {
		s.removeFromIndicesLocked(p.row, p.col)
	}
	for _, p := range toShift {
		newRow := p.row - count
		p.cell.Row = newRow
		s.insertIntoIndicesLocked(newRow, p.col, p.cell)
	}

	s.deleteRowMetaRangeLocked(row, count)
	s.recomputeUsedRangeLocked()
	return nil
}

// InsertColumns is InsertRows' column-axis twin.
func (s *Store) InsertColumns(col, count int) error {
	if col < 0 {
		return sherr.New(sherr.InvalidArgument, "col must be non-negative")
	}
	if count <= 0 {
		return sherr.New(sherr.InvalidArgument, "count must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasUsed && s.usedMaxCol+count >= MaxCols {
		return sherr.New(sherr.GridOverflow, "insertColumns would push cells past MaxCols")
	}

	type pending struct {
		row, col int
		cell     *Cell
	}
	var affected []pending
	for c, cell := range s.cells {
		if c.col >= col {
			affected = append(affected, pending{c.row, c.col, cell})
		}
	}
	for _, p := range affected {
		s.removeFromIndicesLocked(p.row, p.col)
	}
	for _, p := range affected {
		newCol := p.col + count
		p.cell.Col = newCol
		s.insertIntoIndicesLocked(p.row, newCol, p.cell)
	}

	s.shiftColMetaLocked(col, count)
	s.recomputeUsedRangeLocked()
	return nil
}

// DeleteColumns is DeleteRows' column-axis twin.
func (s *Store) DeleteColumns(col, count int) error {
	if col < 0 {
		return sherr.New(sherr.InvalidArgument, "col must be non-negative")
	}
	if count <= 0 {
		return sherr.New(sherr.InvalidArgument, "count must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	type pending struct {
		row, col int
		cell     *Cell
	}
	var toDelete, toShift []pending
	for c, cell := range s.cells {
		switch {
		case c.col >= col && c.col < col+count:
			toDelete = append(toDelete, pending{c.row, c.col, cell})
		case c.col >= col+count:
			toShift = append(toShift, pending{c.row, c.col, cell})
		}
	}
	for _, p := range toDelete {
		s.removeFromIndicesLocked(p.row, p.col)
	}
	for _, p := range toShift {
		s.removeFromIndicesLocked(p.row, p.col)
	}
	for _, p := range toShift {
		newCol := p.col - count
		p.cell.Col = newCol
		s.insertIntoIndicesLocked(p.row, newCol, p.cell)
	}

	s.deleteColMetaRangeLocked(col, count)
	s.recomputeUsedRangeLocked()
	return nil
}

func (s *Store) shiftRowMetaLocked(row, count int) {
	shifted := make(map[int]*RowMeta, len(s.rowMeta))
	for r, m := range s.rowMeta {
		if r >= row {
			shifted[r+count] = m
		} else {
			shifted[r] = m
		}
	}
	s.rowMeta = shifted
}

func (s *Store) deleteRowMetaRangeLocked(row, count int) {
	shifted := make(map[int]*RowMeta, len(s.rowMeta))
	for r, m := range s.rowMeta {
		switch {
		case r >= row && r < row+count:
			// dropped
		case r >= row+count:
			shifted[r-count] = m
		default:
			shifted[r] = m
		}
	}
	s.rowMeta = shifted
}

func (s *Store) shiftColMetaLocked(col, count int) {
	shifted := make(map[int]*ColMeta, len(s.colMeta))
	for c, m := range s.colMeta {
		if c >= col {
			shifted[c+count] = m
		} else {
			shifted[c] = m
		}
	}
	s.colMeta = shifted
}

func (s *Store) deleteColMetaRangeLocked(col, count int) {
	shifted := make(map[int]*ColMeta, len(s.colMeta))
	for c, m := range s.colMeta {
		switch {
		case c >= col && c < col+count:
			// dropped
		case c >= col+count:
			shifted[c-count] = m
		default:
			shifted[c] = m
		}
	}
	s.colMeta = shifted
}

// FindNextNonEmpty implements Excel's Ctrl+Arrow navigation semantics: if
// the current cell is populated and the next cell along direction is too,
// jump to the last populated cell of that contiguous run; if the current
// cell is empty (or the next cell is empty), jump to the next populated
// cell; stop at the grid edge either way.
func (s *Store) FindNextNonEmpty(row, col int, dir Direction) (int, int) {
	dr, dc := directionDelta(dir)
	cur := s.HasCell(row, col)
	nr, nc := row+dr, col+dc
	if !inBounds(nr, nc) {
		return row, col
	}
	next := s.HasCell(nr, nc)

	if cur && next {
		// Run to the last populated cell of this contiguous run.
		r, c := row, col
		for inBounds(r+dr, c+dc) && s.HasCell(r+dr, c+dc) {
			r, c = r+dr, c+dc
		}
		return r, c
	}

	// Jump to the next populated cell, or the grid edge.
	r, c := nr, nc
	for inBounds(r, c) && !s.HasCell(r, c) {
		r, c = r+dr, c+dc
	}
	if !inBounds(r, c) {
		// Clamp to the last in-bounds cell along the direction.
		r -= dr
		c -= dc
		if r < 0 {
			r = 0
		}
		if c < 0 {
			c = 0
		}
		if r >= MaxRows {
			r = MaxRows - 1
		}
		if c >= MaxCols {
			c = MaxCols - 1
		}
		return r, c
	}
	return r, c
}

func directionDelta(dir Direction) (int, int) {
	switch dir {
	case DirUp:
		return -1, 0
	case DirDown:
		return 1, 0
	case DirLeft:
		return 0, -1
	case DirRight:
		return 0, 1
	default:
		return 0, 0
	}
}

func inBounds(r, c int) bool {
	return r >= 0 && r < MaxRows && c >= 0 && c < MaxCols
}

// FindCurrentRegion flood-fills the 4-connected block of non-empty cells
// containing (row, col) and returns its bounding rectangle. If (row, col)
// itself is empty, the returned range is the single cell (row, col).
func (s *Store) FindCurrentRegion(row, col int) CellRange {
	if !s.HasCell(row, col) {
		return CellRange{row, col, row, col}
	}
	visited := map[coord]bool{{row, col}: true}
	stack := []coord{{row, col}}
	region := CellRange{row, col, row, col}

	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]

		if cur.row < region.StartRow {
			region.StartRow = cur.row
		}
		if cur.row > region.EndRow {
			region.EndRow = cur.row
		}
		if cur.col < region.StartCol {
			region.StartCol = cur.col
		}
		if cur.col > region.EndCol {
			region.EndCol = cur.col
		}

		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			nr, nc := cur.row+d[0], cur.col+d[1]
			if !inBounds(nr, nc) || visited[coord{nr, nc}] {
				continue
			}
			if s.HasCell(nr, nc) {
				visited[coord{nr, nc}] = true
				stack = append(stack, coord{nr, nc})
			}
		}
	}
	return region
}
