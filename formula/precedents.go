package formula

// CellKey renders a sheet-qualified cell coordinate as the string key the
// dependency graph and cell store both use: "Sheet1!A1".
func CellKey(sheet string, row, col int) string {
	return sheet + "!" + CellRefString(row, col)
}

// CollectReferences walks a parsed formula tree and returns the dependency
// graph keys of every cell it reads — single references directly, and
// every cell inside a range's bounding box (ranges are not tracked as a
// single coarse node; a sheet-qualified reference resolves against
// defaultSheet when it carries no sheet of its own).
func CollectReferences(node Node, defaultSheet string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	var walk func(Node)
	walk = func(n Node) {
		switch t := n.(type) {
		case CellReference:
			sheet := t.Sheet
			if sheet == "" {
				sheet = defaultSheet
			}
			add(CellKey(sheet, t.Row, t.Col))
		case RangeReference:
			sheet := t.Sheet
			if sheet == "" {
				sheet = defaultSheet
			}
			r0, c0, r1, c1 := t.Start.Row, t.Start.Col, t.End.Row, t.End.Col
			if r1 < r0 {
				r0, r1 = r1, r0
			}
			if c1 < c0 {
				c0, c1 = c1, c0
			}
			for r := r0; r <= r1; r++ {
				for c := c0; c <= c1; c++ {
					add(CellKey(sheet, r, c))
				}
			}
		case UnaryExpr:
			walk(t.Operand)
		case PercentExpr:
			walk(t.Operand)
		case BinaryExpr:
			walk(t.Left)
			walk(t.Right)
		case FunctionCall:
			for _, a := range t.Args {
				walk(a)
			}
		case ArrayLiteral:
			for _, row := range t.Rows {
				for _, c := range row {
					walk(c)
				}
			}
		}
	}
	walk(node)
	return out
}
