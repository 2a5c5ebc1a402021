package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"sheetcore/engine"
	"sheetcore/formula"
)

const (
	replPrompt = "sheet> "
	replBanner = `sheetctl — interactive cell console
Type "A1 = value" or "A1 = =FORMULA(...)" to write a cell, or "A1" to read it.
Commands: :help, :dump, :undo, :redo, :quit
`
)

// runREPL drives an interactive cell console against a single in-process
// engine.Engine, grounded on sheetcore/repl's prompt/command-loop shape
// (banner, ":"-prefixed commands, raw-mode line editing when the session
// is attached to a real terminal) adapted from evaluating karl source to
// reading and writing sheet cells.
func runREPL(in *os.File, out *os.File) int {
	eng := engine.New()
	fmt.Fprint(out, replBanner)

	if term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd())) {
		return runREPLTTY(eng, in, out)
	}
	return runREPLPlain(eng, in, out)
}

func runREPLTTY(eng *engine.Engine, in *os.File, out *os.File) int {
	oldState, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return runREPLPlain(eng, in, out)
	}
	defer term.Restore(int(in.Fd()), oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, replPrompt)

	for {
		line, err := t.ReadLine()
		if err != nil {
			return 0
		}
		if !handleREPLLine(eng, strings.TrimSpace(line), t) {
			return 0
		}
	}
}

func runREPLPlain(eng *engine.Engine, in *os.File, out *os.File) int {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, replPrompt)
		if !scanner.Scan() {
			return 0
		}
		if !handleREPLLine(eng, strings.TrimSpace(scanner.Text()), out) {
			return 0
		}
	}
}

func handleREPLLine(eng *engine.Engine, line string, out io.Writer) bool {
	if line == "" {
		return true
	}
	if strings.HasPrefix(line, ":") {
		return handleREPLCommand(eng, line, out)
	}

	if ref, rest, ok := strings.Cut(line, "="); ok {
		row, col, err := parseCellRef(strings.TrimSpace(ref))
		if err != nil {
			fmt.Fprintln(out, err)
			return true
		}
		value := strings.TrimSpace(rest)
		var v interface{} = value
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			v = n
		}
		if _, err := eng.SetCellValue(row, col, v); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		return true
	}

	row, col, err := parseCellRef(line)
	if err != nil {
		fmt.Fprintln(out, err)
		return true
	}
	fmt.Fprintln(out, eng.GetCellDisplayValue(row, col))
	return true
}

func handleREPLCommand(eng *engine.Engine, line string, out io.Writer) bool {
	switch line {
	case ":help":
		fmt.Fprint(out, replBanner)
	case ":quit", ":q":
		return false
	case ":undo":
		if ok, err := eng.Undo(); err != nil {
			fmt.Fprintln(out, "error:", err)
		} else if !ok {
			fmt.Fprintln(out, "nothing to undo")
		}
	case ":redo":
		if ok, err := eng.Redo(); err != nil {
			fmt.Fprintln(out, "error:", err)
		} else if !ok {
			fmt.Fprintln(out, "nothing to redo")
		}
	case ":dump":
		r, ok := eng.GetUsedRange()
		if !ok {
			fmt.Fprintln(out, "(empty)")
			break
		}
		for row := r.StartRow; row <= r.EndRow; row++ {
			for col := r.StartCol; col <= r.EndCol; col++ {
				v := eng.GetCellDisplayValue(row, col)
				if v == nil {
					continue
				}
				ref := formula.BuildCellReference(&formula.CellRef{Row: row, Col: col})
				fmt.Fprintf(out, "%s: %v\n", ref, v)
			}
		}
	default:
		fmt.Fprintln(out, "unknown command:", line)
	}
	return true
}

func parseCellRef(s string) (row, col int, err error) {
	ref := formula.ParseCellReference(s)
	if ref == nil {
		return 0, 0, fmt.Errorf("bad cell reference %q", s)
	}
	return ref.Row, ref.Col, nil
}
