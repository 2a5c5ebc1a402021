package engine

import "sheetcore/viewport"

// Viewport passthroughs: scroll/size/frozen-pane state and rendering
// queries are all view state, so none of these touch the undo stack.
func (e *Engine) SetViewportSize(width, height int) { e.view.SetViewportSize(width, height) }
func (e *Engine) ScrollTo(x, y int)                 { e.view.SetScroll(x, y) }
func (e *Engine) GetVisibleRows() []viewport.VisibleLine    { return e.view.GetVisibleRows() }
func (e *Engine) GetVisibleColumns() []viewport.VisibleLine { return e.view.GetVisibleColumns() }
func (e *Engine) GetRowTop(row int) int                     { return e.view.GetRowTop(row) }
func (e *Engine) GetColLeft(col int) int                    { return e.view.GetColLeft(col) }
func (e *Engine) GetMaxScroll() (maxX, maxY int)            { return e.view.GetMaxScroll() }
func (e *Engine) GetCellAtPosition(x, y int) (row, col int) { return e.view.GetCellAtPoint(x, y) }
func (e *Engine) GetCellsToRender() []viewport.RenderCell   { return e.view.GetCellsToRender() }
