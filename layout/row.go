package layout

// BoxRow 是从左到右排列的一组单元格。
type BoxRow struct {
	// Skip 为真时表格在计算高度和绘制时跳过该行，但保留其位置。
	Skip bool
	// LineBreakAfter 为真时绘制完成后换到下一行。
	LineBreakAfter bool
	// ResetX/ResetY 为真时绘制结束后恢复起始坐标。
	ResetX, ResetY bool
	// ConsiderAutoHeight 为假时 AutoHeight 返回 0。
	ConsiderAutoHeight bool

	cells []Node
}

// NewBoxRow returns a row owning cells.
func NewBoxRow(cells ...Node) *BoxRow {
	r := &BoxRow{LineBreakAfter: true, ConsiderAutoHeight: true}
	for _, c := range cells {
		r.AddCell(c)
	}
	return r
}

// AddCell appends a cell.
func (r *BoxRow) AddCell(n Node) *BoxRow {
	if n != nil {
		r.cells = append(r.cells, n)
	}
	return r
}

// AddCellAt 在位置 i 插入单元格，其后的单元格顺延；i 越界时追加到末尾。
func (r *BoxRow) AddCellAt(n Node, i int) *BoxRow {
	if n == nil {
		return r
	}
	if i < 0 || i >= len(r.cells) {
		r.cells = append(r.cells, n)
		return r
	}
	r.cells = append(r.cells, nil)
	copy(r.cells[i+1:], r.cells[i:])
	r.cells[i] = n
	return r
}

// RemoveCell removes the cell at i; out of range is a no-op.
func (r *BoxRow) RemoveCell(i int) *BoxRow {
	if i >= 0 && i < len(r.cells) {
		r.cells = append(r.cells[:i], r.cells[i+1:]...)
	}
	return r
}

// ReplaceCell swaps the cell at i.
func (r *BoxRow) ReplaceCell(i int, n Node) *BoxRow {
	if n != nil && i >= 0 && i < len(r.cells) {
		r.cells[i] = n
	}
	return r
}

func (r *BoxRow) ClearCells() *BoxRow { r.cells = nil; return r }
func (r *BoxRow) CellCount() int      { return len(r.cells) }

// Cell returns the cell at i or nil.
func (r *BoxRow) Cell(i int) Node {
	if i < 0 || i >= len(r.cells) {
		return nil
	}
	return r.cells[i]
}

// Cells returns the cells in order.
func (r *BoxRow) Cells() []Node { return append([]Node(nil), r.cells...) }

// AutoWidth 为各单元格自动宽度之和。
func (r *BoxRow) AutoWidth(c Canvas) (float64, error) {
	var w float64
	for _, cell := range r.cells {
		cw, err := cell.AutoWidth(c)
		if err != nil {
			return 0, err
		}
		w += cw
	}
	return w, nil
}

// AutoHeight 为各单元格自动高度的最大值；嵌套表格返回其自身的自动高度。
func (r *BoxRow) AutoHeight(c Canvas) (float64, error) {
	if !r.ConsiderAutoHeight {
		return 0, nil
	}
	var h float64
	for _, cell := range r.cells {
		ch, err := cell.AutoHeight(c)
		if err != nil {
			return 0, err
		}
		h = max(h, ch)
	}
	return h, nil
}

func (r *BoxRow) Width() float64 {
	var w float64
	for _, cell := range r.cells {
		w += cell.Width()
	}
	return w
}

// Height 为各单元格当前高度的最大值。
func (r *BoxRow) Height() float64 {
	var h float64
	for _, cell := range r.cells {
		h = max(h, cell.Height())
	}
	return h
}

// SetWidth 将宽度平均分给各单元格。
func (r *BoxRow) SetWidth(w float64) {
	if len(r.cells) == 0 {
		return
	}
	r.SetCellWidth(w / float64(len(r.cells)))
}

// SetCellWidth 为每个可设置宽度的单元格设置相同宽度。
func (r *BoxRow) SetCellWidth(w float64) {
	for _, cell := range r.cells {
		if ws, ok := cell.(WidthSetter); ok {
			ws.SetWidth(w)
		}
	}
}

// SetHeight 广播给所有可设置高度的单元格，其余单元格忽略。
func (r *BoxRow) SetHeight(h float64) {
	for _, cell := range r.cells {
		if hs, ok := cell.(HeightSetter); ok {
			hs.SetHeight(h)
		}
	}
}

// SetHeightToAuto 将所有单元格设为该行的自动高度。
func (r *BoxRow) SetHeightToAuto(c Canvas) error {
	if !r.ConsiderAutoHeight {
		return nil
	}
	h, err := r.AutoHeight(c)
	if err != nil {
		return err
	}
	r.SetHeight(h)
	return nil
}

// EachCell 对每个叶子单元格调用 fn，遇到嵌套表格时递归进入。
func (r *BoxRow) EachCell(fn func(Node)) {
	for _, cell := range r.cells {
		if t, ok := cell.(*BoxTable); ok {
			t.EachCell(fn)
			continue
		}
		fn(cell)
	}
}

// DrawAt moves the cursor to (x, y) and draws the row.
func (r *BoxRow) DrawAt(c Canvas, x, y float64) error {
	c.SetXY(x, y)
	return r.Draw(c)
}

// Draw 依次在光标处绘制各单元格，随后按标志换行并恢复坐标。
func (r *BoxRow) Draw(c Canvas) error {
	startX, startY := c.X(), c.Y()
	for _, cell := range r.cells {
		if err := cell.Draw(c); err != nil {
			return err
		}
	}
	if r.LineBreakAfter {
		h := r.Height()
		if h <= 0 {
			h = -1
		}
		c.LineBreak(h)
	}
	x, y := c.X(), c.Y()
	if r.ResetX {
		x = startX
	}
	if r.ResetY {
		y = startY
	}
	c.SetXY(x, y)
	return nil
}

// Clone deep-copies the row and its cells.
func (r *BoxRow) Clone() Node {
	cp := *r
	cp.cells = cloneNodes(r.cells)
	return &cp
}
