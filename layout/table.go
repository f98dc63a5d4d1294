package layout

import (
	"fmt"
	"log/slog"

	"github.com/ByLCY/folio/internal/logging"
)

// DefaultMinRowCount 是分页前瞻默认需要容纳的行数。
const DefaultMinRowCount = 2

// TableState 描述一次绘制过程所处的阶段。
type TableState int

const (
	StateIdle       TableState = iota // 未在绘制
	StateFreshPrint                   // 刚进入绘制，尚未画出任何行
	StateNormalRow                    // 正常逐行绘制
	StateMidBreak                     // 刚刚跨过页面边界
)

func (s TableState) String() string {
	switch s {
	case StateFreshPrint:
		return "fresh-print"
	case StateNormalRow:
		return "normal-row"
	case StateMidBreak:
		return "mid-break"
	default:
		return "idle"
	}
}

// DrawOptions 定制 BoxTable 的分页绘制。
type DrawOptions struct {
	// MinRowCount 为前瞻需要完整放下的行数，<= 0 时取 DefaultMinRowCount。
	MinRowCount int
	// OnPageBreak 在换页后、绘制该行之前调用，可用于重绘表头。
	OnPageBreak func(row int) error
	// HeightNeeded 替换默认的前瞻高度计算。
	HeightNeeded func(row int) float64
	// DrawRow 替换默认的行绘制。
	DrawRow func(row int) error
	// StartIndex 为开始绘制的行位置。
	StartIndex int
	// HookOnStart 为真时首行也会触发 OnPageBreak（例如第一页也需要表头）。
	HookOnStart bool
	// HookHeight 为 OnPageBreak 绘制的高度，回调将在某行之前执行时计入该行的前瞻高度。
	HookHeight float64
}

// BoxTable 是按位置寻址的行序列。删除行会留下空位，空位不会被复用。
type BoxTable struct {
	// ResetX/ResetY 为真时绘制结束后恢复起始坐标。
	ResetX, ResetY bool
	// ConsiderAutoHeight 为假时 AutoHeight 返回 0。
	ConsiderAutoHeight bool
	// MinRowCount 与 Header 供 Draw 使用：Header 非空时在每页（含第一页）的首行前绘制。
	MinRowCount int
	Header      *BoxRow

	slots []*BoxRow
	state TableState
}

// NewBoxTable returns a table owning rows.
func NewBoxTable(rows ...*BoxRow) *BoxTable {
	t := &BoxTable{ConsiderAutoHeight: true}
	for _, r := range rows {
		t.AddRow(r)
	}
	return t
}

// AddRow 追加到最后一个位置之后。
func (t *BoxTable) AddRow(r *BoxRow) *BoxTable {
	if r != nil {
		t.slots = append(t.slots, r)
	}
	return t
}

// InsertRowAt 在位置 i 插入，其后的位置（包括空位）整体后移。
func (t *BoxTable) InsertRowAt(r *BoxRow, i int) *BoxTable {
	if r == nil {
		return t
	}
	if i < 0 || i >= len(t.slots) {
		t.slots = append(t.slots, r)
		return t
	}
	t.slots = append(t.slots, nil)
	copy(t.slots[i+1:], t.slots[i:])
	t.slots[i] = r
	return t
}

// RemoveRow 删除位置 i 的行并留下空位。
func (t *BoxTable) RemoveRow(i int) *BoxTable {
	if t.HasRow(i) {
		t.slots[i] = nil
	}
	return t
}

// ReplaceRow 替换位置 i 的内容，i 为空位时同样生效。
func (t *BoxTable) ReplaceRow(i int, r *BoxRow) *BoxTable {
	if r != nil && i >= 0 && i < len(t.slots) {
		t.slots[i] = r
	}
	return t
}

func (t *BoxTable) ClearRows() *BoxTable { t.slots = nil; return t }

// HasRow reports whether position i holds a row.
func (t *BoxTable) HasRow(i int) bool {
	return i >= 0 && i < len(t.slots) && t.slots[i] != nil
}

// Row returns the row at i or nil.
func (t *BoxTable) Row(i int) *BoxRow {
	if !t.HasRow(i) {
		return nil
	}
	return t.slots[i]
}

// MaxKey 返回最后一个存在的行位置，没有行时返回 -1。
func (t *BoxTable) MaxKey() int {
	for i := len(t.slots) - 1; i >= 0; i-- {
		if t.slots[i] != nil {
			return i
		}
	}
	return -1
}

// RowCount returns the number of existing rows.
func (t *BoxTable) RowCount() int {
	n := 0
	for _, r := range t.slots {
		if r != nil {
			n++
		}
	}
	return n
}

// Rows calls fn for every existing row in position order.
func (t *BoxTable) Rows(fn func(i int, r *BoxRow)) {
	for i, r := range t.slots {
		if r != nil {
			fn(i, r)
		}
	}
}

// State returns the current drawing phase.
func (t *BoxTable) State() TableState { return t.state }

// MidPageBreak reports whether a page boundary was just crossed during Draw.
func (t *BoxTable) MidPageBreak() bool { return t.state == StateMidBreak }

// ChunkHeight 从 start 起累加 count 个存在的行的高度，越过最后一行时提前结束。
func (t *BoxTable) ChunkHeight(start, count int) float64 {
	return t.chunk(start, count, false, func(i int) float64 { return t.slots[i].Height() })
}

func (t *BoxTable) chunk(start, count int, skipFlagged bool, height func(i int) float64) float64 {
	var h float64
	counted := 0
	maxKey := t.MaxKey()
	for i := start; counted < count; i++ {
		if t.HasRow(i) {
			if skipFlagged && t.slots[i].Skip {
				continue
			}
			h += height(i)
			counted++
		} else if i >= maxKey {
			break
		}
	}
	return h
}

// AutoWidth 为最宽一行的自动宽度。
func (t *BoxTable) AutoWidth(c Canvas) (float64, error) {
	var w float64
	for _, r := range t.slots {
		if r == nil {
			continue
		}
		rw, err := r.AutoWidth(c)
		if err != nil {
			return 0, err
		}
		w = max(w, rw)
	}
	return w, nil
}

// AutoHeight 为所有行自动高度之和。
func (t *BoxTable) AutoHeight(c Canvas) (float64, error) {
	if !t.ConsiderAutoHeight {
		return 0, nil
	}
	var h float64
	for _, r := range t.slots {
		if r == nil {
			continue
		}
		rh, err := r.AutoHeight(c)
		if err != nil {
			return 0, err
		}
		h += rh
	}
	return h, nil
}

// MaxRowHeight returns the tallest row auto height.
func (t *BoxTable) MaxRowHeight(c Canvas) (float64, error) {
	var h float64
	for _, r := range t.slots {
		if r == nil {
			continue
		}
		rh, err := r.AutoHeight(c)
		if err != nil {
			return 0, err
		}
		h = max(h, rh)
	}
	return h, nil
}

func (t *BoxTable) Width() float64 {
	var w float64
	for _, r := range t.slots {
		if r != nil {
			w = max(w, r.Width())
		}
	}
	return w
}

// Height 为所有行当前高度之和。
func (t *BoxTable) Height() float64 {
	var h float64
	for _, r := range t.slots {
		if r != nil {
			h += r.Height()
		}
	}
	return h
}

// SetCellWidth sets every cell of every row to w.
func (t *BoxTable) SetCellWidth(w float64) {
	for _, r := range t.slots {
		if r != nil {
			r.SetCellWidth(w)
		}
	}
}

// SetRowHeight sets every row to h.
func (t *BoxTable) SetRowHeight(h float64) {
	for _, r := range t.slots {
		if r != nil {
			r.SetHeight(h)
		}
	}
}

// SetRowHeightToAuto sizes each row to its own auto height.
func (t *BoxTable) SetRowHeightToAuto(c Canvas) error {
	for i, r := range t.slots {
		if r == nil {
			continue
		}
		if err := r.SetHeightToAuto(c); err != nil {
			return fmt.Errorf("第 %d 行: %w", i, err)
		}
	}
	return nil
}

// EachCell 对所有行的叶子单元格调用 fn。
func (t *BoxTable) EachCell(fn func(Node)) {
	for _, r := range t.slots {
		if r != nil {
			r.EachCell(fn)
		}
	}
}

// EachColumnCell 对每行第 col 个单元格调用 fn；该单元格是表格时递归到其同一列。
func (t *BoxTable) EachColumnCell(col int, fn func(Node)) {
	for _, r := range t.slots {
		if r == nil {
			continue
		}
		cell := r.Cell(col)
		if cell == nil {
			continue
		}
		if nested, ok := cell.(*BoxTable); ok {
			nested.EachColumnCell(col, fn)
			continue
		}
		fn(cell)
	}
}

// DrawAt moves the cursor to (x, y) and draws with opts.
func (t *BoxTable) DrawAt(c Canvas, x, y float64, opts DrawOptions) error {
	c.SetXY(x, y)
	return t.DrawWith(c, opts)
}

// Draw draws at the cursor, repeating Header after every page break.
func (t *BoxTable) Draw(c Canvas) error {
	opts := DrawOptions{MinRowCount: t.MinRowCount}
	if t.Header != nil {
		h, err := rowHeight(c, t.Header)
		if err != nil {
			return fmt.Errorf("表头高度: %w", err)
		}
		opts.HookOnStart = true
		opts.HookHeight = h
		opts.OnPageBreak = func(int) error { return t.Header.Draw(c) }
	}
	return t.DrawWith(c, opts)
}

// rowHeight 为行的当前高度，未设置高度时取其自动高度。
func rowHeight(c Canvas, r *BoxRow) (float64, error) {
	if h := r.Height(); h > 0 {
		return h, nil
	}
	return r.AutoHeight(c)
}

// DrawWith 逐行绘制表格并在空间不足时换页。
//
// 每一行绘制前重新计算剩余高度；若前瞻高度（默认为从该行起 MinRowCount 个未跳过行的高度之和，
// 未设置高度的行按自动高度计）超过剩余高度则换页，并在绘制该行前调用 OnPageBreak。
// OnPageBreak 将在该行之前执行时，前瞻高度另加 HookHeight。刚换出的新页上不会再次换页，
// 因此单行高于整页时直接绘制而不会产生空白页。
// 表格没有行或 StartIndex 处没有行时不做任何事。
func (t *BoxTable) DrawWith(c Canvas, opts DrawOptions) error {
	if t.RowCount() == 0 || !t.HasRow(opts.StartIndex) {
		return nil
	}
	minRows := opts.MinRowCount
	if minRows <= 0 {
		minRows = DefaultMinRowCount
	}
	needed := opts.HeightNeeded
	if needed == nil {
		heights := make([]float64, len(t.slots))
		for i, r := range t.slots {
			if r == nil || r.Skip {
				continue
			}
			h, err := rowHeight(c, r)
			if err != nil {
				return fmt.Errorf("第 %d 行高度: %w", i, err)
			}
			heights[i] = h
		}
		needed = func(i int) float64 {
			return t.chunk(i, minRows, true, func(j int) float64 { return heights[j] })
		}
	}
	lookahead := func(i int, hook bool) float64 {
		h := needed(i)
		if hook && opts.OnPageBreak != nil {
			h += opts.HookHeight
		}
		return h
	}

	t.state = StateFreshPrint
	defer func() { t.state = StateIdle }()

	startX, startY := c.X(), c.Y()
	freshPage := c.Y() <= c.Margins().Top
	hook := opts.HookOnStart
	if !freshPage && lookahead(opts.StartIndex, hook) > c.RemainingHeight() {
		t.pageBreak(c, opts.StartIndex)
		freshPage, hook = true, true
	}

	for i := opts.StartIndex; i < len(t.slots); i++ {
		row := t.slots[i]
		if row == nil || row.Skip {
			continue
		}
		if !freshPage && lookahead(i, hook) > c.RemainingHeight() {
			t.pageBreak(c, i)
			freshPage, hook = true, true
		}
		if hook && opts.OnPageBreak != nil {
			if err := opts.OnPageBreak(i); err != nil {
				return fmt.Errorf("第 %d 行换页回调失败: %w", i, err)
			}
		}
		hook = false

		var err error
		if opts.DrawRow != nil {
			err = opts.DrawRow(i)
		} else {
			err = row.Draw(c)
		}
		if err != nil {
			return fmt.Errorf("绘制第 %d 行失败: %w", i, err)
		}
		t.state = StateNormalRow
		freshPage = false
	}

	x, y := c.X(), c.Y()
	if t.ResetX {
		x = startX
	}
	if t.ResetY {
		y = startY
	}
	c.SetXY(x, y)
	return nil
}

func (t *BoxTable) pageBreak(c Canvas, row int) {
	logging.Logger().Debug("table page break",
		slog.Int("row", row),
		slog.Float64("remaining", c.RemainingHeight()))
	c.NewPage()
	t.state = StateMidBreak
}

// Clone deep-copies the table and all rows, keeping holes in place.
func (t *BoxTable) Clone() Node {
	cp := &BoxTable{ResetX: t.ResetX, ResetY: t.ResetY, ConsiderAutoHeight: t.ConsiderAutoHeight, MinRowCount: t.MinRowCount}
	if t.Header != nil {
		cp.Header = t.Header.Clone().(*BoxRow)
	}
	cp.slots = make([]*BoxRow, len(t.slots))
	for i, r := range t.slots {
		if r != nil {
			cp.slots[i] = r.Clone().(*BoxRow)
		}
	}
	return cp
}
