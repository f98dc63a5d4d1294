package layout

import (
	"fmt"
	"log/slog"

	"github.com/ByLCY/folio/internal/logging"
)

// FlowBlock 将多个 TextRun 作为一个段落连续排布，同一行内各片段按基线对齐。
type FlowBlock struct {
	width  float64 // 折行宽度，任何排布操作之前都必须设置
	height float64 // > 0 时限制内容高度，超出的行被丢弃
	indent float64 // 作用于第一行之后的所有行

	runs []*TextRun
}

// NewFlowBlock returns a block flowing runs at the given width.
func NewFlowBlock(width float64, runs ...*TextRun) *FlowBlock {
	b := &FlowBlock{width: width}
	b.Add(runs...)
	return b
}

// Add appends runs in visual order.
func (b *FlowBlock) Add(runs ...*TextRun) *FlowBlock {
	for _, r := range runs {
		if r != nil {
			b.runs = append(b.runs, r)
		}
	}
	return b
}

// Runs returns the owned runs in order.
func (b *FlowBlock) Runs() []*TextRun { return append([]*TextRun(nil), b.runs...) }

func (b *FlowBlock) Width() float64         { return b.width }
func (b *FlowBlock) Height() float64        { return b.height }
func (b *FlowBlock) SetWidth(w float64)     { b.width = w }
func (b *FlowBlock) SetHeight(h float64)    { b.height = h }
func (b *FlowBlock) HangingIndent() float64 { return b.indent }

// SetHangingIndent sets the offset applied to every line after the first.
func (b *FlowBlock) SetHangingIndent(v float64) *FlowBlock {
	b.indent = v
	return b
}

// lineMetrics 是度量阶段的结果，下标为视觉行号。
type lineMetrics struct {
	heights   []float64
	baselines []float64
	lastWidth float64
}

func (m *lineMetrics) note(line int, height, baseline float64) {
	if line == len(m.heights) {
		m.heights = append(m.heights, height)
		m.baselines = append(m.baselines, baseline)
		return
	}
	m.heights[line] = max(m.heights[line], height)
	m.baselines[line] = max(m.baselines[line], baseline)
}

func (b *FlowBlock) validate() error {
	if b.width <= 0 {
		return ErrWidthRequired
	}
	for _, r := range b.runs {
		if err := r.validate(); err != nil {
			return err
		}
	}
	return nil
}

// flow 是度量与实际绘制共用的排布过程。plan 为 nil 时只收集每行的高度与基线；
// 否则按 plan 对齐基线并执行高度截断。
func (b *FlowBlock) flow(c Canvas, x, y float64, plan *lineMetrics) (*lineMetrics, error) {
	saved := c.Margins()
	defer c.SetMargins(saved)

	area := saved
	area.Left = x
	area.Right = c.PageWidth() - x - b.width
	c.SetMargins(area)

	got := &lineMetrics{}
	line := 0
	curX, rowY := x, y
	for idx, run := range b.runs {
		var pending *string
		for {
			curY := rowY
			if plan != nil {
				if line >= len(plan.heights) {
					return nil, fmt.Errorf("第 %d 行: %w", line+1, ErrFlowDesync)
				}
				if b.height > 0 && rowY+plan.heights[line]-y > b.height {
					logging.Logger().Debug("flow truncated",
						slog.Int("line", line),
						slog.Int("dropped_runs", len(b.runs)-idx))
					return got, nil
				}
				curY = rowY + plan.baselines[line] - run.BaselineOffset(c)
			}

			rest, err := run.DrawLine(c, curX, curY, pending)
			if err != nil {
				return nil, err
			}
			curX = c.X()
			got.note(line, run.LineHeight(c), run.BaselineOffset(c))
			if rest == "" {
				break
			}

			pending = &rest
			if plan != nil {
				rowY += plan.heights[line]
			} else {
				rowY += got.heights[line]
			}
			line++
			curX = x + b.indent
			if line == 1 {
				// 续行从缩进处开始，两次排布共享同一边界条件。
				area.Left = curX
				c.SetMargins(area)
			}
		}
	}
	got.lastWidth = curX - x
	return got, nil
}

// measure runs the metrics pass inside a scratch transaction.
func (b *FlowBlock) measure(c Canvas, x, y float64) (*lineMetrics, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	var m *lineMetrics
	err := c.Scratch(func() error {
		var err error
		m, err = b.flow(c, x, y, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LineHeights 返回度量阶段得到的每行高度。
func (b *FlowBlock) LineHeights(c Canvas) ([]float64, error) {
	m, err := b.measure(c, 0, 0)
	if err != nil {
		return nil, err
	}
	return m.heights, nil
}

// AutoHeight 为各行最大行高之和加上 0.01。
func (b *FlowBlock) AutoHeight(c Canvas) (float64, error) {
	m, err := b.measure(c, 0, 0)
	if err != nil {
		return 0, err
	}
	h := autoEpsilon
	for _, lh := range m.heights {
		h += lh
	}
	return h, nil
}

// AutoWidth 为各片段独立单行宽度之和，是实际折行宽度的上界。
func (b *FlowBlock) AutoWidth(c Canvas) (float64, error) {
	var w float64
	for _, r := range b.runs {
		rw, err := r.MeasureWidth(c)
		if err != nil {
			return 0, err
		}
		w += rw
	}
	return w, nil
}

// LastLineWidth 返回最后一行从左边界到末尾的宽度。
func (b *FlowBlock) LastLineWidth(c Canvas) (float64, error) {
	m, err := b.measure(c, 0, 0)
	if err != nil {
		return 0, err
	}
	return m.lastWidth, nil
}

// SetWidthToAuto sets Width from AutoWidth.
func (b *FlowBlock) SetWidthToAuto(c Canvas) error {
	w, err := b.AutoWidth(c)
	if err != nil {
		return err
	}
	b.width = w
	return nil
}

// SetHeightToAuto sets Height from AutoHeight.
func (b *FlowBlock) SetHeightToAuto(c Canvas) error {
	h, err := b.AutoHeight(c)
	if err != nil {
		return err
	}
	b.height = h
	return nil
}

// DrawAt 先在草稿事务中度量，再按度量结果实际绘制。结束后光标位于 (x+宽度, y)，边距恢复原状。
func (b *FlowBlock) DrawAt(c Canvas, x, y float64) error {
	plan, err := b.measure(c, x, y)
	if err != nil {
		return err
	}
	if _, err := b.flow(c, x, y, plan); err != nil {
		return err
	}
	c.SetXY(x+b.width, y)
	return nil
}

// Draw draws the block at the cursor.
func (b *FlowBlock) Draw(c Canvas) error { return b.DrawAt(c, c.X(), c.Y()) }

// Clone deep-copies the block and its runs.
func (b *FlowBlock) Clone() Node {
	cp := &FlowBlock{width: b.width, height: b.height, indent: b.indent}
	for _, r := range b.runs {
		cp.runs = append(cp.runs, r.Clone())
	}
	return cp
}
