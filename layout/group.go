package layout

import "fmt"

// BoxGroup 在固定宽高的区域内自上而下排列由配置生成的单元格。
// 每个单元格不超过剩余高度；剩余高度耗尽后停止。H <= 0 时不限制高度。
type BoxGroup struct {
	Items   []BoxConfig
	W, H    float64
	Spacing float64
}

// Boxes 按配置生成单元格，宽度为组宽度，绘制后光标落在单元格正下方。
func (g *BoxGroup) Boxes() ([]*Box, error) {
	boxes := make([]*Box, 0, len(g.Items))
	for i, item := range g.Items {
		b := NewBox("")
		b.SetWidth(g.W)
		b.Ln = 2
		if err := item.Apply(b); err != nil {
			return nil, fmt.Errorf("第 %d 个单元格: %w", i, err)
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// DrawAt draws the group with its top-left corner at (x, y).
func (g *BoxGroup) DrawAt(c Canvas, x, y float64) error {
	boxes, err := g.Boxes()
	if err != nil {
		return err
	}
	curY := y
	remaining := g.H
	for _, b := range boxes {
		auto, err := b.AutoHeight(c)
		if err != nil {
			return err
		}
		if g.H > 0 && auto > remaining {
			b.SetHeight(remaining)
		}
		if err := b.DrawAt(c, x, curY); err != nil {
			return err
		}
		curY = c.Y() + g.Spacing
		remaining = y + g.H - curY
		if g.H > 0 && remaining <= 0 {
			break
		}
	}
	c.SetXY(x+g.W, y)
	return nil
}

func (g *BoxGroup) Draw(c Canvas) error { return g.DrawAt(c, c.X(), c.Y()) }
func (g *BoxGroup) Width() float64      { return g.W }
func (g *BoxGroup) Height() float64     { return g.H }
func (g *BoxGroup) SetWidth(w float64)  { g.W = w }
func (g *BoxGroup) SetHeight(h float64) { g.H = h }

func (g *BoxGroup) AutoWidth(Canvas) (float64, error) { return g.W, nil }

// AutoHeight 为全部单元格自动高度与间距之和。
func (g *BoxGroup) AutoHeight(c Canvas) (float64, error) {
	boxes, err := g.Boxes()
	if err != nil {
		return 0, err
	}
	var h float64
	for i, b := range boxes {
		bh, err := b.AutoHeight(c)
		if err != nil {
			return 0, err
		}
		h += bh
		if i > 0 {
			h += g.Spacing
		}
	}
	return h, nil
}

func (g *BoxGroup) Clone() Node {
	cp := *g
	cp.Items = make([]BoxConfig, len(g.Items))
	for i, item := range g.Items {
		item.TextColor = cloneColor(item.TextColor)
		item.FillColor = cloneColor(item.FillColor)
		item.BorderColor = cloneColor(item.BorderColor)
		if item.Padding != nil {
			p := *item.Padding
			item.Padding = &p
		}
		if item.Ln != nil {
			ln := *item.Ln
			item.Ln = &ln
		}
		cp.Items[i] = item
	}
	return &cp
}
