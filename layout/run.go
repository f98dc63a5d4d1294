package layout

import (
	"fmt"

	"github.com/ByLCY/folio/internal/wrap"
)

// DefaultFontSize 是未指定字号时使用的大小（pt）。
const DefaultFontSize = 12.0

// autoEpsilon 加在自动尺寸上，避免取整误差导致最后一个字被挤到下一行。
const autoEpsilon = 0.01

// TextRun 是一段样式统一的行内文本。
type TextRun struct {
	Text    string
	Font    Font
	Color   Color
	Fill    *Color
	Align   Align
	Padding Padding
}

// NewTextRun returns a left-aligned run in the default font size.
func NewTextRun(text string) *TextRun {
	return &TextRun{
		Text:  text,
		Font:  Font{Size: DefaultFontSize},
		Align: AlignLeft,
	}
}

func (r *TextRun) validate() error {
	if r.Font.Size <= 0 {
		return fmt.Errorf("文本片段 %q: %w", abbreviate(r.Text), ErrInvalidFont)
	}
	return nil
}

// MeasureWidth 返回整段文本单行排布时的宽度，含左右内边距。
func (r *TextRun) MeasureWidth(c Canvas) (float64, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	return c.TextWidth(r.Text, r.Font) + r.Padding.Left + r.Padding.Right + autoEpsilon, nil
}

// LineHeight is the font size times the canvas cell height ratio.
func (r *TextRun) LineHeight(c Canvas) float64 {
	return c.FontSize(r.Font) * c.CellHeightRatio()
}

// BaselineOffset 返回行顶到基线的距离：字形高度在行高内居中，再加上 ascent。
func (r *TextRun) BaselineOffset(c Canvas) float64 {
	ascent, descent := c.Ascent(r.Font), c.Descent(r.Font)
	return (r.LineHeight(c)-(ascent+descent))/2 + ascent
}

// DrawLine 在 (x, y) 写出一行。pending 为 nil 时写整段文本，否则写上一次返回的剩余部分。
// 返回值去掉了开头的一个换行符和空格；为空表示已写完。
func (r *TextRun) DrawLine(c Canvas, x, y float64, pending *string) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	text := r.Text
	if pending != nil {
		text = *pending
	}
	c.SetXY(x, y)
	rest := c.WriteLine(text, WriteOptions{
		Font:    r.Font,
		Color:   r.Color,
		Fill:    r.Fill,
		Align:   r.Align,
		Padding: r.Padding,
	})
	return wrap.Advance(rest), nil
}

// Clone returns an independent copy.
func (r *TextRun) Clone() *TextRun {
	cp := *r
	cp.Fill = cloneColor(r.Fill)
	return &cp
}

func cloneColor(c *Color) *Color {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func abbreviate(s string) string {
	const limit = 24
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
