package layout

import "fmt"

// Box 是带样式的矩形容器，内容为文本、图片或 FlowBlock 三者之一。
//
// 通过 SetWidth/SetHeight 设置的是“请求尺寸”（内容自身坐标系下的宽高）；
// Width/Height 返回“有效尺寸”（页面坐标系），在旋转 90°/270° 时两者互换。
type Box struct {
	Text        string
	Font        Font
	Color       Color
	Fill        *Color
	Border      Border
	BorderStyle LineStyle
	Padding     Padding
	Align       Align
	VAlign      VAlign
	// Ln 控制绘制后的光标：0 右侧，1 下一行行首，2 正下方。
	Ln      int
	FitCell bool

	// Image 非空时在单元格内居中绘制图片，ImagePadX/ImagePadY 为图片与边框的间距。
	Image     *Image
	ImagePadX float64
	ImagePadY float64
	// Flow 非空时以段落方式排布内容，忽略 Text。
	Flow *FlowBlock

	rotation   int
	reqW, reqH float64
}

// NewBox returns a box with text in the default font, top-left aligned, breaking to the next line after drawing.
func NewBox(text string) *Box {
	return &Box{
		Text:   text,
		Font:   Font{Size: DefaultFontSize},
		Align:  AlignLeft,
		VAlign: VAlignTop,
		Ln:     1,
	}
}

// Rotation returns the number of quarter turns, counter-clockwise as seen on the page.
func (b *Box) Rotation() int { return b.rotation }

// SetRotation 只接受 0..3。
func (b *Box) SetRotation(r int) error {
	if r < 0 || r > 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidRotation, r)
	}
	b.rotation = r
	return nil
}

// Vertical reports a quarter-turn rotation (90° or 270°).
func (b *Box) Vertical() bool { return b.rotation%2 == 1 }

func (b *Box) SetWidth(w float64)       { b.reqW = w }
func (b *Box) SetHeight(h float64)      { b.reqH = h }
func (b *Box) RequestedWidth() float64  { return b.reqW }
func (b *Box) RequestedHeight() float64 { return b.reqH }

// Width 返回有效宽度。
func (b *Box) Width() float64 {
	if b.Vertical() {
		return b.reqH
	}
	return b.reqW
}

// Height 返回有效高度。
func (b *Box) Height() float64 {
	if b.Vertical() {
		return b.reqW
	}
	return b.reqH
}

// TranslatedBorder returns the border remapped for the current rotation.
func (b *Box) TranslatedBorder() Border { return b.Border.Rotate(b.rotation) }

// TranslatedPadding returns the padding remapped for the current rotation.
func (b *Box) TranslatedPadding() Padding { return b.Padding.Rotate(b.rotation) }

// AutoWidth 为内容单行宽度加左右内边距与 0.01。
func (b *Box) AutoWidth(c Canvas) (float64, error) {
	pad := b.TranslatedPadding()
	switch {
	case b.Image != nil:
		return b.Image.Width() + 2*b.ImagePadX + autoEpsilon, nil
	case b.Flow != nil:
		w, err := b.Flow.AutoWidth(c)
		if err != nil {
			return 0, err
		}
		return w + pad.Left + pad.Right + autoEpsilon, nil
	}
	if b.Font.Size <= 0 {
		return 0, fmt.Errorf("单元格 %q: %w", abbreviate(b.Text), ErrInvalidFont)
	}
	return c.TextWidth(b.Text, b.Font) + pad.Left + pad.Right + autoEpsilon, nil
}

// AutoHeight 在 0°/180° 时按请求宽度计算折行高度；90°/270° 时直接取 AutoWidth。
func (b *Box) AutoHeight(c Canvas) (float64, error) {
	if b.Vertical() {
		return b.AutoWidth(c)
	}
	pad := b.TranslatedPadding()
	switch {
	case b.Image != nil:
		fit := &Image{info: b.Image.info}
		if inner := b.reqW - 2*b.ImagePadX; inner > 0 {
			fit.w = inner
		}
		return fit.Height() + 2*b.ImagePadY + autoEpsilon, nil
	case b.Flow != nil:
		if err := b.sizeFlow(pad); err != nil {
			return 0, err
		}
		h, err := b.Flow.AutoHeight(c)
		if err != nil {
			return 0, err
		}
		return h + pad.Top + pad.Bottom, nil
	}
	if b.reqW <= 0 {
		return 0, fmt.Errorf("单元格 %q: %w", abbreviate(b.Text), ErrWidthRequired)
	}
	if b.Font.Size <= 0 {
		return 0, fmt.Errorf("单元格 %q: %w", abbreviate(b.Text), ErrInvalidFont)
	}
	return c.TextHeight(b.reqW, b.Text, b.Font, pad) + autoEpsilon, nil
}

func (b *Box) sizeFlow(pad Padding) error {
	inner := b.reqW - pad.Left - pad.Right
	if inner <= 0 {
		return ErrWidthRequired
	}
	b.Flow.SetWidth(inner)
	return nil
}

// SetWidthToAuto sets the requested width from AutoWidth.
func (b *Box) SetWidthToAuto(c Canvas) error {
	w, err := b.AutoWidth(c)
	if err != nil {
		return err
	}
	b.reqW = w
	return nil
}

// SetHeightToAuto sets the requested height from AutoHeight.
func (b *Box) SetHeightToAuto(c Canvas) error {
	h, err := b.AutoHeight(c)
	if err != nil {
		return err
	}
	b.reqH = h
	return nil
}

// DrawAt 在 (x, y) 绘制单元格。高度为 0 时使用自动高度。
// 旋转时以有效尺寸的中心为锚点旋转，绘制结束后光标移到 (x+请求高度, y)。
func (b *Box) DrawAt(c Canvas, x, y float64) error {
	w, h := b.reqW, b.reqH
	if w <= 0 {
		return fmt.Errorf("单元格 %q: %w", abbreviate(b.Text), ErrSizeUnresolved)
	}
	if h <= 0 {
		auto, err := b.AutoHeight(c)
		if err != nil {
			return err
		}
		h = auto
	}
	ew, eh := w, h
	if b.Vertical() {
		ew, eh = h, w
	}

	bx, by := x, y
	if b.rotation != 0 {
		ax, ay := x+ew/2, y+eh/2
		c.StartRotation(float64(b.rotation)*90, ax, ay)
		bx, by = ax-w/2, ay-h/2
	}
	err := b.drawContent(c, bx, by, w, h)
	if b.rotation != 0 {
		c.EndRotation()
		c.SetXY(x+h, y)
	}
	if err != nil {
		return err
	}

	if b.Image != nil {
		fit, ix, iy := b.Image.fitInto(x+b.ImagePadX, y+b.ImagePadY, ew-2*b.ImagePadX, eh-2*b.ImagePadY)
		cx, cy := c.X(), c.Y()
		if err := fit.DrawAt(c, ix, iy); err != nil {
			return err
		}
		c.SetXY(cx, cy)
	}
	return nil
}

func (b *Box) drawContent(c Canvas, x, y, w, h float64) error {
	pad := b.TranslatedPadding()
	spec := BoxSpec{
		X: x, Y: y, W: w, H: h,
		Text:        b.Text,
		Font:        b.Font,
		Color:       b.Color,
		Fill:        b.Fill,
		Border:      b.TranslatedBorder(),
		BorderStyle: b.BorderStyle,
		Padding:     pad,
		Align:       b.Align,
		VAlign:      b.VAlign,
		Ln:          b.Ln,
		MaxHeight:   h,
		FitCell:     b.FitCell,
	}
	if b.Image != nil || b.Flow != nil {
		spec.Text = ""
	}
	c.DrawBox(spec)
	if b.Flow == nil {
		return nil
	}

	cx, cy := c.X(), c.Y()
	if err := b.sizeFlow(pad); err != nil {
		return err
	}
	saved := b.Flow.Height()
	b.Flow.SetHeight(h - pad.Top - pad.Bottom)
	err := b.Flow.DrawAt(c, x+pad.Left, y+pad.Top)
	b.Flow.SetHeight(saved)
	c.SetXY(cx, cy)
	return err
}

// Draw draws the box at the cursor.
func (b *Box) Draw(c Canvas) error { return b.DrawAt(c, c.X(), c.Y()) }

// Clone deep-copies the box including image and flow content.
func (b *Box) Clone() Node {
	cp := *b
	cp.Fill = cloneColor(b.Fill)
	cp.Border = b.Border.clone()
	if b.Image != nil {
		cp.Image = b.Image.Clone().(*Image)
	}
	if b.Flow != nil {
		cp.Flow = b.Flow.Clone().(*FlowBlock)
	}
	return &cp
}
