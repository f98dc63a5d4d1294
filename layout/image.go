package layout

import "fmt"

// Image 是一张保持宽高比缩放的图片。
type Image struct {
	Src string
	// ScalerWidth/ScalerHeight 为外框约束，0 表示不约束。
	ScalerWidth  float64
	ScalerHeight float64
	Border       Border
	BorderStyle  LineStyle

	w, h float64 // 期望尺寸，0 表示按原始比例推算
	info ImageInfo
}

// NewImage 探测 src 的原始尺寸。文件不存在返回 ErrMissingResource，无法解码返回 ErrNotImage。
func NewImage(c Canvas, src string) (*Image, error) {
	info, err := c.ProbeImage(src)
	if err != nil {
		return nil, fmt.Errorf("图片 %s: %w", src, err)
	}
	return &Image{Src: src, info: info}, nil
}

// Natural returns the probed size of the source.
func (im *Image) Natural() ImageInfo { return im.info }

func (im *Image) SetWidth(w float64)  { im.w = w }
func (im *Image) SetHeight(h float64) { im.h = h }

// ScaledSize 根据期望尺寸与外框约束计算最终尺寸；原始尺寸未知时返回 0, 0。
func (im *Image) ScaledSize() (float64, float64) {
	nw, nh := im.info.Width, im.info.Height
	if nw <= 0 || nh <= 0 {
		return 0, 0
	}
	w, h := im.w, im.h
	switch {
	case w <= 0 && h <= 0:
		w, h = nw, nh
	case h <= 0:
		h = w * nh / nw
	case w <= 0:
		w = h * nw / nh
	}
	ratio := w / h

	sw, sh := im.ScalerWidth, im.ScalerHeight
	switch {
	case sw > 0 && sh > 0:
		if sw/sh > ratio {
			// 外框比图片更宽，以高度为准
			h = sh
			w = h * ratio
		} else {
			w = sw
			h = w / ratio
		}
	case sw > 0:
		w = sw
		h = w / ratio
	case sh > 0:
		h = sh
		w = h * ratio
	}
	return w, h
}

func (im *Image) Width() float64  { w, _ := im.ScaledSize(); return w }
func (im *Image) Height() float64 { _, h := im.ScaledSize(); return h }

func (im *Image) AutoWidth(Canvas) (float64, error)  { return im.Width(), nil }
func (im *Image) AutoHeight(Canvas) (float64, error) { return im.Height(), nil }

// DrawAt 在 (x, y) 绘制图片，光标移到图片右上角。
func (im *Image) DrawAt(c Canvas, x, y float64) error {
	w, h := im.ScaledSize()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("图片 %s: %w", im.Src, ErrSizeUnresolved)
	}
	spec := ImageSpec{Src: im.Src, X: x, Y: y, W: w, H: h, Border: im.Border, BorderStyle: im.BorderStyle}
	var err error
	if im.info.Vector {
		err = c.DrawVectorImage(spec)
	} else {
		err = c.DrawImage(spec)
	}
	if err != nil {
		return fmt.Errorf("绘制图片 %s 失败: %w", im.Src, err)
	}
	c.SetXY(x+w, y)
	return nil
}

func (im *Image) Draw(c Canvas) error { return im.DrawAt(c, c.X(), c.Y()) }

func (im *Image) Clone() Node {
	cp := *im
	cp.Border = im.Border.clone()
	return &cp
}

// fitInto 在 w×h 的区域内居中放置图片：先按高度缩放，超宽时改按宽度缩放。
func (im *Image) fitInto(x, y, w, h float64) (*Image, float64, float64) {
	fit := &Image{Src: im.Src, info: im.info, Border: im.Border, BorderStyle: im.BorderStyle}
	fit.h = h
	if fit.Width() > w {
		fit.w, fit.h = w, 0
	}
	sw, sh := fit.ScaledSize()
	return fit, x + (w-sw)/2, y + (h-sh)/2
}
