package chart

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/ByLCY/folio/layout"
)

// Rasterizer 将饼图扇区绘制为正方形位图。values 已去掉非正值，与 colors 一一对应。
type Rasterizer interface {
	Rasterize(values []float64, colors []layout.Color, sizePx int) (image.Image, error)
}

// GGRasterizer draws wedges with fogleman/gg on a transparent background.
type GGRasterizer struct {
	// StartAngle 为第一个扇区的起始角（度），0 指向右方，顺时针增长。
	StartAngle float64
}

// DefaultStartAngle 让第一个扇区从正上方开始。
const DefaultStartAngle = -90.0

func (g GGRasterizer) Rasterize(values []float64, colors []layout.Color, sizePx int) (image.Image, error) {
	dc := gg.NewContext(sizePx, sizePx)
	var total float64
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return dc.Image(), nil
	}
	c := float64(sizePx) / 2
	angle := gg.Radians(g.StartAngle)
	for i, v := range values {
		sweep := v / total * 2 * math.Pi
		dc.MoveTo(c, c)
		dc.DrawArc(c, c, c, angle, angle+sweep)
		dc.ClosePath()
		col := colors[i%len(colors)]
		dc.SetRGB255(col.R, col.G, col.B)
		dc.Fill()
		angle += sweep
	}
	return dc.Image(), nil
}
