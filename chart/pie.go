// Package chart 提供可放入布局树的饼图节点。
package chart

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/ByLCY/folio/internal/logging"
	"github.com/ByLCY/folio/layout"
)

// 图例尺寸（毫米）。
const (
	legendPctWidth   = 11.43
	legendLabelWidth = 38.1
	legendRowHeight  = 15.24
	legendSpacing    = 5.08
	legendPctPad     = 2.54
	legendLabelPad   = 2.032
	legendGap        = 5.08
	pctFontSize      = 10
	labelFontSize    = 9
	emptyFontSize    = 8
	rasterDPMM       = 8
)

// EmptyMessage is drawn when no wedge has a positive value.
const EmptyMessage = "No data to display"

var emptyColor = layout.Color{R: 239, G: 55, B: 58}

// DefaultPalette 为未指定颜色时使用的扇区颜色。
var DefaultPalette = []layout.Color{
	{R: 0, G: 152, B: 206},
	{R: 60, G: 185, B: 46},
	{R: 255, G: 108, B: 12},
	{R: 89, G: 81, B: 148},
	{R: 207, G: 208, B: 209},
	{R: 204, G: 51, B: 204},
}

// Wedge 是一个带标签的数据项。
type Wedge struct {
	Label string
	Value float64
}

// FixValuesAndColors 去掉非正值，并按原始下标 i 取 colors[i % len(colors)] 作为对应颜色。
func FixValuesAndColors(values []float64, colors []layout.Color) ([]float64, []layout.Color) {
	if len(colors) == 0 {
		colors = DefaultPalette
	}
	var outV []float64
	var outC []layout.Color
	for i, v := range values {
		if v <= 0 {
			continue
		}
		outV = append(outV, v)
		outC = append(outC, colors[i%len(colors)])
	}
	return outV, outC
}

// PieChart 绘制左侧图例与右侧饼图。Diameter 为饼图直径。
type PieChart struct {
	Wedges     []Wedge
	Colors     []layout.Color
	Diameter   float64
	Legend     bool
	Rasterizer Rasterizer
	FontFamily string
}

// NewPieChart returns a chart with a legend, the default palette and the gg rasterizer.
func NewPieChart(diameter float64, wedges ...Wedge) *PieChart {
	return &PieChart{
		Wedges:     wedges,
		Diameter:   diameter,
		Legend:     true,
		Rasterizer: GGRasterizer{StartAngle: DefaultStartAngle},
	}
}

func (p *PieChart) values() []float64 {
	out := make([]float64, len(p.Wedges))
	for i, w := range p.Wedges {
		out[i] = w.Value
	}
	return out
}

func (p *PieChart) legendWidth() float64 {
	if !p.Legend {
		return 0
	}
	return legendPctWidth + legendLabelWidth + legendGap
}

func (p *PieChart) legendHeight() float64 {
	if !p.Legend {
		return 0
	}
	n := len(p.Wedges)
	if n == 0 {
		return 0
	}
	return float64(n)*legendRowHeight + float64(n-1)*legendSpacing
}

func (p *PieChart) Width() float64  { return p.legendWidth() + p.Diameter }
func (p *PieChart) Height() float64 { return max(p.Diameter, p.legendHeight()) }

func (p *PieChart) AutoWidth(layout.Canvas) (float64, error)  { return p.Width(), nil }
func (p *PieChart) AutoHeight(layout.Canvas) (float64, error) { return p.Height(), nil }

// SetWidth 调整直径，使总宽度等于 w。
func (p *PieChart) SetWidth(w float64) { p.Diameter = max(0, w-p.legendWidth()) }

// Percentages 返回每个正值扇区占比的整数百分比。
func (p *PieChart) Percentages() []int {
	values, _ := FixValuesAndColors(p.values(), p.Colors)
	var total float64
	for _, v := range values {
		total += v
	}
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(math.Round(v / total * 100))
	}
	return out
}

func (p *PieChart) Draw(c layout.Canvas) error { return p.DrawAt(c, c.X(), c.Y()) }

// DrawAt 在 (x, y) 绘制图表，结束后光标位于 (x, y+高度)。
func (p *PieChart) DrawAt(c layout.Canvas, x, y float64) error {
	values, colors := FixValuesAndColors(p.values(), p.Colors)
	if len(values) == 0 {
		logging.Logger().Debug("pie chart empty", slog.Int("wedges", len(p.Wedges)))
		msg := layout.NewBox(EmptyMessage)
		msg.Font = layout.Font{Family: p.FontFamily, Size: emptyFontSize}
		msg.Color = emptyColor
		msg.SetWidth(max(p.Width(), c.TextWidth(EmptyMessage, msg.Font)+1))
		if err := msg.DrawAt(c, x, y); err != nil {
			return err
		}
		c.SetXY(x, c.Y())
		return nil
	}
	if p.Legend {
		if err := p.drawLegend(c, x, y); err != nil {
			return err
		}
	}
	if p.Diameter > 0 {
		r := p.Rasterizer
		if r == nil {
			r = GGRasterizer{StartAngle: DefaultStartAngle}
		}
		px := max(1, int(math.Ceil(p.Diameter*rasterDPMM)))
		img, err := r.Rasterize(values, colors, px)
		if err != nil {
			return fmt.Errorf("绘制饼图失败: %w", err)
		}
		c.DrawBitmap(img, x+p.legendWidth(), y, p.Diameter, p.Diameter)
	}
	c.SetXY(x, y+p.Height())
	return nil
}

// drawLegend 为每个扇区（包括非正值）画一行：原始数值加 "%"，颜色按原始下标取自调色板。
func (p *PieChart) drawLegend(c layout.Canvas, x, y float64) error {
	palette := p.Colors
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	for row, w := range p.Wedges {
		top := y + float64(row)*(legendRowHeight+legendSpacing)
		fill := palette[row%len(palette)]

		pct := layout.NewBox(strconv.FormatFloat(w.Value, 'f', -1, 64) + "%")
		pct.Font = layout.Font{Family: p.FontFamily, Size: pctFontSize}
		pct.Color = layout.White
		pct.Fill = &fill
		pct.Padding = layout.Padding{Left: legendPctPad}
		pct.VAlign = layout.VAlignMiddle
		pct.Ln = 0
		pct.SetWidth(legendPctWidth)
		pct.SetHeight(legendRowHeight)
		if err := pct.DrawAt(c, x, top); err != nil {
			return err
		}

		label := layout.NewBox(w.Label)
		label.Font = layout.Font{Family: p.FontFamily, Size: labelFontSize}
		label.Padding = layout.Padding{Left: legendLabelPad}
		label.VAlign = layout.VAlignMiddle
		label.Ln = 0
		label.SetWidth(legendLabelWidth)
		label.SetHeight(legendRowHeight)
		if err := label.DrawAt(c, x+legendPctWidth, top); err != nil {
			return err
		}
	}
	return nil
}

// Clone copies the chart; the rasterizer is shared.
func (p *PieChart) Clone() layout.Node {
	cp := *p
	cp.Wedges = append([]Wedge(nil), p.Wedges...)
	cp.Colors = append([]layout.Color(nil), p.Colors...)
	return &cp
}
