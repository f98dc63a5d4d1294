package layout

import "image"

// Canvas 是布局核心依赖的绘制面。坐标原点在页面左上角，y 向下增长，
// 长度单位由实现决定（内置实现为毫米），字号统一使用 pt。
type Canvas interface {
	X() float64
	Y() float64
	SetXY(x, y float64)

	PageWidth() float64
	PageHeight() float64
	Margins() Margins
	SetMargins(m Margins)
	// RemainingHeight 返回当前光标到分页线（页高减去下边距）的距离。
	RemainingHeight() float64
	// LineBreak 将 x 移到左边距、y 下移 h；h < 0 时使用最近一次绘制单元的高度。
	LineBreak(h float64)

	TextWidth(text string, f Font) float64
	// FontSize converts f.Size to user units.
	FontSize(f Font) float64
	CellHeightRatio() float64
	Ascent(f Font) float64
	Descent(f Font) float64
	// WriteLine 从当前光标开始写入一行，返回未能放下的剩余文本（换行符保留在开头）。
	// 写入后 x 位于该行末尾之后。
	WriteLine(text string, opts WriteOptions) string
	// TextHeight 返回 text 在 width 内折行后的总高度（含上下内边距）。
	TextHeight(width float64, text string, f Font, pad Padding) float64

	DrawBox(spec BoxSpec)
	DrawImage(spec ImageSpec) error
	DrawVectorImage(spec ImageSpec) error
	// DrawBitmap 将内存中的位图缩放到 (x, y, w, h)。
	DrawBitmap(img image.Image, x, y, w, h float64)
	ProbeImage(src string) (ImageInfo, error)

	NewPage()
	// StartRotation 以 (ax, ay) 为中心逆时针旋转 angle 度（页面视角），直到匹配的 EndRotation。
	StartRotation(angle, ax, ay float64)
	EndRotation()
	// Scratch 在可回滚的事务中执行 fn。无论 fn 正常返回、返回错误还是 panic，
	// 其间产生的页面、绘制、光标与边距变化都会被撤销。
	Scratch(fn func() error) error
}

// Color is an 8-bit RGB triple.
type Color struct {
	R int `json:"r" yaml:"r"`
	G int `json:"g" yaml:"g"`
	B int `json:"b" yaml:"b"`
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// Font identifies a face. Style uses the letters B and I ("", "B", "I", "BI").
type Font struct {
	Family string  `json:"family,omitempty"`
	Style  string  `json:"style,omitempty"`
	Size   float64 `json:"size"` // pt
}

// Padding holds the four inner offsets of a cell.
type Padding struct {
	Left   float64 `json:"left,omitempty" yaml:"left"`
	Top    float64 `json:"top,omitempty" yaml:"top"`
	Right  float64 `json:"right,omitempty" yaml:"right"`
	Bottom float64 `json:"bottom,omitempty" yaml:"bottom"`
}

// Uniform returns a padding with all four sides set to v.
func Uniform(v float64) Padding { return Padding{Left: v, Top: v, Right: v, Bottom: v} }

// Margins 描述页面边距；Bottom 同时作为自动分页的触发距离。
type Margins struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Align is a horizontal alignment letter.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// VAlign is a vertical alignment letter.
type VAlign string

const (
	VAlignTop    VAlign = "T"
	VAlignMiddle VAlign = "M"
	VAlignBottom VAlign = "B"
)

// WriteOptions 控制 WriteLine 的单行输出。
type WriteOptions struct {
	Font    Font
	Color   Color
	Fill    *Color // nil 表示不填充
	Align   Align
	Padding Padding
}

// BoxSpec 是 DrawBox 的入参，相当于一个多行文本单元格。
type BoxSpec struct {
	X, Y, W, H  float64
	Text        string
	Font        Font
	Color       Color
	Fill        *Color
	Border      Border // 已按旋转换算过的边框
	BorderStyle LineStyle
	Padding     Padding
	Align       Align
	VAlign      VAlign
	// Ln 控制绘制后的光标：0 右侧，1 下一行行首，2 单元格正下方。
	Ln int
	// MaxHeight > 0 时截断超出高度的行。
	MaxHeight float64
	// FitCell 为真时缩小字号直到文本放进单元格。
	FitCell bool
}

// ImageSpec describes an image placement in user units.
type ImageSpec struct {
	Src         string
	X, Y, W, H  float64
	Border      Border
	BorderStyle LineStyle
}

// ImageInfo reports the natural size of an image source in user units.
type ImageInfo struct {
	Width  float64
	Height float64
	Vector bool
}
