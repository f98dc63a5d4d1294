package canvasrenderer

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/ByLCY/folio/internal/logging"
	"github.com/ByLCY/folio/internal/wrap"
	"github.com/ByLCY/folio/layout"
)

const (
	cursorEpsilon = 1e-6
	// DefaultCellHeightRatio 为行高与字号之比。
	DefaultCellHeightRatio = 1.25
	defaultLineWidth       = 0.2
	minFitFontSize         = 1.0
)

// OpKind 标识显示列表中的绘制指令。
type OpKind int

const (
	OpText OpKind = iota
	OpRect
	OpLine
	OpImage
	OpRotate
	OpRestore
)

// Op 是一条绘制指令。文本的 Y 为基线位置；旋转以 (X, Y) 为中心。
type Op struct {
	Kind   OpKind
	X, Y   float64
	W, H   float64
	X2, Y2 float64
	Angle  float64
	Text   string
	Font   layout.Font
	Color  layout.Color
	Fill   *layout.Color
	Stroke *layout.LineStyle
	Image  image.Image
}

type page struct {
	ops []Op
}

// Surface 是 layout.Canvas 的内置实现：绘制结果先记录为每页的显示列表，
// 最后由 PDF 一次性回放。单位为毫米。
type Surface struct {
	width, height float64
	margins       layout.Margins
	ratio         float64

	x, y  float64
	lastH float64
	pages []*page
	depth int // 未闭合的旋转层数

	metrics Metrics
	fonts   *FontSet
	images  *imageStore
}

var _ layout.Canvas = (*Surface)(nil)

// SurfaceOptions 配置 Surface。
type SurfaceOptions struct {
	Width, Height   float64
	Margins         layout.Margins
	CellHeightRatio float64
	// Metrics 为空时使用字体文件度量。
	Metrics Metrics
	BaseDir string
	Fonts   map[string]Resource
	Images  map[string]Resource
}

// NewSurface 创建只有一页的空白画布，光标位于左上边距处。
func NewSurface(opts SurfaceOptions) (*Surface, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("无效的页面尺寸 %gx%g", opts.Width, opts.Height)
	}
	fs, err := NewFontSet(opts.BaseDir, opts.Fonts)
	if err != nil {
		return nil, err
	}
	imgs, err := newImageStore(opts.BaseDir, opts.Images)
	if err != nil {
		return nil, err
	}
	s := &Surface{
		width:   opts.Width,
		height:  opts.Height,
		margins: opts.Margins,
		ratio:   opts.CellHeightRatio,
		metrics: opts.Metrics,
		fonts:   fs,
		images:  imgs,
	}
	if s.ratio <= 0 {
		s.ratio = DefaultCellHeightRatio
	}
	if s.metrics == nil {
		s.metrics = fs
	}
	s.NewPage()
	return s, nil
}

func (s *Surface) X() float64         { return s.x }
func (s *Surface) Y() float64         { return s.y }
func (s *Surface) SetXY(x, y float64) { s.x, s.y = x, y }

func (s *Surface) PageWidth() float64          { return s.width }
func (s *Surface) PageHeight() float64         { return s.height }
func (s *Surface) Margins() layout.Margins     { return s.margins }
func (s *Surface) SetMargins(m layout.Margins) { s.margins = m }
func (s *Surface) CellHeightRatio() float64    { return s.ratio }

func (s *Surface) RemainingHeight() float64 {
	return s.height - s.margins.Bottom - s.y
}

func (s *Surface) LineBreak(h float64) {
	if h < 0 {
		h = s.lastH
	}
	s.x = s.margins.Left
	s.y += h
}

// PageCount returns the number of pages started so far.
func (s *Surface) PageCount() int { return len(s.pages) }

// Ops 返回第 i 页（从 0 开始）的绘制指令副本。
func (s *Surface) Ops(i int) []Op {
	if i < 0 || i >= len(s.pages) {
		return nil
	}
	return append([]Op(nil), s.pages[i].ops...)
}

func (s *Surface) emit(op Op) {
	p := s.pages[len(s.pages)-1]
	p.ops = append(p.ops, op)
}

// NewPage 开始新页，光标回到左上边距。未闭合的旋转在旧页上闭合。
func (s *Surface) NewPage() {
	for ; s.depth > 0; s.depth-- {
		s.emit(Op{Kind: OpRestore})
	}
	s.pages = append(s.pages, &page{})
	s.x, s.y = s.margins.Left, s.margins.Top
}

func (s *Surface) StartRotation(angle, ax, ay float64) {
	s.depth++
	s.emit(Op{Kind: OpRotate, Angle: angle, X: ax, Y: ay})
}

func (s *Surface) EndRotation() {
	if s.depth == 0 {
		return
	}
	s.depth--
	s.emit(Op{Kind: OpRestore})
}

// Scratch 记录当前状态，fn 结束后（包括 panic）全部回滚。
func (s *Surface) Scratch(fn func() error) error {
	pageCount := len(s.pages)
	opCount := len(s.pages[pageCount-1].ops)
	x, y, lastH, depth, margins := s.x, s.y, s.lastH, s.depth, s.margins
	defer func() {
		s.pages = s.pages[:pageCount]
		last := s.pages[pageCount-1]
		last.ops = last.ops[:opCount]
		s.x, s.y, s.lastH, s.depth, s.margins = x, y, lastH, depth, margins
	}()
	return fn()
}

func (s *Surface) TextWidth(text string, f layout.Font) float64 {
	return s.metrics.TextWidth(text, f)
}

func (s *Surface) FontSize(f layout.Font) float64 { return toMm(fontSize(f)) }
func (s *Surface) Ascent(f layout.Font) float64   { return s.metrics.Ascent(f) }
func (s *Surface) Descent(f layout.Font) float64  { return s.metrics.Descent(f) }

func (s *Surface) lineHeight(f layout.Font) float64 { return s.FontSize(f) * s.ratio }

// baseline 返回行顶到基线的距离，字形在行高内垂直居中。
func (s *Surface) baseline(f layout.Font) float64 {
	a, d := s.metrics.Ascent(f), s.metrics.Descent(f)
	return (s.lineHeight(f)-(a+d))/2 + a
}

// WriteLine 在光标处写出一行，放不下的部分原样返回。光标位于行首时，
// 非左对齐的片段在整行宽度内对齐，写完后光标移到行尾。
func (s *Surface) WriteLine(text string, opts layout.WriteOptions) string {
	pad := opts.Padding
	limit := s.width - s.margins.Right
	full := limit - s.margins.Left - pad.Left - pad.Right
	avail := limit - s.x - pad.Left - pad.Right
	atStart := s.x <= s.margins.Left+cursorEpsilon
	measure := func(str string) float64 { return s.metrics.TextWidth(str, opts.Font) }

	line, rest := wrap.FitLine(text, avail, full, atStart, measure)
	if line == "" && rest == text && text != "" && rest[0] != '\n' {
		return rest
	}

	h := s.lineHeight(opts.Font) + pad.Top + pad.Bottom
	w := measure(line) + pad.Left + pad.Right
	x := s.x
	end := x + w
	if atStart && rest == "" {
		switch opts.Align {
		case layout.AlignCenter:
			x += (limit - s.x - w) / 2
			end = limit
		case layout.AlignRight:
			x = limit - w
			end = limit
		}
	}
	if opts.Fill != nil {
		fill := *opts.Fill
		s.emit(Op{Kind: OpRect, X: x, Y: s.y, W: w, H: h, Fill: &fill})
	}
	if line != "" {
		s.emit(Op{
			Kind:  OpText,
			X:     x + pad.Left,
			Y:     s.y + pad.Top + s.baseline(opts.Font),
			Text:  line,
			Font:  opts.Font,
			Color: opts.Color,
		})
	}
	s.x = end
	s.lastH = h
	return rest
}

func (s *Surface) TextHeight(width float64, text string, f layout.Font, pad layout.Padding) float64 {
	lines := s.wrapLines(text, width-pad.Left-pad.Right, f)
	return float64(len(lines))*s.lineHeight(f) + pad.Top + pad.Bottom
}

func (s *Surface) wrapLines(text string, width float64, f layout.Font) []string {
	return wrap.Lines(text, width, func(str string) float64 { return s.metrics.TextWidth(str, f) })
}

// DrawBox 绘制多行文本单元格：填充、边框、按对齐方式排布的文本，最后按 Ln 移动光标。
func (s *Surface) DrawBox(spec layout.BoxSpec) {
	x, y, w, h := spec.X, spec.Y, spec.W, spec.H
	if w <= 0 {
		w = s.width - s.margins.Right - x
	}
	pad := spec.Padding
	f := spec.Font
	if f.Size <= 0 {
		f.Size = layout.DefaultFontSize
	}
	if spec.FitCell && h > 0 {
		f = s.fitFont(spec.Text, w, h, f, pad)
	}

	lines := s.wrapLines(spec.Text, w-pad.Left-pad.Right, f)
	lh := s.lineHeight(f)
	if h <= 0 {
		h = float64(len(lines))*lh + pad.Top + pad.Bottom
	}
	if limit := spec.MaxHeight; limit > 0 {
		fit := int(math.Floor((limit - pad.Top - pad.Bottom + cursorEpsilon) / lh))
		fit = max(fit, 0)
		if fit < len(lines) {
			logging.Logger().Debug("box text truncated",
				slog.Int("lines", len(lines)),
				slog.Int("kept", fit))
			lines = lines[:fit]
		}
	}

	if spec.Fill != nil {
		fill := *spec.Fill
		s.emit(Op{Kind: OpRect, X: x, Y: y, W: w, H: h, Fill: &fill})
	}
	s.drawBorder(x, y, w, h, spec.Border, spec.BorderStyle)

	textH := float64(len(lines)) * lh
	top := y + pad.Top
	switch spec.VAlign {
	case layout.VAlignMiddle:
		top = y + (h-textH)/2
	case layout.VAlignBottom:
		top = y + h - pad.Bottom - textH
	}
	inner := w - pad.Left - pad.Right
	base := s.baseline(f)
	for i, line := range lines {
		if line == "" {
			continue
		}
		lx := x + pad.Left
		lw := s.metrics.TextWidth(line, f)
		switch spec.Align {
		case layout.AlignCenter:
			lx += (inner - lw) / 2
		case layout.AlignRight:
			lx += inner - lw
		}
		s.emit(Op{Kind: OpText, X: lx, Y: top + float64(i)*lh + base, Text: line, Font: f, Color: spec.Color})
	}

	s.lastH = h
	switch spec.Ln {
	case 0:
		s.x, s.y = x+w, y
	case 2:
		s.x, s.y = x, y+h
	default:
		s.x, s.y = s.margins.Left, y+h
	}
}

// fitFont 以 0.5pt 为步长缩小字号，直到文本高度不超过 h。
func (s *Surface) fitFont(text string, w, h float64, f layout.Font, pad layout.Padding) layout.Font {
	for f.Size > minFitFontSize && s.TextHeight(w, text, f, pad) > h {
		f.Size -= 0.5
	}
	return f
}

func (s *Surface) drawBorder(x, y, w, h float64, b layout.Border, def layout.LineStyle) {
	if b.IsZero() {
		return
	}
	if def.Width <= 0 {
		def.Width = defaultLineWidth
	}
	edges := b.Edges(def)
	for _, side := range []byte("TRBL") {
		style, ok := edges[side]
		if !ok {
			continue
		}
		if style.Width <= 0 {
			style.Width = defaultLineWidth
		}
		op := Op{Kind: OpLine, Stroke: &style}
		switch side {
		case 'T':
			op.X, op.Y, op.X2, op.Y2 = x, y, x+w, y
		case 'R':
			op.X, op.Y, op.X2, op.Y2 = x+w, y, x+w, y+h
		case 'B':
			op.X, op.Y, op.X2, op.Y2 = x, y+h, x+w, y+h
		case 'L':
			op.X, op.Y, op.X2, op.Y2 = x, y, x, y+h
		}
		s.emit(op)
	}
}

func (s *Surface) ProbeImage(src string) (layout.ImageInfo, error) {
	img, err := s.images.load(src)
	if err != nil {
		return layout.ImageInfo{}, err
	}
	return img.info, nil
}

func (s *Surface) DrawImage(spec layout.ImageSpec) error {
	img, err := s.images.load(spec.Src)
	if err != nil {
		return err
	}
	s.placeImage(spec, img.raster)
	return nil
}

// DrawVectorImage 将 SVG 按目标尺寸光栅化后放置。
func (s *Surface) DrawVectorImage(spec layout.ImageSpec) error {
	img, err := s.images.load(spec.Src)
	if err != nil {
		return err
	}
	s.placeImage(spec, img.rasterize(spec.W, spec.H))
	return nil
}

func (s *Surface) DrawBitmap(img image.Image, x, y, w, h float64) {
	s.placeImage(layout.ImageSpec{X: x, Y: y, W: w, H: h}, img)
}

func (s *Surface) placeImage(spec layout.ImageSpec, img image.Image) {
	s.emit(Op{Kind: OpImage, X: spec.X, Y: spec.Y, W: spec.W, H: spec.H, Text: spec.Src, Image: img})
	s.drawBorder(spec.X, spec.Y, spec.W, spec.H, spec.Border, spec.BorderStyle)
	s.lastH = spec.H
}
