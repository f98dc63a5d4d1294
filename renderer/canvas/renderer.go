package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/folio/internal/logging"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
)

// Renderer 在 Surface 上排版文档并输出 PDF。
type Renderer struct {
	opts Options
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	BaseDir         string
	Fonts           map[string]Resource // 键为字体族名，可带 ":B" 等样式后缀
	Images          map[string]Resource // 通过 built-in:<name> 访问
	CellHeightRatio float64
	Metrics         Metrics
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources.
func NewRendererWithOptions(opts Options) *Renderer { return &Renderer{opts: opts} }

// NewSurface 按文档的页面设置创建画布。
func (r *Renderer) NewSurface(page layout.PageSpec) (*Surface, error) {
	return NewSurface(SurfaceOptions{
		Width:           page.Width,
		Height:          page.Height,
		Margins:         page.Margins,
		CellHeightRatio: r.opts.CellHeightRatio,
		Metrics:         r.opts.Metrics,
		BaseDir:         r.opts.BaseDir,
		Fonts:           r.opts.Fonts,
		Images:          r.opts.Images,
	})
}

// Render 排版文档并返回 PDF 字节。
func (r *Renderer) Render(doc *layout.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	s, err := r.NewSurface(doc.Page)
	if err != nil {
		return nil, err
	}
	if err := doc.Draw(s); err != nil {
		return nil, fmt.Errorf("排版失败: %w", err)
	}
	logging.Logger().Info("document laid out", slog.Int("pages", s.PageCount()))
	return s.PDF(doc.Meta)
}

// PDF 将显示列表回放为 PDF。
func (s *Surface) PDF(meta layout.DocumentMeta) ([]byte, error) {
	var buf bytes.Buffer
	writer := pdf.New(&buf, s.width, s.height, nil)
	applyMeta(writer, meta)
	for i, p := range s.pages {
		if i > 0 {
			writer.NewPage(s.width, s.height)
		}
		c := canvas.New(s.width, s.height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := s.replay(ctx, p); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (s *Surface) replay(ctx *canvas.Context, p *page) error {
	for _, op := range p.ops {
		switch op.Kind {
		case OpText:
			face, err := s.fonts.face(op.Font, op.Color)
			if err != nil {
				return err
			}
			ctx.DrawText(op.X, op.Y, canvas.NewTextLine(face, op.Text, canvas.Left))
		case OpRect:
			ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
			ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
			if op.Fill != nil {
				ctx.SetFillColor(colorFromLayout(*op.Fill))
			}
			if op.Stroke != nil {
				ctx.SetStrokeColor(colorFromLayout(op.Stroke.Color))
				ctx.SetStrokeWidth(op.Stroke.Width)
			}
			ctx.DrawPath(op.X, op.Y, canvas.Rectangle(op.W, op.H))
		case OpLine:
			ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
			ctx.SetStrokeColor(colorFromLayout(op.Stroke.Color))
			ctx.SetStrokeWidth(op.Stroke.Width)
			path := &canvas.Path{}
			path.MoveTo(0, 0)
			path.LineTo(op.X2-op.X, op.Y2-op.Y)
			ctx.DrawPath(op.X, op.Y, path)
		case OpImage:
			if op.Image == nil || op.W <= 0 {
				continue
			}
			dpmm := float64(op.Image.Bounds().Dx()) / op.W
			if dpmm <= 0 {
				dpmm = 1
			}
			ctx.DrawImage(op.X, op.Y, op.Image, canvas.DPMM(dpmm))
		case OpRotate:
			ctx.Push()
			// CartesianIV 下 y 轴向下，取反后在页面上呈逆时针。
			ctx.RotateAbout(-op.Angle, op.X, op.Y)
		case OpRestore:
			ctx.Pop()
		}
	}
	return nil
}
