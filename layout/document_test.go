package layout_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/folio/layout"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

func TestTwoBoxesShareRowHeight(t *testing.T) {
	s := newSurface(t, 215.9, 279.4, layout.Margins{Left: 12.7, Top: 25.4, Right: 12.7, Bottom: 25.4})
	width := layout.Length{Value: 3.75, Unit: layout.UnitIN}.ToMM()
	left := sizedBox("Short caption.", width, 0)
	right := sizedBox(strings.Repeat("A longer explanation that needs several lines. ", 4), width, 0)

	lh, err := left.AutoHeight(s)
	require.NoError(t, err)
	rh, err := right.AutoHeight(s)
	require.NoError(t, err)
	require.Greater(t, rh, lh)

	row := layout.NewBoxRow(left, right)
	require.NoError(t, row.SetHeightToAuto(s))
	assert.Equal(t, left.Height(), right.Height())
	assert.InDelta(t, rh, left.Height(), eps)

	s.SetXY(12.7, 25.4)
	require.NoError(t, row.Draw(s))

	text := opsOfKind(s.Ops(0), canvasrenderer.OpText)
	require.NotEmpty(t, text)
	assert.InDelta(t, 12.7, text[0].X, eps)
	var second []canvasrenderer.Op
	for _, op := range text {
		if op.X > 12.7+eps {
			second = append(second, op)
		}
	}
	require.NotEmpty(t, second)
	assert.InDelta(t, 12.7+width, second[0].X, eps)
	assert.InDelta(t, 25.4+rh, s.Y(), eps)
	assert.InDelta(t, 12.7, s.X(), eps)
}

func TestDocumentBreaksBetweenBlocks(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10})
	doc := &layout.Document{
		Spacing: 2,
		Blocks: []layout.Node{
			sizedBox("a", 80, 30),
			sizedBox("b", 80, 30),
			&layout.Spacer{H: 1},
			sizedBox("c", 80, 30),
		},
	}
	require.NoError(t, doc.Draw(s))
	assert.Equal(t, 2, s.PageCount())

	first := opsOfKind(s.Ops(0), canvasrenderer.OpText)
	require.Len(t, first, 2)
	second := opsOfKind(s.Ops(1), canvasrenderer.OpText)
	require.Len(t, second, 1)
	assert.Equal(t, "c", second[0].Text)
	// 新页从上边距开始
	assert.InDelta(t, 10+30+2, s.Y(), eps)
}

func TestDocumentKeepsTallBlockOnFreshPage(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10})
	doc := &layout.Document{Blocks: []layout.Node{sizedBox("tall", 80, 150)}}
	require.NoError(t, doc.Draw(s))
	assert.Equal(t, 1, s.PageCount())
}

func TestGroupStopsWhenHeightIsUsed(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{})
	g := &layout.BoxGroup{
		W: 30, H: 14, Spacing: 2,
		Items: []layout.BoxConfig{{Text: "a"}, {Text: "b"}, {Text: "c"}},
	}
	require.NoError(t, g.DrawAt(s, 5, 5))
	assert.Len(t, opsOfKind(s.Ops(0), canvasrenderer.OpText), 2)
	assert.InDelta(t, 35, s.X(), eps)
	assert.InDelta(t, 5, s.Y(), eps)

	h, err := g.AutoHeight(s)
	require.NoError(t, err)
	assert.InDelta(t, 3*(lineH+0.01)+2*2, h, eps)
}

func TestGroupClampsCellToRemainingHeight(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{})
	g := &layout.BoxGroup{W: 10, H: 8, Items: []layout.BoxConfig{{Text: "aaaa bbbb cccc dddd"}}}
	require.NoError(t, g.Draw(s))
	assert.Len(t, opsOfKind(s.Ops(0), canvasrenderer.OpText), 1)
}

func TestGroupRejectsInvalidConfig(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{})
	g := &layout.BoxGroup{W: 10, Items: []layout.BoxConfig{{Text: "x", Rotation: 7}}}
	assert.ErrorIs(t, g.Draw(s), layout.ErrInvalidRotation)
}

func TestDecodeBoxConfigs(t *testing.T) {
	src := `
- text: Name
  font_size: 10
  fill_color: "#0098ce"
  border: LR
  padding: {left: 1, top: 2, right: 1, bottom: 2}
- text: Total
  align: R
  rotation: 1
  ln: 2
`
	items, err := layout.DecodeBoxConfigs(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, items, 2)

	b := layout.NewBox("")
	b.SetWidth(20)
	require.NoError(t, items[0].Apply(b))
	assert.Equal(t, "Name", b.Text)
	assert.Equal(t, 10.0, b.Font.Size)
	assert.Equal(t, layout.BorderSides("LR"), b.Border)
	require.NotNil(t, b.Fill)
	assert.Equal(t, "#0098ce", b.Fill.Hex())
	assert.Equal(t, layout.Padding{Left: 1, Top: 2, Right: 1, Bottom: 2}, b.Padding)

	b2 := layout.NewBox("")
	require.NoError(t, items[1].Apply(b2))
	assert.Equal(t, layout.AlignRight, b2.Align)
	assert.Equal(t, 1, b2.Rotation())
	assert.Equal(t, 2, b2.Ln)

	_, err = layout.DecodeBoxConfigs(strings.NewReader("- text: x\n  shadow: 2\n"))
	assert.ErrorIs(t, err, layout.ErrUnknownOption)
	_, err = layout.DecodeBoxConfigs(strings.NewReader("- valign: Q\n"))
	assert.ErrorIs(t, err, layout.ErrUnknownOption)
}

func TestBoxConfigSet(t *testing.T) {
	length := func(v string) (float64, error) {
		l, err := layout.ParseLength(v)
		return l.ToMM(), err
	}
	var cfg layout.BoxConfig
	require.NoError(t, cfg.Set("width", "1in", length, layout.ParseColor))
	require.NoError(t, cfg.Set("align", "center", length, layout.ParseColor))
	require.NoError(t, cfg.Set("color", "#ff0000", length, layout.ParseColor))
	assert.InDelta(t, 25.4, cfg.Width, eps)
	assert.Equal(t, layout.AlignCenter, cfg.Align)
	require.NotNil(t, cfg.TextColor)
	assert.Equal(t, 255, cfg.TextColor.R)

	assert.ErrorIs(t, cfg.Set("glow", "1", length, layout.ParseColor), layout.ErrUnknownOption)
	assert.Error(t, cfg.Set("rotation", "x", length, layout.ParseColor))
}

func testImages(t *testing.T) map[string]canvasrenderer.Resource {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 96, 48))))
	return map[string]canvasrenderer.Resource{"logo": {Bytes: buf.Bytes()}}
}

func imageSurface(t *testing.T) *canvasrenderer.Surface {
	t.Helper()
	s, err := canvasrenderer.NewSurface(canvasrenderer.SurfaceOptions{
		Width: 100, Height: 100,
		Metrics: canvasrenderer.FixedMetrics{},
		Images:  testImages(t),
	})
	require.NoError(t, err)
	return s
}

func TestImageScaling(t *testing.T) {
	s := imageSurface(t)
	img, err := layout.NewImage(s, "built-in:logo")
	require.NoError(t, err)
	// 96 DPI 下 96×48 像素
	assert.InDelta(t, 25.4, img.Natural().Width, eps)
	assert.InDelta(t, 12.7, img.Natural().Height, eps)

	img.SetWidth(50)
	assert.InDelta(t, 25, img.Height(), eps)

	img.SetWidth(0)
	img.ScalerWidth, img.ScalerHeight = 10, 10
	w, h := img.ScaledSize()
	assert.InDelta(t, 10, w, eps)
	assert.InDelta(t, 5, h, eps)

	img.ScalerWidth = 0
	w, h = img.ScaledSize()
	assert.InDelta(t, 20, w, eps)
	assert.InDelta(t, 10, h, eps)

	require.NoError(t, img.DrawAt(s, 3, 4))
	ops := opsOfKind(s.Ops(0), canvasrenderer.OpImage)
	require.Len(t, ops, 1)
	assert.Equal(t, canvasrenderer.Op{Kind: canvasrenderer.OpImage, X: 3, Y: 4, W: 20, H: 10, Text: "built-in:logo", Image: ops[0].Image}, ops[0])
	assert.InDelta(t, 23, s.X(), eps)
}

func TestBoxCentersImage(t *testing.T) {
	s := imageSurface(t)
	img, err := layout.NewImage(s, "logo")
	require.NoError(t, err)
	b := layout.NewBox("")
	b.Image = img
	b.SetWidth(40)
	b.SetHeight(30)
	require.NoError(t, b.DrawAt(s, 0, 0))

	ops := opsOfKind(s.Ops(0), canvasrenderer.OpImage)
	require.Len(t, ops, 1)
	assert.InDelta(t, 0, ops[0].X, eps)
	assert.InDelta(t, 5, ops[0].Y, eps)
	assert.InDelta(t, 40, ops[0].W, eps)
	assert.InDelta(t, 20, ops[0].H, eps)
}

func TestNewImageErrors(t *testing.T) {
	s := imageSurface(t)
	_, err := layout.NewImage(s, "built-in:missing")
	assert.True(t, errors.Is(err, layout.ErrMissingResource), "got %v", err)
}

func TestWriteDebugJSON(t *testing.T) {
	table := tableOf(5, 6)
	table.RemoveRow(0)
	doc := &layout.Document{Blocks: []layout.Node{sizedBox("hello", 10, 5), table}}
	path := filepath.Join(t.TempDir(), "out", "debug.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, layout.WriteDebugJSON(doc, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		Blocks []layout.OutlineNode `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, "box", got.Blocks[0].Kind)
	require.Len(t, got.Blocks[1].Children, 1)
	require.NotNil(t, got.Blocks[1].Children[0].Position)
	assert.Equal(t, 1, *got.Blocks[1].Children[0].Position)
}
