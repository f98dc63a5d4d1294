package canvasrenderer

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/layout"
)

// Metrics 提供文本度量，所有返回值为毫米。
type Metrics interface {
	TextWidth(text string, f layout.Font) float64
	Ascent(f layout.Font) float64
	Descent(f layout.Font) float64
}

// FixedMetrics 让每个字符占用固定宽度，度量结果与字体文件无关，便于测试断言。
type FixedMetrics struct {
	Advance      float64 // 字符宽度，字号的倍数；0 表示 0.5
	AscentRatio  float64 // 0 表示 0.8
	DescentRatio float64 // 0 表示 0.2
}

func (m FixedMetrics) TextWidth(text string, f layout.Font) float64 {
	adv := m.Advance
	if adv == 0 {
		adv = 0.5
	}
	return float64(utf8.RuneCountInString(text)) * toMm(fontSize(f)) * adv
}

func (m FixedMetrics) Ascent(f layout.Font) float64 {
	r := m.AscentRatio
	if r == 0 {
		r = 0.8
	}
	return toMm(fontSize(f)) * r
}

func (m FixedMetrics) Descent(f layout.Font) float64 {
	r := m.DescentRatio
	if r == 0 {
		r = 0.2
	}
	return toMm(fontSize(f)) * r
}

// FontSet 负责加载字体并缓存 tdewolff/canvas 的字体族，同时实现 Metrics。
type FontSet struct {
	baseDir   string
	fontBlobs map[string][]byte // 小写族名，或 "族名:样式"

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

var _ Metrics = (*FontSet)(nil)

// NewFontSet 读取注入的字体资源。键为族名，可追加 ":B"、":I"、":BI" 指定样式。
func NewFontSet(baseDir string, res map[string]Resource) (*FontSet, error) {
	fs := &FontSet{
		baseDir:      baseDir,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, r := range res {
		if name == "" {
			continue
		}
		data, err := r.read(baseDir)
		if err != nil {
			return nil, fmt.Errorf("字体 %s: %w", name, err)
		}
		fs.fontBlobs[strings.ToLower(name)] = data
	}
	return fs, nil
}

func (fs *FontSet) face(f layout.Font, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := fs.ensureFontFamily(f)
	if err != nil {
		return nil, err
	}
	return family.Face(fontSize(f), colorFromLayout(col), style, canvas.FontNormal), nil
}

func (fs *FontSet) ensureFontFamily(f layout.Font) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(f)
	fs.fontMu.Lock()
	defer fs.fontMu.Unlock()

	if entry, ok := fs.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}
	style := parseFontStyle(f.Style)
	family := canvas.NewFontFamily(key)
	if err := family.LoadFont(fs.fontBytes(f), 0, style); err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("加载字体 %s 失败: %w", key, err)
	}
	fs.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

// fontBytes 依次查找 "族名:样式"、"族名"，最后回退到内置 Go 字体。
func (fs *FontSet) fontBytes(f layout.Font) []byte {
	name := strings.ToLower(f.Family)
	if f.Style != "" {
		if data, ok := fs.fontBlobs[name+":"+strings.ToLower(f.Style)]; ok {
			return data
		}
	}
	if data, ok := fs.fontBlobs[name]; ok {
		return data
	}
	if data, err := fonts.Load(name); err == nil {
		return data
	}
	mono := strings.Contains(name, "mono") || strings.Contains(name, "courier")
	return fonts.ForStyle(f.Style, mono)
}

// TextWidth 返回单行文本宽度；字体不可用时按零宽处理。
func (fs *FontSet) TextWidth(text string, f layout.Font) float64 {
	face, err := fs.face(f, layout.Black)
	if err != nil {
		return 0
	}
	return face.TextWidth(text)
}

func (fs *FontSet) Ascent(f layout.Font) float64 {
	face, err := fs.face(f, layout.Black)
	if err != nil {
		return 0
	}
	return face.Metrics().Ascent
}

func (fs *FontSet) Descent(f layout.Font) float64 {
	face, err := fs.face(f, layout.Black)
	if err != nil {
		return 0
	}
	return face.Metrics().Descent
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

func (r Resource) read(baseDir string) ([]byte, error) {
	if len(r.Bytes) > 0 {
		return r.Bytes, nil
	}
	if r.Path == "" {
		return nil, fmt.Errorf("%w: 资源为空", layout.ErrMissingResource)
	}
	path := r.Path
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", layout.ErrMissingResource, err)
	}
	return data, nil
}

// parseFontStyle 识别 B/I 字母以及 bold、italic 等单词。
func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	if strings.Contains(s, "bold") || strings.Contains(style, "B") || s == "b" || s == "bi" || s == "ib" {
		result = canvas.FontBold
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") || strings.Contains(style, "I") || s == "i" || s == "bi" || s == "ib" {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(f layout.Font) string {
	return fmt.Sprintf("%s|%s", strings.ToLower(f.Family), strings.ToUpper(f.Style))
}

func fontSize(f layout.Font) float64 {
	if f.Size <= 0 {
		return layout.DefaultFontSize
	}
	return f.Size
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
