package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/folio/layout"
)

const (
	// 图片自然尺寸按 96 DPI 换算为毫米。
	naturalDPI = 96.0
	// SVG 光栅化精度（像素/毫米）。
	vectorDPMM = 300 / 25.4
)

type loadedImage struct {
	raster image.Image
	icon   *oksvg.SvgIcon
	info   layout.ImageInfo
}

// imageStore 解析图片来源并缓存解码结果。来源可以是 "built-in:<名称>" 或文件路径。
type imageStore struct {
	baseDir string
	blobs   map[string][]byte

	mu    sync.Mutex
	cache map[string]*loadedImage
}

func newImageStore(baseDir string, res map[string]Resource) (*imageStore, error) {
	s := &imageStore{baseDir: baseDir, blobs: map[string][]byte{}, cache: map[string]*loadedImage{}}
	for name, r := range res {
		if name == "" {
			continue
		}
		data, err := r.read(baseDir)
		if err != nil {
			return nil, fmt.Errorf("图片 %s: %w", name, err)
		}
		s.blobs[name] = data
	}
	return s, nil
}

func (s *imageStore) load(src string) (*loadedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.cache[src]; ok {
		return img, nil
	}
	data, err := s.readBytes(src)
	if err != nil {
		return nil, err
	}
	var img *loadedImage
	if isSVG(src, data) {
		img, err = decodeSVG(data)
	} else {
		img, err = decodeRaster(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", layout.ErrNotImage, src, err)
	}
	s.cache[src] = img
	return img, nil
}

func (s *imageStore) readBytes(src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: 图片来源为空", layout.ErrMissingResource)
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		blob, ok := s.blobs[name]
		if !ok {
			return nil, fmt.Errorf("%w: 找不到内置图片资源 built-in:%s", layout.ErrMissingResource, name)
		}
		return blob, nil
	}
	if blob, ok := s.blobs[src]; ok {
		return blob, nil
	}
	data, err := Resource{Path: src}.read(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	return data, nil
}

func isSVG(src string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(src), ".svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

func decodeRaster(data []byte) (*loadedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("图片尺寸为零")
	}
	return &loadedImage{raster: img, info: layout.ImageInfo{
		Width:  pxToMm(float64(b.Dx())),
		Height: pxToMm(float64(b.Dy())),
	}}, nil
}

func decodeSVG(data []byte) (*loadedImage, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, fmt.Errorf("SVG 缺少 viewBox 尺寸")
	}
	return &loadedImage{icon: icon, info: layout.ImageInfo{
		Width:  pxToMm(icon.ViewBox.W),
		Height: pxToMm(icon.ViewBox.H),
		Vector: true,
	}}, nil
}

// rasterize 将 SVG 按目标尺寸（毫米）绘制为位图。
func (img *loadedImage) rasterize(w, h float64) image.Image {
	if img.icon == nil {
		return img.raster
	}
	pw := max(1, int(math.Ceil(w*vectorDPMM)))
	ph := max(1, int(math.Ceil(h*vectorDPMM)))
	img.icon.SetTarget(0, 0, float64(pw), float64(ph))
	rgba := image.NewRGBA(image.Rect(0, 0, pw, ph))
	scanner := rasterx.NewScannerGV(pw, ph, rgba, rgba.Bounds())
	img.icon.Draw(rasterx.NewDasher(pw, ph, scanner), 1.0)
	return rgba
}

func pxToMm(px float64) float64 { return px * 25.4 / naturalDPI }
