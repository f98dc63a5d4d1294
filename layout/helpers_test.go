package layout_test

import (
	"testing"

	"github.com/ByLCY/folio/layout"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

const eps = 1e-6

var body = layout.Font{Family: "helvetica", Size: 12}

// lineH 为 12pt 在默认行高系数下的行高。
var lineH = 12 * layout.PtToMm * canvasrenderer.DefaultCellHeightRatio

// newSurface 返回 12pt 下每个字符恰好 1mm 宽的画布。
func newSurface(t *testing.T, w, h float64, m layout.Margins) *canvasrenderer.Surface {
	t.Helper()
	s, err := canvasrenderer.NewSurface(canvasrenderer.SurfaceOptions{
		Width:   w,
		Height:  h,
		Margins: m,
		Metrics: canvasrenderer.FixedMetrics{Advance: 1 / (12 * layout.PtToMm)},
	})
	if err != nil {
		t.Fatalf("NewSurface error: %v", err)
	}
	return s
}

func opsOfKind(ops []canvasrenderer.Op, kind canvasrenderer.OpKind) []canvasrenderer.Op {
	var out []canvasrenderer.Op
	for _, op := range ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

func sizedBox(text string, w, h float64) *layout.Box {
	b := layout.NewBox(text)
	b.Font = body
	b.Ln = 0
	b.SetWidth(w)
	b.SetHeight(h)
	return b
}
