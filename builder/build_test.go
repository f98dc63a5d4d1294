package builder_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/folio/builder"
	"github.com/ByLCY/folio/chart"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

var letter = layout.PageSpec{Width: 215.9, Height: 279.4, Margins: layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10}}

func build(t *testing.T, src string, data any) (*layout.Document, *builder.Setup) {
	t.Helper()
	doc, err := dsl.ParseString(src)
	require.NoError(t, err)
	setup, err := builder.Prepare(doc, letter)
	require.NoError(t, err)
	surface, err := canvasrenderer.NewSurface(canvasrenderer.SurfaceOptions{
		Width:   setup.Page.Width,
		Height:  setup.Page.Height,
		Margins: setup.Page.Margins,
		Metrics: canvasrenderer.FixedMetrics{Advance: 1 / (12 * layout.PtToMm)},
	})
	require.NoError(t, err)
	out, err := builder.Build(doc, setup, surface, builder.Options{Data: data, BaseDir: t.TempDir()})
	require.NoError(t, err)
	return out, setup
}

func TestBuildBoxWithStyleAndBinding(t *testing.T) {
	out, _ := build(t, `
folio "Report for ${user}" {
  resources {
    color brand #0098CE
    style legend { font-size: 9; border: LR }
  }
  page a4 margin 20mm 10mm
  body {
    box legend "Hello, ${user}!" width 50% ln 0 {
      fill: brand
      padding: [1mm, 2mm]
    }
  }
}
`, map[string]any{"user": "Groucho"})

	assert.Equal(t, "Report for Groucho", out.Meta.Title)
	assert.Equal(t, "folio", out.Meta.Creator)
	require.Len(t, out.Blocks, 1)
	box, ok := out.Blocks[0].(*layout.Box)
	require.True(t, ok)
	assert.Equal(t, "Hello, Groucho!", box.Text)
	assert.Equal(t, 9.0, box.Font.Size)
	assert.Equal(t, layout.BorderSides("LR"), box.Border)
	assert.Equal(t, 0, box.Ln)
	require.NotNil(t, box.Fill)
	assert.Equal(t, "#0098ce", box.Fill.Hex())
	assert.Equal(t, layout.Padding{Left: 2, Top: 1, Right: 2, Bottom: 1}, box.Padding)
	// A4 宽 210mm，左右边距各 10mm
	assert.InDelta(t, 95.0, box.Width(), 1e-9)
}

func TestBuildTableWithEachAndHeader(t *testing.T) {
	data := map[string]any{
		"people": []any{
			map[string]any{"name": "Groucho", "minutes": 120.0},
			map[string]any{"name": "Harpo", "minutes": 90.0},
			map[string]any{"name": "Chico", "minutes": 100.0},
		},
	}
	out, _ := build(t, `
folio {
  body {
    table min-rows 2 {
      row header { box "Name" width 40mm; box "Minutes" width 20mm }
      each people as p {
        row { box "${p.name}" width 40mm; box "${p.minutes}" width 20mm }
      }
    }
  }
}
`, data)

	require.Len(t, out.Blocks, 1)
	table, ok := out.Blocks[0].(*layout.BoxTable)
	require.True(t, ok)
	assert.Equal(t, 2, table.MinRowCount)
	require.NotNil(t, table.Header)
	assert.Equal(t, 3, table.RowCount())
	assert.Equal(t, "Harpo", table.Row(1).Cell(0).(*layout.Box).Text)
	assert.Equal(t, "90", table.Row(1).Cell(1).(*layout.Box).Text)
	assert.InDelta(t, 60.0, table.Row(0).Width(), 1e-9)
}

func TestBuildRowFlags(t *testing.T) {
	out, _ := build(t, `
folio {
  body {
    row skip no-break {
      box "a" width 10mm height 5mm
      box "b" width 10mm height 8mm
    }
    row equalize { box "short" width 30mm; box "a much longer text that wraps" width 10mm }
  }
}
`, nil)
	require.Len(t, out.Blocks, 2)
	first := out.Blocks[0].(*layout.BoxRow)
	assert.True(t, first.Skip)
	assert.False(t, first.LineBreakAfter)
	assert.Equal(t, 2, first.CellCount())

	second := out.Blocks[1].(*layout.BoxRow)
	h0 := second.Cell(0).Height()
	assert.Greater(t, h0, 0.0)
	assert.Equal(t, h0, second.Cell(1).Height())
}

func TestBuildFlowBox(t *testing.T) {
	out, _ := build(t, `
folio {
  body {
    box width 80mm indent 5mm {
      run "Bold start " style B
      run "then regular text" color #ff0000
    }
  }
}
`, nil)
	box := out.Blocks[0].(*layout.Box)
	require.NotNil(t, box.Flow)
	runs := box.Flow.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, "B", runs[0].Font.Style)
	assert.Equal(t, "#ff0000", runs[1].Color.Hex())
	assert.InDelta(t, 5.0, box.Flow.HangingIndent(), 1e-9)
}

func TestBuildPie(t *testing.T) {
	out, _ := build(t, `
folio {
  body {
    pie diameter 40mm {
      colors: [#ff0000, #00ff00]
      wedge "Groucho" 3
      wedge "Zeppo" 0
      wedge "Harpo" 1
    }
    pie data slices legend off
  }
}
`, map[string]any{"slices": []any{map[string]any{"label": "x", "value": 2.0}}})

	require.Len(t, out.Blocks, 2)
	pie := out.Blocks[0].(*chart.PieChart)
	assert.InDelta(t, 40.0, pie.Diameter, 1e-9)
	assert.Len(t, pie.Colors, 2)
	require.Len(t, pie.Wedges, 3)
	assert.Equal(t, chart.Wedge{Label: "Harpo", Value: 1}, pie.Wedges[2])

	fromData := out.Blocks[1].(*chart.PieChart)
	assert.False(t, fromData.Legend)
	assert.Equal(t, []chart.Wedge{{Label: "x", Value: 2}}, fromData.Wedges)
}

func TestBuildGroupFromYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cells.yaml"), []byte("- text: one\n  width: 20\n- text: two\n  width: 30\n"), 0o644))

	doc, err := dsl.ParseString(`
folio {
  body {
    group items "cells.yaml" spacing 2mm {
      box "three" width 10mm
    }
  }
}
`)
	require.NoError(t, err)
	setup, err := builder.Prepare(doc, letter)
	require.NoError(t, err)
	surface, err := canvasrenderer.NewSurface(canvasrenderer.SurfaceOptions{Width: letter.Width, Height: letter.Height, Margins: letter.Margins})
	require.NoError(t, err)
	out, err := builder.Build(doc, setup, surface, builder.Options{BaseDir: dir})
	require.NoError(t, err)

	g := out.Blocks[0].(*layout.BoxGroup)
	require.Len(t, g.Items, 3)
	assert.Equal(t, "one", g.Items[0].Text)
	assert.Equal(t, "three", g.Items[2].Text)
	assert.InDelta(t, 2.0, g.Spacing, 1e-9)
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]string{
		"unknown command": `folio { body { circle "x" } }`,
		"unknown option":  `folio { body { box "x" shadow 2mm } }`,
		"bad rotation":    `folio { body { box "x" rotation 5 } }`,
		"missing image":   `folio { body { image "nope.png" } }`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := dsl.ParseString(src)
			require.NoError(t, err)
			setup, err := builder.Prepare(doc, letter)
			require.NoError(t, err)
			surface, err := canvasrenderer.NewSurface(canvasrenderer.SurfaceOptions{Width: letter.Width, Height: letter.Height, Margins: letter.Margins, BaseDir: t.TempDir()})
			require.NoError(t, err)
			_, err = builder.Build(doc, setup, surface, builder.Options{})
			assert.Error(t, err)
		})
	}
}
