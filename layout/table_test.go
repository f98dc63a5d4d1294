package layout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/folio/layout"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

func rowOf(text string, h float64) *layout.BoxRow {
	return layout.NewBoxRow(sizedBox(text, 20, h))
}

func tableOf(heights ...float64) *layout.BoxTable {
	t := layout.NewBoxTable()
	for i, h := range heights {
		t.AddRow(rowOf(string(rune('a'+i)), h))
	}
	return t
}

func TestChunkHeightSkipsHoles(t *testing.T) {
	table := tableOf(5, 6, 7)
	table.RemoveRow(1)

	if table.RowCount() != 2 || table.HasRow(1) {
		t.Fatalf("expected a hole at position 1, count=%d", table.RowCount())
	}
	cases := []struct {
		start, count int
		want         float64
	}{
		{0, 2, 12},
		{1, 1, 7},
		{2, 5, 7},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := table.ChunkHeight(tc.start, tc.count); abs(got-tc.want) > eps {
			t.Errorf("ChunkHeight(%d, %d) = %v, want %v", tc.start, tc.count, got, tc.want)
		}
	}

	// 新行追加到最后一个位置之后，不会填补空位。
	table.AddRow(rowOf("d", 1))
	if table.HasRow(1) || !table.HasRow(3) {
		t.Fatalf("hole was reused")
	}
}

func TestTableBreaksOncePerPage(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10})
	table := tableOf(30, 30, 30, 30)

	var hooks []int
	err := table.DrawWith(s, layout.DrawOptions{
		MinRowCount: 1,
		OnPageBreak: func(row int) error {
			hooks = append(hooks, row)
			if !table.MidPageBreak() {
				t.Errorf("expected mid-break state inside hook, got %v", table.State())
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("DrawWith: %v", err)
	}
	if s.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", s.PageCount())
	}
	if diff := cmp.Diff([]int{2}, hooks); diff != "" {
		t.Fatalf("hook calls mismatch (-want +got):\n%s", diff)
	}
	if n := len(opsOfKind(s.Ops(1), canvasrenderer.OpText)); n != 2 {
		t.Fatalf("expected 2 rows on page 2, got %d", n)
	}
	if table.State() != layout.StateIdle {
		t.Fatalf("state after draw = %v", table.State())
	}
	if abs(s.Y()-70) > eps {
		t.Fatalf("cursor y = %v, want 70", s.Y())
	}
}

func TestTableLookaheadUsesMinRowCount(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10})
	table := tableOf(30, 30, 30)

	// 默认前瞻两行：第二行之后只剩一行的空间，于是在第二行前换页。
	if err := table.Draw(s); err != nil {
		t.Fatal(err)
	}
	if s.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", s.PageCount())
	}
	if n := len(opsOfKind(s.Ops(0), canvasrenderer.OpText)); n != 1 {
		t.Fatalf("expected 1 row on page 1, got %d", n)
	}
}

func TestTableRepeatsHeader(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10})
	table := tableOf(30, 30, 30, 30)
	table.MinRowCount = 1
	table.Header = rowOf("H", 10)

	if err := table.Draw(s); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if s.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", s.PageCount())
	}
	for page := 0; page < 2; page++ {
		text := opsOfKind(s.Ops(page), canvasrenderer.OpText)
		if len(text) == 0 || text[0].Text != "H" {
			t.Fatalf("page %d does not start with the header: %+v", page, text)
		}
	}
}

func TestTableOversizedRowDoesNotLeaveBlankPage(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10})
	table := tableOf(120)
	if err := table.Draw(s); err != nil {
		t.Fatal(err)
	}
	if s.PageCount() != 1 {
		t.Fatalf("expected a single page, got %d", s.PageCount())
	}
}

func TestTableSkipsFlaggedRows(t *testing.T) {
	s := newSurface(t, 100, 200, layout.Margins{})
	table := tableOf(10, 10, 10)
	table.Row(1).Skip = true
	if err := table.Draw(s); err != nil {
		t.Fatal(err)
	}
	text := opsOfKind(s.Ops(0), canvasrenderer.OpText)
	if len(text) != 2 || text[1].Text != "c" {
		t.Fatalf("unexpected rows drawn: %+v", text)
	}
	if abs(s.Y()-20) > eps {
		t.Fatalf("cursor y = %v, want 20", s.Y())
	}
}

func TestTableResetRestoresCursor(t *testing.T) {
	s := newSurface(t, 100, 200, layout.Margins{})
	table := tableOf(10, 10)
	table.ResetY = true
	if err := table.DrawAt(s, 0, 5, layout.DrawOptions{}); err != nil {
		t.Fatal(err)
	}
	if abs(s.Y()-5) > eps {
		t.Fatalf("cursor y = %v, want 5", s.Y())
	}
}

func TestTableCloneIsDeep(t *testing.T) {
	table := tableOf(5, 6, 7)
	table.RemoveRow(1)
	table.Header = rowOf("H", 3)

	cp := table.Clone().(*layout.BoxTable)
	cp.Row(0).Cell(0).(*layout.Box).Text = "changed"
	cp.Header.Skip = true

	if table.Row(0).Cell(0).(*layout.Box).Text != "a" || table.Header.Skip {
		t.Fatalf("clone shares state with the original")
	}
	if cp.HasRow(1) || cp.MaxKey() != table.MaxKey() {
		t.Fatalf("clone did not keep holes")
	}
}

func TestRowHeightToAutoBroadcastsMax(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{})
	short := sizedBox("ab", 20, 0)
	tall := sizedBox("aaaa bbbb cccc", 10, 0)
	row := layout.NewBoxRow(short, tall)
	if err := row.SetHeightToAuto(s); err != nil {
		t.Fatal(err)
	}
	want := 2*lineH + 0.01
	for i := 0; i < row.CellCount(); i++ {
		if got := row.Cell(i).Height(); abs(got-want) > eps {
			t.Fatalf("cell %d height = %v, want %v", i, got, want)
		}
	}

	row.ConsiderAutoHeight = false
	if h, _ := row.AutoHeight(s); h != 0 {
		t.Fatalf("AutoHeight ignoring content = %v, want 0", h)
	}
}

func TestTableLookaheadCountsAutoHeightRows(t *testing.T) {
	m := layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10}
	s := newSurface(t, 100, 100, m)
	table := layout.NewBoxTable()
	for i := 0; i < 30; i++ {
		table.AddRow(layout.NewBoxRow(sizedBox("row text", 40, 0)))
	}

	if err := table.Draw(s); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if s.PageCount() < 2 {
		t.Fatalf("expected the table to span pages, got %d", s.PageCount())
	}
	drawn := 0
	for page := 0; page < s.PageCount(); page++ {
		for _, op := range opsOfKind(s.Ops(page), canvasrenderer.OpText) {
			drawn++
			if op.Y > 100-m.Bottom+eps {
				t.Fatalf("page %d: text at y=%v runs into the bottom margin", page, op.Y)
			}
		}
	}
	if drawn != 30 {
		t.Fatalf("expected 30 rows drawn, got %d", drawn)
	}
}

func TestTableLookaheadCountsHeader(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10})
	table := tableOf(30)
	table.MinRowCount = 1
	table.Header = rowOf("H", 10)

	// 剩余 35：单行放得下，但表头加首行放不下。
	s.SetXY(10, 55)
	if err := table.Draw(s); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if s.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", s.PageCount())
	}
	if n := len(s.Ops(0)); n != 0 {
		t.Fatalf("expected nothing on page 1, got %d ops", n)
	}
	text := opsOfKind(s.Ops(1), canvasrenderer.OpText)
	var got []string
	for _, op := range text {
		got = append(got, op.Text)
	}
	if diff := cmp.Diff([]string{"H", "a"}, got); diff != "" {
		t.Fatalf("page 2 rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTableDrawWith(t *testing.T) {
	margins := layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10}
	var drawn []int
	cases := []struct {
		name      string
		table     func() *layout.BoxTable
		opts      layout.DrawOptions
		wantPages [][]string
		wantY     float64
		wantCalls []int
	}{
		{
			name:      "empty table",
			table:     func() *layout.BoxTable { return layout.NewBoxTable() },
			wantPages: [][]string{nil},
			wantY:     40,
		},
		{
			name: "removed start row",
			table: func() *layout.BoxTable {
				tb := tableOf(10, 10, 10)
				tb.RemoveRow(0)
				return tb
			},
			wantPages: [][]string{nil},
			wantY:     40,
		},
		{
			name:      "start index",
			table:     func() *layout.BoxTable { return tableOf(10, 10, 10, 10) },
			opts:      layout.DrawOptions{StartIndex: 2},
			wantPages: [][]string{{"c", "d"}},
			wantY:     60,
		},
		{
			name:  "custom height forces break",
			table: func() *layout.BoxTable { return tableOf(10, 10, 10, 10) },
			opts: layout.DrawOptions{HeightNeeded: func(row int) float64 {
				if row == 2 {
					return 1000
				}
				return 0
			}},
			wantPages: [][]string{{"a", "b"}, {"c", "d"}},
			wantY:     30,
		},
		{
			name: "draw row override",
			table: func() *layout.BoxTable {
				tb := tableOf(10, 10, 10, 10)
				tb.Row(1).Skip = true
				return tb
			},
			opts: layout.DrawOptions{DrawRow: func(row int) error {
				drawn = append(drawn, row)
				return nil
			}},
			wantPages: [][]string{nil},
			wantY:     40,
			wantCalls: []int{0, 2, 3},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			drawn = nil
			s := newSurface(t, 100, 100, margins)
			s.SetXY(10, 40)
			if err := tc.table().DrawWith(s, tc.opts); err != nil {
				t.Fatalf("DrawWith: %v", err)
			}
			var pages [][]string
			for page := 0; page < s.PageCount(); page++ {
				var texts []string
				for _, op := range opsOfKind(s.Ops(page), canvasrenderer.OpText) {
					texts = append(texts, op.Text)
				}
				pages = append(pages, texts)
			}
			if diff := cmp.Diff(tc.wantPages, pages); diff != "" {
				t.Fatalf("pages mismatch (-want +got):\n%s", diff)
			}
			if tc.wantPages[0] == nil && len(s.Ops(0)) != 0 {
				t.Fatalf("expected no ops, got %d", len(s.Ops(0)))
			}
			if abs(s.Y()-tc.wantY) > eps {
				t.Fatalf("cursor y = %v, want %v", s.Y(), tc.wantY)
			}
			if diff := cmp.Diff(tc.wantCalls, drawn); diff != "" {
				t.Fatalf("DrawRow calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
