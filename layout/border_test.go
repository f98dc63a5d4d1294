package layout_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/folio/layout"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

func TestBorderRotateMapsSides(t *testing.T) {
	cases := []struct {
		in   string
		r    int
		want string
	}{
		{"L", 1, "T"},
		{"T", 1, "R"},
		{"R", 1, "B"},
		{"B", 1, "L"},
		{"LT", 2, "RB"},
		{"LTR", 3, "BLT"},
		{"lt", 0, "lt"},
		{"LXQ", 1, "T"},
	}
	for _, tc := range cases {
		got := layout.BorderSides(tc.in).Rotate(tc.r).Sides
		if got != tc.want {
			t.Errorf("Rotate(%q, %d) = %q, want %q", tc.in, tc.r, got, tc.want)
		}
	}
}

func TestBorderRotateRoundTrip(t *testing.T) {
	const order = "BLTR"
	def := layout.LineStyle{Width: 0.2}
	for mask := 0; mask < 16; mask++ {
		sides := ""
		for i := 0; i < 4; i++ {
			if mask&(1<<i) != 0 {
				sides += string(order[i])
			}
		}
		b := layout.BorderSides(sides)
		for r := 0; r < 4; r++ {
			back := b.Rotate(r).Rotate(4 - r)
			if diff := cmp.Diff(b.Edges(def), back.Edges(def)); diff != "" {
				t.Errorf("sides %q r=%d round trip mismatch (-want +got):\n%s", sides, r, diff)
			}
		}
	}
}

func TestBorderRotateKeepsAllAndStyles(t *testing.T) {
	all := layout.Border{All: true}
	if got := all.Rotate(3); !got.All {
		t.Fatalf("uniform border lost after rotation: %+v", got)
	}

	red := layout.LineStyle{Width: 1, Color: layout.Color{R: 255}}
	styled := layout.Border{Styles: map[string]layout.LineStyle{"LR": red}}
	got := styled.Rotate(1)
	want := map[string]layout.LineStyle{"T": red, "B": red}
	if diff := cmp.Diff(want, got.Styles); diff != "" {
		t.Fatalf("styled rotation mismatch (-want +got):\n%s", diff)
	}
	if _, ok := styled.Styles["T"]; ok {
		t.Fatalf("Rotate modified the receiver")
	}
}

func TestPaddingRotateFollowsBorder(t *testing.T) {
	p := layout.Padding{Left: 1, Top: 2, Right: 3, Bottom: 4}
	got := p.Rotate(1)
	want := layout.Padding{Left: 4, Top: 1, Right: 2, Bottom: 3}
	if got != want {
		t.Fatalf("Rotate(1) = %+v, want %+v", got, want)
	}
	if back := got.Rotate(3); back != p {
		t.Fatalf("round trip = %+v, want %+v", back, p)
	}
}

func TestBoxRotationSwapsEffectiveSize(t *testing.T) {
	b := layout.NewBox("x")
	b.SetWidth(30)
	b.SetHeight(10)
	if b.Width() != 30 || b.Height() != 10 {
		t.Fatalf("unrotated size = %vx%v", b.Width(), b.Height())
	}
	for _, r := range []int{1, 3} {
		if err := b.SetRotation(r); err != nil {
			t.Fatalf("SetRotation(%d): %v", r, err)
		}
		if b.Width() != 10 || b.Height() != 30 {
			t.Fatalf("rotation %d size = %vx%v, want 10x30", r, b.Width(), b.Height())
		}
		if b.RequestedWidth() != 30 {
			t.Fatalf("requested width changed: %v", b.RequestedWidth())
		}
	}
	if err := b.SetRotation(4); !errors.Is(err, layout.ErrInvalidRotation) {
		t.Fatalf("expected ErrInvalidRotation, got %v", err)
	}
}

func TestRotatedBoxDrawsAroundCenter(t *testing.T) {
	s := newSurface(t, 100, 100, layout.Margins{Left: 10, Top: 10, Right: 10, Bottom: 10})
	b := sizedBox("up", 30, 10)
	b.Border = layout.BorderSides("L")
	if err := b.SetRotation(1); err != nil {
		t.Fatal(err)
	}
	if err := b.DrawAt(s, 10, 10); err != nil {
		t.Fatalf("DrawAt: %v", err)
	}

	ops := s.Ops(0)
	rot := opsOfKind(ops, canvasrenderer.OpRotate)
	if len(rot) != 1 || rot[0].Angle != 90 {
		t.Fatalf("expected one 90° rotation, got %+v", rot)
	}
	if abs(rot[0].X-15) > eps || abs(rot[0].Y-25) > eps {
		t.Fatalf("rotation anchor = (%v, %v), want (15, 25)", rot[0].X, rot[0].Y)
	}
	if n := len(opsOfKind(ops, canvasrenderer.OpRestore)); n != 1 {
		t.Fatalf("expected rotation to be closed, got %d restores", n)
	}
	// 旋转后左边框落在内容坐标系的上边。
	lines := opsOfKind(ops, canvasrenderer.OpLine)
	if len(lines) != 1 || abs(lines[0].Y-lines[0].Y2) > eps {
		t.Fatalf("expected one horizontal border line, got %+v", lines)
	}
	if abs(s.X()-20) > eps || abs(s.Y()-10) > eps {
		t.Fatalf("cursor = (%v, %v), want (20, 10)", s.X(), s.Y())
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
