package wrap

import (
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// 每个字符宽 1。
func runeWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func TestFitLineWholeHeadFits(t *testing.T) {
	line, rest := FitLine("hello\nworld", 5, 10, false, runeWidth)
	if line != "hello" || rest != "\nworld" {
		t.Fatalf("got %q / %q", line, rest)
	}
}

func TestFitLineBreaksAtSpace(t *testing.T) {
	line, rest := FitLine("hello big world", 11, 11, true, runeWidth)
	if line != "hello big" || rest != " world" {
		t.Fatalf("got %q / %q", line, rest)
	}
}

func TestFitLinePushesWordWhenNotAtStart(t *testing.T) {
	line, rest := FitLine("world", 3, 10, false, runeWidth)
	if line != "" || rest != "world" {
		t.Fatalf("got %q / %q", line, rest)
	}
}

func TestFitLineSplitsWordAtStart(t *testing.T) {
	line, rest := FitLine("abcdefgh", 3, 3, true, runeWidth)
	if line != "abc" || rest != "defgh" {
		t.Fatalf("got %q / %q", line, rest)
	}
}

func TestFitLineSplitsWordWiderThanFullLine(t *testing.T) {
	line, rest := FitLine("abcdefgh", 2, 4, false, runeWidth)
	if line != "ab" || rest != "cdefgh" {
		t.Fatalf("got %q / %q", line, rest)
	}
}

func TestFitLineAlwaysMakesProgressAtStart(t *testing.T) {
	line, rest := FitLine("中文", 0, 0, true, runeWidth)
	if line != "中" || rest != "文" {
		t.Fatalf("got %q / %q", line, rest)
	}
}

func TestLines(t *testing.T) {
	got := Lines("foo\n\nbar baz qux", 7, runeWidth)
	want := []string{"foo", "", "bar baz", "qux"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

// 行宽恰好等于容器宽度且紧跟换行时不应产生空行。
func TestLinesEqualWidthThenNewline(t *testing.T) {
	got := Lines("SAMPLE-A\nSAMPLE-B", 8, runeWidth)
	want := []string{"SAMPLE-A", "SAMPLE-B"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestLinesWidthLimit(t *testing.T) {
	for i, ln := range Lines("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bb cccc", 7, runeWidth) {
		if runeWidth(ln) > 7 {
			t.Fatalf("line %d width exceeds limit: %q", i, ln)
		}
	}
}

func TestAdvance(t *testing.T) {
	if got := Advance("\n  next"); got != "next" {
		t.Fatalf("got %q", got)
	}
	if got := Advance("\n\nnext"); got != "\nnext" {
		t.Fatalf("only one newline should be stripped, got %q", got)
	}
}
