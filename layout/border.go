package layout

import "strings"

// sideOrder 是旋转换算使用的固定边顺序：旋转 r 个四分之一圈时，下标 i 的边映射到 (i+r) mod 4。
const sideOrder = "BLTR"

// LineStyle describes one border edge.
type LineStyle struct {
	Width float64 `json:"width,omitempty" yaml:"width"`
	Color Color   `json:"color" yaml:"color"`
}

// Border 三种形式任选其一：All 表示四边统一；Sides 为 L/T/R/B 字母组合；
// Styles 为按边指定样式，键可以是多个字母（如 "LR"）。
type Border struct {
	All    bool                 `json:"all,omitempty"`
	Sides  string               `json:"sides,omitempty"`
	Styles map[string]LineStyle `json:"styles,omitempty"`
}

// BorderSides is a shorthand for a Border drawn on the given sides.
func BorderSides(sides string) Border { return Border{Sides: sides} }

// IsZero reports whether no edge is drawn.
func (b Border) IsZero() bool {
	return !b.All && b.Sides == "" && len(b.Styles) == 0
}

func sideIndex(letter byte) int {
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	return strings.IndexByte(sideOrder, letter)
}

func rotateIndex(i, r int) int {
	return ((i+r)%4 + 4) % 4
}

// Rotate 返回旋转 r 个四分之一圈后的边框。统一边框不变；无法识别的字母被忽略；
// 结果中各边的先后顺序与输入一致。
func (b Border) Rotate(r int) Border {
	if b.All || r%4 == 0 {
		return b.clone()
	}
	out := Border{}
	if b.Sides != "" {
		var sb strings.Builder
		seen := [4]bool{}
		for i := 0; i < len(b.Sides); i++ {
			idx := sideIndex(b.Sides[i])
			if idx < 0 || seen[idx] {
				continue
			}
			seen[idx] = true
			sb.WriteByte(sideOrder[rotateIndex(idx, r)])
		}
		out.Sides = sb.String()
	}
	if len(b.Styles) > 0 {
		out.Styles = make(map[string]LineStyle, len(b.Styles))
		for key, style := range b.Styles {
			for i := 0; i < len(key); i++ {
				idx := sideIndex(key[i])
				if idx < 0 {
					continue
				}
				out.Styles[string(sideOrder[rotateIndex(idx, r)])] = style
			}
		}
	}
	return out
}

// Edges 将边框展开为物理边到样式的映射，未单独指定样式的边使用 def。
func (b Border) Edges(def LineStyle) map[byte]LineStyle {
	edges := map[byte]LineStyle{}
	if b.All {
		for i := 0; i < len(sideOrder); i++ {
			edges[sideOrder[i]] = def
		}
		return edges
	}
	for i := 0; i < len(b.Sides); i++ {
		if idx := sideIndex(b.Sides[i]); idx >= 0 {
			edges[sideOrder[idx]] = def
		}
	}
	for key, style := range b.Styles {
		for i := 0; i < len(key); i++ {
			if idx := sideIndex(key[i]); idx >= 0 {
				edges[sideOrder[idx]] = style
			}
		}
	}
	return edges
}

func (b Border) clone() Border {
	out := Border{All: b.All, Sides: b.Sides}
	if b.Styles != nil {
		out.Styles = make(map[string]LineStyle, len(b.Styles))
		for k, v := range b.Styles {
			out.Styles[k] = v
		}
	}
	return out
}

// Rotate 按与边框相同的规则换算四个内边距。
func (p Padding) Rotate(r int) Padding {
	if r%4 == 0 {
		return p
	}
	src := [4]float64{p.Bottom, p.Left, p.Top, p.Right}
	var dst [4]float64
	for i, v := range src {
		dst[rotateIndex(i, r)] = v
	}
	return Padding{Bottom: dst[0], Left: dst[1], Top: dst[2], Right: dst[3]}
}
