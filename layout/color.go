package layout

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// ParseColor 解析 #rgb、#rrggbb 与 #rrggbbaa（忽略透明度）形式的颜色。
func ParseColor(value string) (Color, error) {
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	if len(v) == 9 {
		v = v[:7]
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	r, g, b := c.RGB255()
	return Color{R: int(r), G: int(g), B: int(b)}, nil
}

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// UnmarshalYAML 同时接受 "#0098ce" 字符串与 {r, g, b} 映射。
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseColor(node.Value)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	type plain Color
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = Color(p)
	return nil
}
