// Package config 读取命令行使用的 TOML 设置文件。
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/folio/layout"
)

// Settings 是设置文件的完整结构。
type Settings struct {
	Page   PageSettings      `toml:"page"`
	Text   TextSettings      `toml:"text"`
	Log    LogSettings       `toml:"log"`
	Fonts  map[string]string `toml:"fonts"`  // 字体族名（可带 ":B" 等后缀）→ 文件路径
	Images map[string]string `toml:"images"` // 名称 → 文件路径，通过 built-in:<名称> 引用
}

// PageSettings 描述默认纸张；文档中的 page 段会覆盖这些值。
type PageSettings struct {
	Size        string  `toml:"size"`
	Orientation string  `toml:"orientation"`
	Margins     Margins `toml:"margins"`
}

// Margins 使用带单位的长度字面量，例如 "0.5in"。Bottom 同时是自动分页距离。
type Margins struct {
	Left   string `toml:"left"`
	Top    string `toml:"top"`
	Right  string `toml:"right"`
	Bottom string `toml:"bottom"`
}

type TextSettings struct {
	CellHeightRatio float64 `toml:"cell_height_ratio"`
	FontFamily      string  `toml:"font_family"`
	FontSize        float64 `toml:"font_size"`
}

type LogSettings struct {
	Level string `toml:"level"`
}

// Default returns LETTER portrait with 0.5in side margins and 1in top/bottom.
func Default() Settings {
	return Settings{
		Page: PageSettings{
			Size:        "LETTER",
			Orientation: "portrait",
			Margins:     Margins{Left: "0.5in", Top: "1in", Right: "0.5in", Bottom: "1in"},
		},
		Text: TextSettings{CellHeightRatio: 1.25, FontFamily: "helvetica", FontSize: layout.DefaultFontSize},
		Log:  LogSettings{Level: "info"},
	}
}

// Load 读取设置文件；path 为空时返回默认值。
func Load(path string) (Settings, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("打开设置文件 %s 失败: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode 在默认值之上解码 TOML，未知键视为错误。
func Decode(r io.Reader) (Settings, error) {
	s := Default()
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return Settings{}, fmt.Errorf("解析设置失败: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Settings{}, fmt.Errorf("%w: %s", layout.ErrUnknownOption, strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Text.CellHeightRatio <= 0 {
		return fmt.Errorf("cell_height_ratio 必须大于 0: %g", s.Text.CellHeightRatio)
	}
	if s.Text.FontSize <= 0 {
		return fmt.Errorf("font_size 必须大于 0: %g", s.Text.FontSize)
	}
	switch strings.ToLower(s.Page.Orientation) {
	case "", "portrait", "landscape":
	default:
		return fmt.Errorf("未知页面方向 %q", s.Page.Orientation)
	}
	_, err := s.PageSpec()
	return err
}

// PageSpec 将纸张设置换算为毫米。
func (s Settings) PageSpec() (layout.PageSpec, error) {
	landscape := strings.EqualFold(s.Page.Orientation, "landscape")
	w, h, err := layout.PageSize(s.Page.Size, landscape)
	if err != nil {
		return layout.PageSpec{}, err
	}
	spec := layout.PageSpec{Width: w, Height: h}
	fields := []struct {
		raw string
		dst *float64
	}{
		{s.Page.Margins.Left, &spec.Margins.Left},
		{s.Page.Margins.Top, &spec.Margins.Top},
		{s.Page.Margins.Right, &spec.Margins.Right},
		{s.Page.Margins.Bottom, &spec.Margins.Bottom},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		l, err := layout.ParseLength(f.raw)
		if err != nil {
			return layout.PageSpec{}, fmt.Errorf("页边距: %w", err)
		}
		*f.dst = l.ToMM()
	}
	return spec, nil
}
