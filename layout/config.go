package layout

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BoxConfig 列举生成 Box 时可配置的全部选项。零值字段保持 Box 的默认值。
type BoxConfig struct {
	Text        string   `yaml:"text"`
	FontFamily  string   `yaml:"font_family"`
	FontStyle   string   `yaml:"font_style"`
	FontSize    float64  `yaml:"font_size"`
	TextColor   *Color   `yaml:"text_color"`
	FillColor   *Color   `yaml:"fill_color"`
	Align       Align    `yaml:"align"`
	VAlign      VAlign   `yaml:"valign"`
	Padding     *Padding `yaml:"padding"`
	Border      string   `yaml:"border"`
	BorderColor *Color   `yaml:"border_color"`
	BorderWidth float64  `yaml:"border_width"`
	Rotation    int      `yaml:"rotation"`
	Width       float64  `yaml:"width"`
	Height      float64  `yaml:"height"`
	FitCell     bool     `yaml:"fit_cell"`
	Ln          *int     `yaml:"ln"`
}

// DecodeBoxConfigs 读取 YAML 列表，出现未知键时返回错误。
func DecodeBoxConfigs(r io.Reader) ([]BoxConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var out []BoxConfig
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return nil, fmt.Errorf("解析单元格配置失败: %w: %v", ErrUnknownOption, err)
		}
		return nil, fmt.Errorf("解析单元格配置失败: %w", err)
	}
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("第 %d 项: %w", i, err)
		}
	}
	return out, nil
}

// Validate checks value ranges.
func (cfg BoxConfig) Validate() error {
	if cfg.Rotation < 0 || cfg.Rotation > 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidRotation, cfg.Rotation)
	}
	switch cfg.Align {
	case "", AlignLeft, AlignCenter, AlignRight:
	default:
		return fmt.Errorf("%w: align %q", ErrUnknownOption, cfg.Align)
	}
	switch cfg.VAlign {
	case "", VAlignTop, VAlignMiddle, VAlignBottom:
	default:
		return fmt.Errorf("%w: valign %q", ErrUnknownOption, cfg.VAlign)
	}
	if cfg.Ln != nil && (*cfg.Ln < 0 || *cfg.Ln > 2) {
		return fmt.Errorf("%w: ln %d", ErrUnknownOption, *cfg.Ln)
	}
	return nil
}

// Apply 将配置写入 b。
func (cfg BoxConfig) Apply(b *Box) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Text != "" {
		b.Text = cfg.Text
	}
	if cfg.FontFamily != "" {
		b.Font.Family = cfg.FontFamily
	}
	if cfg.FontStyle != "" {
		b.Font.Style = cfg.FontStyle
	}
	if cfg.FontSize > 0 {
		b.Font.Size = cfg.FontSize
	}
	if cfg.TextColor != nil {
		b.Color = *cfg.TextColor
	}
	if cfg.FillColor != nil {
		b.Fill = cloneColor(cfg.FillColor)
	}
	if cfg.Align != "" {
		b.Align = cfg.Align
	}
	if cfg.VAlign != "" {
		b.VAlign = cfg.VAlign
	}
	if cfg.Padding != nil {
		b.Padding = *cfg.Padding
	}
	switch strings.ToUpper(cfg.Border) {
	case "":
	case "1", "ALL":
		b.Border = Border{All: true}
	default:
		b.Border = BorderSides(strings.ToUpper(cfg.Border))
	}
	if cfg.BorderColor != nil {
		b.BorderStyle.Color = *cfg.BorderColor
	}
	if cfg.BorderWidth > 0 {
		b.BorderStyle.Width = cfg.BorderWidth
	}
	if cfg.Width > 0 {
		b.SetWidth(cfg.Width)
	}
	if cfg.Height > 0 {
		b.SetHeight(cfg.Height)
	}
	if cfg.FitCell {
		b.FitCell = true
	}
	if cfg.Ln != nil {
		b.Ln = *cfg.Ln
	}
	return b.SetRotation(cfg.Rotation)
}

// LengthFunc converts a DSL length literal into user units.
type LengthFunc func(string) (float64, error)

// ColorFunc resolves a color literal or named color.
type ColorFunc func(string) (Color, error)

// Set 按键名设置一个字符串形式的选项，未知键返回 ErrUnknownOption。
func (cfg *BoxConfig) Set(key, value string, length LengthFunc, color ColorFunc) error {
	var err error
	switch strings.ToLower(key) {
	case "text":
		cfg.Text = value
	case "font", "font_family", "family":
		cfg.FontFamily = value
	case "style", "font_style":
		cfg.FontStyle = value
	case "size", "font_size":
		cfg.FontSize, err = parseFontSize(value)
	case "color", "text_color":
		cfg.TextColor, err = colorPtr(color, value)
	case "fill", "fill_color":
		cfg.FillColor, err = colorPtr(color, value)
	case "align":
		cfg.Align = Align(strings.ToUpper(value[:min(1, len(value))]))
	case "valign":
		cfg.VAlign = VAlign(strings.ToUpper(value[:min(1, len(value))]))
	case "padding":
		var v float64
		if v, err = length(value); err == nil {
			p := Uniform(v)
			cfg.Padding = &p
		}
	case "border":
		cfg.Border = value
	case "border_color":
		cfg.BorderColor, err = colorPtr(color, value)
	case "border_width":
		cfg.BorderWidth, err = length(value)
	case "rotation", "rotate":
		cfg.Rotation, err = strconv.Atoi(value)
	case "width":
		cfg.Width, err = length(value)
	case "height":
		cfg.Height, err = length(value)
	case "fit", "fit_cell":
		cfg.FitCell, err = strconv.ParseBool(value)
	case "ln":
		var ln int
		if ln, err = strconv.Atoi(value); err == nil {
			cfg.Ln = &ln
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOption, key)
	}
	if err != nil {
		return fmt.Errorf("选项 %s=%q: %w", key, value, err)
	}
	return nil
}

func colorPtr(resolve ColorFunc, value string) (*Color, error) {
	c, err := resolve(value)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// parseFontSize 接受 "12" 或 "12pt"。
func parseFontSize(value string) (float64, error) {
	v := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(value)), "pt")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, ErrInvalidFont
	}
	return f, nil
}
