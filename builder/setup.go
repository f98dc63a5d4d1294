// Package builder 将 .folio 语法树转换为可绘制的 layout.Document。
package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
)

// Setup 汇总创建画布之前就需要的信息：页面、元信息与资源。
type Setup struct {
	Meta    layout.DocumentMeta
	Page    layout.PageSpec
	Spacing float64
	// CellHeightRatio 为 0 表示沿用画布默认值。
	CellHeightRatio float64
	Fonts           map[string]string // 族名（可带 ":B" 等）→ 路径
	Images          map[string]string // 名称 → 路径

	colors map[string]layout.Color
	styles map[string][]attr
}

type attr struct {
	key   string
	value string
}

// Prepare 读取 meta、resources 与 page 段。defaults 为未在文档中给出时的页面设置。
func Prepare(doc *dsl.Document, defaults layout.PageSpec) (*Setup, error) {
	s := &Setup{
		Page:   defaults,
		Fonts:  map[string]string{},
		Images: map[string]string{},
		colors: map[string]layout.Color{},
		styles: map[string][]attr{},
	}
	s.Meta = collectMeta(doc)
	if err := s.collectResources(doc); err != nil {
		return nil, err
	}
	if page := doc.Page(); page != nil {
		if err := s.resolvePage(page.Args); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func collectMeta(doc *dsl.Document) layout.DocumentMeta {
	meta := layout.DocumentMeta{Creator: "folio"}
	if doc.Title != nil {
		meta.Title = string(*doc.Title)
	}
	for _, block := range doc.Meta() {
		for _, stmt := range block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			val := stmt.Assignment.Value
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = val.Text()
			case "author":
				meta.Author = val.Text()
			case "subject":
				meta.Subject = val.Text()
			case "creator":
				meta.Creator = val.Text()
			case "keywords":
				meta.Keywords = val.Strings()
			}
		}
	}
	return meta
}

func (s *Setup) collectResources(doc *dsl.Document) error {
	for _, block := range doc.Resources() {
		for _, stmt := range block.Statements {
			cmd := stmt.Command
			if cmd == nil {
				continue
			}
			if len(cmd.Args) < 1 {
				return fmt.Errorf("%s: %s 缺少名称", cmd.Pos, cmd.Name)
			}
			name := cmd.Args[0].Value
			rest := cmd.Args[1:]
			switch cmd.Name {
			case "font":
				if len(rest) == 0 {
					return fmt.Errorf("%s: 字体 %s 缺少路径", cmd.Pos, name)
				}
				key := strings.ToLower(name)
				if len(rest) >= 3 && rest[1].Value == "style" {
					key += ":" + strings.ToUpper(rest[2].Value)
				}
				s.Fonts[key] = rest[0].Value
			case "image":
				if len(rest) == 0 {
					return fmt.Errorf("%s: 图片 %s 缺少路径", cmd.Pos, name)
				}
				s.Images[name] = rest[0].Value
			case "color":
				if len(rest) == 0 {
					return fmt.Errorf("%s: 颜色 %s 缺少取值", cmd.Pos, name)
				}
				c, err := layout.ParseColor(rest[len(rest)-1].Value)
				if err != nil {
					return fmt.Errorf("%s: 颜色 %s: %w", cmd.Pos, name, err)
				}
				s.colors[name] = c
			case "style":
				attrs, err := s.styleAttrs(cmd, rest)
				if err != nil {
					return err
				}
				s.styles[name] = attrs
			default:
				return fmt.Errorf("%s: 未知资源类型 %q", cmd.Pos, cmd.Name)
			}
		}
	}
	return nil
}

// styleAttrs 支持 `style name extends base k v ... { k: v }`。
func (s *Setup) styleAttrs(cmd *dsl.Command, args []*dsl.Lexeme) ([]attr, error) {
	var out []attr
	if len(args) >= 2 && args[0].Value == "extends" {
		base, ok := s.styles[args[1].Value]
		if !ok {
			return nil, fmt.Errorf("%s: 样式 %q 未定义（需先于引用声明）", cmd.Pos, args[1].Value)
		}
		out = append(out, base...)
		args = args[2:]
	}
	for i := 0; i+1 < len(args); i += 2 {
		out = append(out, attr{key: args[i].Value, value: args[i+1].Value})
	}
	if cmd.Block != nil {
		for _, stmt := range cmd.Block.Statements {
			if stmt.Assignment != nil {
				out = append(out, attr{key: stmt.Assignment.Key, value: stmt.Assignment.Value.Text()})
			}
		}
	}
	return out, nil
}

// resolvePage 解析 `page <size>? portrait|landscape margin v{1,4} bottom v spacing v ratio r`。
func (s *Setup) resolvePage(args []*dsl.Lexeme) error {
	landscape := false
	size := ""
	for i := 0; i < len(args); i++ {
		tok := args[i]
		switch strings.ToLower(tok.Value) {
		case "portrait":
		case "landscape":
			landscape = true
		case "margin":
			var vals []float64
			for j := i + 1; j < len(args) && len(vals) < 4 && args[j].Type == "Number"; j++ {
				l, err := layout.ParseLength(args[j].Value)
				if err != nil {
					return fmt.Errorf("%s: %w", args[j].Pos, err)
				}
				vals = append(vals, l.ToMM())
			}
			if len(vals) == 0 {
				return fmt.Errorf("%s: margin 缺少取值", tok.Pos)
			}
			s.Page.Margins = cssMargins(vals)
			i += len(vals)
		case "bottom", "spacing", "ratio":
			if i+1 >= len(args) {
				return fmt.Errorf("%s: %s 缺少取值", tok.Pos, tok.Value)
			}
			i++
			if err := s.pageValue(strings.ToLower(tok.Value), args[i]); err != nil {
				return err
			}
		default:
			if size != "" {
				return fmt.Errorf("%s: 无法识别的页面参数 %q", tok.Pos, tok.Value)
			}
			size = tok.Value
		}
	}
	if size == "" && !landscape {
		return nil
	}
	if size == "" {
		// 仅改方向时按当前尺寸判断。
		if s.Page.Width < s.Page.Height {
			s.Page.Width, s.Page.Height = s.Page.Height, s.Page.Width
		}
		return nil
	}
	w, h, err := layout.PageSize(size, landscape)
	if err != nil {
		return err
	}
	s.Page.Width, s.Page.Height = w, h
	return nil
}

func (s *Setup) pageValue(key string, tok *dsl.Lexeme) error {
	if key == "ratio" {
		r, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil || r <= 0 {
			return fmt.Errorf("%s: 无效的行高比例 %q", tok.Pos, tok.Value)
		}
		s.CellHeightRatio = r
		return nil
	}
	l, err := layout.ParseLength(tok.Value)
	if err != nil {
		return fmt.Errorf("%s: %w", tok.Pos, err)
	}
	if key == "bottom" {
		s.Page.Margins.Bottom = l.ToMM()
	} else {
		s.Spacing = l.ToMM()
	}
	return nil
}

// cssMargins 按 CSS 顺序（上 右 下 左）展开 1 到 4 个值。
func cssMargins(v []float64) layout.Margins {
	switch len(v) {
	case 1:
		return layout.Margins{Top: v[0], Right: v[0], Bottom: v[0], Left: v[0]}
	case 2:
		return layout.Margins{Top: v[0], Right: v[1], Bottom: v[0], Left: v[1]}
	case 3:
		return layout.Margins{Top: v[0], Right: v[1], Bottom: v[2], Left: v[1]}
	}
	return layout.Margins{Top: v[0], Right: v[1], Bottom: v[2], Left: v[3]}
}
