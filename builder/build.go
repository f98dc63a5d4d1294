package builder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/chart"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/internal/logging"
	"github.com/ByLCY/folio/layout"
)

// Options 控制节点生成。
type Options struct {
	// Data 为 ${path} 占位符的数据源（通常来自 JSON）。
	Data any
	// Font 为未指定字体时的默认值。
	Font layout.Font
	// BaseDir 用于解析 group 的 YAML 配置文件路径。
	BaseDir string
}

type builder struct {
	setup *Setup
	c     layout.Canvas
	data  any
	font  layout.Font
	base  string
	// inRow 为真时 box 默认 ln 0，绘制后光标停在右侧。
	inRow bool
}

// Build 将 body 段中的命令转换为节点。c 用于探测图片尺寸和计算自动尺寸，
// 其页面设置应与 setup.Page 一致。
func Build(doc *dsl.Document, setup *Setup, c layout.Canvas, opts Options) (*layout.Document, error) {
	font := opts.Font
	if font.Size <= 0 {
		font.Size = layout.DefaultFontSize
	}
	b := &builder{setup: setup, c: c, data: opts.Data, font: font, base: opts.BaseDir}
	out := &layout.Document{Meta: setup.Meta, Page: setup.Page, Spacing: setup.Spacing}
	out.Meta.Title = binding.Interpolate(out.Meta.Title, opts.Data)
	for _, block := range doc.Body() {
		nodes, err := b.nodes(block)
		if err != nil {
			return nil, err
		}
		out.Blocks = append(out.Blocks, nodes...)
	}
	logging.Logger().Debug("document built", slog.Int("blocks", len(out.Blocks)))
	return out, nil
}

func (b *builder) nodes(block *dsl.Block) ([]layout.Node, error) {
	if block == nil {
		return nil, nil
	}
	var out []layout.Node
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		if stmt.Command.Name == "each" {
			nodes, err := b.each(stmt.Command, func(inner *builder, blk *dsl.Block) ([]layout.Node, error) {
				return inner.nodes(blk)
			})
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
			continue
		}
		n, err := b.node(stmt.Command)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (b *builder) node(cmd *dsl.Command) (layout.Node, error) {
	var (
		n   layout.Node
		err error
	)
	switch cmd.Name {
	case "box":
		n, err = b.box(cmd)
	case "row":
		n, err = b.row(cmd)
	case "table":
		n, err = b.table(cmd)
	case "flow":
		n, err = b.flow(cmd)
	case "image":
		n, err = b.image(cmd)
	case "group":
		n, err = b.group(cmd)
	case "pie":
		n, err = b.pie(cmd)
	case "spacer":
		n, err = b.spacer(cmd)
	default:
		return nil, fmt.Errorf("%s: 未知命令 %q", cmd.Pos, cmd.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", cmd.Pos, cmd.Name, err)
	}
	return n, nil
}

// each 对数据中的列表逐项生成节点：`each items as item { ... }`，默认变量名为 item。
func (b *builder) each(cmd *dsl.Command, gen func(*builder, *dsl.Block) ([]layout.Node, error)) ([]layout.Node, error) {
	if len(cmd.Args) == 0 {
		return nil, fmt.Errorf("%s: each 缺少数据路径", cmd.Pos)
	}
	path := strings.TrimSuffix(strings.TrimPrefix(cmd.Args[0].Value, "${"), "}")
	name := "item"
	if len(cmd.Args) >= 3 && cmd.Args[1].Value == "as" {
		name = cmd.Args[2].Value
	}
	val, ok := binding.Lookup(b.data, path)
	if !ok {
		logging.Logger().Debug("each path not found", slog.String("path", path))
		return nil, nil
	}
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: %s 不是列表", cmd.Pos, path)
	}
	var out []layout.Node
	for i, item := range list {
		scope := map[string]any{}
		if root, isMap := b.data.(map[string]any); isMap {
			for k, v := range root {
				scope[k] = v
			}
		}
		scope[name] = item
		scope["index"] = i
		inner := *b
		inner.data = scope
		nodes, err := gen(&inner, cmd.Block)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

// args 是命令参数与块内赋值的整理结果。
type args struct {
	text  []string
	attrs []attr
	flags map[string]bool
}

func (a args) get(key string) (string, bool) {
	for i := len(a.attrs) - 1; i >= 0; i-- {
		if a.attrs[i].key == key {
			return a.attrs[i].value, true
		}
	}
	return "", false
}

// parseArgs 拆分参数：首个标识符若是已声明的样式则展开其属性；字符串与数字为位置参数；
// flags 中列出的标识符是开关；其余标识符与后一个记号组成键值对。块内 key: value 排在最后。
func (b *builder) parseArgs(cmd *dsl.Command, flags ...string) args {
	out := args{flags: map[string]bool{}}
	isFlag := map[string]bool{}
	for _, f := range flags {
		isFlag[f] = true
	}
	list := cmd.Args
	if len(list) > 0 && list[0].Type == "Ident" {
		if style, ok := b.setup.styles[list[0].Value]; ok {
			for _, a := range style {
				out.attrs = append(out.attrs, attr{key: normalizeKey(a.key), value: b.interpolate(a.value)})
			}
			list = list[1:]
		}
	}
	for i := 0; i < len(list); i++ {
		tok := list[i]
		if tok.Type == "Symbol" {
			continue
		}
		if tok.Type != "Ident" {
			out.text = append(out.text, b.interpolate(tok.Value))
			continue
		}
		key := normalizeKey(tok.Value)
		for i+1 < len(list) && list[i+1].Type == "Symbol" && list[i+1].Value == "=" {
			i++
		}
		if isFlag[key] || i+1 >= len(list) {
			out.flags[key] = true
			continue
		}
		i++
		out.attrs = append(out.attrs, attr{key: key, value: b.interpolate(list[i].Value)})
	}
	if cmd.Block != nil {
		for _, stmt := range cmd.Block.Statements {
			if stmt.Assignment != nil {
				out.attrs = append(out.attrs, attr{
					key:   normalizeKey(stmt.Assignment.Key),
					value: b.interpolate(stmt.Assignment.Value.Text()),
				})
			}
		}
	}
	return out
}

func normalizeKey(k string) string { return strings.ReplaceAll(strings.ToLower(k), "-", "_") }

func (b *builder) interpolate(s string) string { return binding.Interpolate(s, b.data) }

func (b *builder) contentWidth() float64 {
	m := b.setup.Page.Margins
	return b.setup.Page.Width - m.Left - m.Right
}

// length 解析长度，百分比相对于内容区宽度。
func (b *builder) length(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if p, ok := strings.CutSuffix(v, "%"); ok {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("无效的百分比 %q", v)
		}
		return b.contentWidth() * f / 100, nil
	}
	l, err := layout.ParseLength(v)
	if err != nil {
		return 0, err
	}
	return l.ToMM(), nil
}

func (b *builder) color(v string) (layout.Color, error) {
	if c, ok := b.setup.colors[v]; ok {
		return c, nil
	}
	return layout.ParseColor(v)
}

// padding 接受 1 到 4 个以逗号或空格分隔的长度（CSS 顺序）。
func (b *builder) padding(v string) (layout.Padding, error) {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) == 0 || len(parts) > 4 {
		return layout.Padding{}, fmt.Errorf("无效的内边距 %q", v)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := b.length(p)
		if err != nil {
			return layout.Padding{}, err
		}
		vals[i] = f
	}
	m := cssMargins(vals)
	return layout.Padding{Left: m.Left, Top: m.Top, Right: m.Right, Bottom: m.Bottom}, nil
}

// imageSrc 将资源名映射为 built-in:<名称>，其余按路径处理。
func (b *builder) imageSrc(v string) string {
	if _, ok := b.setup.Images[v]; ok {
		return "built-in:" + v
	}
	return v
}

// boxConfig 将属性映射到 BoxConfig，返回无法映射的属性供调用方处理。
func (b *builder) boxConfig(a args) (layout.BoxConfig, []attr, error) {
	cfg := layout.BoxConfig{Text: strings.Join(a.text, "")}
	var extra []attr
	for _, kv := range a.attrs {
		switch kv.key {
		case "padding":
			p, err := b.padding(kv.value)
			if err != nil {
				return cfg, nil, err
			}
			cfg.Padding = &p
		case "image", "image_pad", "indent":
			extra = append(extra, kv)
		default:
			if err := cfg.Set(kv.key, kv.value, b.length, b.color); err != nil {
				return cfg, nil, err
			}
		}
	}
	if a.flags["fit"] {
		cfg.FitCell = true
	}
	return cfg, extra, nil
}

func (b *builder) box(cmd *dsl.Command) (*layout.Box, error) {
	a := b.parseArgs(cmd, "fit", "auto_width", "auto_height")
	cfg, extra, err := b.boxConfig(a)
	if err != nil {
		return nil, err
	}
	box := layout.NewBox("")
	box.Font = b.font
	if b.inRow {
		box.Ln = 0
	}
	if err := cfg.Apply(box); err != nil {
		return nil, err
	}

	var indent float64
	for _, kv := range extra {
		switch kv.key {
		case "image":
			img, err := layout.NewImage(b.c, b.imageSrc(kv.value))
			if err != nil {
				return nil, err
			}
			box.Image = img
		case "image_pad":
			p, err := b.padding(kv.value)
			if err != nil {
				return nil, err
			}
			box.ImagePadX, box.ImagePadY = p.Left, p.Top
		case "indent":
			if indent, err = b.length(kv.value); err != nil {
				return nil, err
			}
		}
	}

	runs, err := b.runs(cmd.Block, box.Font)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		box.Flow = layout.NewFlowBlock(0, runs...).SetHangingIndent(indent)
	}

	if a.flags["auto_width"] {
		if err := box.SetWidthToAuto(b.c); err != nil {
			return nil, err
		}
	}
	if box.RequestedWidth() <= 0 {
		box.SetWidth(b.contentWidth())
	}
	if a.flags["auto_height"] {
		if err := box.SetHeightToAuto(b.c); err != nil {
			return nil, err
		}
	}
	return box, nil
}

// runs 读取块中的 run 命令。
func (b *builder) runs(block *dsl.Block, base layout.Font) ([]*layout.TextRun, error) {
	if block == nil {
		return nil, nil
	}
	var out []*layout.TextRun
	for _, stmt := range block.Statements {
		cmd := stmt.Command
		if cmd == nil || cmd.Name != "run" {
			continue
		}
		a := b.parseArgs(cmd)
		run := layout.NewTextRun(strings.Join(a.text, ""))
		run.Font = base
		for _, kv := range a.attrs {
			var err error
			switch kv.key {
			case "font", "font_family", "family":
				run.Font.Family = kv.value
			case "style", "font_style":
				run.Font.Style = kv.value
			case "size", "font_size":
				var cfg layout.BoxConfig
				if err = cfg.Set("size", kv.value, b.length, b.color); err == nil {
					run.Font.Size = cfg.FontSize
				}
			case "color", "text_color":
				run.Color, err = b.color(kv.value)
			case "fill", "fill_color":
				var c layout.Color
				if c, err = b.color(kv.value); err == nil {
					run.Fill = &c
				}
			case "align":
				run.Align = layout.Align(strings.ToUpper(kv.value[:min(1, len(kv.value))]))
			case "padding":
				run.Padding, err = b.padding(kv.value)
			default:
				err = fmt.Errorf("%w: %s", layout.ErrUnknownOption, kv.key)
			}
			if err != nil {
				return nil, fmt.Errorf("%s: run: %w", cmd.Pos, err)
			}
		}
		out = append(out, run)
	}
	return out, nil
}

func (b *builder) flow(cmd *dsl.Command) (*layout.FlowBlock, error) {
	a := b.parseArgs(cmd, "auto_width", "auto_height")
	runs, err := b.runs(cmd.Block, b.font)
	if err != nil {
		return nil, err
	}
	fb := layout.NewFlowBlock(b.contentWidth(), runs...)
	for _, kv := range a.attrs {
		v, err := b.length(kv.value)
		if err != nil {
			return nil, err
		}
		switch kv.key {
		case "width":
			fb.SetWidth(v)
		case "height":
			fb.SetHeight(v)
		case "indent":
			fb.SetHangingIndent(v)
		default:
			return nil, fmt.Errorf("%w: %s", layout.ErrUnknownOption, kv.key)
		}
	}
	if a.flags["auto_width"] {
		if err := fb.SetWidthToAuto(b.c); err != nil {
			return nil, err
		}
	}
	if a.flags["auto_height"] {
		if err := fb.SetHeightToAuto(b.c); err != nil {
			return nil, err
		}
	}
	return fb, nil
}

func (b *builder) image(cmd *dsl.Command) (*layout.Image, error) {
	a := b.parseArgs(cmd)
	if len(a.text) == 0 {
		return nil, fmt.Errorf("缺少图片来源")
	}
	img, err := layout.NewImage(b.c, b.imageSrc(a.text[0]))
	if err != nil {
		return nil, err
	}
	for _, kv := range a.attrs {
		switch kv.key {
		case "border":
			img.Border = parseBorder(kv.value)
		case "border_color":
			if img.BorderStyle.Color, err = b.color(kv.value); err != nil {
				return nil, err
			}
		default:
			v, err := b.length(kv.value)
			if err != nil {
				return nil, err
			}
			switch kv.key {
			case "width":
				img.SetWidth(v)
			case "height":
				img.SetHeight(v)
			case "scaler_width", "max_width":
				img.ScalerWidth = v
			case "scaler_height", "max_height":
				img.ScalerHeight = v
			case "border_width":
				img.BorderStyle.Width = v
			default:
				return nil, fmt.Errorf("%w: %s", layout.ErrUnknownOption, kv.key)
			}
		}
	}
	return img, nil
}

func parseBorder(v string) layout.Border {
	switch strings.ToUpper(v) {
	case "", "0":
		return layout.Border{}
	case "1", "ALL":
		return layout.Border{All: true}
	}
	return layout.BorderSides(strings.ToUpper(v))
}

var rowFlags = []string{"skip", "no_break", "equalize", "header", "reset_x", "reset_y", "ignore_auto_height"}

// row 支持 skip、no_break、equalize（所有单元格取最大自动高度）与 height。
func (b *builder) row(cmd *dsl.Command) (*layout.BoxRow, error) {
	a := b.parseArgs(cmd, rowFlags...)
	row := layout.NewBoxRow()
	row.Skip = a.flags["skip"]
	row.LineBreakAfter = !a.flags["no_break"]
	row.ResetX, row.ResetY = a.flags["reset_x"], a.flags["reset_y"]
	row.ConsiderAutoHeight = !a.flags["ignore_auto_height"]
	inner := *b
	inner.inRow = true
	cells, err := inner.nodes(cmd.Block)
	if err != nil {
		return nil, err
	}
	for _, cell := range cells {
		row.AddCell(cell)
	}
	if a.flags["equalize"] {
		if err := row.SetHeightToAuto(b.c); err != nil {
			return nil, err
		}
	}
	for _, kv := range a.attrs {
		switch kv.key {
		case "height":
			h, err := b.length(kv.value)
			if err != nil {
				return nil, err
			}
			row.SetHeight(h)
		case "cell_width":
			w, err := b.length(kv.value)
			if err != nil {
				return nil, err
			}
			row.SetCellWidth(w)
		case "width":
			w, err := b.length(kv.value)
			if err != nil {
				return nil, err
			}
			row.SetWidth(w)
		default:
			return nil, fmt.Errorf("%w: %s", layout.ErrUnknownOption, kv.key)
		}
	}
	return row, nil
}

func (b *builder) table(cmd *dsl.Command) (*layout.BoxTable, error) {
	a := b.parseArgs(cmd, "reset_x", "reset_y", "equalize", "ignore_auto_height")
	t := layout.NewBoxTable()
	t.ResetX, t.ResetY = a.flags["reset_x"], a.flags["reset_y"]
	t.ConsiderAutoHeight = !a.flags["ignore_auto_height"]
	var cellW, rowH float64
	var err error
	for _, kv := range a.attrs {
		switch kv.key {
		case "min_rows":
			n, err := strconv.Atoi(kv.value)
			if err != nil {
				return nil, fmt.Errorf("min-rows: %w", err)
			}
			t.MinRowCount = n
		case "cell_width":
			if cellW, err = b.length(kv.value); err != nil {
				return nil, err
			}
		case "row_height":
			if rowH, err = b.length(kv.value); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: %s", layout.ErrUnknownOption, kv.key)
		}
	}
	if err := b.tableRows(t, cmd.Block); err != nil {
		return nil, err
	}
	if cellW > 0 {
		t.SetCellWidth(cellW)
	}
	if rowH > 0 {
		t.SetRowHeight(rowH)
	}
	if a.flags["equalize"] {
		if err := t.SetRowHeightToAuto(b.c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (b *builder) tableRows(t *layout.BoxTable, block *dsl.Block) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		cmd := stmt.Command
		if cmd == nil {
			continue
		}
		switch cmd.Name {
		case "row":
			row, err := b.row(cmd)
			if err != nil {
				return fmt.Errorf("%s: row: %w", cmd.Pos, err)
			}
			if b.parseArgs(cmd, rowFlags...).flags["header"] {
				t.Header = row
				continue
			}
			t.AddRow(row)
		case "each":
			_, err := b.each(cmd, func(inner *builder, blk *dsl.Block) ([]layout.Node, error) {
				return nil, inner.tableRows(t, blk)
			})
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: 表格中只能包含 row 或 each，得到 %q", cmd.Pos, cmd.Name)
		}
	}
	return nil
}

// group 的单元格来自块内 box 命令，或 `items "file.yaml"` 指定的 YAML 列表。
func (b *builder) group(cmd *dsl.Command) (*layout.BoxGroup, error) {
	a := b.parseArgs(cmd)
	g := &layout.BoxGroup{W: b.contentWidth()}
	for _, kv := range a.attrs {
		if kv.key == "items" {
			items, err := b.loadItems(kv.value)
			if err != nil {
				return nil, err
			}
			g.Items = append(g.Items, items...)
			continue
		}
		v, err := b.length(kv.value)
		if err != nil {
			return nil, err
		}
		switch kv.key {
		case "width":
			g.W = v
		case "height":
			g.H = v
		case "spacing":
			g.Spacing = v
		default:
			return nil, fmt.Errorf("%w: %s", layout.ErrUnknownOption, kv.key)
		}
	}
	if cmd.Block != nil {
		for _, stmt := range cmd.Block.Statements {
			if stmt.Command == nil || stmt.Command.Name != "box" {
				continue
			}
			cfg, _, err := b.boxConfig(b.parseArgs(stmt.Command, "fit"))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", stmt.Command.Pos, err)
			}
			if cfg.FontSize == 0 {
				cfg.FontSize = b.font.Size
			}
			if cfg.FontFamily == "" {
				cfg.FontFamily = b.font.Family
			}
			g.Items = append(g.Items, cfg)
		}
	}
	return g, nil
}

func (b *builder) loadItems(path string) ([]layout.BoxConfig, error) {
	if !filepath.IsAbs(path) && b.base != "" {
		path = filepath.Join(b.base, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", layout.ErrMissingResource, err)
	}
	defer f.Close()
	return layout.DecodeBoxConfigs(f)
}

// pie 的扇区来自块内 `wedge "标签" 数值`，或 `data path` 指向的 [{label, value}] 列表。
func (b *builder) pie(cmd *dsl.Command) (*chart.PieChart, error) {
	a := b.parseArgs(cmd)
	p := chart.NewPieChart(50)
	p.FontFamily = b.font.Family
	for _, kv := range a.attrs {
		switch kv.key {
		case "diameter", "size":
			d, err := b.length(kv.value)
			if err != nil {
				return nil, err
			}
			p.Diameter = d
		case "legend":
			p.Legend = kv.value != "off" && kv.value != "false"
		case "colors":
			for _, v := range strings.Split(kv.value, ",") {
				c, err := b.color(strings.TrimSpace(v))
				if err != nil {
					return nil, err
				}
				p.Colors = append(p.Colors, c)
			}
		case "data":
			wedges, err := b.dataWedges(kv.value)
			if err != nil {
				return nil, err
			}
			p.Wedges = append(p.Wedges, wedges...)
		default:
			return nil, fmt.Errorf("%w: %s", layout.ErrUnknownOption, kv.key)
		}
	}
	if cmd.Block != nil {
		for _, stmt := range cmd.Block.Statements {
			if stmt.Command == nil || stmt.Command.Name != "wedge" {
				continue
			}
			wa := b.parseArgs(stmt.Command)
			if len(wa.text) != 2 {
				return nil, fmt.Errorf("%s: wedge 需要标签和数值", stmt.Command.Pos)
			}
			v, ok := binding.Number(wa.text[1])
			if !ok {
				return nil, fmt.Errorf("%s: 无效的数值 %q", stmt.Command.Pos, wa.text[1])
			}
			p.Wedges = append(p.Wedges, chart.Wedge{Label: wa.text[0], Value: v})
		}
	}
	return p, nil
}

func (b *builder) dataWedges(path string) ([]chart.Wedge, error) {
	val, ok := binding.Lookup(b.data, path)
	if !ok {
		return nil, nil
	}
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%s 不是列表", path)
	}
	out := make([]chart.Wedge, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		v, _ := binding.Number(m["value"])
		out = append(out, chart.Wedge{Label: fmt.Sprint(m["label"]), Value: v})
	}
	return out, nil
}

func (b *builder) spacer(cmd *dsl.Command) (*layout.Spacer, error) {
	a := b.parseArgs(cmd)
	s := &layout.Spacer{}
	for _, kv := range a.attrs {
		v, err := b.length(kv.value)
		if err != nil {
			return nil, err
		}
		switch kv.key {
		case "width":
			s.W = v
		case "height":
			s.H = v
		default:
			return nil, fmt.Errorf("%w: %s", layout.ErrUnknownOption, kv.key)
		}
	}
	return s, nil
}
