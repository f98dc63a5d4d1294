package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ByLCY/folio/builder"
	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/internal/logging"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

func main() {
	input := flag.String("in", "examples/demo.folio", "DSL 文件路径")
	output := flag.String("out", "output/demo.pdf", "PDF 输出路径")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据（以 @ 开头表示文件）")
	configPath := flag.String("config", "", "TOML 设置文件路径")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("读取设置失败: %v", err)
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("设置无效: %v", err)
	}
	level := settings.Log.Level
	if *verbose {
		level = "debug"
	}
	logging.SetLogger(logging.NewTextLogger(os.Stderr, level))

	inputData, err := loadData(*dataJSON)
	if err != nil {
		log.Fatalf("解析 data JSON 失败: %v", err)
	}

	if err := run(*input, *output, *debug, *configPath, settings, inputData); err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

func loadData(arg string) (any, error) {
	if arg == "" {
		return nil, nil
	}
	raw := []byte(arg)
	if arg[0] == '@' {
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
		raw = b
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// run 串联解析、构建、布局与渲染。
func run(inputPath, outputPath, debugPath, configPath string, settings config.Settings, data any) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开 DSL 文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(inputPath, file)
	if err != nil {
		return err
	}

	defaults, err := settings.PageSpec()
	if err != nil {
		return err
	}
	setup, err := builder.Prepare(doc, defaults)
	if err != nil {
		return fmt.Errorf("读取文档设置失败: %w", err)
	}

	baseDir := filepath.Dir(inputPath)
	opts := canvasrenderer.Options{
		BaseDir:         baseDir,
		Fonts:           resources(settings.Fonts, filepath.Dir(configPath)),
		Images:          resources(settings.Images, filepath.Dir(configPath)),
		CellHeightRatio: settings.Text.CellHeightRatio,
	}
	// 文档中声明的资源优先于设置文件。
	for name, path := range setup.Fonts {
		opts.Fonts[name] = canvasrenderer.Resource{Path: path}
	}
	for name, path := range setup.Images {
		opts.Images[name] = canvasrenderer.Resource{Path: path}
	}
	if setup.CellHeightRatio > 0 {
		opts.CellHeightRatio = setup.CellHeightRatio
	}
	r := canvasrenderer.NewRendererWithOptions(opts)

	// 构建阶段需要画布来探测图片与计算自动尺寸；正式渲染使用新的画布。
	probe, err := r.NewSurface(setup.Page)
	if err != nil {
		return err
	}
	font := layout.Font{Family: settings.Text.FontFamily, Size: settings.Text.FontSize}
	result, err := builder.Build(doc, setup, probe, builder.Options{Data: data, Font: font, BaseDir: baseDir})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if debugPath != "" {
		if err := writeDebug(result, debugPath); err != nil {
			return err
		}
	}
	return render(r, result, outputPath)
}

func render(r renderer.Renderer, doc *layout.Document, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.Render(doc)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

// resources 将设置文件中的相对路径解析为相对 dir 的路径。
func resources(paths map[string]string, dir string) map[string]canvasrenderer.Resource {
	out := make(map[string]canvasrenderer.Resource, len(paths))
	for name, path := range paths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		out[name] = canvasrenderer.Resource{Path: path}
	}
	return out
}

func writeDebug(doc *layout.Document, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(doc, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
