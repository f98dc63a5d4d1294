// Package fonts 提供随程序分发的内置字体（Go 字体家族）。
package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

var builtin = map[string][]byte{
	"go-regular":    goregular.TTF,
	"go-bold":       gobold.TTF,
	"go-italic":     goitalic.TTF,
	"go-bolditalic": gobolditalic.TTF,
	"go-mono":       gomono.TTF,
	"go-mono-bold":  gomonobold.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:go-bold" 或 "go-bold"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "embed:"))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}

// ForStyle 按 B/I 样式字母选择比例字体；mono 为真时使用等宽字体。
func ForStyle(style string, mono bool) []byte {
	bold := strings.ContainsAny(style, "Bb")
	italic := strings.ContainsAny(style, "Ii")
	switch {
	case mono && bold:
		return gomonobold.TTF
	case mono:
		return gomono.TTF
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	}
	return goregular.TTF
}

// Names lists the built-in font keys accepted by Load.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	return out
}
