// Package logging 提供 folio 各包共享的 *slog.Logger。
package logging

import (
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// 默认为 nil，此时 Logger() 返回丢弃一切输出的 logger。
var logger atomic.Pointer[slog.Logger]

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// SetLogger 设置包级 logger；传入 nil 关闭日志输出。
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		sl = discard()
	}
	logger.Store(sl)
}

// Logger 返回包级 logger，未设置时返回 discard logger。
func Logger() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = discard()
		logger.Store(l)
	}
	return l
}

// ParseLevel 将配置中的级别名转换为 slog.Level，无法识别时返回 Info。
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewTextLogger builds a text logger writing to w at the named level.
func NewTextLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}
