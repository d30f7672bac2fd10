// Package logger 构建应用使用的结构化日志记录器
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New 创建写入 w 的文本日志，verbose 时输出 Debug 级别
func New(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard 丢弃所有输出的日志
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
