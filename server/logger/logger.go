// Package logger 組裝服務用的 slog.Logger。
//
// 模式：dev 寫 stderr 文字（Debug 起），prod 寫 JSON（Info 起），silence 全部丟棄。
// 服務端預設包一層 AsyncHandler，請求路徑上只做入列。
package logger

import (
	"cmp"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LogMode uint8

const (
	ModeDev LogMode = iota
	ModeProd
	ModeSilence
)

// ParseMode 空字串視為 dev；無法辨識回傳 ModeDev, false
func ParseMode(s string) (LogMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dev":
		return ModeDev, true
	case "prod":
		return ModeProd, true
	case "silence", "silent":
		return ModeSilence, true
	}
	return ModeDev, false
}

// NewDefaultLogger 同步 logger
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(handlerFor(mode, nil))
}

// NewAsync 非阻塞 logger；關閉時呼叫 AsyncHandler.Close 把佇列寫完
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(handlerFor(mode, nil), buf)
	return slog.New(ah), ah
}

// RotateOptions 零值欄位取預設：100MB、7 份、28 天
type RotateOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewRotating 寫入 lumberjack 輪替檔。
// 關閉順序：先 AsyncHandler.Close，再關閉回傳的 io.Closer。
func NewRotating(path string, mode LogMode, opt RotateOptions) (*slog.Logger, *AsyncHandler, io.Closer) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cmp.Or(opt.MaxSizeMB, 100),
		MaxBackups: cmp.Or(opt.MaxBackups, 7),
		MaxAge:     cmp.Or(opt.MaxAgeDays, 28),
		Compress:   opt.Compress,
	}
	ah := NewAsyncHandler(handlerFor(mode, lj), 8192)
	return slog.New(ah), ah, lj
}

// handlerFor w 為 nil 時 dev 寫 stderr、prod 寫 stdout
func handlerFor(mode LogMode, w io.Writer) slog.Handler {
	switch mode {
	case ModeSilence:
		return slog.NewTextHandler(io.Discard, nil)
	case ModeProd:
		if w == nil {
			w = os.Stdout
		}
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		if w == nil {
			w = os.Stderr
		}
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
