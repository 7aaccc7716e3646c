package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Wrap 包一層可讀取狀態碼與位元組數的 ResponseWriter
func Wrap(w http.ResponseWriter, r *http.Request) chimw.WrapResponseWriter {
	return chimw.NewWrapResponseWriter(w, r.ProtoMajor)
}

// StatusOf handler 未呼叫 WriteHeader 時視為 200
func StatusOf(ww chimw.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

// RoutePattern chi 的路由樣板（例如 /v1/sessions/{sid}/spin），未匹配回傳 "unmatched"
func RoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// AccessLog 每個請求一筆 http.access。log 為 nil 時不掛載。
func AccessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if log == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := Wrap(w, r)
			next.ServeHTTP(ww, r)

			status := StatusOf(ww)
			lv := slog.LevelInfo
			switch {
			case status >= 500:
				lv = slog.LevelError
			case status >= 400:
				lv = slog.LevelWarn
			}
			log.LogAttrs(r.Context(), lv, "http.access",
				slog.String("req_id", GetReqId(r)),
				slog.String("method", r.Method),
				slog.String("route", RoutePattern(r)),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("latency", time.Since(start)),
			)
		})
	}
}
