package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// SkipPaths 不經過壓縮的路徑前綴（promhttp 自行處理壓縮）
var SkipPaths = []string{"/metrics"}

// compressor gzip.Writer 與 zstd.Encoder 共有的方法
type compressor interface {
	io.Writer
	Flush() error
	Close() error
	Reset(io.Writer)
}

type codec struct {
	name string
	pool sync.Pool
}

// 依偏好順序排列：zstd 優先
var codecs = []*codec{
	{name: "zstd", pool: sync.Pool{New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
		return enc
	}}},
	{name: "gzip", pool: sync.Pool{New: func() any {
		gw, _ := gzip.NewWriterLevel(nil, gzip.DefaultCompression)
		return gw
	}}},
}

func (c *codec) get(w io.Writer) compressor {
	cp := c.pool.Get().(compressor)
	cp.Reset(w)
	return cp
}

// negotiate 選出本次回應使用的編碼，nil 表示不壓縮
func negotiate(w http.ResponseWriter, r *http.Request) *codec {
	if r.Method == http.MethodHead || r.Header.Get("Upgrade") != "" || w.Header().Get("Content-Encoding") != "" {
		return nil
	}
	for _, p := range SkipPaths {
		if strings.HasPrefix(r.URL.Path, p) {
			return nil
		}
	}
	accepted := make(map[string]bool)
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.ReplaceAll(params, " ", "") == "q=0" {
			continue
		}
		accepted[strings.ToLower(name)] = true
	}
	for _, c := range codecs {
		if accepted[c.name] {
			return c
		}
	}
	return nil
}

type compressWriter struct {
	http.ResponseWriter
	cp     compressor
	bypass bool // 1xx/204/304 沒有 body，不寫入壓縮資料
}

func (cw *compressWriter) WriteHeader(code int) {
	h := cw.Header()
	h.Del("Content-Length")
	if code < 200 || code == http.StatusNoContent || code == http.StatusNotModified {
		cw.bypass = true
		h.Del("Content-Encoding")
		h.Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if cw.bypass {
		return cw.ResponseWriter.Write(b)
	}
	h := cw.Header()
	h.Del("Content-Length")
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", http.DetectContentType(b))
	}
	return cw.cp.Write(b)
}

func (cw *compressWriter) Flush() {
	if !cw.bypass {
		_ = cw.cp.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap 讓 http.ResponseController 取得底層 writer
func (cw *compressWriter) Unwrap() http.ResponseWriter { return cw.ResponseWriter }

// Compression 依 Accept-Encoding 以 zstd 或 gzip 壓縮回應
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := negotiate(w, r)
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Encoding", c.name)
		w.Header().Add("Vary", "Accept-Encoding")

		cw := &compressWriter{ResponseWriter: w, cp: c.get(w)}
		defer func() {
			if cw.bypass {
				// 丟掉 Close 產生的 footer，避免污染無 body 的回應
				cw.cp.Reset(io.Discard)
			}
			_ = cw.cp.Close()
			c.pool.Put(cw.cp)
		}()
		next.ServeHTTP(cw, r)
	})
}
