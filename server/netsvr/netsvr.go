// Package netsvr 包裝 HTTP 路由與監聽。handler 只依賴 NetRouter，不直接碰 chi。
package netsvr

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/reelkit/server/app"
)

// DefaultAddr 預設監聽位址
const DefaultAddr = ":5808"

// NetRouter 路由註冊；Group 回呼只拿得到子路由
type NetRouter interface {
	Use(mw func(http.Handler) http.Handler)
	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)
	Handle(path string, h http.Handler)
	Group(prefix string, fn func(NetRouter))
}

// NetSvr 可啟停的路由，交給 app.App 管理
type NetSvr interface {
	NetRouter
	app.Component
}

// Option 調整 http.Server
type Option func(*http.Server)

// WithTimeouts 零值欄位保留預設（read 10s / write 30s / idle 120s）
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *http.Server) {
		s.ReadTimeout = cmp.Or(read, s.ReadTimeout)
		s.WriteTimeout = cmp.Or(write, s.WriteTimeout)
		s.IdleTimeout = cmp.Or(idle, s.IdleTimeout)
	}
}

// ChiAdapter 以 chi 實作 NetSvr
type ChiAdapter struct {
	mux chi.Router
	srv *http.Server // 子路由為 nil
}

// NewChiServer addr 為空時使用 DefaultAddr。模擬請求較慢，write timeout 預設 30s。
func NewChiServer(addr string, opts ...Option) *ChiAdapter {
	mux := chi.NewRouter()
	srv := &http.Server{
		Addr:              cmp.Or(addr, DefaultAddr),
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	for _, o := range opts {
		o(srv)
	}
	return &ChiAdapter{mux: mux, srv: srv}
}

func (c *ChiAdapter) Ready() bool {
	return c != nil && c.mux != nil && c.srv != nil && strings.Contains(c.srv.Addr, ":")
}

// Run 阻塞直到 Shutdown；正常關閉回傳 nil
func (c *ChiAdapter) Run() error {
	if err := c.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *ChiAdapter) Shutdown(ctx context.Context) error { return c.srv.Shutdown(ctx) }

func (c *ChiAdapter) Address() string { return c.srv.Addr }

// Handler 根路由，給 httptest 或掛到既有服務
func (c *ChiAdapter) Handler() http.Handler { return c.mux }

// ** NetRouter **

func (c *ChiAdapter) Use(mw func(http.Handler) http.Handler) { c.mux.Use(mw) }
func (c *ChiAdapter) Get(p string, h http.HandlerFunc)       { c.mux.Get(p, h) }
func (c *ChiAdapter) Post(p string, h http.HandlerFunc)      { c.mux.Post(p, h) }
func (c *ChiAdapter) Delete(p string, h http.HandlerFunc)    { c.mux.Delete(p, h) }
func (c *ChiAdapter) Handle(p string, h http.Handler)        { c.mux.Handle(p, h) }

func (c *ChiAdapter) Group(prefix string, fn func(NetRouter)) {
	c.mux.Route(prefix, func(r chi.Router) { fn(&ChiAdapter{mux: r}) })
}
