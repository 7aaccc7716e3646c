package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// AsyncHandler 把 Record 丟進佇列，由單一背景 goroutine 交給下一層 Handler 寫出。
// 佇列滿或已關閉時直接丟棄並計數，不會阻塞呼叫端。
//
// WithAttrs / WithGroup 產生的 Handler 共用同一條佇列。
type AsyncHandler struct {
	next slog.Handler
	q    *queue
}

type entry struct {
	ctx context.Context
	rec slog.Record
	h   slog.Handler
}

type queue struct {
	mu      sync.RWMutex // 保護 closed 與 ch 的關閉
	ch      chan entry
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
}

func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = handlerFor(ModeDev, nil)
	}
	if buf <= 0 {
		buf = 1024
	}
	q := &queue{ch: make(chan entry, buf), done: make(chan struct{})}
	go q.drain()
	return &AsyncHandler{next: next, q: q}
}

// drain 直到佇列被關閉且清空
func (q *queue) drain() {
	defer close(q.done)
	for e := range q.ch {
		_ = e.h.Handle(e.ctx, e.rec)
	}
}

func (q *queue) push(e entry) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return
	}
	select {
	case q.ch <- e:
	default:
		q.dropped.Add(1)
	}
}

func (h *AsyncHandler) Ready() bool { return h != nil && h.q != nil }

// Dropped 因佇列已滿或已關閉而丟棄的筆數
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

// Close 停止收件並等待佇列寫完，可重複呼叫
func (h *AsyncHandler) Close() {
	if !h.Ready() {
		return
	}
	h.q.mu.Lock()
	if !h.q.closed {
		h.q.closed = true
		close(h.q.ch)
	}
	h.q.mu.Unlock()
	<-h.q.done
}

// ** slog.Handler **

func (h *AsyncHandler) Enabled(ctx context.Context, lv slog.Level) bool {
	return h.next.Enabled(ctx, lv)
}

// Handle Record 必須 Clone，呼叫端返回後其內部 attrs 可能被重用
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.Ready() {
		h.q.push(entry{ctx: ctx, rec: r.Clone(), h: h.next})
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}
