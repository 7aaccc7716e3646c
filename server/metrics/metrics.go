// Package metrics 以 prometheus 紀錄拉霸與 HTTP 指標。
//
// 每個 Metrics 持有自己的 Registry，測試與多個 server instance 之間不會互相衝突。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zintix-labs/reelkit/sdk/slot"
	"github.com/zintix-labs/reelkit/server/netsvr/middleware"
)

const namespace = "reelkit"

// label
const (
	LabelGame    = "game"
	LabelWinType = "win_type"
	LabelMode    = "mode"
	LabelCode    = "code"
	LabelMethod  = "method"
	LabelRoute   = "route"
	LabelStatus  = "status"
)

var latencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

type Metrics struct {
	reg *prometheus.Registry

	Spins       *prometheus.CounterVec
	Wagered     *prometheus.CounterVec
	Paid        *prometheus.CounterVec
	Rejects     *prometheus.CounterVec
	JackpotPool *prometheus.GaugeVec
	LossStreak  *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New 建立指標並註冊到新的 Registry（含 go runtime / process collector）
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Spins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "spins_total",
			Help: "Settled spins by win type and draw mode",
		}, []string{LabelGame, LabelWinType, LabelMode}),
		Wagered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "wagered_total",
			Help: "Total chips wagered",
		}, []string{LabelGame}),
		Paid: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "paid_total",
			Help: "Total chips paid out",
		}, []string{LabelGame}),
		Rejects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "spin_rejects_total",
			Help: "Rejected spin requests by reason code",
		}, []string{LabelGame, LabelCode}),
		JackpotPool: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "jackpot_pool",
			Help: "Jackpot pool amount after the last settled spin",
		}, []string{LabelGame}),
		LossStreak: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "loss_streak",
			Help:    "Consecutive losses after each settled spin",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}, []string{LabelGame}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{LabelMethod, LabelRoute, LabelStatus}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: latencyBuckets,
		}, []string{LabelMethod, LabelRoute}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
	}
}

// Registry 供測試讀取
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// For 回傳帶 game label 的 slot.Observer
func (m *Metrics) For(game string) slot.Observer {
	return &gameObserver{m: m, game: game}
}

type gameObserver struct {
	m    *Metrics
	game string
}

func (o *gameObserver) OnSpin(res slot.SpinResult) {
	o.m.Spins.WithLabelValues(o.game, res.WinType.String(), res.Mode.String()).Inc()
	o.m.Wagered.WithLabelValues(o.game).Add(float64(res.Bet))
	if res.Payout > 0 {
		o.m.Paid.WithLabelValues(o.game).Add(float64(res.Payout))
	}
	o.m.JackpotPool.WithLabelValues(o.game).Set(float64(res.JackpotPool))
	o.m.LossStreak.WithLabelValues(o.game).Observe(float64(res.Streak.ConsecutiveLosses))
}

func (o *gameObserver) OnReject(code string) {
	if code == "" {
		code = "unknown"
	}
	o.m.Rejects.WithLabelValues(o.game, code).Inc()
}

// Middleware 收集 HTTP 指標。route 取 chi 的路由樣板，session id 不會變成 label。
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		ww := middleware.Wrap(w, r)
		next.ServeHTTP(ww, r)

		route := middleware.RoutePattern(r)
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(middleware.StatusOf(ww))).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
