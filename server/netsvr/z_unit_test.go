package netsvr

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGroupAndOptions(t *testing.T) {
	c := NewChiServer("", WithTimeouts(0, time.Minute, 0))
	if c.Address() != DefaultAddr || !c.Ready() {
		t.Fatalf("addr = %q ready = %v", c.Address(), c.Ready())
	}
	if c.srv.WriteTimeout != time.Minute || c.srv.ReadTimeout != 10*time.Second {
		t.Fatalf("timeouts = %v / %v", c.srv.ReadTimeout, c.srv.WriteTimeout)
	}

	c.Group("/v1", func(r NetRouter) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("pong")) })
	})
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ping", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("post status = %d", rec.Code)
	}
}
