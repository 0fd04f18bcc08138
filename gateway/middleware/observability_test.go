package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObservabilityRecordsRequests(t *testing.T) {
	obs := NewObservability(ObservabilityConfig{MetricsPrefix: "test_http", Enabled: true, LogRequests: true}, nil)
	handler := obs.Middleware("acts")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))

	for _, target := range []string{"/", "/", "/?fail=1"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	require.InDelta(t, 2, testutil.ToFloat64(obs.requests.WithLabelValues("acts", http.MethodGet, "200")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(obs.requests.WithLabelValues("acts", http.MethodGet, "500")), 0)
	require.InDelta(t, 0, testutil.ToFloat64(obs.inflight.WithLabelValues("acts")), 0)

	rec := httptest.NewRecorder()
	obs.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "test_http_requests_total"))
	require.True(t, strings.Contains(body, "test_http_response_size_bytes"))
}

func TestObservabilityDisabledPassesThrough(t *testing.T) {
	obs := NewObservability(ObservabilityConfig{}, nil)
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, wrapped := w.(*statusRecorder)
		require.False(t, wrapped)
	})
	obs.Middleware("acts")(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestStatusRecorderForwardsHijack(t *testing.T) {
	obs := NewObservability(ObservabilityConfig{Enabled: true}, nil)
	hijacked := make(chan error, 1)
	srv := httptest.NewServer(obs.Middleware("ws")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			hijacked <- http.ErrNotSupported
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_, _ = io.WriteString(conn, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
			conn.Close()
		}
		hijacked <- err
	})))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.NoError(t, <-hijacked)
}
