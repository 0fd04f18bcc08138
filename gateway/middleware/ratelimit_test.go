package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{"rpc": {RatePerSecond: 1, Burst: 1}}, nil)
	handler := limiter.Middleware("rpc")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	require.Equal(t, "1", res.Header().Get("Retry-After"))
}

func TestRetryAfterRoundsUp(t *testing.T) {
	require.Equal(t, 1, RateLimit{RatePerSecond: 20}.retryAfter())
	require.Equal(t, 4, RateLimit{RatePerSecond: 0.3}.retryAfter())
	require.Equal(t, 1, RateLimit{}.retryAfter())
}

func TestRateLimiterSeparatesRoutesAndClients(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"rpc":          {RatePerSecond: 1, Burst: 1},
		"volunteering": {RatePerSecond: 1, Burst: 1},
	}, nil)
	rpc := limiter.Middleware("rpc")(okHandler())
	vol := limiter.Middleware("volunteering")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	res := httptest.NewRecorder()
	rpc.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	vol.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, "routes keep separate buckets")

	other := httptest.NewRequest(http.MethodPost, "/", nil)
	other.Header.Set("X-Real-IP", "10.0.0.9")
	res = httptest.NewRecorder()
	rpc.ServeHTTP(res, other)
	require.Equal(t, http.StatusOK, res.Code, "clients keep separate buckets")
}

func TestRateLimiterUnknownKeyPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(nil, nil)
	handler := limiter.Middleware("missing")(okHandler())
	for i := 0; i < 5; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, res.Code)
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(map[string]RateLimit{"rpc": {RatePerSecond: 1, Burst: 1}}, nil)
	limiter.clockNow = func() time.Time { return now }
	handler := limiter.Middleware("rpc")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, 1, limiter.Visitors())

	now = now.Add(2 * visitorIdleTTL)
	other := httptest.NewRequest(http.MethodPost, "/", nil)
	other.Header.Set("X-Real-IP", "10.1.1.1")
	handler.ServeHTTP(httptest.NewRecorder(), other)
	require.Equal(t, 1, limiter.Visitors())
}
