package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimitPerClient(t *testing.T) {
	rejected := 0
	h := RateLimit(NewLimiterPool(0.001, 2), func() { rejected++ })(okHandler())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)
		return resp.Code
	}

	require.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
	require.Equal(t, http.StatusOK, send("10.0.0.1:1001"))
	require.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1002"))
	require.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
	require.Equal(t, 1, rejected)
}

func TestLimiterPoolPrune(t *testing.T) {
	pool := NewLimiterPool(1, 1)
	now := time.Now()
	pool.now = func() time.Time { return now }
	pool.Allow("a")

	now = now.Add(time.Hour)
	pool.Allow("b")
	pool.Prune(time.Minute)

	require.Len(t, pool.m, 1)
	require.Contains(t, pool.m, "b")
}

func TestCORSPreflight(t *testing.T) {
	h := CORS("https://metamorphosis.example")(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "https://metamorphosis.example", resp.Header().Get("Access-Control-Allow-Origin"))
}
