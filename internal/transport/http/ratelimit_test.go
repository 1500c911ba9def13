package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterPerClient(t *testing.T) {
	now := time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2)
	l.now = func() time.Time { return now }
	handler := l.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, call("1.1.1.1"))
	require.Equal(t, http.StatusOK, call("1.1.1.1"))
	require.Equal(t, http.StatusTooManyRequests, call("1.1.1.1"))
	require.Equal(t, http.StatusOK, call("2.2.2.2"))

	now = now.Add(time.Second)
	require.Equal(t, http.StatusOK, call("1.1.1.1"))

	now = now.Add(visitorTTL + time.Second)
	l.evictIdle()
	require.Empty(t, l.visitors)
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	require.Equal(t, "192.0.2.7", clientIP(req))
}
