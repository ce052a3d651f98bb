package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterRejectsOverLimitRequests(t *testing.T) {
	limit := RateLimit{
		PathRegexp: "^/limited$",
		Requests:   1,
		Burst:      1,
	}
	require.NoError(t, limit.Compile())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimiter([]RateLimit{limit}, next)

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	require.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestRateLimiterIgnoresNonMatchingPaths(t *testing.T) {
	limit := RateLimit{
		PathRegexp: "^/limited$",
		Requests:   1,
		Burst:      1,
	}
	require.NoError(t, limit.Compile())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimiter([]RateLimit{limit}, next)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/unlimited", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
