package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func serveWithLimiter(l *stubLimiter, remoteAddr, path string) *httptest.ResponseRecorder {
	handler := RateLimit(l, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitAllows(t *testing.T) {
	l := &stubLimiter{allow: true}
	rec := serveWithLimiter(l, "10.0.0.1:51234", "/api/join/abc")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"10.0.0.1:/api/join/abc"}, l.keys)
}

func TestRateLimitRejectsWithRetryAfter(t *testing.T) {
	l := &stubLimiter{allow: false}
	rec := serveWithLimiter(l, "10.0.0.1:51234", "/api/join/abc")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

// A dead limiter backend must not take the endpoints down with it.
func TestRateLimitFailsOpen(t *testing.T) {
	l := &stubLimiter{err: errors.New("redis: connection refused")}
	rec := serveWithLimiter(l, "10.0.0.1:51234", "/api/join/abc")

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimitKeyWithoutPort(t *testing.T) {
	l := &stubLimiter{allow: true}
	serveWithLimiter(l, "10.0.0.2", "/api/join/abc")

	assert.Equal(t, []string{"10.0.0.2:/api/join/abc"}, l.keys)
}
