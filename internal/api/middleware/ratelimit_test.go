package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/audit"
)

type stubLimiter struct {
	allowed    bool
	retryAfter int
	err        error
	lastKey    string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int) (bool, int, error) {
	s.lastKey = key
	return s.allowed, s.retryAfter, s.err
}

func runRateLimit(t *testing.T, limiter *stubLimiter) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	passed := false
	mw := RateLimit(limiter, 5, audit.Noop{}, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		passed = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, passed
}

func TestRateLimit_AllowedPasses(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	_, passed := runRateLimit(t, limiter)

	if !passed {
		t.Fatalf("allowed request should reach the handler")
	}
	if limiter.lastKey != "203.0.113.9" {
		t.Fatalf("limiter keyed on %q, want client IP", limiter.lastKey)
	}
}

func TestRateLimit_DeniedGets429WithRetryAfter(t *testing.T) {
	rec, passed := runRateLimit(t, &stubLimiter{allowed: false, retryAfter: 42})

	if passed {
		t.Fatalf("denied request must not reach the handler")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "42" {
		t.Fatalf("missing Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_LimiterFailureFailsOpen(t *testing.T) {
	_, passed := runRateLimit(t, &stubLimiter{err: errors.New("redis down")})
	if !passed {
		t.Fatalf("limiter outage must not block requests")
	}
}
