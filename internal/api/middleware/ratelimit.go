package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/api/metrics"
	"github.com/memberly/edge-gateway/internal/core/domain"
	"github.com/memberly/edge-gateway/internal/core/ports"
)

// RateLimit caps requests per client IP on the route it wraps. Denials get
// a 429 with Retry-After. A limiter backend failure fails open: abuse
// control is not worth taking the login endpoint down with Redis.
func RateLimit(limiter ports.RateLimiter, limit int, sink ports.AuditSink, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := ClientIP(c.Request())

			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), ip, limit)
			if err != nil {
				logger.Error().Err(err).Str("ip", ip).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if allowed {
				return next(c)
			}

			metrics.RateLimitRejectionsTotal.WithLabelValues(c.Path()).Inc()
			sink.Record(domain.AuditEvent{
				Kind:      "rate_limited",
				IP:        ip,
				UserAgent: c.Request().UserAgent(),
			})

			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
		}
	}
}
