package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	allowOrigin  = "*"
	allowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	allowHeaders = "Content-Type, Authorization"
	maxAge       = "86400"
)

// CORS handles the /api/* cross-origin contract. Preflights are answered
// directly without reaching a handler; every other API response gets the
// permissive CORS headers plus the standard browser hardening headers.
//
// Register with e.Pre so OPTIONS is intercepted before routing.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Request().URL.Path, "/api/") {
				return next(c)
			}

			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)

			if c.Request().Method == http.MethodOptions {
				h.Set("Access-Control-Max-Age", maxAge)
				return c.NoContent(http.StatusOK)
			}

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "1; mode=block")

			return next(c)
		}
	}
}
