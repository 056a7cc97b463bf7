package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/api/metrics"
	"github.com/memberly/edge-gateway/internal/session"
)

// AuthGate is the server-enforced authorization boundary at the edge:
//
//   - /admin/*: requires a session token and an admin snapshot. Missing
//     token redirects to the login page with the original path preserved;
//     a non-admin session adds error=admin_required. An unreadable
//     user_data cookie counts as not-admin (fail closed).
//   - /login, /register: an authenticated visitor never sees these pages;
//     admins land on /admin/users, members on /member/dashboard.
//   - everything else passes through.
//
// The snapshot check is a UX gate only. The backend re-authorizes every
// proxied call against the bearer token, so a forged cookie buys nothing
// beyond an HTML page that renders no data.
//
// Register with e.Pre so it also covers paths with no registered handler.
func AuthGate(sessions *session.Manager, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			switch {
			case strings.HasPrefix(path, "/admin"):
				return gateAdmin(c, next, sessions, logger, path)
			case path == "/login" || path == "/register":
				return gateAuthPage(c, next, sessions)
			default:
				return next(c)
			}
		}
	}
}

func gateAdmin(c echo.Context, next echo.HandlerFunc, sessions *session.Manager, logger zerolog.Logger, path string) error {
	sess := sessions.Read(c)

	if !sess.Authenticated() {
		metrics.AuthGateDecisionsTotal.WithLabelValues("login_redirect").Inc()
		return c.Redirect(http.StatusFound, "/login?redirect="+path)
	}

	if !sess.Admin() {
		logger.Warn().
			Str("path", path).
			Str("ip", ClientIP(c.Request())).
			Msg("non-admin session blocked from admin route")
		metrics.AuthGateDecisionsTotal.WithLabelValues("admin_required").Inc()
		return c.Redirect(http.StatusFound, "/login?redirect="+path+"&error=admin_required")
	}

	metrics.AuthGateDecisionsTotal.WithLabelValues("pass").Inc()
	return next(c)
}

func gateAuthPage(c echo.Context, next echo.HandlerFunc, sessions *session.Manager) error {
	sess := sessions.Read(c)
	if !sess.Authenticated() {
		return next(c)
	}

	metrics.AuthGateDecisionsTotal.WithLabelValues("authed_redirect").Inc()
	if sess.Admin() {
		return c.Redirect(http.StatusFound, "/admin/users")
	}
	return c.Redirect(http.StatusFound, "/member/dashboard")
}
