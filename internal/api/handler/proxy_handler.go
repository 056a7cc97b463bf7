package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memberly/edge-gateway/internal/core/ports"
	"github.com/memberly/edge-gateway/internal/session"
)

// ProxyHandler turns a backend path template and a route policy into an
// echo handler. Every REST resource the gateway fronts is one Route call in
// the router; the handler itself stays a thin pass-through.
type ProxyHandler struct {
	proxy    ports.UpstreamProxy
	sessions *session.Manager
}

func NewProxyHandler(proxy ports.UpstreamProxy, sessions *session.Manager) *ProxyHandler {
	return &ProxyHandler{proxy: proxy, sessions: sessions}
}

// Route builds the handler for one backend path template. Template segments
// starting with ':' are substituted from the matched echo route params, so
// "/categories/:id" with a request for /api/categories/7 forwards to
// "/categories/7".
func (h *ProxyHandler) Route(template string, cfg ports.RouteConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		result, err := h.proxy.Forward(req.Context(), &ports.ForwardRequest{
			Method:      req.Method,
			BackendPath: expandTemplate(template, c),
			Query:       c.QueryParams(),
			Header:      req.Header,
			Body:        req.Body,
			Token:       h.sessions.Token(c),
		}, cfg)
		if err != nil {
			return err
		}

		return c.JSON(result.Status, result.Payload)
	}
}

func expandTemplate(template string, c echo.Context) string {
	if !strings.Contains(template, ":") {
		return template
	}
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			segments[i] = c.Param(seg[1:])
		}
	}
	return strings.Join(segments, "/")
}
