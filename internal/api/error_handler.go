package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// Message carries the underlying cause in development builds only.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
//
// When development is true, 500 responses include the underlying error
// message; production responses stay generic.
func NewHTTPErrorHandler(log zerolog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c, development)
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, development bool) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusMethodNotAllowed {
			return he.Code, errorResponse{Error: "Method not allowed"}
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"}
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, errorResponse{Error: "Authentication required"}
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Error: "Too many requests. Please try again later."}
	}

	// Transport failures and everything unexpected: log the real cause,
	// return a generic envelope.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	resp := errorResponse{Error: "Internal server error"}
	if development {
		resp.Message = err.Error()
	}
	return http.StatusInternalServerError, resp
}
