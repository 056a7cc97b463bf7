package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/api/middleware"
	"github.com/memberly/edge-gateway/internal/core/domain"
	"github.com/memberly/edge-gateway/internal/core/ports"
	"github.com/memberly/edge-gateway/internal/sanitize"
	"github.com/memberly/edge-gateway/internal/session"
)

// AuthHandler owns every route that touches the session cookies: login,
// register, logout, the session bootstrap endpoint, and the profile routes
// whose responses refresh the cached user snapshot.
//
// These are the only routes that look inside the request body before
// forwarding; everything else is a blind pass-through.
type AuthHandler struct {
	proxy    ports.UpstreamProxy
	sessions *session.Manager
	audit    ports.AuditSink
	logger   zerolog.Logger
}

func NewAuthHandler(proxy ports.UpstreamProxy, sessions *session.Manager, audit ports.AuditSink, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{proxy: proxy, sessions: sessions, audit: audit, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type changePasswordRequest struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,min=8"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

// authEnvelope is the loose shape of the backend's auth responses.
type authEnvelope struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"access_token"`
	User        json.RawMessage `json:"user"`
}

func (e *authEnvelope) bearer() string {
	if e.Token != "" {
		return e.Token
	}
	return e.AccessToken
}

// Login validates credentials locally, forwards them to the backend, and on
// success turns the returned token and user into session cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	res, ok, err := h.sanitizedBody(c, []string{"email", "password"})
	if !ok {
		return err
	}

	req := loginRequest{
		Email:    asString(res.Sanitized["email"]),
		Password: asString(res.Sanitized["password"]),
	}
	if err := c.Validate(req); err != nil {
		return validationFailed(c, err.Error())
	}

	result, err := h.forwardJSON(c, http.MethodPost, "/login", res.Sanitized)
	if err != nil {
		h.recordAuth(c, "login", req.Email, false)
		return err
	}

	success := is2xx(result.Status)
	if success {
		h.establishSession(c, result.RawBody)
	}
	h.recordAuth(c, "login", req.Email, success)

	return c.JSON(result.Status, result.Payload)
}

// Register creates an account on the backend and, like Login, establishes
// the session cookies when the backend confirms.
//
// @Summary      Register a new member
// @Tags         auth
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	res, ok, err := h.sanitizedBody(c, []string{"name", "email", "password", "password_confirmation"})
	if !ok {
		return err
	}

	req := registerRequest{
		Name:                 asString(res.Sanitized["name"]),
		Email:                asString(res.Sanitized["email"]),
		Password:             asString(res.Sanitized["password"]),
		PasswordConfirmation: asString(res.Sanitized["password_confirmation"]),
	}
	if err := c.Validate(req); err != nil {
		return validationFailed(c, err.Error())
	}

	result, err := h.forwardJSON(c, http.MethodPost, "/register", res.Sanitized)
	if err != nil {
		h.recordAuth(c, "register", req.Email, false)
		return err
	}

	success := is2xx(result.Status)
	if success {
		h.establishSession(c, result.RawBody)
	}
	h.recordAuth(c, "register", req.Email, success)

	return c.JSON(result.Status, result.Payload)
}

// Logout clears the session cookies and best-effort revokes the token
// upstream. The cookies go away even when the backend is unreachable.
//
// @Summary      Logout
// @Tags         auth
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := h.sessions.Token(c)
	h.sessions.Clear(c)
	h.recordAuth(c, "logout", "", true)

	if token == "" {
		return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
	}

	result, err := h.proxy.Forward(c.Request().Context(), &ports.ForwardRequest{
		Method:      http.MethodPost,
		BackendPath: "/logout",
		Header:      c.Request().Header,
		Token:       token,
	}, ports.RouteConfig{AllowedMethods: []string{http.MethodPost}})
	if err != nil {
		h.logger.Warn().Err(err).Msg("upstream logout failed, cookies cleared anyway")
		return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
	}

	return c.JSON(result.Status, result.Payload)
}

// Me is the session bootstrap endpoint: it verifies the cookie token
// against the backend's current-user endpoint. Success refreshes the
// user_data cookie with the authoritative payload; any failure (bad token,
// backend error, network error) clears both cookies. This is the single
// reconciliation point between the optimistic cookie state and backend truth.
//
// @Summary      Current user
// @Tags         auth
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	token := h.sessions.Token(c)
	if token == "" {
		return domain.ErrAuthRequired
	}

	result, err := h.proxy.Forward(c.Request().Context(), &ports.ForwardRequest{
		Method:      http.MethodGet,
		BackendPath: "/user",
		Header:      c.Request().Header,
		Token:       token,
	}, ports.RouteConfig{RequireAuth: true, AllowedMethods: []string{http.MethodGet}})
	if err != nil || !is2xx(result.Status) {
		h.sessions.Clear(c)
		return domain.ErrAuthRequired
	}

	if err := h.sessions.RefreshUser(c, userPayload(result.RawBody)); err != nil {
		h.logger.Warn().Err(err).Msg("failed to refresh user snapshot cookie")
	}
	return c.JSON(result.Status, result.Payload)
}

// UpdateProfile forwards the profile mutation and, when the backend
// accepts it, refreshes the snapshot cookie so the UI hint stays current.
//
// @Summary      Update profile
// @Tags         user
// @Router       /api/user/profile [patch]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	req := c.Request()
	result, err := h.proxy.Forward(req.Context(), &ports.ForwardRequest{
		Method:      req.Method,
		BackendPath: "/user/profile",
		Query:       c.QueryParams(),
		Header:      req.Header,
		Body:        req.Body,
		Token:       h.sessions.Token(c),
	}, ports.RouteConfig{RequireAuth: true, AllowedMethods: []string{http.MethodGet, http.MethodPatch}})
	if err != nil {
		return err
	}

	if req.Method == http.MethodPatch && is2xx(result.Status) {
		if err := h.sessions.RefreshUser(c, userPayload(result.RawBody)); err != nil {
			h.logger.Warn().Err(err).Msg("failed to refresh user snapshot cookie")
		}
	}
	return c.JSON(result.Status, result.Payload)
}

// ChangePassword pre-validates the password change before the backend sees it.
//
// @Summary      Change password
// @Tags         user
// @Router       /api/user/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	if h.sessions.Token(c) == "" {
		return domain.ErrAuthRequired
	}

	res, ok, err := h.sanitizedBody(c, []string{"current_password", "new_password", "new_password_confirmation"})
	if !ok {
		return err
	}

	req := changePasswordRequest{
		CurrentPassword:         asString(res.Sanitized["current_password"]),
		NewPassword:             asString(res.Sanitized["new_password"]),
		NewPasswordConfirmation: asString(res.Sanitized["new_password_confirmation"]),
	}
	if err := c.Validate(req); err != nil {
		return validationFailed(c, err.Error())
	}

	result, err := h.forwardJSON(c, http.MethodPost, "/user/change-password", res.Sanitized)
	if err != nil {
		return err
	}
	return c.JSON(result.Status, result.Payload)
}

// --- helpers ---

// sanitizedBody binds and sanitizes the JSON body. When ok is false the
// response has already been written and the handler must return err as-is.
func (h *AuthHandler) sanitizedBody(c echo.Context, required []string) (res sanitize.Result, ok bool, err error) {
	var data map[string]any
	if err := c.Bind(&data); err != nil {
		return sanitize.Result{}, false, c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	res = sanitize.Validate(data, required)
	if !res.IsValid {
		return sanitize.Result{}, false, c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":   "Validation failed",
			"details": res.Errors,
		})
	}
	return res, true, nil
}

// forwardJSON re-marshals the sanitized body and sends it upstream. Only the
// auth routes do this; all other routes forward the raw bytes untouched.
func (h *AuthHandler) forwardJSON(c echo.Context, method, path string, body map[string]any) (*ports.ForwardResult, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if ua := c.Request().UserAgent(); ua != "" {
		header.Set("User-Agent", ua)
	}

	return h.proxy.Forward(c.Request().Context(), &ports.ForwardRequest{
		Method:      method,
		BackendPath: path,
		Header:      header,
		Body:        bytes.NewReader(encoded),
		Token:       h.sessions.Token(c),
	}, ports.RouteConfig{AllowedMethods: []string{method}})
}

func (h *AuthHandler) establishSession(c echo.Context, rawBody []byte) {
	var env authEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		h.logger.Warn().Err(err).Msg("auth response not parseable, no session established")
		return
	}
	token := env.bearer()
	if token == "" || env.User == nil {
		h.logger.Warn().Msg("auth response missing token or user, no session established")
		return
	}
	if err := h.sessions.Write(c, token, env.User); err != nil {
		h.logger.Error().Err(err).Msg("failed to write session cookies")
	}
}

func (h *AuthHandler) recordAuth(c echo.Context, kind, email string, success bool) {
	h.audit.Record(domain.AuditEvent{
		Kind:      kind,
		Email:     email,
		IP:        middleware.ClientIP(c.Request()),
		UserAgent: c.Request().UserAgent(),
		Success:   success,
	})
}

func validationFailed(c echo.Context, details string) error {
	return c.JSON(http.StatusUnprocessableEntity, map[string]any{
		"error":   "Validation failed",
		"details": details,
	})
}

// userPayload extracts the user object from an auth response that is either
// the user itself or an envelope with a "user" key.
func userPayload(rawBody []byte) json.RawMessage {
	var env authEnvelope
	if err := json.Unmarshal(rawBody, &env); err == nil && env.User != nil {
		return env.User
	}
	return rawBody
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
