// Package session manages the two cookies that carry the client session:
// auth_token (the opaque backend bearer token) and user_data (the cached
// user snapshot).
//
// The snapshot is a display hint. When a session secret is configured it is
// stored as an HMAC-signed JWT so the edge gate can trust its claims did not
// change in transit; without a secret it is plain URL-encoded JSON and the
// gate treats it as advisory only. Either way the backend stays the sole
// authority: every proxied call re-authorizes against the bearer token.
package session

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/core/domain"
)

const (
	// TokenCookie holds the opaque bearer token issued by the backend.
	TokenCookie = "auth_token"
	// UserCookie holds the cached user snapshot.
	UserCookie = "user_data"
)

// Manager reads and writes the session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
}

// NewManager builds a Manager. An empty secret disables snapshot signing.
func NewManager(secret string, ttl time.Duration, logger zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, logger: logger}
}

// Token returns the bearer token from the auth_token cookie, or "".
func (m *Manager) Token(c echo.Context) string {
	cookie, err := c.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// Read assembles the Session from both cookies. A missing, malformed or
// unverifiable user_data cookie yields a session without a snapshot; the
// caller sees "authenticated but unknown identity" and must fail closed on
// any privilege decision.
func (m *Manager) Read(c echo.Context) *domain.Session {
	sess := &domain.Session{Token: m.Token(c)}

	cookie, err := c.Cookie(UserCookie)
	if err != nil || cookie.Value == "" {
		return sess
	}

	user, err := m.decodeUser(cookie.Value)
	if err != nil {
		m.logger.Warn().Err(err).Msg("discarding unreadable user_data cookie")
		return sess
	}
	sess.User = user
	return sess
}

// Write sets both session cookies from a successful auth response.
// rawUser is the backend's user object, verbatim.
func (m *Manager) Write(c echo.Context, token string, rawUser json.RawMessage) error {
	m.setCookie(c, TokenCookie, token, true, m.ttl)
	return m.RefreshUser(c, rawUser)
}

// RefreshUser overwrites only the snapshot cookie, keeping the token as is.
// Used when the backend returns an authoritative user payload (profile
// update, session bootstrap).
func (m *Manager) RefreshUser(c echo.Context, rawUser json.RawMessage) error {
	value, err := m.encodeUser(rawUser)
	if err != nil {
		return err
	}
	m.setCookie(c, UserCookie, value, false, m.ttl)
	return nil
}

// Clear expires both cookies.
func (m *Manager) Clear(c echo.Context) {
	m.setCookie(c, TokenCookie, "", true, -time.Hour)
	m.setCookie(c, UserCookie, "", false, -time.Hour)
}

func (m *Manager) setCookie(c echo.Context, name, value string, httpOnly bool, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: httpOnly,
	}
	c.SetCookie(cookie)
}

func (m *Manager) encodeUser(rawUser json.RawMessage) (string, error) {
	if len(m.secret) == 0 {
		return url.QueryEscape(string(rawUser)), nil
	}

	claims := jwt.MapClaims{
		"usr": json.RawMessage(rawUser),
		"exp": time.Now().Add(m.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

func (m *Manager) decodeUser(value string) (*domain.User, error) {
	raw, err := m.rawUser(value)
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *Manager) rawUser(value string) ([]byte, error) {
	if len(m.secret) == 0 {
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		return []byte(decoded), nil
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return json.Marshal(claims["usr"])
}
