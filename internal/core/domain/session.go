package domain

// Session pairs the opaque backend bearer token with the cached user
// snapshot. Both live in cookies; the token is authoritative for upstream
// calls, the snapshot only hints at identity until the backend confirms it.
type Session struct {
	Token string
	User  *User
}

// Authenticated reports whether a bearer token is present. It says nothing
// about the token's validity, which only the backend can decide.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Admin reports whether the cached snapshot claims admin privilege.
func (s *Session) Admin() bool {
	return s != nil && s.User != nil && bool(s.User.IsAdmin)
}

// AuditEvent records a single auth-relevant decision at the edge.
// Stored best-effort; never consulted on the request path.
type AuditEvent struct {
	Kind      string `bson:"kind" json:"kind"` // login, register, logout, rate_limited
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Success   bool   `bson:"success" json:"success"`
	CreatedAt int64  `bson:"created_at" json:"created_at"`
}
