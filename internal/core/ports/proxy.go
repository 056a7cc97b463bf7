package ports

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// RouteConfig declares a proxied route's policy: which HTTP verbs it
// accepts and whether a session token must be present before the upstream
// is contacted. Immutable per call.
//
// AuthMethods narrows the auth requirement to a subset of verbs, for
// resources whose reads are public but whose mutations are not. It is
// ignored when RequireAuth is true.
type RouteConfig struct {
	RequireAuth    bool
	AuthMethods    []string
	AllowedMethods []string
}

// ForwardRequest is everything the proxy needs from the inbound request.
type ForwardRequest struct {
	Method      string
	BackendPath string
	Query       url.Values
	Header      http.Header
	Body        io.Reader
	Token       string // bearer token from the session cookie, "" when absent
}

// ForwardResult relays the backend's answer. Payload is the JSON-decoded
// body when it parsed, or the raw text wrapped as a JSON string otherwise.
type ForwardResult struct {
	Status  int
	Payload any
	RawBody []byte
}

// UpstreamProxy forwards a request to the backend and relays the response.
type UpstreamProxy interface {
	Forward(ctx context.Context, req *ForwardRequest, cfg RouteConfig) (*ForwardResult, error)
}
