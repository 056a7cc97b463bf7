package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/api/metrics"
	"github.com/memberly/edge-gateway/internal/core/domain"
	"github.com/memberly/edge-gateway/internal/core/ports"
)

// defaultMethods is the allowed set used when a route declares none.
var defaultMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
}

// ProxyService forwards inbound requests to the Laravel backend, injecting
// the session bearer token and relaying status and payload unchanged. It is
// the only component that talks to the backend.
type ProxyService struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewProxyService builds the proxy core. The timeout bounds every upstream
// call; a backend that stops answering cannot hang gateway requests.
func NewProxyService(baseURL string, timeout time.Duration, logger zerolog.Logger) *ProxyService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProxyService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

// Forward applies the route policy, then replays the request upstream.
//
// Policy checks (405, 401) happen before any network activity. The body is
// streamed through byte-for-byte: JSON is never re-serialised and multipart
// payloads keep their original boundary, so file parts survive intact.
func (s *ProxyService) Forward(ctx context.Context, req *ports.ForwardRequest, cfg ports.RouteConfig) (*ports.ForwardResult, error) {
	allowed := cfg.AllowedMethods
	if len(allowed) == 0 {
		allowed = defaultMethods
	}
	if !slices.Contains(allowed, req.Method) {
		return nil, domain.ErrMethodNotAllowed
	}
	needsAuth := cfg.RequireAuth || slices.Contains(cfg.AuthMethods, req.Method)
	if needsAuth && req.Token == "" {
		return nil, domain.ErrAuthRequired
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resource := resourceLabel(req.BackendPath)
	start := time.Now()

	resp, err := s.client.Do(out)
	if err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues(resource, req.Method, "error").Inc()
		s.logger.Error().Err(err).
			Str("method", req.Method).
			Str("path", req.BackendPath).
			Msg("upstream call failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues(resource, req.Method, "error").Inc()
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrUpstreamUnavailable, err)
	}

	metrics.ProxyRequestsTotal.WithLabelValues(resource, req.Method, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	result := &ports.ForwardResult{Status: resp.StatusCode, RawBody: raw}

	// The backend occasionally returns plain text on error paths; relay it
	// as-is instead of failing the whole request.
	var payload any
	if len(raw) > 0 && json.Unmarshal(raw, &payload) == nil {
		result.Payload = payload
	} else {
		result.Payload = string(raw)
	}

	return result, nil
}

func (s *ProxyService) buildRequest(ctx context.Context, req *ports.ForwardRequest) (*http.Request, error) {
	target := s.baseURL + req.BackendPath
	if enc := req.Query.Encode(); enc != "" {
		target += "?" + enc
	}

	var body io.Reader
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		body = req.Body
	}

	out, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}

	out.Header.Set("Accept", "application/json")
	out.Header.Set("X-Requested-With", "XMLHttpRequest")
	if ct := req.Header.Get("Content-Type"); ct != "" && body != nil {
		out.Header.Set("Content-Type", ct)
	}
	if ua := req.Header.Get("User-Agent"); ua != "" {
		out.Header.Set("User-Agent", ua)
	}
	if req.Token != "" {
		out.Header.Set("Authorization", "Bearer "+req.Token)
	}

	return out, nil
}

// resourceLabel reduces a backend path to its first segment so metric
// cardinality stays bounded ("/categories/12" → "categories").
func resourceLabel(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "root"
	}
	return path
}
