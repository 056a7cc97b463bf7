package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/memberly/edge-gateway/internal/core/domain"
	"github.com/memberly/edge-gateway/internal/core/ports"
)

type backendCall struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   string
}

// newBackend returns a mock backend, a hit counter, and a pointer to the
// last observed request.
func newBackend(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64, *backendCall) {
	t.Helper()
	var hits atomic.Int64
	last := &backendCall{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		raw, _ := io.ReadAll(r.Body)
		*last = backendCall{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			header: r.Header.Clone(),
			body:   string(raw),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits, last
}

func newTestProxy(baseURL string) *ProxyService {
	return NewProxyService(baseURL, 5*time.Second, zerolog.Nop())
}

func TestForward_MethodNotAllowed_NoOutboundCall(t *testing.T) {
	srv, hits, _ := newBackend(t, http.StatusOK, `{}`)
	p := newTestProxy(srv.URL)

	_, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method:      http.MethodPatch,
		BackendPath: "/categories",
		Header:      http.Header{},
	}, ports.RouteConfig{AllowedMethods: []string{http.MethodGet, http.MethodPost}})

	if !errors.Is(err, domain.ErrMethodNotAllowed) {
		t.Fatalf("expected ErrMethodNotAllowed, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("backend should not have been called, got %d hits", hits.Load())
	}
}

func TestForward_AuthRequired_NoOutboundCall(t *testing.T) {
	srv, hits, _ := newBackend(t, http.StatusOK, `{}`)
	p := newTestProxy(srv.URL)

	_, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method:      http.MethodGet,
		BackendPath: "/orders",
		Header:      http.Header{},
	}, ports.RouteConfig{RequireAuth: true, AllowedMethods: []string{http.MethodGet}})

	if !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("backend should not have been called, got %d hits", hits.Load())
	}
}

func TestForward_AuthMethods_GateMutationsOnly(t *testing.T) {
	srv, hits, _ := newBackend(t, http.StatusOK, `[]`)
	p := newTestProxy(srv.URL)

	cfg := ports.RouteConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AuthMethods:    []string{http.MethodPost},
	}

	// Anonymous read passes.
	if _, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method: http.MethodGet, BackendPath: "/categories", Header: http.Header{},
	}, cfg); err != nil {
		t.Fatalf("anonymous GET should pass: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 backend hit, got %d", hits.Load())
	}

	// Anonymous mutation is rejected before the backend.
	_, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method: http.MethodPost, BackendPath: "/categories", Header: http.Header{},
	}, cfg)
	if !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("backend hit on rejected mutation")
	}
}

func TestForward_PassThroughFidelity(t *testing.T) {
	srv, _, call := newBackend(t, http.StatusCreated, `{"id":7,"name":"Widget"}`)
	p := newTestProxy(srv.URL)

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("User-Agent", "test-agent/1.0")

	query := url.Values{}
	query.Set("page", "2")
	query.Set("per_page", "50")

	res, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method:      http.MethodPost,
		BackendPath: "/products",
		Query:       query,
		Header:      header,
		Body:        strings.NewReader(`{"name":"Widget"}`),
		Token:       "tok-123",
	}, ports.RouteConfig{})
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}

	if res.Status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Status)
	}
	payload, ok := res.Payload.(map[string]any)
	if !ok {
		t.Fatalf("expected JSON object payload, got %T", res.Payload)
	}
	if payload["name"] != "Widget" {
		t.Fatalf("unexpected payload: %v", payload)
	}

	if call.method != http.MethodPost || call.path != "/products" {
		t.Fatalf("unexpected upstream call: %s %s", call.method, call.path)
	}
	if call.query.Get("page") != "2" || call.query.Get("per_page") != "50" {
		t.Fatalf("query not forwarded: %v", call.query)
	}
	if call.body != `{"name":"Widget"}` {
		t.Fatalf("body not forwarded verbatim: %q", call.body)
	}
	if got := call.header.Get("Authorization"); got != "Bearer tok-123" {
		t.Fatalf("bearer not injected: %q", got)
	}
	if call.header.Get("Accept") != "application/json" {
		t.Fatalf("Accept header missing")
	}
	if call.header.Get("X-Requested-With") != "XMLHttpRequest" {
		t.Fatalf("X-Requested-With header missing")
	}
	if call.header.Get("User-Agent") != "test-agent/1.0" {
		t.Fatalf("User-Agent not copied: %q", call.header.Get("User-Agent"))
	}
}

func TestForward_UpstreamErrorRelayedVerbatim(t *testing.T) {
	srv, _, _ := newBackend(t, http.StatusUnprocessableEntity, `{"message":"The email field is required."}`)
	p := newTestProxy(srv.URL)

	res, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method: http.MethodPost, BackendPath: "/login", Header: http.Header{},
	}, ports.RouteConfig{})
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}
	if res.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 relayed, got %d", res.Status)
	}
	payload := res.Payload.(map[string]any)
	if payload["message"] != "The email field is required." {
		t.Fatalf("backend error body not relayed: %v", payload)
	}
}

func TestForward_NonJSONBodyFallsBackToRawText(t *testing.T) {
	srv, _, _ := newBackend(t, http.StatusBadGateway, `upstream exploded`)
	p := newTestProxy(srv.URL)

	res, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method: http.MethodGet, BackendPath: "/categories", Header: http.Header{},
	}, ports.RouteConfig{})
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}
	if res.Status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Status)
	}
	if res.Payload != "upstream exploded" {
		t.Fatalf("expected raw text payload, got %v", res.Payload)
	}
}

func TestForward_UnreachableBackend(t *testing.T) {
	p := newTestProxy("http://127.0.0.1:1")

	_, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method: http.MethodGet, BackendPath: "/categories", Header: http.Header{},
	}, ports.RouteConfig{})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestForward_TimeoutBoundsHangingBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	p := NewProxyService(srv.URL, 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	_, err := p.Forward(context.Background(), &ports.ForwardRequest{
		Method: http.MethodGet, BackendPath: "/slow", Header: http.Header{},
	}, ports.RouteConfig{})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout did not bound the call")
	}
}

func TestResourceLabel(t *testing.T) {
	cases := map[string]string{
		"/categories":                 "categories",
		"/categories/12":              "categories",
		"/users/3/toggle-admin":       "users",
		"/notifications/unread-count": "notifications",
		"/":                           "root",
	}
	for path, want := range cases {
		if got := resourceLabel(path); got != want {
			t.Fatalf("resourceLabel(%q) = %q, want %q", path, got, want)
		}
	}
}
