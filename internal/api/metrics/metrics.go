// Package metrics defines and registers all custom Prometheus metrics for
// the edge gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// ProxyRequestsTotal counts proxied requests by outcome.
// Labels:
//   - resource: first segment of the backend path (e.g. "products")
//   - method: HTTP verb
//   - status: upstream status code, or "error" when the backend was unreachable
var ProxyRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_requests_total",
		Help:      "Total number of requests forwarded to the backend, by resource, method and status.",
	},
	[]string{"resource", "method", "status"},
)

// UpstreamDuration measures the round-trip time of backend calls.
// Label:
//   - resource: first segment of the backend path
var UpstreamDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_duration_seconds",
		Help:      "Duration of backend round-trips, from request start to response headers read.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"resource"},
)

// RateLimitRejectionsTotal counts requests denied by the fixed-window limiter.
// Label:
//   - route: the rate-limited route (e.g. "/api/auth/login")
var RateLimitRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Total number of requests rejected by the rate limiter, by route.",
	},
	[]string{"route"},
)

// AuthGateDecisionsTotal counts edge auth-gate outcomes.
// Label:
//   - outcome: "pass", "login_redirect", "admin_required", "authed_redirect"
var AuthGateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_gate_decisions_total",
		Help:      "Total number of edge auth-gate decisions, by outcome.",
	},
	[]string{"outcome"},
)
