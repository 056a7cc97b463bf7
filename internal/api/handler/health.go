package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready, the readiness probe.
// Checks the backend and whichever optional stores are configured before
// declaring the gateway ready. Nil dependencies are skipped.
type ReadinessHandler struct {
	backendURL string
	client     *http.Client
	redis      *redis.Client
	mongo      *mongo.Database
}

func NewReadinessHandler(backendURL string, rdb *redis.Client, db *mongo.Database) *ReadinessHandler {
	return &ReadinessHandler{
		backendURL: backendURL,
		client:     &http.Client{},
		redis:      rdb,
		mongo:      db,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	// --- Backend reachable ---
	if err := h.pingBackend(ctx); err != nil {
		deps["backend"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["backend"] = dependencyStatus{Status: "ok"}
	}

	// --- Redis ping ---
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			deps["redis"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps["redis"] = dependencyStatus{Status: "ok"}
		}
	}

	// --- MongoDB ping ---
	if h.mongo != nil {
		if err := h.mongo.Client().Ping(ctx, nil); err != nil {
			deps["mongodb"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps["mongodb"] = dependencyStatus{Status: "ok"}
		}
	}

	status := http.StatusOK
	resp := readinessResponse{Status: "ready", Dependencies: deps}
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
	}
	return c.JSON(status, resp)
}

// pingBackend issues a lightweight request against the backend base URL.
// Any HTTP answer counts as reachable; only transport errors fail the probe.
func (h *ReadinessHandler) pingBackend(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.backendURL, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
