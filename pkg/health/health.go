package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
	"github.com/saaga0h/jeeves-sky/pkg/postgres"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusDisabled     = "disabled"

	dependencyTimeout = 2 * time.Second
)

// Checker provides health check functionality for the sky agent
type Checker struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	logger   *slog.Logger
}

// NewChecker creates a new health checker. postgresClient may be nil when
// the archive is disabled.
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, postgresClient postgres.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:     mqttClient,
		redis:    redisClient,
		postgres: postgresClient,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis    string `json:"redis"`
	MQTT     string `json:"mqtt"`
	Postgres string `json:"postgres"`
}

// HandlerFunc returns 200 while the process is alive without touching dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc returns a handler that checks every dependency.
// A disabled archive does not degrade the status.
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := h.Check(r.Context())

		status := "healthy"
		statusCode := http.StatusOK
		if services.Redis == statusDisconnected || services.MQTT == statusDisconnected || services.Postgres == statusDisconnected {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		h.write(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		})
	}
}

// Check probes the dependencies. Redis is pinged with a short timeout.
func (h *Checker) Check(ctx context.Context) *Services {
	services := &Services{
		Redis:    statusDisconnected,
		MQTT:     statusDisconnected,
		Postgres: statusDisabled,
	}

	if h.mqtt != nil && h.mqtt.IsConnected() {
		services.MQTT = statusConnected
	}

	ctx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()

	if h.redis != nil && h.redis.Ping(ctx) == nil {
		services.Redis = statusConnected
	}

	if h.postgres != nil {
		services.Postgres = statusDisconnected
		if st, err := h.postgres.HealthCheck(ctx); err == nil && st.Connected {
			services.Postgres = statusConnected
		}
	}

	return services
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
