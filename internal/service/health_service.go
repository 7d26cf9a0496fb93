package service

import (
	"context"
	"database/sql"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Health status constants
const (
	StatusHealthy      = "healthy"
	StatusDegraded     = "degraded"
	StatusUnhealthy    = "unhealthy"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusSandbox      = "sandbox"
	StatusConfigured   = "configured"
	StatusUnconfigured = "unconfigured"
)

// HealthStatus represents the overall health status of the application
type HealthStatus struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
}

// HealthChecker handles health check operations
type HealthChecker struct {
	db         *sql.DB
	queueURL   string
	mailerMode string
	version    string
}

// NewHealthService creates a new HealthChecker instance. The mailer is
// not probed over the network; its state comes from configuration.
func NewHealthService(db *sql.DB, queueURL string, sandbox bool, serverToken, version string) *HealthChecker {
	mailerMode := StatusUnconfigured
	if sandbox {
		mailerMode = StatusSandbox
	} else if serverToken != "" {
		mailerMode = StatusConfigured
	}

	return &HealthChecker{
		db:         db,
		queueURL:   queueURL,
		mailerMode: mailerMode,
		version:    version,
	}
}

// checkDatabase verifies PostgreSQL connectivity with a timeout
func (h *HealthChecker) checkDatabase() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		return StatusDisconnected
	}

	return StatusConnected
}

// checkQueue verifies RabbitMQ connectivity
func (h *HealthChecker) checkQueue() string {
	conn, err := amqp.Dial(h.queueURL)
	if err != nil {
		return StatusDisconnected
	}
	defer conn.Close()

	return StatusConnected
}

// determineOverallStatus calculates the overall health from the
// per-service statuses
func (h *HealthChecker) determineOverallStatus(services map[string]string) string {
	// Without the database nothing works
	if services["database"] == StatusDisconnected {
		return StatusUnhealthy
	}

	// Without the queue campaigns cannot be dispatched, and without a
	// mailer they cannot leave the building; the admin API still works
	if services["queue"] == StatusDisconnected || services["mailer"] == StatusUnconfigured {
		return StatusDegraded
	}

	return StatusHealthy
}

// CheckHealth performs health checks on all dependencies and returns
// the overall status
func (h *HealthChecker) CheckHealth() (*HealthStatus, error) {
	services := map[string]string{
		"database": h.checkDatabase(),
		"queue":    h.checkQueue(),
		"mailer":   h.mailerMode,
	}

	return &HealthStatus{
		Status:    h.determineOverallStatus(services),
		Services:  services,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}, nil
}
