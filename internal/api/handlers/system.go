package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ContextPinger is a dependency reachable with a context-aware health check.
type ContextPinger interface {
	Ping(ctx context.Context) error
}

type NATSPinger interface {
	Ping() error
}

type SystemHandler struct {
	db       ContextPinger
	minio    ContextPinger
	producer NATSPinger
}

// NewSystemHandler builds the health endpoints. minio and producer may be nil
// when those collaborators are disabled.
func NewSystemHandler(db ContextPinger, minio ContextPinger, producer NATSPinger) *SystemHandler {
	return &SystemHandler{db: db, minio: minio, producer: producer}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	// Database
	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	// MinIO
	if h.minio == nil {
		checks["minio"] = "disabled"
	} else if err := h.minio.Ping(ctx); err != nil {
		checks["minio"] = err.Error()
		healthy = false
	} else {
		checks["minio"] = "ok"
	}

	// NATS
	if h.producer == nil {
		checks["nats"] = "disabled"
	} else if err := h.producer.Ping(); err != nil {
		checks["nats"] = err.Error()
		healthy = false
	} else {
		checks["nats"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}
