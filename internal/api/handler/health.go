package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles the root and health check endpoints
type HealthHandler struct {
	welcome      string
	healthStatus string
}

// NewHealthHandler creates a new health handler. healthStatus is the value
// of the status field returned by /healthz.
func NewHealthHandler(welcome, healthStatus string) *HealthHandler {
	return &HealthHandler{welcome: welcome, healthStatus: healthStatus}
}

// Root returns the welcome message
// @Summary Welcome message
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": h.welcome})
}

// Health returns the health status of the service
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": h.healthStatus})
}
