package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler { return &HealthHandler{db: db} }

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /readycheck
// Fails while the database is unreachable so orchestrators hold traffic.
func (h *HealthHandler) ReadyCheck(c *gin.Context) {
	if h.db == nil {
		c.String(http.StatusServiceUnavailable, "no database")
		return
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		c.String(http.StatusServiceUnavailable, "database unavailable")
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.String(http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.String(http.StatusOK, "ready")
}
