package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"helphub/internal/cache"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db    *gorm.DB
	cache *cache.Client
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db *gorm.DB, cache *cache.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Live godoc
// @Summary Liveness probe
// @Tags ops
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /healthz [get]
func (h *HealthHandler) Live(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready godoc
// @Summary Readiness probe
// @Description Pings the database, and Redis when it is configured.
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"database": "ok", "redis": "disabled"}
	code := http.StatusOK

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status["database"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	if h.cache.Enabled() {
		if err := h.cache.Ping(ctx); err != nil {
			status["redis"] = "unavailable"
			code = http.StatusServiceUnavailable
		} else {
			status["redis"] = "ok"
		}
	}
	return c.JSON(code, status)
}
