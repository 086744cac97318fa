package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"helphub/internal/service"
)

// AdminHandler serves administrator-only endpoints.
type AdminHandler struct {
	tickets service.TicketService
	logger  *slog.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(tickets service.TicketService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{tickets: tickets, logger: componentLogger(logger, "admin_handler")}
}

// Stats godoc
// @Summary Ticket statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TicketStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	stats, err := h.tickets.Stats(c.Request().Context(), actor)
	if err != nil {
		return fail(c, h.logger, err, "user_id", actor.ID)
	}
	return c.JSON(http.StatusOK, stats)
}
