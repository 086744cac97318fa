package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "helphub/internal/errors"
	"helphub/internal/model"
	"helphub/internal/service"
)

// TicketHandler serves the ticket endpoints.
type TicketHandler struct {
	tickets service.TicketService
	logger  *slog.Logger
}

// NewTicketHandler creates a ticket handler.
func NewTicketHandler(tickets service.TicketService, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, logger: componentLogger(logger, "ticket_handler")}
}

// CreateTicketRequest is the body of POST /tickets.
type CreateTicketRequest struct {
	Query string `json:"query" validate:"required"`
}

// UpdateTicketRequest is a partial ticket update. Absent fields are left
// unchanged; fields the caller may not change are ignored.
type UpdateTicketRequest struct {
	Status        *string `json:"status,omitempty"`
	LLMResponse   *string `json:"llm_response,omitempty"`
	FinalResponse *string `json:"final_response,omitempty"`
	RespondedBy   *string `json:"responded_by,omitempty"`
	IsResolved    *bool   `json:"is_resolved,omitempty"`
	UserSatisfied *bool   `json:"user_satisfied,omitempty"`
}

func (r UpdateTicketRequest) toPatch() (model.TicketPatch, error) {
	patch := model.TicketPatch{
		LLMResponse:   r.LLMResponse,
		FinalResponse: r.FinalResponse,
		IsResolved:    r.IsResolved,
		UserSatisfied: r.UserSatisfied,
	}
	if r.Status != nil {
		st, err := model.ParseTicketStatus(*r.Status)
		if err != nil {
			return patch, apperrors.NewValidationError("status", err.Error())
		}
		patch.Status = &st
	}
	if r.RespondedBy != nil {
		rb, err := model.ParseResponder(*r.RespondedBy)
		if err != nil {
			return patch, apperrors.NewValidationError("responded_by", err.Error())
		}
		patch.RespondedBy = &rb
	}
	return patch, nil
}

// CreateTicket godoc
// @Summary Create a ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTicketRequest true "Ticket query, at least 10 characters"
// @Success 201 {object} model.Ticket
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tickets [post]
func (h *TicketHandler) CreateTicket(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	var req CreateTicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ticket, err := h.tickets.Create(c.Request().Context(), actor, req.Query)
	if err != nil {
		return fail(c, h.logger, err, "user_id", actor.ID)
	}
	return c.JSON(http.StatusCreated, ticket)
}

// ListTickets godoc
// @Summary List tickets, newest first
// @Description Regular users only see their own tickets whatever user_id says.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "Owner id (admins only)"
// @Param status query string false "Status" Enums(open, in_progress, pending_llm, pending_human, resolved, closed)
// @Param is_resolved query bool false "Resolved flag"
// @Param responded_by query string false "Responder" Enums(llm, human, none)
// @Param limit query int false "Page size, 1 to 500" default(100)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {array} model.Ticket
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tickets [get]
func (h *TicketHandler) ListTickets(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	filter, err := parseTicketFilter(c)
	if err != nil {
		return fail(c, h.logger, err)
	}

	tickets, err := h.tickets.List(c.Request().Context(), actor, filter)
	if err != nil {
		return fail(c, h.logger, err, "user_id", actor.ID)
	}
	return c.JSON(http.StatusOK, tickets)
}

// GetTicket godoc
// @Summary Get a ticket
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ticket ID"
// @Success 200 {object} model.Ticket
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetTicket(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return fail(c, h.logger, err)
	}

	ticket, err := h.tickets.Get(c.Request().Context(), actor, id)
	if err != nil {
		return fail(c, h.logger, err, "user_id", actor.ID, "ticket_id", id)
	}
	return c.JSON(http.StatusOK, ticket)
}

// UpdateTicket godoc
// @Summary Partially update a ticket
// @Description Admins may change every field. Owners may only set user_satisfied; other fields they send are ignored.
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ticket ID"
// @Param request body UpdateTicketRequest true "Fields to change"
// @Success 200 {object} model.Ticket
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tickets/{id} [patch]
func (h *TicketHandler) UpdateTicket(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	var req UpdateTicketRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	patch, err := req.toPatch()
	if err != nil {
		return fail(c, h.logger, err)
	}

	ticket, err := h.tickets.Update(c.Request().Context(), actor, id, patch)
	if err != nil {
		return fail(c, h.logger, err, "user_id", actor.ID, "ticket_id", id, "fields", patch.Fields().String())
	}
	return c.JSON(http.StatusOK, ticket)
}

func ticketIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidationError("id", "must be a positive integer")
	}
	return uint(id), nil
}

func parseTicketFilter(c echo.Context) (model.TicketFilter, error) {
	filter := model.TicketFilter{Limit: model.DefaultListLimit}

	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return filter, apperrors.NewValidationError("user_id", "must be a positive integer")
		}
		owner := uint(id)
		filter.OwnerID = &owner
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, err := model.ParseTicketStatus(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("status", err.Error())
		}
		filter.Status = &st
	}
	if raw := c.QueryParam("responded_by"); raw != "" {
		rb, err := model.ParseResponder(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("responded_by", err.Error())
		}
		filter.RespondedBy = &rb
	}
	if raw := c.QueryParam("is_resolved"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, apperrors.NewValidationError("is_resolved", "must be true or false")
		}
		filter.IsResolved = &b
	}

	if err := echo.QueryParamsBinder(c).
		Int("limit", &filter.Limit).
		Int("offset", &filter.Offset).
		BindError(); err != nil {
		return filter, apperrors.NewValidationError("", "limit and offset must be integers")
	}
	if filter.Limit < 1 || filter.Limit > model.MaxListLimit {
		return filter, apperrors.NewValidationError("limit", "must be between 1 and 500")
	}
	if filter.Offset < 0 {
		return filter, apperrors.NewValidationError("offset", "must not be negative")
	}
	return filter, nil
}
