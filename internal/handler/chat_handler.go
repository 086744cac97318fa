package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"helphub/internal/chat"
	apperrors "helphub/internal/errors"
	"helphub/internal/fragment"
)

const (
	chatClearedMessage = "Chat cleared successfully! Starting fresh conversation."
	chatFailedMessage  = "An error occurred while processing your message. Please try again."
)

// ChatHandler serves the assistant chat as HTML fragments.
type ChatHandler struct {
	bridge *chat.Bridge
	logger *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(bridge *chat.Bridge, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{bridge: bridge, logger: componentLogger(logger, "chat_handler")}
}

// Init godoc
// @Summary Start a chat session
// @Description Replaces any existing session and returns the welcome message.
// @Tags chat
// @Produce html
// @Security BearerAuth
// @Success 200 {string} string "chat message fragment"
// @Failure 401 {string} string "unauthorized fragment"
// @Router /htmx/chat/init [post]
func (h *ChatHandler) Init(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	welcome, err := h.bridge.Init(c.Request().Context(), actor)
	if err != nil {
		return fail(c, h.logger, err, "user_id", actor.ID)
	}
	return c.Render(http.StatusOK, fragment.ChatMessage, fragment.Assistant(welcome))
}

// Send godoc
// @Summary Send a chat message
// @Tags chat
// @Accept x-www-form-urlencoded
// @Produce html
// @Security BearerAuth
// @Param message formData string true "Message text"
// @Success 200 {string} string "chat message fragment"
// @Failure 400 {string} string "session not initialized"
// @Failure 401 {string} string "unauthorized fragment"
// @Router /htmx/chat/send [post]
func (h *ChatHandler) Send(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}

	reply, err := h.bridge.Send(c.Request().Context(), actor, c.FormValue("message"))
	if err != nil {
		if errors.Is(err, apperrors.ErrModelUnavailable) {
			h.logger.Warn("assistant turn failed", "user_id", actor.ID, "error", err)
			return c.Render(http.StatusOK, fragment.Error, fragment.MessageData{Message: chatFailedMessage})
		}
		return fail(c, h.logger, err, "user_id", actor.ID)
	}
	return c.Render(http.StatusOK, fragment.ChatMessage, fragment.Assistant(reply))
}

// Clear godoc
// @Summary Clear the chat session
// @Tags chat
// @Produce html
// @Security BearerAuth
// @Success 200 {string} string "success fragment"
// @Failure 401 {string} string "unauthorized fragment"
// @Router /htmx/chat/clear [post]
func (h *ChatHandler) Clear(c echo.Context) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	if err := h.bridge.Clear(c.Request().Context(), actor); err != nil {
		return fail(c, h.logger, err, "user_id", actor.ID)
	}
	return c.Render(http.StatusOK, fragment.Success, fragment.MessageData{Message: chatClearedMessage})
}
