package handler

import (
	"github.com/labstack/echo/v4"

	"irdesk/internal/usecase"
	"irdesk/pkg/response"
)

type EscalationHandler struct {
	escalationUseCase *usecase.EscalationUseCase
}

func NewEscalationHandler(escalationUseCase *usecase.EscalationUseCase) *EscalationHandler {
	return &EscalationHandler{
		escalationUseCase: escalationUseCase,
	}
}

type escalateRequest struct {
	Reason      string `json:"reason" validate:"required"`
	OversightID string `json:"oversight_id"`
}

// Escalate raises a conversation for management attention.
func (h *EscalationHandler) Escalate(c echo.Context) error {
	var req escalateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	conversation, err := h.escalationUseCase.Escalate(c.Request().Context(), conversationID, userID, req.Reason, req.OversightID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

// JoinOversight adds the calling oversight user as a participant.
func (h *EscalationHandler) JoinOversight(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	conversation, err := h.escalationUseCase.JoinForOversight(c.Request().Context(), conversationID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *EscalationHandler) Resolve(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	conversation, err := h.escalationUseCase.Resolve(c.Request().Context(), conversationID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *EscalationHandler) Archive(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	conversation, err := h.escalationUseCase.Archive(c.Request().Context(), conversationID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}
