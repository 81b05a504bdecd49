package handler

import (
	"github.com/labstack/echo/v4"

	"irdesk/internal/usecase"
	"irdesk/pkg/response"
	"irdesk/pkg/utils"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
	}
}

type createConversationRequest struct {
	TargetID       string `json:"target_id" validate:"required"`
	Department     string `json:"department"`
	InitialMessage string `json:"initial_message"`
}

// Create opens a direct conversation with another principal, or returns
// the existing one for the same pair and department.
func (h *ConversationHandler) Create(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	conversation, err := h.conversationUseCase.CreateOrGet(c.Request().Context(), userID, usecase.CreateConversationInput{
		TargetID:       req.TargetID,
		Department:     req.Department,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

// List returns the caller's conversations, most recently active first.
func (h *ConversationHandler) List(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	conversations, total, err := h.conversationUseCase.ListForUser(c.Request().Context(), userID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, conversations, total, pagination.Page, pagination.PageSize)
}

func (h *ConversationHandler) Get(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	conversation, err := h.conversationUseCase.Get(c.Request().Context(), userID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}
