package handler

import (
	"github.com/labstack/echo/v4"

	"irdesk/internal/domain/entity"
	"irdesk/internal/usecase"
	"irdesk/pkg/response"
	"irdesk/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	Content     string              `json:"content"`
	Priority    string              `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Department  string              `json:"department"`
	ReplyTo     string              `json:"reply_to"`
	Attachments []entity.Attachment `json:"attachments"`
}

type editMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type markReadRequest struct {
	ReaderName string `json:"reader_name"`
}

// Send appends a message to the conversation feed.
func (h *MessageHandler) Send(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	message, err := h.messageUseCase.Send(c.Request().Context(), userID, conversationID, usecase.SendMessageInput{
		Content:     req.Content,
		Priority:    entity.MessagePriority(req.Priority),
		Department:  req.Department,
		ReplyTo:     req.ReplyTo,
		Attachments: req.Attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// List returns the merged feed for a conversation, oldest first.
func (h *MessageHandler) List(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")
	pagination := utils.GetPaginationParams(c)

	messages, total, err := h.messageUseCase.ListMerged(c.Request().Context(), userID, conversationID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, pagination.Page, pagination.PageSize)
}

// MarkRead records the caller's read receipt on one message.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	conversationID := c.Param("id")
	messageID := c.Param("messageId")

	message, err := h.messageUseCase.MarkRead(c.Request().Context(), conversationID, messageID, userID, req.ReaderName)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

// Edit rewrites a message the caller sent; the original content is kept.
func (h *MessageHandler) Edit(c echo.Context) error {
	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	conversationID := c.Param("id")
	messageID := c.Param("messageId")

	message, err := h.messageUseCase.Edit(c.Request().Context(), conversationID, messageID, userID, req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}
