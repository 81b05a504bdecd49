package handler

import (
	"github.com/labstack/echo/v4"

	"irdesk/internal/usecase"
	"irdesk/pkg/response"
	"irdesk/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationUseCase.ListForUser(c.Request().Context(), userID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, notifications, total, pagination.Page, pagination.PageSize)
}

// MarkSeen flags one of the caller's notifications as seen.
func (h *NotificationHandler) MarkSeen(c echo.Context) error {
	userID := c.Get("uid").(string)
	notificationID := c.Param("id")

	if err := h.notificationUseCase.MarkSeen(c.Request().Context(), notificationID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"seen": true})
}
