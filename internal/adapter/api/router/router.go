package router

import (
	"github.com/labstack/echo/v4"

	"irdesk/internal/adapter/api/handler"
	"irdesk/internal/adapter/api/middleware"
)

type Handlers struct {
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Escalation   *handler.EscalationHandler
	Notification *handler.NotificationHandler
	WebSocket    *handler.WebSocketHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, roleMiddleware *middleware.RoleMiddleware) {
	SetupConversationRouter(e, h.Conversation, h.Message, h.Escalation, authMiddleware, roleMiddleware)
	SetupNotificationRouter(e, h.Notification, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
	SetupHealthRouter(e)
}
