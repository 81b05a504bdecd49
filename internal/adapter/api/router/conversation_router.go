package router

import (
	"github.com/labstack/echo/v4"

	"irdesk/internal/adapter/api/handler"
	"irdesk/internal/adapter/api/middleware"
)

// SetupConversationRouter wires the conversation, message and lifecycle
// endpoints. Every route requires authentication; the lifecycle routes are
// additionally gated by role.
func SetupConversationRouter(
	e *echo.Echo,
	conversationHandler *handler.ConversationHandler,
	messageHandler *handler.MessageHandler,
	escalationHandler *handler.EscalationHandler,
	authMiddleware *middleware.AuthMiddleware,
	roleMiddleware *middleware.RoleMiddleware,
) {
	group := e.Group("/v1/conversations")
	group.Use(middleware.GeneralRateLimit())
	group.Use(authMiddleware.Authenticate)

	group.POST("", conversationHandler.Create)
	group.GET("", conversationHandler.List)
	group.GET("/:id", conversationHandler.Get)

	group.POST("/:id/messages", messageHandler.Send)
	group.GET("/:id/messages", messageHandler.List)
	group.PUT("/:id/messages/:messageId/read", messageHandler.MarkRead)
	group.PUT("/:id/messages/:messageId", messageHandler.Edit)

	// Lifecycle transitions. Account holders raise concerns through the
	// conversation itself; escalating and closing are staff actions.
	group.POST("/:id/escalate", escalationHandler.Escalate, middleware.EscalationRateLimit(), roleMiddleware.StaffOrOversight)
	group.POST("/:id/oversight", escalationHandler.JoinOversight, roleMiddleware.OversightOnly)
	group.POST("/:id/resolve", escalationHandler.Resolve, roleMiddleware.StaffOrOversight)
	group.POST("/:id/archive", escalationHandler.Archive, roleMiddleware.StaffOrOversight)
}
