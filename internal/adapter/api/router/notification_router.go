package router

import (
	"github.com/labstack/echo/v4"

	"irdesk/internal/adapter/api/handler"
	"irdesk/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/notifications")
	group.Use(middleware.GeneralRateLimit())
	group.Use(authMiddleware.Authenticate)

	group.GET("", notificationHandler.List)
	group.PUT("/:id/seen", notificationHandler.MarkSeen)
}
