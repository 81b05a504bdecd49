package router

import (
	"github.com/labstack/echo/v4"

	"irdesk/internal/adapter/api/handler"
	"irdesk/internal/adapter/api/middleware"
)

// SetupWebSocketRouter wires the realtime endpoint. Authentication is
// optional at the middleware level because browser clients pass the token
// as a query parameter; the handler enforces it either way.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/ws", wsHandler.Handle, middleware.RealtimeRateLimit(), optionalAuth(authMiddleware))
}
