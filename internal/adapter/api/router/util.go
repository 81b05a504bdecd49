package router

import (
	"strings"

	"github.com/labstack/echo/v4"

	"irdesk/internal/adapter/api/middleware"
)

// optionalAuth verifies a bearer token when one is present but lets the
// request through either way. Routes that can also authenticate out of
// band (the realtime handshake) use this instead of Authenticate.
func optionalAuth(authMiddleware *middleware.AuthMiddleware) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return next(c)
			}

			uid, err := authMiddleware.GetUIDFromToken(c.Request().Context(), parts[1])
			if err != nil {
				return next(c)
			}

			c.Set("uid", uid)

			return next(c)
		}
	}
}
