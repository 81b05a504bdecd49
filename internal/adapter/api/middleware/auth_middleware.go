package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"irdesk/internal/infrastructure/firebase"
	"irdesk/internal/usecase"
	"irdesk/pkg/logger"
)

type AuthMiddleware struct {
	authClient *firebase.FirebaseAuthClient
	users      *usecase.UserUseCase
}

func NewAuthMiddleware(authClient *firebase.FirebaseAuthClient, users *usecase.UserUseCase) *AuthMiddleware {
	return &AuthMiddleware{
		authClient: authClient,
		users:      users,
	}
}

// Authenticate verifies the bearer token, seeds the local user document on
// first sign-in, and stores the caller's uid in the request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		uid, err := m.authClient.VerifyToken(c.Request().Context(), parts[1])
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		// Best-effort: an operation that needs the user document reports
		// its own error if seeding failed.
		if _, err := m.users.EnsureUser(c.Request().Context(), uid); err != nil {
			logger.Warn("User seeding failed for %s: %v", uid, err)
		}

		c.Set("uid", uid)

		return next(c)
	}
}

// GetUIDFromToken verifies a raw token outside the middleware chain. The
// realtime handshake uses this for token-in-query clients that cannot set
// headers.
func (m *AuthMiddleware) GetUIDFromToken(ctx context.Context, token string) (string, error) {
	return m.authClient.VerifyToken(ctx, token)
}
