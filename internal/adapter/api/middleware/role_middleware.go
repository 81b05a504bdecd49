package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"irdesk/internal/domain/entity"
	"irdesk/internal/domain/repository"
)

type RoleMiddleware struct {
	userRepo repository.UserRepository
}

func NewRoleMiddleware(userRepo repository.UserRepository) *RoleMiddleware {
	return &RoleMiddleware{
		userRepo: userRepo,
	}
}

func (m *RoleMiddleware) requireRole(next echo.HandlerFunc, allowed ...entity.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("uid").(string)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		user, err := m.userRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to verify role")
		}

		for _, role := range allowed {
			if user.Role == role {
				c.Set("role", user.Role)
				return next(c)
			}
		}

		return echo.NewHTTPError(http.StatusForbidden, "Insufficient privileges")
	}
}

// OversightOnly gates management-only routes.
func (m *RoleMiddleware) OversightOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireRole(next, entity.RoleOversight)
}

// StaffOrOversight gates routes that account holders may not call, such as
// escalation and lifecycle transitions.
func (m *RoleMiddleware) StaffOrOversight(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireRole(next, entity.RoleStaff, entity.RoleOversight)
}
