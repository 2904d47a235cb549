package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"cxls/internal/domain"
	"cxls/internal/ledger"
	"cxls/internal/modules/auth/usecase"
	"cxls/pkg/response"
)

const callerKey = "caller"

// RequireAuth parses the bearer token, loads the caller from the
// committed snapshot and enforces the ban flag. Policy: admins bypass
// the ban flag so an account mistake cannot lock every operator out.
func RequireAuth(auth *usecase.AuthUsecase, led *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return response.WriteError(c, fiber.StatusUnauthorized, "Unauthorized", "missing bearer token")
		}
		userID, err := auth.ParseToken(token)
		if err != nil {
			return response.WriteError(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		user, err := led.GetUser(userID)
		if err != nil {
			return response.WriteError(c, fiber.StatusUnauthorized, "Unauthorized", "unknown user")
		}
		if user.Banned && user.Role != domain.RoleAdmin {
			return response.WriteError(c, fiber.StatusForbidden, "Forbidden", "account is banned")
		}
		c.Locals(callerKey, user)
		return c.Next()
	}
}

// RequireAdmin gates admin routes. The core operations still re-check
// the role defensively.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := Caller(c)
		if caller == nil || caller.Role != domain.RoleAdmin {
			return response.WriteError(c, fiber.StatusForbidden, "Forbidden", "admin role required")
		}
		return c.Next()
	}
}

// Caller returns the authenticated user set by RequireAuth.
func Caller(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(callerKey).(*domain.User)
	return u
}
