package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/linac-qa/backend/internal/auth"
	"github.com/linac-qa/backend/internal/storage/models"
)

// userKey is the fiber.Ctx locals slot for the authenticated user.
const userKey = "auth_user"

// Middleware resolves the session cookie into a user for protected routes.
type Middleware struct {
	service    *auth.Service
	cookieName string
}

func New(service *auth.Service, cookieName string) *Middleware {
	return &Middleware{service: service, cookieName: cookieName}
}

// RequireLogin rejects requests without a valid session cookie and stashes
// the resolved user in ctx locals for handlers downstream.
func (m *Middleware) RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(m.cookieName)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		user, err := m.service.CurrentUser(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session expired or invalid",
			})
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// RequireCapability gates a route on the user's role. It must run after
// RequireLogin.
func (m *Middleware) RequireCapability(cap auth.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		role, ok := auth.ParseRole(user.Role)
		if !ok || !role.Can(cap) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.Next()
	}
}

// CurrentUser returns the authenticated user stashed by RequireLogin, or
// nil on unauthenticated routes.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
