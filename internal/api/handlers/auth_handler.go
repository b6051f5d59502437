package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/auth"
	authmw "github.com/linac-qa/backend/internal/middleware/auth"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/pkg/logger"
)

type AuthHandler struct {
	service    *auth.Service
	cookieName string
}

func NewAuthHandler(service *auth.Service, cookieName string) *AuthHandler {
	return &AuthHandler{service: service, cookieName: cookieName}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username and password are required",
		})
	}

	user, token, err := h.service.Login(req.Username, req.Password, c.IP())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAccountDisabled) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid username or password",
			})
		}
		logger.Error("Login failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Expires:  time.Now().Add(h.service.SessionTTL()),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.JSON(fiber.Map{"user": userView(user)})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if user := authmw.CurrentUser(c); user != nil {
		h.service.Logout(user.Username, c.IP())
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.JSON(fiber.Map{"status": "logged_out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}
	return c.JSON(fiber.Map{"user": userView(user)})
}

// userView strips the password hash from API responses.
func userView(u *models.User) fiber.Map {
	view := fiber.Map{
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"full_name": u.FullName,
		"role":      u.Role,
		"active":    u.Active,
	}
	if u.LastLogin != nil {
		view["last_login"] = u.LastLogin.UTC().Format(time.RFC3339)
	}
	return view
}
