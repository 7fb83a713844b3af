package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	applog "campusmart/internal/log"
	"campusmart/internal/services"
)

const tokenCookie = "token"

func bearer(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return c.Cookies(tokenCookie)
}

// Identify attaches the caller to the context when a valid token is present.
// Anonymous requests pass through; RequireAuth and RequireRole decide.
func Identify(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c)
		if raw == "" {
			return c.Next()
		}
		u, err := auth.Authenticate(c.UserContext(), raw)
		if err != nil {
			if _, ok := apperr.As(err); !ok {
				return err
			}
			applog.Security(c, "auth.token.invalid", nil)
			return c.Next()
		}
		c.Locals("user", u)
		c.Locals("userID", u.ID)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func userID(c *fiber.Ctx) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}

func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return apperr.ErrUnauthorized
		}
		return c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return apperr.ErrUnauthorized
		}
		for _, r := range roles {
			if u.HasRole(r) {
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.role", map[string]any{"required": roles})
		return apperr.Forbidden("requires role: " + strings.Join(roles, " or "))
	}
}
