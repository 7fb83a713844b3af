package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type UserHandler struct {
	Auth *services.AuthService
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.UpdateProfile(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	return ok(c, u.View())
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var in services.ChangePasswordInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.Auth.ChangePassword(c.UserContext(), userID(c), in); err != nil {
		log.Security(c, "user.password.change.fail", nil)
		return err
	}
	log.Audit(c, "user.password.changed", nil)
	return reply(c, fiber.StatusOK, "Password changed", nil)
}
