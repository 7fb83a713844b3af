package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/services"
)

type NotificationHandler struct {
	Notes *services.NotificationService
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	out, err := h.Notes.List(c.UserContext(), userID(c), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.Notes.MarkRead(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, "Marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.Notes.MarkAllRead(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"updated": n})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	if err := h.Notes.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, "Notification deleted", nil)
}
