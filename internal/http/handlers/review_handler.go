package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	out, err := h.Reviews.List(c.UserContext(), c.Query("ref_type"), c.Query("ref_id"), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var in services.ReviewInput
	if err := bind(c, &in); err != nil {
		return err
	}
	rv, err := h.Reviews.Create(c.UserContext(), currentUser(c), in)
	if err != nil {
		return err
	}
	return created(c, rv)
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Reviews.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	log.Audit(c, "review.delete", map[string]any{"review_id": id})
	return reply(c, fiber.StatusOK, "Review deleted", nil)
}
