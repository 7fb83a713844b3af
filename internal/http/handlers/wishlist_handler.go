package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/services"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, items)
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	var in services.WishlistInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.Wish.Save(c.UserContext(), userID(c), in); err != nil {
		return err
	}
	return reply(c, fiber.StatusCreated, "Saved to wishlist", nil)
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	if err := h.Wish.Unsave(c.UserContext(), userID(c), c.Params("productId")); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, "Removed from wishlist", nil)
}
