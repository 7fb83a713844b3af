package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/services"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, cv)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in services.AddToCartInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cv, err := h.Cart.Add(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	return ok(c, cv)
}

func (h *CartHandler) SetQty(c *fiber.Ctx) error {
	var in services.CartQtyInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cv, err := h.Cart.SetQty(c.UserContext(), userID(c), c.Params("productId"), in)
	if err != nil {
		return err
	}
	return ok(c, cv)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	cv, err := h.Cart.Remove(c.UserContext(), userID(c), c.Params("productId"))
	if err != nil {
		return err
	}
	return ok(c, cv)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), userID(c)); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, "Cart cleared", nil)
}
