package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// Checkout turns the cart into an order. Prices are re-read from the products table.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var in services.CheckoutInput
	if err := bind(c, &in); err != nil {
		return err
	}
	o, err := h.Orders.Checkout(c.UserContext(), userID(c), in)
	if err != nil {
		log.Info(c, "order.checkout.rejected", map[string]any{"reason": errCode(err)})
		return err
	}
	log.Audit(c, "order.placed", map[string]any{"order_id": o.ID, "total": o.Total.StringFixed(2)})
	return created(c, o)
}

func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	pg, err := h.Orders.Mine(c.UserContext(), userID(c), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *OrderHandler) ForSeller(c *fiber.Ctx) error {
	pg, err := h.Orders.ForSeller(c.UserContext(), userID(c), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.Orders.Get(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, o)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	o, err := h.Orders.Cancel(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	log.Audit(c, "order.cancelled", map[string]any{"order_id": o.ID})
	return ok(c, o)
}

func (h *OrderHandler) ConfirmDelivery(c *fiber.Ctx) error {
	o, err := h.Orders.ConfirmDelivery(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	log.Audit(c, "order.delivery.confirmed", map[string]any{"order_id": o.ID})
	return ok(c, o)
}
