package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type WalkerHandler struct {
	Walkers *services.WalkerService
}

func (h *WalkerHandler) Apply(c *fiber.Ctx) error {
	var in services.WalkerApplication
	if err := bind(c, &in); err != nil {
		return err
	}
	w, err := h.Walkers.Apply(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "walker.applied", map[string]any{"walker_id": w.ID})
	return created(c, w)
}

func (h *WalkerHandler) Mine(c *fiber.Ctx) error {
	w, err := h.Walkers.Mine(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, w)
}

func (h *WalkerHandler) Available(c *fiber.Ctx) error {
	pg, err := h.Walkers.Available(c.UserContext(), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *WalkerHandler) MyDeliveries(c *fiber.Ctx) error {
	pg, err := h.Walkers.MyDeliveries(c.UserContext(), userID(c), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *WalkerHandler) Accept(c *fiber.Ctx) error {
	o, err := h.Walkers.Accept(c.UserContext(), userID(c), c.Params("orderId"))
	if err != nil {
		return err
	}
	log.Audit(c, "delivery.accepted", map[string]any{"order_id": o.ID})
	return ok(c, o)
}

func (h *WalkerHandler) Pickup(c *fiber.Ctx) error {
	o, err := h.Walkers.Pickup(c.UserContext(), userID(c), c.Params("orderId"))
	if err != nil {
		return err
	}
	log.Audit(c, "delivery.picked_up", map[string]any{"order_id": o.ID})
	return ok(c, o)
}

func (h *WalkerHandler) Deliver(c *fiber.Ctx) error {
	o, err := h.Walkers.Deliver(c.UserContext(), userID(c), c.Params("orderId"))
	if err != nil {
		return err
	}
	log.Audit(c, "delivery.delivered", map[string]any{"order_id": o.ID})
	return ok(c, o)
}
