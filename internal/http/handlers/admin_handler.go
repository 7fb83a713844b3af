package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type AdminHandler struct {
	Admin   *services.AdminService
	Walkers *services.WalkerService
	Payouts *services.PayoutService
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Admin.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, st)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg, err := h.Admin.ListUsers(c.UserContext(), c.Query("role"), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *AdminHandler) SetRoles(c *fiber.Ctx) error {
	var in services.RolesInput
	if err := bind(c, &in); err != nil {
		return err
	}
	id := c.Params("id")
	u, err := h.Admin.SetRoles(c.UserContext(), userID(c), id, in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.user.roles", map[string]any{"target_id": id, "roles": in.Roles})
	return ok(c, u)
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Admin.DeleteUser(c.UserContext(), userID(c), id); err != nil {
		return err
	}
	log.Audit(c, "admin.user.delete", map[string]any{"target_id": id})
	return reply(c, fiber.StatusOK, "User deleted", nil)
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pg, err := h.Admin.ListOrders(c.UserContext(), c.Query("delivery_status"), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *AdminHandler) SetOrderStatus(c *fiber.Ctx) error {
	var in services.OrderStatusInput
	if err := bind(c, &in); err != nil {
		return err
	}
	o, err := h.Admin.SetOrderStatus(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.order.status", map[string]any{"order_id": o.ID, "status": o.DeliveryStatus})
	return ok(c, o)
}

func (h *AdminHandler) WalkerApplications(c *fiber.Ctx) error {
	out, err := h.Walkers.List(c.UserContext(), c.Query("status"), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *AdminHandler) ApproveWalker(c *fiber.Ctx) error {
	w, err := h.Walkers.Approve(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	log.Audit(c, "admin.walker.approve", map[string]any{"walker_id": w.ID})
	return ok(c, w)
}

func (h *AdminHandler) RejectWalker(c *fiber.Ctx) error {
	w, err := h.Walkers.Reject(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	log.Audit(c, "admin.walker.reject", map[string]any{"walker_id": w.ID})
	return ok(c, w)
}

func (h *AdminHandler) ListPayouts(c *fiber.Ctx) error {
	out, err := h.Payouts.All(c.UserContext(), c.Query("status"), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}
