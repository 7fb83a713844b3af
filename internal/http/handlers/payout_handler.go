package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type PayoutHandler struct {
	Payouts *services.PayoutService
}

func (h *PayoutHandler) SetBank(c *fiber.Ctx) error {
	var in services.BankInput
	if err := bind(c, &in); err != nil {
		return err
	}
	sel, err := h.Payouts.SetBank(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "payout.bank.set", map[string]any{"seller_id": sel.ID})
	return ok(c, sel)
}

func (h *PayoutHandler) Summary(c *fiber.Ctx) error {
	sum, err := h.Payouts.Summary(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, sum)
}

func (h *PayoutHandler) Request(c *fiber.Ctx) error {
	var in services.PayoutInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.Payouts.Request(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "payout.requested", map[string]any{"payout_id": p.ID, "amount": p.Amount.StringFixed(2), "status": p.Status})
	return created(c, p)
}

func (h *PayoutHandler) Mine(c *fiber.Ctx) error {
	out, err := h.Payouts.Mine(c.UserContext(), userID(c), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}
