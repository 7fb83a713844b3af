package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type BookingHandler struct {
	Bookings *services.BookingService
}

func (h *BookingHandler) Create(c *fiber.Ctx) error {
	var in services.BookingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.Create(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "booking.create", map[string]any{"booking_id": b.ID, "ref_type": b.RefType})
	return created(c, b)
}

func (h *BookingHandler) Mine(c *fiber.Ctx) error {
	out, err := h.Bookings.Mine(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *BookingHandler) Incoming(c *fiber.Ctx) error {
	out, err := h.Bookings.Incoming(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *BookingHandler) SetStatus(c *fiber.Ctx) error {
	var in services.BookingStatusInput
	if err := bind(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.SetStatus(c.UserContext(), userID(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	log.Audit(c, "booking.status", map[string]any{"booking_id": b.ID, "status": b.Status})
	return ok(c, b)
}
