package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

// OfferingHandler serves /api/services, the bookable offerings of service providers.
type OfferingHandler struct {
	Offerings *services.OfferingService
}

func (h *OfferingHandler) List(c *fiber.Ctx) error {
	pg, err := h.Offerings.List(c.UserContext(), services.ServiceQuery{
		Q:          c.Query("q"),
		ProviderID: c.Query("provider_id"),
		CategoryID: c.Query("category_id"),
		Page:       pageOf(c),
	})
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *OfferingHandler) Get(c *fiber.Ctx) error {
	s, err := h.Offerings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, s)
}

func (h *OfferingHandler) Create(c *fiber.Ctx) error {
	var in services.ServiceInput
	if err := bind(c, &in); err != nil {
		return err
	}
	s, err := h.Offerings.Create(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "service.create", map[string]any{"service_id": s.ID})
	return created(c, s)
}

func (h *OfferingHandler) Update(c *fiber.Ctx) error {
	var in services.ServiceUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	s, err := h.Offerings.Update(c.UserContext(), currentUser(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return ok(c, s)
}

func (h *OfferingHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Offerings.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	log.Audit(c, "service.delete", map[string]any{"service_id": id})
	return reply(c, fiber.StatusOK, "Service deleted", nil)
}
