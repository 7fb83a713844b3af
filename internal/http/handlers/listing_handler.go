package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type ListingHandler struct {
	Listings *services.ListingService
}

func (h *ListingHandler) List(c *fiber.Ctx) error {
	pg, err := h.Listings.List(c.UserContext(), services.ListingQuery{
		Q:         c.Query("q"),
		OwnerID:   c.Query("owner_id"),
		MaxRent:   c.Query("max_rent"),
		Bedrooms:  c.Query("bedrooms"),
		Furnished: c.Query("furnished"),
		Available: c.Query("available"),
		Page:      pageOf(c),
	})
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *ListingHandler) Get(c *fiber.Ctx) error {
	l, err := h.Listings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, l)
}

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var in services.ListingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	l, err := h.Listings.Create(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "listing.create", map[string]any{"listing_id": l.ID})
	return created(c, l)
}

func (h *ListingHandler) Update(c *fiber.Ctx) error {
	var in services.ListingUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	l, err := h.Listings.Update(c.UserContext(), currentUser(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return ok(c, l)
}

func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Listings.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	log.Audit(c, "listing.delete", map[string]any{"listing_id": id})
	return reply(c, fiber.StatusOK, "Listing deleted", nil)
}
