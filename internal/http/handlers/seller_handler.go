package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type SellerHandler struct {
	Sellers *services.SellerService
	Catalog *services.CatalogService
}

func (h *SellerHandler) Create(c *fiber.Ctx) error {
	var in services.StoreInput
	if err := bind(c, &in); err != nil {
		return err
	}
	sel, err := h.Sellers.Create(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "seller.store.created", map[string]any{"seller_id": sel.ID, "slug": sel.Slug})
	return created(c, sel)
}

func (h *SellerHandler) Storefront(c *fiber.Ctx) error {
	sf, err := h.Sellers.Storefront(c.UserContext(), c.Params("slug"), userID(c))
	if err != nil {
		return err
	}
	return ok(c, sf)
}

func (h *SellerHandler) Mine(c *fiber.Ctx) error {
	sel, err := h.Sellers.Mine(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, sel)
}

func (h *SellerHandler) Update(c *fiber.Ctx) error {
	var in services.StoreUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	sel, err := h.Sellers.Update(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	return ok(c, sel)
}

func (h *SellerHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Sellers.Dashboard(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, d)
}

func (h *SellerHandler) Products(c *fiber.Ctx) error {
	pg, err := h.Catalog.MyProducts(c.UserContext(), userID(c), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *SellerHandler) Follow(c *fiber.Ctx) error {
	if err := h.Sellers.Follow(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, "Following", nil)
}

func (h *SellerHandler) Unfollow(c *fiber.Ctx) error {
	if err := h.Sellers.Unfollow(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, "Unfollowed", nil)
}

func (h *SellerHandler) Following(c *fiber.Ctx) error {
	out, err := h.Sellers.Following(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}
