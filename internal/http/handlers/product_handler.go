package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	pg, err := h.Catalog.ListProducts(c.UserContext(), services.ProductQuery{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		SellerID: c.Query("seller_id"),
		MinPrice: c.Query("min_price"),
		MaxPrice: c.Query("max_price"),
		Sort:     c.Query("sort"),
		Page:     pageOf(c),
	})
	if err != nil {
		return err
	}
	return ok(c, pg)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.UserContext(), c.Params("id"), userID(c))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "product.create", map[string]any{"product_id": p.ID})
	return created(c, p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in services.ProductUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), userID(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	log.Audit(c, "product.update", map[string]any{"product_id": p.ID})
	return ok(c, p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteProduct(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	log.Audit(c, "product.delete", map[string]any{"product_id": id})
	return reply(c, fiber.StatusOK, "Product deleted", nil)
}
