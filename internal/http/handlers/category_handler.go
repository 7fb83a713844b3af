package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Tree(c *fiber.Ctx) error {
	cats, err := h.Catalog.CategoryTree(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, cats)
}

func (h *CategoryHandler) BySlug(c *fiber.Ctx) error {
	cat, err := h.Catalog.CategoryBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return ok(c, cat)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.category.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return created(c, cat)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	var in services.CategoryUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	log.Audit(c, "admin.category.update", map[string]any{"category_id": cat.ID})
	return ok(c, cat)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	log.Audit(c, "admin.category.delete", map[string]any{"category_id": id})
	return reply(c, fiber.StatusOK, "Category deleted", nil)
}
