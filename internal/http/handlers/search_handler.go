package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/log"
	"campusmart/internal/services"
)

type SearchHandler struct {
	Search *services.SearchService
}

func (h *SearchHandler) Query(c *fiber.Ctx) error {
	res, err := h.Search.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		log.Info(c, "search.rejected", map[string]any{"q_len": len(c.Query("q"))})
		return err
	}
	return ok(c, res)
}

type UploadHandler struct {
	Uploads *services.UploadService
}

func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected multipart form with files")
	}
	urls, err := h.Uploads.Save(c.UserContext(), userID(c), form.File["files"])
	if err != nil {
		log.Security(c, "upload.rejected", map[string]any{"count": len(form.File["files"])})
		return err
	}
	return created(c, fiber.Map{"urls": urls})
}
