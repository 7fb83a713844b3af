package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

// Response is the envelope every JSON endpoint replies with.
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func reply(c *fiber.Ctx, status int, msg string, data any) error {
	if msg == "" {
		msg = "Success"
	}
	return c.Status(status).JSON(Response{Success: true, Code: status, Message: msg, Data: data})
}

func ok(c *fiber.Ctx, data any) error { return reply(c, fiber.StatusOK, "", data) }

func created(c *fiber.Ctx, data any) error { return reply(c, fiber.StatusCreated, "Created", data) }

func fail(c *fiber.Ctx, status int, code, msg, details string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return c.Status(status).JSON(Response{
		Success: false,
		Code:    status,
		Message: msg,
		Error:   &ErrorInfo{Code: code, Details: details},
	})
}

// bind decodes a JSON body; a malformed body is a 400, never a 500.
func bind(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperr.BadRequest("invalid request body").WithDetails(err.Error())
	}
	return nil
}

func pageOf(c *fiber.Ctx) domain.Page {
	return domain.NewPage(c.QueryInt("page", 1), c.QueryInt("limit", 20))
}
