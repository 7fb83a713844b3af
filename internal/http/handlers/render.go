package handlers

import "github.com/gofiber/fiber/v2"

// render serves the few server-side pages (payment result, 404).
func render(c *fiber.Ctx, status int, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u.View()
	}
	if err := c.Status(status).Render(tmpl, data); err != nil {
		msg, _ := data["Message"].(string)
		if msg == "" {
			msg = "Something went wrong. Please try again."
		}
		return c.Status(status).SendString(msg)
	}
	return nil
}
