package handlers

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"campusmart/internal/log"
	"campusmart/internal/realtime"
	"campusmart/internal/services"
)

type MessageHandler struct {
	Messages *services.MessageService
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var in services.SendMessageInput
	if err := bind(c, &in); err != nil {
		return err
	}
	m, err := h.Messages.Send(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	return created(c, m)
}

func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	out, err := h.Messages.Conversations(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *MessageHandler) Thread(c *fiber.Ctx) error {
	out, err := h.Messages.Thread(c.UserContext(), userID(c), c.Params("userId"), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (h *MessageHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.Messages.UnreadCount(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"unread": n})
}

type RealtimeHandler struct {
	Hub       *realtime.Hub
	Heartbeat time.Duration
}

// Stream keeps an SSE connection open and relays the caller's hub events.
func (h *RealtimeHandler) Stream(c *fiber.Ctx) error {
	uid := userID(c)
	ch, unsubscribe := h.Hub.Subscribe(uid)
	beat := h.Heartbeat
	if beat <= 0 {
		beat = 25 * time.Second
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	log.Info(c, "realtime.stream.open", nil)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		realtime.Serve(w, ch, beat)
	}))
	return nil
}
