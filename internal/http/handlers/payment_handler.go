package handlers

import (
	"github.com/gofiber/fiber/v2"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/log"
	"campusmart/internal/services"
)

const signatureHeader = "x-paystack-signature"

type PaymentHandler struct {
	Payments *services.PaymentService
}

func (h *PaymentHandler) Initialize(c *fiber.Ctx) error {
	var in services.InitializePaymentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	link, err := h.Payments.Initialize(c.UserContext(), currentUser(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "payment.initialized", map[string]any{"order_id": in.OrderID, "reference": link.Reference})
	return ok(c, link)
}

func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	p, err := h.Payments.Verify(c.UserContext(), currentUser(c), c.Params("reference"))
	if err != nil {
		return err
	}
	return ok(c, p)
}

// Webhook acknowledges every correctly signed event, including ones it ignores,
// so the provider stops retrying.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	err := h.Payments.HandleWebhook(c.UserContext(), c.Body(), c.Get(signatureHeader))
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Code == apperr.ErrBadSignature.Code {
			log.Security(c, "payment.webhook.bad_signature", nil)
		}
		return err
	}
	return reply(c, fiber.StatusOK, "Received", nil)
}

// Callback is where the provider sends the buyer's browser after checkout.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	ref := c.Query("reference")
	if ref == "" {
		ref = c.Query("trxref")
	}
	if ref == "" {
		return render(c, fiber.StatusBadRequest, "payment_result", fiber.Map{
			"Success": false, "Message": "Missing payment reference.",
		})
	}
	p, err := h.Payments.Callback(c.UserContext(), ref)
	if err != nil {
		log.Error(c, "payment.callback.fail", err, map[string]any{"reference": ref})
		status := fiber.StatusInternalServerError
		msg := "We could not confirm your payment. Please check your orders shortly."
		if e, ok := apperr.As(err); ok {
			status = e.Status
			if e.Status < 500 {
				msg = e.Message
			}
		}
		return render(c, status, "payment_result", fiber.Map{"Success": false, "Message": msg, "Reference": ref})
	}
	paid := p.Status == domain.PaymentSuccess
	msg := "Payment received. Your order is on its way to a campus walker."
	if !paid {
		msg = "Payment was not completed (" + p.Status + ")."
	}
	return render(c, fiber.StatusOK, "payment_result", fiber.Map{
		"Success":   paid,
		"Message":   msg,
		"Reference": p.Reference,
		"OrderID":   p.OrderID,
		"Amount":    p.Amount.StringFixed(2),
		"Currency":  p.Currency,
	})
}

func (h *PaymentHandler) Mine(c *fiber.Ctx) error {
	out, err := h.Payments.Mine(c.UserContext(), userID(c), pageOf(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}
