package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"campusmart/internal/apperr"
	"campusmart/internal/log"
	"campusmart/internal/services"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

type emailBody struct {
	Email string `json:"email"`
}

type otpBody struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *AuthHandler) setToken(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  expires,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, apperr.ErrEmailTaken) {
			log.Security(c, "auth.register.duplicate", nil)
		}
		return err
	}
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return reply(c, fiber.StatusCreated, "Registered. Check your email for the verification code", u.View())
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var in otpBody
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.VerifyOTP(c.UserContext(), in.Email, in.OTP)
	if err != nil {
		log.Security(c, "auth.otp.fail", nil)
		return err
	}
	log.Audit(c, "auth.otp.verified", map[string]any{"user_id": u.ID})
	return reply(c, fiber.StatusOK, "Email verified", u.View())
}

func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var in emailBody
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.Auth.ResendOTP(c.UserContext(), in.Email); err != nil {
		return err
	}
	return reply(c, fiber.StatusOK, "If the account exists and is unverified, a new code was sent", nil)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := bind(c, &in); err != nil {
		return err
	}
	tok, u, err := h.Auth.Login(c.UserContext(), in)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"reason": errCode(err)})
		return err
	}
	h.setToken(c, tok, time.Now().Add(h.Auth.Tokens.TTL()))
	c.Locals("userID", u.ID)
	log.Audit(c, "auth.login.success", nil)
	return ok(c, fiber.Map{"token": tok, "user": u.View()})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.setToken(c, "", time.Now().Add(-time.Hour))
	log.Audit(c, "auth.logout", nil)
	return reply(c, fiber.StatusOK, "Logged out", nil)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var in emailBody
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.Auth.ForgotPassword(c.UserContext(), in.Email); err != nil {
		return err
	}
	log.Audit(c, "auth.reset.requested", nil)
	return reply(c, fiber.StatusOK, "If the account exists, a reset link was sent", nil)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in services.ResetPasswordInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.Auth.ResetPassword(c.UserContext(), in); err != nil {
		log.Security(c, "auth.reset.fail", nil)
		return err
	}
	log.Audit(c, "auth.reset.done", nil)
	return reply(c, fiber.StatusOK, "Password updated", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return ok(c, currentUser(c).View())
}

func errCode(err error) string {
	if e, ok := apperr.As(err); ok {
		return e.Code
	}
	return "internal"
}
