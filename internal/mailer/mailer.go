// Package mailer sends the transactional emails (verification codes, password resets).
package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/gofiber/template/html/v2"
	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
)

const (
	tmplOTP   = "email/otp"
	tmplReset = "email/reset"
)

type OTPData struct {
	Name    string
	Code    string
	Minutes int
}

type ResetData struct {
	Name  string
	Token string
	Link  string
}

// SMTP renders html templates and delivers them through an SMTP relay.
type SMTP struct {
	client  *mail.Client
	from    string
	baseURL string
	views   *html.Engine
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

func NewSMTP(cfg SMTPConfig, views *html.Engine) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "smtp client")
	}
	return &SMTP{client: c, from: cfg.From, baseURL: cfg.BaseURL, views: views}, nil
}

func (m *SMTP) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return m.send(ctx, to, "Your CampusMart verification code", tmplOTP,
		OTPData{Name: name, Code: code, Minutes: int(ttl.Minutes())})
}

func (m *SMTP) SendPasswordReset(ctx context.Context, to, name, token string) error {
	link := m.baseURL + "/reset-password?" + url.Values{"email": {to}, "token": {token}}.Encode()
	return m.send(ctx, to, "Reset your CampusMart password", tmplReset,
		ResetData{Name: name, Token: token, Link: link})
}

func (m *SMTP) send(ctx context.Context, to, subject, tmpl string, data any) error {
	var buf bytes.Buffer
	if err := m.views.Render(&buf, tmpl, data); err != nil {
		return errors.Wrapf(err, "render %s", tmpl)
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return errors.Wrap(err, "from address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "to address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, buf.String())
	return errors.Wrap(m.client.DialAndSendWithContext(ctx, msg), "smtp send")
}

// Log stands in for SMTP in development: it logs the message instead of sending it.
type Log struct {
	Logger *slog.Logger
}

func (m Log) SendOTP(_ context.Context, to, _, code string, ttl time.Duration) error {
	m.Logger.Info("mail.otp", "to", to, "code", code, "ttl", ttl.String())
	return nil
}

func (m Log) SendPasswordReset(_ context.Context, to, _, token string) error {
	m.Logger.Info("mail.reset", "to", to, "token", token)
	return nil
}
