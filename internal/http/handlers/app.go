package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"campusmart/internal/apperr"
	"campusmart/internal/config"
	applog "campusmart/internal/log"
	"campusmart/internal/storage"
)

const webhookPath = "/api/payments/webhook"

// NewApp builds the fiber app with every middleware and route mounted.
func NewApp(db *sqlx.DB, cfg config.Config, opts Options) (*fiber.App, *Deps, error) {
	deps, err := NewDeps(db, cfg, opts)
	if err != nil {
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      "campusmart",
		Views:        opts.Views,
		ErrorHandler: ErrorHandler,
	})
	// Room for one full upload batch plus form overhead.
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 5
	}
	app.Server().MaxRequestBodySize = (maxMB*5 + 1) << 20

	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
		Output: accessLog,
	}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: cfg.CORSOrigins != "" && cfg.CORSOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Csrf-Token",
	}))
	if cfg.RateLimitPerMin > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitPerMin,
			Expiration: time.Minute,
			Storage:    opts.LimiterStorage,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return strings.HasPrefix(p, "/media/") || p == "/healthz" || p == webhookPath
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return fail(c, fiber.StatusTooManyRequests, "TOO_MANY_REQUESTS", "rate limit exceeded, retry soon", "")
			},
		}))
	}
	// Cookie sessions need a CSRF token; bearer clients and the signed webhook do not.
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:" + csrf.HeaderName,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		Next: func(c *fiber.Ctx) bool {
			if strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ") {
				return true
			}
			return c.Path() == webhookPath || c.Cookies(tokenCookie) == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return fail(c, fiber.StatusForbidden, "CSRF_FAILED", "Security check failed. Please refresh and try again.", "")
		},
	}))

	// ---------- Static assets ----------
	if _, ok := opts.Store.(*storage.Disk); ok {
		mountMedia(app, cfg.MediaDir)
	}

	loginLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		Storage:    opts.LimiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "login|" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many login attempts. Please try again later.", "")
		},
	})
	Routes(app, deps, loginLimiter, opts.LimiterStorage)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return apperr.New(fiber.StatusServiceUnavailable, "DB_UNAVAILABLE", "database unavailable")
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return fail(c, fiber.StatusNotFound, "NOT_FOUND", "route not found", c.Method()+" "+c.Path())
		}
		return render(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "Page not found"})
	})

	return app, deps, nil
}

// mountMedia serves disk uploads, refusing anything that could leave the media dir.
func mountMedia(app *fiber.App, dir string) {
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	})
}

// ErrorHandler renders every error in the response envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := apperr.As(err); ok {
		if e.Status >= fiber.StatusInternalServerError {
			applog.Error(c, "request.failed", err, map[string]any{"code": e.Code})
		}
		return fail(c, e.Status, e.Code, e.Message, e.Details)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := strings.ToUpper(strings.ReplaceAll(http.StatusText(fe.Code), " ", "_"))
		return fail(c, fe.Code, code, fe.Message, "")
	}
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return fail(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload size limit", "")
	case errors.Is(err, storage.ErrUnsupportedType):
		return fail(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE", "only jpeg, png, webp, gif or pdf files are accepted", "")
	}
	applog.Error(c, "server.error", err, nil)
	return fail(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err.Error())
}
