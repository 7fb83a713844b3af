package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"campusmart/internal/domain"
	applog "campusmart/internal/log"
)

// Routes mounts the REST API under /api.
func Routes(app *fiber.App, d *Deps, loginLimiter fiber.Handler, store fiber.Storage) {
	authed := RequireAuth()
	seller := RequireRole(domain.RoleSeller)
	provider := RequireRole(domain.RoleServiceProvider)
	walker := RequireRole(domain.RoleWalker)
	admin := RequireRole(domain.RoleAdmin)

	api := app.Group("/api", Identify(d.Auth))

	au := api.Group("/auth")
	au.Post("/register", d.AuthHandler.Register)
	au.Post("/verify-otp", d.AuthHandler.VerifyOTP)
	au.Post("/resend-otp", d.AuthHandler.ResendOTP)
	au.Post("/login", loginLimiter, d.AuthHandler.Login)
	au.Post("/logout", d.AuthHandler.Logout)
	au.Post("/forgot-password", d.AuthHandler.ForgotPassword)
	au.Post("/reset-password", d.AuthHandler.ResetPassword)
	au.Get("/me", authed, d.AuthHandler.Me)

	api.Patch("/users/me", authed, d.UserHandler.UpdateProfile)
	api.Patch("/users/me/password", authed, d.UserHandler.ChangePassword)

	// Sellers: /me routes first so "me" is never read as a slug.
	sl := api.Group("/sellers")
	sl.Post("/", seller, d.SellerHandler.Create)
	sl.Get("/me", seller, d.SellerHandler.Mine)
	sl.Patch("/me", seller, d.SellerHandler.Update)
	sl.Get("/me/dashboard", seller, d.SellerHandler.Dashboard)
	sl.Get("/me/products", seller, d.SellerHandler.Products)
	sl.Get("/:slug", d.SellerHandler.Storefront)
	sl.Post("/:id/follow", authed, d.SellerHandler.Follow)
	sl.Delete("/:id/follow", authed, d.SellerHandler.Unfollow)
	api.Get("/follows", authed, d.SellerHandler.Following)

	cat := api.Group("/categories")
	cat.Get("/", d.CategoryHandler.Tree)
	cat.Get("/:slug", d.CategoryHandler.BySlug)
	cat.Post("/", admin, d.CategoryHandler.Create)
	cat.Patch("/:id", admin, d.CategoryHandler.Update)
	cat.Delete("/:id", admin, d.CategoryHandler.Delete)

	pr := api.Group("/products")
	pr.Get("/", d.ProductHandler.List)
	pr.Get("/:id", d.ProductHandler.Get)
	pr.Post("/", seller, d.ProductHandler.Create)
	pr.Patch("/:id", seller, d.ProductHandler.Update)
	pr.Delete("/:id", RequireRole(domain.RoleSeller, domain.RoleAdmin), d.ProductHandler.Delete)

	ls := api.Group("/listings")
	ls.Get("/", d.ListingHandler.List)
	ls.Get("/:id", d.ListingHandler.Get)
	ls.Post("/", seller, d.ListingHandler.Create)
	ls.Patch("/:id", seller, d.ListingHandler.Update)
	ls.Delete("/:id", RequireRole(domain.RoleSeller, domain.RoleAdmin), d.ListingHandler.Delete)

	sv := api.Group("/services")
	sv.Get("/", d.OfferingHandler.List)
	sv.Get("/:id", d.OfferingHandler.Get)
	sv.Post("/", provider, d.OfferingHandler.Create)
	sv.Patch("/:id", provider, d.OfferingHandler.Update)
	sv.Delete("/:id", RequireRole(domain.RoleServiceProvider, domain.RoleAdmin), d.OfferingHandler.Delete)

	bk := api.Group("/bookings")
	bk.Post("/", authed, d.BookingHandler.Create)
	bk.Get("/", authed, d.BookingHandler.Mine)
	bk.Get("/incoming", authed, d.BookingHandler.Incoming)
	bk.Patch("/:id/status", authed, d.BookingHandler.SetStatus)

	ct := api.Group("/cart")
	ct.Get("/", authed, d.CartHandler.View)
	ct.Post("/", authed, d.CartHandler.Add)
	ct.Patch("/:productId", authed, d.CartHandler.SetQty)
	ct.Delete("/:productId", authed, d.CartHandler.Remove)
	ct.Delete("/", authed, d.CartHandler.Clear)

	or := api.Group("/orders")
	or.Post("/checkout", authed, d.OrderHandler.Checkout)
	or.Get("/", authed, d.OrderHandler.Mine)
	or.Get("/seller", seller, d.OrderHandler.ForSeller)
	or.Get("/:id", authed, d.OrderHandler.Get)
	or.Post("/:id/cancel", authed, d.OrderHandler.Cancel)
	or.Post("/:id/confirm-delivery", authed, d.OrderHandler.ConfirmDelivery)

	pay := api.Group("/payments")
	pay.Post("/initialize", authed, d.PaymentHandler.Initialize)
	pay.Get("/verify/:reference", authed, d.PaymentHandler.Verify)
	pay.Post("/webhook", d.PaymentHandler.Webhook)
	pay.Get("/callback", d.PaymentHandler.Callback)
	pay.Get("/", authed, d.PaymentHandler.Mine)

	po := api.Group("/payouts")
	po.Put("/bank", seller, d.PayoutHandler.SetBank)
	po.Get("/summary", seller, d.PayoutHandler.Summary)
	po.Post("/", seller, d.PayoutHandler.Request)
	po.Get("/", seller, d.PayoutHandler.Mine)

	msg := api.Group("/messages")
	msg.Post("/", authed, d.MessageHandler.Send)
	msg.Get("/conversations", authed, d.MessageHandler.Conversations)
	msg.Get("/unread-count", authed, d.MessageHandler.UnreadCount)
	msg.Get("/:userId", authed, d.MessageHandler.Thread)

	api.Get("/realtime/stream", authed, d.RealtimeHandler.Stream)

	nt := api.Group("/notifications")
	nt.Get("/", authed, d.NotificationHandler.List)
	nt.Patch("/read-all", authed, d.NotificationHandler.MarkAllRead)
	nt.Patch("/:id/read", authed, d.NotificationHandler.MarkRead)
	nt.Delete("/:id", authed, d.NotificationHandler.Delete)

	wl := api.Group("/wishlist")
	wl.Get("/", authed, d.WishlistHandler.List)
	wl.Post("/", authed, d.WishlistHandler.Save)
	wl.Delete("/:productId", authed, d.WishlistHandler.Unsave)

	rv := api.Group("/reviews")
	rv.Get("/", d.ReviewHandler.List)
	rv.Post("/", authed, d.ReviewHandler.Create)
	rv.Delete("/:id", authed, d.ReviewHandler.Delete)

	api.Get("/search", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		Storage:    store,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "search|" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.search.hit", nil)
			return fail(c, fiber.StatusTooManyRequests, "TOO_MANY_REQUESTS", "rate limit exceeded, retry soon", "")
		},
	}), d.SearchHandler.Query)

	api.Post("/uploads", authed, d.UploadHandler.Upload)

	wk := api.Group("/walkers")
	wk.Post("/apply", authed, d.WalkerHandler.Apply)
	wk.Get("/me", authed, d.WalkerHandler.Mine)
	wk.Get("/deliveries", walker, d.WalkerHandler.Available)
	wk.Get("/deliveries/mine", walker, d.WalkerHandler.MyDeliveries)
	wk.Post("/deliveries/:orderId/accept", walker, d.WalkerHandler.Accept)
	wk.Post("/deliveries/:orderId/pickup", walker, d.WalkerHandler.Pickup)
	wk.Post("/deliveries/:orderId/deliver", walker, d.WalkerHandler.Deliver)

	ad := api.Group("/admin")
	ad.Get("/stats", admin, d.AdminHandler.Stats)
	ad.Get("/users", admin, d.AdminHandler.ListUsers)
	ad.Patch("/users/:id/roles", admin, d.AdminHandler.SetRoles)
	ad.Delete("/users/:id", admin, d.AdminHandler.DeleteUser)
	ad.Get("/orders", admin, d.AdminHandler.ListOrders)
	ad.Patch("/orders/:id/status", admin, d.AdminHandler.SetOrderStatus)
	ad.Get("/walkers", admin, d.AdminHandler.WalkerApplications)
	ad.Post("/walkers/:id/approve", admin, d.AdminHandler.ApproveWalker)
	ad.Post("/walkers/:id/reject", admin, d.AdminHandler.RejectWalker)
	ad.Get("/payouts", admin, d.AdminHandler.ListPayouts)
}
