package handlers

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"campusmart/internal/auth"
	"campusmart/internal/config"
	"campusmart/internal/realtime"
	"campusmart/internal/repos"
	"campusmart/internal/services"
	"campusmart/internal/storage"
)

// Options carries the outside-world adapters; main picks real ones, tests pass fakes.
type Options struct {
	Mailer  services.Mailer
	Gateway services.Gateway
	Events  services.Publisher
	Store   storage.Store
	Hub     *realtime.Hub
	// BcryptCost overrides bcrypt.DefaultCost (tests use bcrypt.MinCost).
	BcryptCost int

	Views          fiber.Views
	LimiterStorage fiber.Storage // nil keeps limiter counters in memory
	AccessLog      io.Writer
}

type Deps struct {
	Hub    *realtime.Hub
	Users  *repos.UserRepo
	Auth   *services.AuthService
	Orders *services.OrderService

	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	SellerHandler       *SellerHandler
	CategoryHandler     *CategoryHandler
	ProductHandler      *ProductHandler
	ListingHandler      *ListingHandler
	OfferingHandler     *OfferingHandler
	BookingHandler      *BookingHandler
	CartHandler         *CartHandler
	OrderHandler        *OrderHandler
	PaymentHandler      *PaymentHandler
	PayoutHandler       *PayoutHandler
	MessageHandler      *MessageHandler
	RealtimeHandler     *RealtimeHandler
	NotificationHandler *NotificationHandler
	WishlistHandler     *WishlistHandler
	ReviewHandler       *ReviewHandler
	SearchHandler       *SearchHandler
	UploadHandler       *UploadHandler
	WalkerHandler       *WalkerHandler
	AdminHandler        *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, opts Options) (*Deps, error) {
	if opts.Mailer == nil || opts.Gateway == nil || opts.Store == nil {
		return nil, errors.New("mailer, gateway and store are required")
	}
	hub := opts.Hub
	if hub == nil {
		hub = realtime.NewHub()
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	fee := decimal.NewFromInt(5)
	if s := strings.TrimSpace(cfg.PlatformFeePct); s != "" {
		if fee, err = decimal.NewFromString(s); err != nil || fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
			return nil, errors.Errorf("PLATFORM_FEE_PERCENT must be between 0 and 100, got %q", s)
		}
	}

	userRepo := repos.NewUserRepo(db)
	sellerRepo := repos.NewSellerRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	listingRepo := repos.NewListingRepo(db)
	serviceRepo := repos.NewServiceRepo(db)
	bookingRepo := repos.NewBookingRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	payoutRepo := repos.NewPayoutRepo(db)
	msgRepo := repos.NewMessageRepo(db)
	noteRepo := repos.NewNotificationRepo(db)
	wishRepo := repos.NewWishlistRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	walkerRepo := repos.NewWalkerRepo(db)

	authSvc := services.NewAuthService(userRepo, tokens, opts.Mailer, cfg.AdminEmails)
	authSvc.BcryptCost = opts.BcryptCost
	noteSvc := services.NewNotificationService(noteRepo, hub)
	sellerSvc := services.NewSellerService(sellerRepo, prodRepo, orderRepo)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, sellerRepo)
	listingSvc := services.NewListingService(listingRepo)
	offeringSvc := services.NewOfferingService(serviceRepo, catRepo)
	bookingSvc := services.NewBookingService(bookingRepo, serviceRepo, listingRepo, noteSvc)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, orderRepo, sellerRepo, noteSvc, opts.Events)

	payoutSvc := services.NewPayoutService(payoutRepo, sellerRepo, orderRepo, opts.Gateway, noteSvc)
	payoutSvc.FeePercent = fee
	payoutSvc.Currency = cfg.Currency
	if cfg.PayoutSummaryTimeout > 0 {
		payoutSvc.SummaryTimeout = cfg.PayoutSummaryTimeout
	}

	paySvc := services.NewPaymentService(payRepo, orderRepo, userRepo, opts.Gateway, noteSvc, opts.Events)
	paySvc.Transfers = payoutSvc
	paySvc.Currency = cfg.Currency
	paySvc.CallbackURL = strings.TrimRight(cfg.BaseURL, "/") + "/api/payments/callback"

	msgSvc := services.NewMessageService(msgRepo, userRepo, hub, opts.Events)
	wishSvc := services.NewWishlistService(wishRepo)
	reviewSvc := services.NewReviewService(reviewRepo, prodRepo, listingRepo, serviceRepo)
	searchSvc := services.NewSearchService(prodRepo, listingRepo, serviceRepo, sellerRepo)
	uploadSvc := services.NewUploadService(opts.Store, cfg.MaxUploadMB)
	walkerSvc := services.NewWalkerService(walkerRepo, userRepo, orderRepo, noteSvc, opts.Events)
	adminSvc := services.NewAdminService(userRepo, orderRepo, walkerRepo, noteSvc)

	return &Deps{
		Hub:    hub,
		Users:  userRepo,
		Auth:   authSvc,
		Orders: orderSvc,

		AuthHandler:         &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		UserHandler:         &UserHandler{Auth: authSvc},
		SellerHandler:       &SellerHandler{Sellers: sellerSvc, Catalog: catalogSvc},
		CategoryHandler:     &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:      &ProductHandler{Catalog: catalogSvc},
		ListingHandler:      &ListingHandler{Listings: listingSvc},
		OfferingHandler:     &OfferingHandler{Offerings: offeringSvc},
		BookingHandler:      &BookingHandler{Bookings: bookingSvc},
		CartHandler:         &CartHandler{Cart: cartSvc},
		OrderHandler:        &OrderHandler{Orders: orderSvc},
		PaymentHandler:      &PaymentHandler{Payments: paySvc},
		PayoutHandler:       &PayoutHandler{Payouts: payoutSvc},
		MessageHandler:      &MessageHandler{Messages: msgSvc},
		RealtimeHandler:     &RealtimeHandler{Hub: hub},
		NotificationHandler: &NotificationHandler{Notes: noteSvc},
		WishlistHandler:     &WishlistHandler{Wish: wishSvc},
		ReviewHandler:       &ReviewHandler{Reviews: reviewSvc},
		SearchHandler:       &SearchHandler{Search: searchSvc},
		UploadHandler:       &UploadHandler{Uploads: uploadSvc},
		WalkerHandler:       &WalkerHandler{Walkers: walkerSvc},
		AdminHandler:        &AdminHandler{Admin: adminSvc, Walkers: walkerSvc, Payouts: payoutSvc},
	}, nil
}
