package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type SellerService struct {
	Sellers  *repos.SellerRepo
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
}

func NewSellerService(sellers *repos.SellerRepo, products *repos.ProductRepo, orders *repos.OrderRepo) *SellerService {
	return &SellerService{Sellers: sellers, Products: products, Orders: orders}
}

type StoreInput struct {
	StoreName   string `json:"store_name" validate:"required,min=2,max=80"`
	Description string `json:"description" validate:"max=1000"`
	Logo        string `json:"logo" validate:"max=500"`
}

func (s *SellerService) Create(ctx context.Context, userID string, in StoreInput) (*domain.Seller, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.Sellers.ByUserID(ctx, userID); err == nil {
		return nil, apperr.Conflict("storefront already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	slug, err := s.uniqueSlug(ctx, in.StoreName)
	if err != nil {
		return nil, err
	}
	now := domain.Now()
	sel := &domain.Seller{
		ID:          uuid.NewString(),
		UserID:      userID,
		StoreName:   strings.TrimSpace(in.StoreName),
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		Logo:        strings.TrimSpace(in.Logo),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Sellers.Create(ctx, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// uniqueSlug derives a slug from name, appending -2, -3... on collision.
func (s *SellerService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := validate.Slug(name)
	if base == "" {
		base = "store"
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := s.Sellers.SlugTaken(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}

// Storefront loads a public store page; viewerID (may be empty) fills in Following.
func (s *SellerService) Storefront(ctx context.Context, slug, viewerID string) (*domain.Storefront, error) {
	sf, err := s.Sellers.Storefront(ctx, slug)
	if err != nil {
		return nil, err
	}
	sf.Seller = sf.Seller.Public()
	if viewerID != "" {
		if sf.Following, err = s.Sellers.IsFollowing(ctx, sf.ID, viewerID); err != nil {
			return nil, err
		}
	}
	return sf, nil
}

func (s *SellerService) Mine(ctx context.Context, userID string) (*domain.Seller, error) {
	return s.Sellers.ByUserID(ctx, userID)
}

type StoreUpdate struct {
	StoreName   *string `json:"store_name" validate:"omitempty,min=2,max=80"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Logo        *string `json:"logo" validate:"omitempty,max=500"`
}

func (s *SellerService) Update(ctx context.Context, userID string, in StoreUpdate) (*domain.Seller, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	sel, err := s.Sellers.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.StoreName != nil {
		sel.StoreName = strings.TrimSpace(*in.StoreName)
	}
	if in.Description != nil {
		sel.Description = strings.TrimSpace(*in.Description)
	}
	if in.Logo != nil {
		sel.Logo = strings.TrimSpace(*in.Logo)
	}
	if err := s.Sellers.UpdateProfile(ctx, sel); err != nil {
		return nil, err
	}
	return sel, nil
}

func (s *SellerService) Follow(ctx context.Context, userID, sellerID string) error {
	sel, err := s.Sellers.ByID(ctx, sellerID)
	if err != nil {
		return err
	}
	if sel.UserID == userID {
		return apperr.BadRequest("you cannot follow your own store")
	}
	return s.Sellers.Follow(ctx, sellerID, userID)
}

func (s *SellerService) Unfollow(ctx context.Context, userID, sellerID string) error {
	if _, err := s.Sellers.ByID(ctx, sellerID); err != nil {
		return err
	}
	return s.Sellers.Unfollow(ctx, sellerID, userID)
}

func (s *SellerService) Following(ctx context.Context, userID string) ([]domain.Storefront, error) {
	out, err := s.Sellers.Following(ctx, userID)
	for i := range out {
		out[i].Seller = out[i].Seller.Public()
		out[i].Following = true
	}
	return out, err
}

type Dashboard struct {
	Store         domain.Seller    `json:"store"`
	ProductCount  int              `json:"product_count"`
	FollowerCount int              `json:"follower_count"`
	OrderCount    int              `json:"order_count"`
	Revenue       decimal.Decimal  `json:"revenue"`
	TopProducts   []domain.Product `json:"top_products"`
	RecentOrders  []domain.Order   `json:"recent_orders"`
}

// Dashboard runs the independent analytics queries concurrently.
func (s *SellerService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	sel, err := s.Sellers.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Store: *sel}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.ProductCount, err = s.Products.CountBySeller(gctx, sel.ID)
		return
	})
	g.Go(func() (err error) {
		d.FollowerCount, err = s.Sellers.FollowerCount(gctx, sel.ID)
		return
	})
	g.Go(func() (err error) {
		d.OrderCount, err = s.Orders.SellerOrderCount(gctx, sel.ID)
		return
	})
	g.Go(func() (err error) {
		d.Revenue, err = s.Orders.SellerRevenue(gctx, sel.ID)
		return
	})
	g.Go(func() (err error) {
		d.TopProducts, err = s.Products.TopByViews(gctx, sel.ID, 5)
		return
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.Orders.RecentForSeller(gctx, sel.ID, 5)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "seller dashboard")
	}
	return d, nil
}

// requireStore returns the caller's storefront or a 403 telling them to create one.
func requireStore(ctx context.Context, sellers *repos.SellerRepo, userID string) (*domain.Seller, error) {
	sel, err := sellers.ByUserID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Forbidden("create a storefront first")
	}
	return sel, err
}
