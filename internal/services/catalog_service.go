package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	applog "campusmart/internal/log"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

// CatalogService covers categories and products.
type CatalogService struct {
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Sellers *repos.SellerRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, sellers *repos.SellerRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Sellers: sellers}
}

// CategoryTree nests subcategories under their top-level parents.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]domain.Category, error) {
	all, err := s.Cats.List(ctx)
	if err != nil {
		return nil, err
	}
	children := map[string][]domain.Category{}
	for _, c := range all {
		if c.ParentID != "" {
			children[c.ParentID] = append(children[c.ParentID], c)
		}
	}
	out := []domain.Category{}
	for _, c := range all {
		if c.ParentID == "" {
			c.Subcategories = children[c.ID]
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CatalogService) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	c, err := s.Cats.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c.Subcategories, err = s.Cats.Children(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

type CategoryInput struct {
	Name     string `json:"name" validate:"required,min=2,max=60"`
	ParentID string `json:"parent_id" validate:"omitempty,rid"`
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, "", in.ParentID); err != nil {
		return nil, err
	}
	c := &domain.Category{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Slug:      validate.Slug(in.Name),
		ParentID:  in.ParentID,
		CreatedAt: domain.Now(),
	}
	if c.Slug == "" {
		return nil, apperr.BadRequest("name must contain letters or digits")
	}
	if err := s.Cats.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// checkParent keeps the tree one level deep.
func (s *CatalogService) checkParent(ctx context.Context, selfID, parentID string) error {
	if parentID == "" {
		return nil
	}
	if parentID == selfID {
		return apperr.BadRequest("a category cannot be its own parent")
	}
	parent, err := s.Cats.ByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.BadRequest("unknown parent_id")
		}
		return err
	}
	if parent.ParentID != "" {
		return apperr.BadRequest("subcategories cannot have children")
	}
	return nil
}

type CategoryUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=60"`
	ParentID *string `json:"parent_id" validate:"omitempty,max=64"`
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryUpdate) (*domain.Category, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.Cats.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
		c.Slug = validate.Slug(c.Name)
	}
	if in.ParentID != nil {
		if err := s.checkParent(ctx, c.ID, *in.ParentID); err != nil {
			return nil, err
		}
		if *in.ParentID != "" {
			kids, err := s.Cats.Children(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			if len(kids) > 0 {
				return nil, apperr.BadRequest("a category with subcategories cannot become a subcategory")
			}
		}
		c.ParentID = *in.ParentID
	}
	if err := s.Cats.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.Cats.Delete(ctx, id)
}

type ProductQuery struct {
	Q        string
	Category string // slug
	SellerID string
	MinPrice string
	MaxPrice string
	Sort     string
	Page     domain.Page
}

type ProductPage struct {
	Items []domain.Product `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	f := repos.ProductFilter{SellerID: q.SellerID, Sort: q.Sort}
	if q.Q != "" {
		qq, ok := validate.Q(q.Q)
		if !ok {
			return nil, apperr.BadRequest("invalid search query")
		}
		f.Q = qq
	}
	if q.Category != "" {
		c, err := s.CategoryBySlug(ctx, q.Category)
		if err != nil {
			return nil, err
		}
		f.CategoryIDs = append(f.CategoryIDs, c.ID)
		for _, sub := range c.Subcategories {
			f.CategoryIDs = append(f.CategoryIDs, sub.ID)
		}
	}
	var err error
	if f.MinPrice, err = parseMoney("min_price", q.MinPrice); err != nil {
		return nil, err
	}
	if f.MaxPrice, err = parseMoney("max_price", q.MaxPrice); err != nil {
		return nil, err
	}
	switch q.Sort {
	case "", "newest", "price_asc", "price_desc", "popular":
	default:
		return nil, apperr.BadRequest("sort must be one of: newest price_asc price_desc popular")
	}
	items, total, err := s.Prods.Search(ctx, f, q.Page)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Total: total, Page: q.Page.Page, Limit: q.Page.Limit}, nil
}

func parseMoney(field, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return nil, apperr.BadRequest(field + " must be a non-negative number")
	}
	return &d, nil
}

// GetProduct returns an active product and counts the view. Inactive products are
// only visible to their owner.
func (s *CatalogService) GetProduct(ctx context.Context, id, viewerID string) (*domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		sel, err := s.Sellers.ByUserID(ctx, viewerID)
		if err != nil || sel.ID != p.SellerID {
			return nil, apperr.NotFound("product")
		}
		return p, nil
	}
	if err := s.Prods.IncrementViews(ctx, id); err != nil {
		applog.Logger().Warn("product.views.failed", "product_id", id, "error", err)
	} else {
		p.Views++
	}
	return p, nil
}

type ProductInput struct {
	Name        string            `json:"name" validate:"required,min=2,max=120"`
	Description string            `json:"description" validate:"max=5000"`
	Price       decimal.Decimal   `json:"price" validate:"gt=0"`
	Stock       *int              `json:"stock" validate:"required,gte=0,lte=100000"`
	CategoryID  string            `json:"category_id" validate:"required,rid"`
	Images      []string          `json:"images" validate:"max=10,dive,max=500"`
	Specs       map[string]string `json:"specs" validate:"max=30"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, userID string, in ProductInput) (*domain.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	sel, err := requireStore(ctx, s.Sellers, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Cats.ByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.BadRequest("unknown category_id")
		}
		return nil, err
	}
	now := domain.Now()
	p := &domain.Product{
		ID:          uuid.NewString(),
		SellerID:    sel.ID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		Stock:       *in.Stock,
		Images:      domain.StringList(in.Images),
		Specs:       domain.Attributes(in.Specs),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Images == nil {
		p.Images = domain.StringList{}
	}
	if p.Specs == nil {
		p.Specs = domain.Attributes{}
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type ProductUpdate struct {
	Name        *string           `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string           `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal  `json:"price" validate:"omitempty,gt=0"`
	Stock       *int              `json:"stock" validate:"omitempty,gte=0,lte=100000"`
	CategoryID  *string           `json:"category_id" validate:"omitempty,rid"`
	Images      []string          `json:"images" validate:"omitempty,max=10,dive,max=500"`
	Specs       map[string]string `json:"specs" validate:"omitempty,max=30"`
	Active      *bool             `json:"active"`
}

func (s *CatalogService) ownProduct(ctx context.Context, userID, id string) (*domain.Product, error) {
	sel, err := requireStore(ctx, s.Sellers, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != sel.ID {
		return nil, apperr.Forbidden("you do not own this product")
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, userID, id string, in ProductUpdate) (*domain.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.ownProduct(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	if in.Images != nil {
		p.Images = domain.StringList(in.Images)
	}
	if in.Specs != nil {
		p.Specs = domain.Attributes(in.Specs)
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if err := s.Prods.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct lets the owning seller or an admin remove a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, u *domain.User, id string) error {
	if !u.HasRole(domain.RoleAdmin) {
		if _, err := s.ownProduct(ctx, u.ID, id); err != nil {
			return err
		}
	}
	return s.Prods.Delete(ctx, id)
}

// MyProducts lists the caller's own products including inactive ones.
func (s *CatalogService) MyProducts(ctx context.Context, userID string, page domain.Page) (*ProductPage, error) {
	sel, err := requireStore(ctx, s.Sellers, userID)
	if err != nil {
		return nil, err
	}
	items, total, err := s.Prods.Search(ctx, repos.ProductFilter{SellerID: sel.ID, IncludeInactive: true}, page)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}
