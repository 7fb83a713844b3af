package services

import (
	"context"

	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

type CartView struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

func (s *CartService) View(ctx context.Context, userID string) (*CartView, error) {
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.Carts.Items(ctx, cartID)
	if err != nil {
		return nil, err
	}
	v := &CartView{Items: items, Total: decimal.Zero}
	for _, it := range items {
		v.Total = v.Total.Add(it.Subtotal())
		v.Count += it.Qty
	}
	v.Total = v.Total.Round(2)
	return v, nil
}

type AddToCartInput struct {
	ProductID string `json:"product_id" validate:"required,rid"`
	Qty       int    `json:"qty" validate:"omitempty,gte=1,lte=1000"`
}

// Add puts qty more of a product in the cart. The resulting line is clamped to
// the available stock.
func (s *CartService) Add(ctx context.Context, userID string, in AddToCartInput) (*CartView, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Qty == 0 {
		in.Qty = 1
	}
	p, err := s.Prods.Get(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, apperr.ErrProductInactive.WithDetails(p.Name)
	}
	if p.Stock < 1 {
		return nil, apperr.ErrInsufficientStock.WithMessage("product is out of stock").WithDetails(p.Name)
	}
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	have, err := s.Carts.ItemQty(ctx, cartID, p.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Carts.SetQty(ctx, cartID, p.ID, min(have+in.Qty, p.Stock), p.Price); err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

type CartQtyInput struct {
	Qty int `json:"qty"`
}

// SetQty replaces a line's quantity. Values below 1 become 1; values above
// the stock become the stock.
func (s *CartService) SetQty(ctx context.Context, userID, productID string, in CartQtyInput) (*CartView, error) {
	if _, ok := validate.ID(productID); !ok {
		return nil, apperr.BadRequest("invalid product id")
	}
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	qty := max(in.Qty, 1)
	if p.Stock > 0 {
		qty = min(qty, p.Stock)
	}
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Carts.UpdateQty(ctx, cartID, productID, qty); err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, productID string) (*CartView, error) {
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Carts.Remove(ctx, cartID, productID); err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.Carts.Clear(ctx, cartID)
}
