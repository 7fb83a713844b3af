package services

import (
	"context"

	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type WishlistService struct {
	Repo *repos.WishlistRepo
}

func NewWishlistService(r *repos.WishlistRepo) *WishlistService { return &WishlistService{Repo: r} }

type WishlistInput struct {
	ProductID string `json:"product_id" validate:"required,rid"`
}

// Save is idempotent; an unknown product is a 404.
func (s *WishlistService) Save(ctx context.Context, userID string, in WishlistInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	return s.Repo.Add(ctx, userID, in.ProductID)
}

func (s *WishlistService) Unsave(ctx context.Context, userID, productID string) error {
	return s.Repo.Remove(ctx, userID, productID)
}

func (s *WishlistService) List(ctx context.Context, userID string) ([]repos.WishlistRow, error) {
	return s.Repo.List(ctx, userID)
}
