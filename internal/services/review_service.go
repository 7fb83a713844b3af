package services

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type ReviewService struct {
	Reviews  *repos.ReviewRepo
	Products *repos.ProductRepo
	Listings *repos.ListingRepo
	Services *repos.ServiceRepo
}

func NewReviewService(reviews *repos.ReviewRepo, products *repos.ProductRepo, listings *repos.ListingRepo, services *repos.ServiceRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Products: products, Listings: listings, Services: services}
}

type ReviewList struct {
	Reviews []domain.Review `json:"reviews"`
	Average float64         `json:"average"`
	Count   int             `json:"count"`
}

func parseRef(refType, refID string) (domain.RefType, string, error) {
	rt := domain.RefType(strings.TrimSpace(refType))
	if !rt.Reviewable() {
		return "", "", apperr.BadRequest("ref_type must be one of: product listing service")
	}
	id, ok := validate.ID(refID)
	if !ok {
		return "", "", apperr.BadRequest("ref_id is required")
	}
	return rt, id, nil
}

func (s *ReviewService) List(ctx context.Context, refType, refID string, page domain.Page) (*ReviewList, error) {
	rt, id, err := parseRef(refType, refID)
	if err != nil {
		return nil, err
	}
	items, err := s.Reviews.ListFor(ctx, rt, id, page)
	if err != nil {
		return nil, err
	}
	avg, n, err := s.Reviews.Stats(ctx, rt, id)
	if err != nil {
		return nil, err
	}
	return &ReviewList{Reviews: items, Average: math.Round(avg*10) / 10, Count: n}, nil
}

type ReviewInput struct {
	RefType string `json:"ref_type" validate:"required,oneof=product listing service"`
	RefID   string `json:"ref_id" validate:"required,rid"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// exists resolves the tagged reference against its table.
func (s *ReviewService) exists(ctx context.Context, rt domain.RefType, id string) error {
	var err error
	switch rt {
	case domain.RefProduct:
		_, err = s.Products.Get(ctx, id)
	case domain.RefListing:
		_, err = s.Listings.Get(ctx, id)
	case domain.RefService:
		_, err = s.Services.Get(ctx, id)
	}
	return err
}

func (s *ReviewService) Create(ctx context.Context, u *domain.User, in ReviewInput) (*domain.Review, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	rt := domain.RefType(in.RefType)
	if err := s.exists(ctx, rt, in.RefID); err != nil {
		return nil, err
	}
	rv := &domain.Review{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		UserName:  u.Name,
		RefType:   rt,
		RefID:     in.RefID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: domain.Now(),
	}
	if err := s.Reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *ReviewService) Delete(ctx context.Context, u *domain.User, id string) error {
	rv, err := s.Reviews.Get(ctx, id)
	if err != nil {
		return err
	}
	if rv.UserID != u.ID && !u.HasRole(domain.RoleAdmin) {
		return apperr.Forbidden("you can only delete your own reviews")
	}
	return s.Reviews.Delete(ctx, id)
}
