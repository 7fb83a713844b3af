package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

// ListingService manages housing listings.
type ListingService struct {
	Listings *repos.ListingRepo
}

func NewListingService(listings *repos.ListingRepo) *ListingService {
	return &ListingService{Listings: listings}
}

type ListingQuery struct {
	Q         string
	OwnerID   string
	MaxRent   string
	Bedrooms  string
	Furnished string
	Available string
	Page      domain.Page
}

type ListingPage struct {
	Items []domain.Listing `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (s *ListingService) List(ctx context.Context, q ListingQuery) (*ListingPage, error) {
	f := repos.ListingFilter{OwnerID: q.OwnerID}
	if q.Q != "" {
		qq, ok := validate.Q(q.Q)
		if !ok {
			return nil, apperr.BadRequest("invalid search query")
		}
		f.Q = qq
	}
	var err error
	if f.MaxRent, err = parseMoney("max_rent", q.MaxRent); err != nil {
		return nil, err
	}
	if q.Bedrooms != "" {
		n, err := strconv.Atoi(q.Bedrooms)
		if err != nil || n < 0 {
			return nil, apperr.BadRequest("bedrooms must be a non-negative integer")
		}
		f.Bedrooms = n
	}
	if f.Furnished, err = parseBool("furnished", q.Furnished); err != nil {
		return nil, err
	}
	if f.Available, err = parseBool("available", q.Available); err != nil {
		return nil, err
	}
	items, total, err := s.Listings.Search(ctx, f, q.Page)
	if err != nil {
		return nil, err
	}
	return &ListingPage{Items: items, Total: total, Page: q.Page.Page, Limit: q.Page.Limit}, nil
}

func parseBool(field, raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.BadRequest(field + " must be true or false")
	}
	return &b, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.Listings.Get(ctx, id)
}

type ListingInput struct {
	Title       string          `json:"title" validate:"required,min=3,max=120"`
	Description string          `json:"description" validate:"max=5000"`
	Address     string          `json:"address" validate:"required,max=200"`
	Rent        decimal.Decimal `json:"rent" validate:"gt=0"`
	RentPeriod  string          `json:"rent_period" validate:"required,oneof=monthly semester yearly"`
	Bedrooms    int             `json:"bedrooms" validate:"gte=0,lte=20"`
	Bathrooms   int             `json:"bathrooms" validate:"gte=0,lte=20"`
	Furnished   bool            `json:"furnished"`
	Amenities   []string        `json:"amenities" validate:"max=30,dive,max=60"`
	Images      []string        `json:"images" validate:"max=10,dive,max=500"`
}

func (s *ListingService) Create(ctx context.Context, ownerID string, in ListingInput) (*domain.Listing, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := domain.Now()
	l := &domain.Listing{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Address:     strings.TrimSpace(in.Address),
		Rent:        in.Rent.Round(2),
		RentPeriod:  in.RentPeriod,
		Bedrooms:    in.Bedrooms,
		Bathrooms:   in.Bathrooms,
		Furnished:   in.Furnished,
		Amenities:   nonNil(in.Amenities),
		Images:      nonNil(in.Images),
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Listings.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

type ListingUpdate struct {
	Title       *string          `json:"title" validate:"omitempty,min=3,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Address     *string          `json:"address" validate:"omitempty,max=200"`
	Rent        *decimal.Decimal `json:"rent" validate:"omitempty,gt=0"`
	RentPeriod  *string          `json:"rent_period" validate:"omitempty,oneof=monthly semester yearly"`
	Bedrooms    *int             `json:"bedrooms" validate:"omitempty,gte=0,lte=20"`
	Bathrooms   *int             `json:"bathrooms" validate:"omitempty,gte=0,lte=20"`
	Furnished   *bool            `json:"furnished"`
	Amenities   []string         `json:"amenities" validate:"omitempty,max=30,dive,max=60"`
	Images      []string         `json:"images" validate:"omitempty,max=10,dive,max=500"`
	Available   *bool            `json:"available"`
}

func (s *ListingService) own(ctx context.Context, u *domain.User, id string, allowAdmin bool) (*domain.Listing, error) {
	l, err := s.Listings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != u.ID && !(allowAdmin && u.HasRole(domain.RoleAdmin)) {
		return nil, apperr.Forbidden("you do not own this listing")
	}
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, u *domain.User, id string, in ListingUpdate) (*domain.Listing, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	l, err := s.own(ctx, u, id, false)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		l.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	if in.Address != nil {
		l.Address = strings.TrimSpace(*in.Address)
	}
	if in.Rent != nil {
		l.Rent = in.Rent.Round(2)
	}
	if in.RentPeriod != nil {
		l.RentPeriod = *in.RentPeriod
	}
	if in.Bedrooms != nil {
		l.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		l.Bathrooms = *in.Bathrooms
	}
	if in.Furnished != nil {
		l.Furnished = *in.Furnished
	}
	if in.Amenities != nil {
		l.Amenities = in.Amenities
	}
	if in.Images != nil {
		l.Images = in.Images
	}
	if in.Available != nil {
		l.Available = *in.Available
	}
	if err := s.Listings.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, u *domain.User, id string) error {
	if _, err := s.own(ctx, u, id, true); err != nil {
		return err
	}
	return s.Listings.Delete(ctx, id)
}

func nonNil(in []string) domain.StringList {
	if in == nil {
		return domain.StringList{}
	}
	return domain.StringList(in)
}
