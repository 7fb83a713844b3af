package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

// OfferingService manages the bookable services of service providers.
type OfferingService struct {
	Services *repos.ServiceRepo
	Cats     *repos.CategoryRepo
}

func NewOfferingService(services *repos.ServiceRepo, cats *repos.CategoryRepo) *OfferingService {
	return &OfferingService{Services: services, Cats: cats}
}

type ServiceQuery struct {
	Q          string
	ProviderID string
	CategoryID string
	Page       domain.Page
}

type ServicePage struct {
	Items []domain.Service `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (s *OfferingService) List(ctx context.Context, q ServiceQuery) (*ServicePage, error) {
	f := repos.ServiceFilter{ProviderID: q.ProviderID, CategoryID: q.CategoryID}
	if q.Q != "" {
		qq, ok := validate.Q(q.Q)
		if !ok {
			return nil, apperr.BadRequest("invalid search query")
		}
		f.Q = qq
	}
	items, total, err := s.Services.Search(ctx, f, q.Page)
	if err != nil {
		return nil, err
	}
	return &ServicePage{Items: items, Total: total, Page: q.Page.Page, Limit: q.Page.Limit}, nil
}

func (s *OfferingService) Get(ctx context.Context, id string) (*domain.Service, error) {
	return s.Services.Get(ctx, id)
}

type ServiceInput struct {
	Title           string          `json:"title" validate:"required,min=3,max=120"`
	Description     string          `json:"description" validate:"max=5000"`
	Price           decimal.Decimal `json:"price" validate:"gt=0"`
	DurationMinutes int             `json:"duration_minutes" validate:"omitempty,gte=15,lte=1440"`
	CategoryID      string          `json:"category_id" validate:"omitempty,rid"`
	Images          []string        `json:"images" validate:"max=10,dive,max=500"`
}

func (s *OfferingService) checkCategory(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.Cats.ByID(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.BadRequest("unknown category_id")
		}
		return err
	}
	return nil
}

func (s *OfferingService) Create(ctx context.Context, providerID string, in ServiceInput) (*domain.Service, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = 60
	}
	now := domain.Now()
	svc := &domain.Service{
		ID:              uuid.NewString(),
		ProviderID:      providerID,
		CategoryID:      in.CategoryID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Price:           in.Price.Round(2),
		DurationMinutes: in.DurationMinutes,
		Images:          nonNil(in.Images),
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Services.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

type ServiceUpdate struct {
	Title           *string          `json:"title" validate:"omitempty,min=3,max=120"`
	Description     *string          `json:"description" validate:"omitempty,max=5000"`
	Price           *decimal.Decimal `json:"price" validate:"omitempty,gt=0"`
	DurationMinutes *int             `json:"duration_minutes" validate:"omitempty,gte=15,lte=1440"`
	CategoryID      *string          `json:"category_id" validate:"omitempty,max=64"`
	Images          []string         `json:"images" validate:"omitempty,max=10,dive,max=500"`
	Active          *bool            `json:"active"`
}

func (s *OfferingService) own(ctx context.Context, u *domain.User, id string, allowAdmin bool) (*domain.Service, error) {
	svc, err := s.Services.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != u.ID && !(allowAdmin && u.HasRole(domain.RoleAdmin)) {
		return nil, apperr.Forbidden("you do not own this service")
	}
	return svc, nil
}

func (s *OfferingService) Update(ctx context.Context, u *domain.User, id string, in ServiceUpdate) (*domain.Service, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	svc, err := s.own(ctx, u, id, false)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		svc.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		svc.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		svc.Price = in.Price.Round(2)
	}
	if in.DurationMinutes != nil {
		svc.DurationMinutes = *in.DurationMinutes
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		svc.CategoryID = *in.CategoryID
	}
	if in.Images != nil {
		svc.Images = in.Images
	}
	if in.Active != nil {
		svc.Active = *in.Active
	}
	if err := s.Services.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *OfferingService) Delete(ctx context.Context, u *domain.User, id string) error {
	if _, err := s.own(ctx, u, id, true); err != nil {
		return err
	}
	return s.Services.Delete(ctx, id)
}
