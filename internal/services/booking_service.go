package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type BookingService struct {
	Bookings *repos.BookingRepo
	Services *repos.ServiceRepo
	Listings *repos.ListingRepo
	Notes    *NotificationService
}

func NewBookingService(bookings *repos.BookingRepo, services *repos.ServiceRepo, listings *repos.ListingRepo, notes *NotificationService) *BookingService {
	return &BookingService{Bookings: bookings, Services: services, Listings: listings, Notes: notes}
}

type BookingInput struct {
	RefType     string `json:"ref_type" validate:"required,oneof=service listing"`
	RefID       string `json:"ref_id" validate:"required,rid"`
	ScheduledAt string `json:"scheduled_at" validate:"required"`
	Notes       string `json:"notes" validate:"max=1000"`
}

// Create books a service session or a housing viewing. The owner is resolved
// from the referenced record.
func (s *BookingService) Create(ctx context.Context, userID string, in BookingInput) (*domain.Booking, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	at, err := time.Parse(time.RFC3339, in.ScheduledAt)
	if err != nil {
		return nil, apperr.BadRequest("scheduled_at must be an RFC3339 timestamp")
	}
	if !at.After(time.Now()) {
		return nil, apperr.BadRequest("scheduled_at must be in the future")
	}

	b := &domain.Booking{
		ID:          uuid.NewString(),
		RefType:     domain.RefType(in.RefType),
		RefID:       in.RefID,
		UserID:      userID,
		ScheduledAt: at.UTC().Format(time.RFC3339),
		Notes:       strings.TrimSpace(in.Notes),
		Status:      domain.BookingPending,
	}
	switch b.RefType {
	case domain.RefService:
		svc, err := s.Services.Get(ctx, in.RefID)
		if err != nil {
			return nil, err
		}
		if !svc.Active {
			return nil, apperr.BadRequest("service is not accepting bookings")
		}
		b.OwnerID, b.RefTitle = svc.ProviderID, svc.Title
	case domain.RefListing:
		l, err := s.Listings.Get(ctx, in.RefID)
		if err != nil {
			return nil, err
		}
		if !l.Available {
			return nil, apperr.BadRequest("listing is no longer available")
		}
		b.OwnerID, b.RefTitle = l.OwnerID, l.Title
	}
	if b.OwnerID == userID {
		return nil, apperr.BadRequest("you cannot book your own offering")
	}

	now := domain.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	if err := s.Bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	s.Notes.Notify(ctx, b.OwnerID, NotifyBooking, "New booking request",
		b.RefTitle+" on "+b.ScheduledAt, "/bookings/incoming")
	return b, nil
}

func (s *BookingService) Mine(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.Bookings.ListByUser(ctx, userID)
}

func (s *BookingService) Incoming(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	return s.Bookings.ListByOwner(ctx, ownerID)
}

// bookingMoves lists, per current status, the next statuses and who may apply them.
var bookingMoves = map[string]map[string]struct{ owner, booker bool }{
	domain.BookingPending: {
		domain.BookingConfirmed: {owner: true},
		domain.BookingCancelled: {owner: true, booker: true},
	},
	domain.BookingConfirmed: {
		domain.BookingCompleted: {owner: true},
		domain.BookingCancelled: {owner: true},
	},
}

type BookingStatusInput struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled"`
}

func (s *BookingService) SetStatus(ctx context.Context, userID, id string, in BookingStatusInput) (*domain.Booking, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	b, err := s.Bookings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	isOwner, isBooker := b.OwnerID == userID, b.UserID == userID
	if !isOwner && !isBooker {
		return nil, apperr.NotFound("booking")
	}
	who, ok := bookingMoves[b.Status][in.Status]
	if !ok {
		return nil, apperr.ErrInvalidTransition.WithMessage("cannot move booking from " + b.Status + " to " + in.Status)
	}
	if !(isOwner && who.owner) && !(isBooker && who.booker) {
		return nil, apperr.ErrInvalidTransition.WithMessage("you cannot set this booking to " + in.Status)
	}
	if err := s.Bookings.SetStatus(ctx, b.ID, b.Status, in.Status); err != nil {
		return nil, err
	}
	b.Status = in.Status

	notify, link := b.UserID, "/bookings"
	if isBooker {
		notify, link = b.OwnerID, "/bookings/incoming"
	}
	s.Notes.Notify(ctx, notify, NotifyBooking, "Booking "+in.Status, b.RefTitle+" on "+b.ScheduledAt, link)
	return b, nil
}
