package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/events"
	applog "campusmart/internal/log"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

// WalkerService covers dispatcher applications and the delivery workflow.
type WalkerService struct {
	Walkers *repos.WalkerRepo
	Users   *repos.UserRepo
	Orders  *repos.OrderRepo
	Notes   *NotificationService
	Events  Publisher
}

func NewWalkerService(walkers *repos.WalkerRepo, users *repos.UserRepo, orders *repos.OrderRepo, notes *NotificationService, pub Publisher) *WalkerService {
	return &WalkerService{Walkers: walkers, Users: users, Orders: orders, Notes: notes, Events: pub}
}

type WalkerApplication struct {
	FullName  string `json:"full_name" validate:"required,min=2,max=80"`
	Phone     string `json:"phone" validate:"required,phone"`
	StudentID string `json:"student_id" validate:"required,max=40"`
	Vehicle   string `json:"vehicle" validate:"omitempty,oneof=foot bicycle scooter motorbike car"`
}

func (s *WalkerService) Apply(ctx context.Context, userID string, in WalkerApplication) (*domain.Walker, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Vehicle == "" {
		in.Vehicle = "foot"
	}
	w := &domain.Walker{
		ID:        uuid.NewString(),
		UserID:    userID,
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     strings.TrimSpace(in.Phone),
		StudentID: strings.TrimSpace(in.StudentID),
		Vehicle:   in.Vehicle,
		Status:    domain.WalkerPending,
		CreatedAt: domain.Now(),
	}
	if err := s.Walkers.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WalkerService) Mine(ctx context.Context, userID string) (*domain.Walker, error) {
	return s.Walkers.ByUserID(ctx, userID)
}

func (s *WalkerService) Available(ctx context.Context, page domain.Page) (*OrderPage, error) {
	items, total, err := s.Orders.ListAvailableForDelivery(ctx, page)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *WalkerService) MyDeliveries(ctx context.Context, walkerID string, page domain.Page) (*OrderPage, error) {
	items, total, err := s.Orders.ListByWalker(ctx, walkerID, page)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// Accept claims an order. Only one walker can win; the others get a 409.
func (s *WalkerService) Accept(ctx context.Context, walkerID, orderID string) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ok, err := s.Orders.AssignWalker(ctx, o.ID, walkerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if o.PaymentStatus != domain.PaymentPaid {
			return nil, apperr.ErrInvalidTransition.WithMessage("order is not paid yet")
		}
		return nil, apperr.Conflict("order already taken by another walker")
	}
	s.Notes.Notify(ctx, o.BuyerID, NotifyDelivery, "Walker assigned",
		"A campus walker accepted order "+short(o.ID), "/orders/"+o.ID)
	return s.Orders.Get(ctx, o.ID)
}

func (s *WalkerService) Pickup(ctx context.Context, walkerID, orderID string) (*domain.Order, error) {
	return s.advance(ctx, walkerID, orderID, domain.DeliveryAssigned, domain.DeliveryPickedUp, "Order picked up")
}

func (s *WalkerService) Deliver(ctx context.Context, walkerID, orderID string) (*domain.Order, error) {
	return s.advance(ctx, walkerID, orderID, domain.DeliveryPickedUp, domain.DeliveryDelivered, "Order delivered")
}

func (s *WalkerService) advance(ctx context.Context, walkerID, orderID, from, to, title string) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.WalkerID != walkerID {
		return nil, apperr.NotFound("order")
	}
	if err := s.Orders.AdvanceDelivery(ctx, o.ID, walkerID, from, to); err != nil {
		return nil, err
	}
	body := "Order " + short(o.ID) + " is now " + strings.ReplaceAll(to, "_", " ")
	if to == domain.DeliveryDelivered {
		body += ". Please confirm delivery to release payment"
	}
	s.Notes.Notify(ctx, o.BuyerID, NotifyDelivery, title, body, "/orders/"+o.ID)
	return s.Orders.Get(ctx, o.ID)
}

func (s *WalkerService) List(ctx context.Context, status string, page domain.Page) ([]domain.Walker, error) {
	switch status {
	case "", domain.WalkerPending, domain.WalkerApproved, domain.WalkerRejected:
	default:
		return nil, apperr.BadRequest("status must be one of: pending approved rejected")
	}
	return s.Walkers.List(ctx, status, page)
}

// Approve accepts a pending application and grants the walker role.
func (s *WalkerService) Approve(ctx context.Context, adminID, id string) (*domain.Walker, error) {
	if err := s.Walkers.Review(ctx, id, domain.WalkerApproved, adminID); err != nil {
		return nil, err
	}
	w, err := s.Walkers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Users.AddRole(ctx, w.UserID, domain.RoleWalker); err != nil {
		return nil, err
	}
	applog.Logger().Info("walker.approved", "walker_id", w.ID, "user_id", w.UserID, "admin_id", adminID)
	s.Notes.Notify(ctx, w.UserID, NotifyWalker, "Application approved",
		"You can now accept deliveries", "/walker/deliveries")
	emit(ctx, s.Events, events.WalkerApproved, map[string]any{"walker_id": w.ID, "user_id": w.UserID})
	return w, nil
}

func (s *WalkerService) Reject(ctx context.Context, adminID, id string) (*domain.Walker, error) {
	if err := s.Walkers.Review(ctx, id, domain.WalkerRejected, adminID); err != nil {
		return nil, err
	}
	w, err := s.Walkers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Notes.Notify(ctx, w.UserID, NotifyWalker, "Application declined",
		"Your walker application was not approved", "/walker/apply")
	return w, nil
}
