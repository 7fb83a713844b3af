package services

import (
	"context"
	"strings"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/events"
	applog "campusmart/internal/log"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type OrderService struct {
	Carts   *repos.CartRepo
	Orders  *repos.OrderRepo
	Sellers *repos.SellerRepo
	Notes   *NotificationService
	Events  Publisher
}

func NewOrderService(carts *repos.CartRepo, orders *repos.OrderRepo, sellers *repos.SellerRepo, notes *NotificationService, pub Publisher) *OrderService {
	return &OrderService{Carts: carts, Orders: orders, Sellers: sellers, Notes: notes, Events: pub}
}

type CheckoutInput struct {
	DeliveryAddress string `json:"delivery_address" validate:"required,min=3,max=300"`
	Note            string `json:"note" validate:"max=500"`
}

// Checkout turns the caller's cart into a pending order.
func (s *OrderService) Checkout(ctx context.Context, buyerID string, in CheckoutInput) (*domain.Order, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	cartID, err := s.Carts.EnsureCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	o, err := s.Orders.PlaceFromCart(ctx, buyerID, cartID, strings.TrimSpace(in.DeliveryAddress), strings.TrimSpace(in.Note))
	if err != nil {
		return nil, err
	}
	o.Total = o.Total.Round(2)
	applog.Logger().Info("order.placed", "order_id", o.ID, "buyer_id", buyerID, "total", o.Total.String())
	emit(ctx, s.Events, events.OrderPlaced, map[string]any{
		"order_id": o.ID, "buyer_id": buyerID, "total": o.Total, "items": len(o.Items),
	})
	return o, nil
}

type OrderPage struct {
	Items []domain.Order `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func (s *OrderService) Mine(ctx context.Context, buyerID string, page domain.Page) (*OrderPage, error) {
	items, total, err := s.Orders.ListByBuyer(ctx, buyerID, page)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// ForSeller lists orders containing the caller's products, trimmed to those lines.
func (s *OrderService) ForSeller(ctx context.Context, userID string, page domain.Page) (*OrderPage, error) {
	sel, err := requireStore(ctx, s.Sellers, userID)
	if err != nil {
		return nil, err
	}
	items, total, err := s.Orders.ListBySeller(ctx, sel.ID, page)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// Get returns an order to its buyer, a seller with items in it, the assigned
// walker or an admin. Anyone else gets a 404.
func (s *OrderService) Get(ctx context.Context, u *domain.User, id string) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case o.BuyerID == u.ID, o.WalkerID != "" && o.WalkerID == u.ID, u.HasRole(domain.RoleAdmin):
		return o, nil
	}
	if sel, err := s.Sellers.ByUserID(ctx, u.ID); err == nil {
		if ok, err := s.Orders.HasSellerItems(ctx, o.ID, sel.ID); err != nil {
			return nil, err
		} else if ok {
			return o, nil
		}
	}
	return nil, apperr.NotFound("order")
}

func (s *OrderService) buyerOrder(ctx context.Context, buyerID, id string) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != buyerID {
		return nil, apperr.NotFound("order")
	}
	return o, nil
}

// Cancel gives up on an unpaid order and puts its stock back.
func (s *OrderService) Cancel(ctx context.Context, buyerID, id string) (*domain.Order, error) {
	o, err := s.buyerOrder(ctx, buyerID, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.Orders.Void(ctx, o.ID, domain.PaymentPending, domain.PaymentAbandoned)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidTransition.WithMessage("only unpaid orders can be cancelled")
	}
	return s.Orders.Get(ctx, o.ID)
}

// ConfirmDelivery releases the escrow of a delivered order.
func (s *OrderService) ConfirmDelivery(ctx context.Context, buyerID, id string) (*domain.Order, error) {
	o, err := s.buyerOrder(ctx, buyerID, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.Orders.ReleaseEscrow(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidTransition.WithMessage("order must be delivered with funds held")
	}
	notifySellers(ctx, s.Orders, s.Notes, o.ID, NotifyEscrowReleased, "Funds released", "Order "+short(o.ID)+" was confirmed by the buyer")
	return s.Orders.Get(ctx, o.ID)
}

// AutoRelease confirms deliveries nobody confirmed before cutoff.
func (s *OrderService) AutoRelease(ctx context.Context, cutoff string) (int, error) {
	ids, err := s.Orders.DeliveredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		ok, err := s.Orders.ReleaseEscrow(ctx, id)
		if err != nil {
			return n, err
		}
		if ok {
			n++
			notifySellers(ctx, s.Orders, s.Notes, id, NotifyEscrowReleased, "Funds released", "Order "+short(id)+" was confirmed automatically")
		}
	}
	return n, nil
}

// AbandonUnpaid voids orders still awaiting payment since before cutoff.
func (s *OrderService) AbandonUnpaid(ctx context.Context, cutoff string) (int, error) {
	ids, err := s.Orders.UnpaidBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		ok, err := s.Orders.Void(ctx, id, domain.PaymentFailed, domain.PaymentAbandoned)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func notifySellers(ctx context.Context, orders *repos.OrderRepo, notes *NotificationService, orderID, kind, title, body string) {
	ids, err := orders.SellerUserIDs(ctx, orderID)
	if err != nil {
		applog.Logger().Error("order.sellers.failed", "order_id", orderID, "error", err)
		return
	}
	for _, uid := range ids {
		notes.Notify(ctx, uid, kind, title, body, "/seller/orders")
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
