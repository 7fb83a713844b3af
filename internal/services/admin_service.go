package services

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type AdminService struct {
	Users   *repos.UserRepo
	Orders  *repos.OrderRepo
	Walkers *repos.WalkerRepo
	Notes   *NotificationService
}

func NewAdminService(users *repos.UserRepo, orders *repos.OrderRepo, walkers *repos.WalkerRepo, notes *NotificationService) *AdminService {
	return &AdminService{Users: users, Orders: orders, Walkers: walkers, Notes: notes}
}

type Stats struct {
	UsersByRole      map[string]int      `json:"users_by_role"`
	OrdersByDelivery []repos.StatusCount `json:"orders_by_delivery_status"`
	OrdersByPayment  []repos.StatusCount `json:"orders_by_payment_status"`
	GrossRevenue     decimal.Decimal     `json:"gross_revenue"`
	PendingWalkers   int                 `json:"pending_walkers"`
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.UsersByRole, err = s.Users.CountByRole(gctx)
		return
	})
	g.Go(func() (err error) {
		st.OrdersByDelivery, err = s.Orders.CountByDeliveryStatus(gctx)
		return
	})
	g.Go(func() (err error) {
		st.OrdersByPayment, err = s.Orders.CountByPaymentStatus(gctx)
		return
	})
	g.Go(func() (err error) {
		st.GrossRevenue, err = s.Orders.GrossRevenue(gctx)
		return
	})
	g.Go(func() (err error) {
		st.PendingWalkers, err = s.Walkers.CountPending(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "admin stats")
	}
	return st, nil
}

type UserPage struct {
	Items []domain.UserView `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (s *AdminService) ListUsers(ctx context.Context, role string, page domain.Page) (*UserPage, error) {
	if role != "" && !domain.ValidRole(role) {
		return nil, apperr.BadRequest("unknown role")
	}
	users, total, err := s.Users.List(ctx, role, page)
	if err != nil {
		return nil, err
	}
	out := &UserPage{Items: make([]domain.UserView, 0, len(users)), Total: total, Page: page.Page, Limit: page.Limit}
	for i := range users {
		out.Items = append(out.Items, users[i].View())
	}
	return out, nil
}

type RolesInput struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=buyer seller service_provider walker admin"`
}

func (s *AdminService) SetRoles(ctx context.Context, adminID, userID string, in RolesInput) (*domain.UserView, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if userID == adminID && !slices.Contains(in.Roles, domain.RoleAdmin) {
		return nil, apperr.BadRequest("you cannot remove your own admin role")
	}
	if err := s.Users.SetRoles(ctx, userID, in.Roles); err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := u.View()
	return &v, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID string) error {
	if userID == adminID {
		return apperr.BadRequest("you cannot delete your own account")
	}
	return s.Users.DeleteUserCascade(ctx, userID)
}

func (s *AdminService) ListOrders(ctx context.Context, deliveryStatus string, page domain.Page) (*OrderPage, error) {
	if deliveryStatus != "" && !slices.Contains(domain.DeliveryStatuses, deliveryStatus) {
		return nil, apperr.BadRequest("unknown delivery_status")
	}
	items, total, err := s.Orders.ListAll(ctx, deliveryStatus, page)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

type OrderStatusInput struct {
	DeliveryStatus string `json:"delivery_status" validate:"required,oneof=pending assigned picked_up delivered cancelled"`
}

// SetOrderStatus overrides an order's delivery status.
func (s *AdminService) SetOrderStatus(ctx context.Context, orderID string, in OrderStatusInput) (*domain.Order, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.DeliveryStatus == domain.DeliveryCancelled {
		cur, err := s.Orders.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if cur.DeliveryStatus != domain.DeliveryCancelled {
			// Cancelling puts the reserved units back, so it only applies to unpaid orders.
			ok, err := s.Orders.Void(ctx, cur.ID, domain.PaymentFailed, domain.PaymentAbandoned)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, apperr.ErrInvalidTransition.WithMessage("only unpaid orders can be cancelled")
			}
		}
	} else if err := s.Orders.SetDeliveryStatus(ctx, orderID, in.DeliveryStatus); err != nil {
		return nil, err
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.Notes.Notify(ctx, o.BuyerID, NotifyDelivery, "Order updated",
		"Order "+short(o.ID)+" delivery status is now "+o.DeliveryStatus, "/orders/"+o.ID)
	return o, nil
}
