package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/events"
	applog "campusmart/internal/log"
	"campusmart/internal/payments"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

// TransferHandler applies transfer webhooks to payouts.
type TransferHandler interface {
	HandleTransfer(ctx context.Context, event string, data *payments.WebhookData) error
}

type PaymentService struct {
	Payments    *repos.PaymentRepo
	Orders      *repos.OrderRepo
	Users       *repos.UserRepo
	Gateway     Gateway
	Notes       *NotificationService
	Events      Publisher
	Transfers   TransferHandler
	Currency    string
	CallbackURL string
}

func NewPaymentService(pays *repos.PaymentRepo, orders *repos.OrderRepo, users *repos.UserRepo, gw Gateway, notes *NotificationService, pub Publisher) *PaymentService {
	return &PaymentService{Payments: pays, Orders: orders, Users: users, Gateway: gw, Notes: notes, Events: pub}
}

type InitializePaymentInput struct {
	OrderID string `json:"order_id" validate:"required,rid"`
}

type PaymentLink struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// Initialize opens a hosted checkout for one of the buyer's unpaid orders. An
// open attempt for the same order is reused.
func (s *PaymentService) Initialize(ctx context.Context, u *domain.User, in InitializePaymentInput) (*PaymentLink, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	o, err := s.Orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != u.ID {
		return nil, apperr.NotFound("order")
	}
	if o.PaymentStatus != domain.PaymentPending || o.DeliveryStatus == domain.DeliveryCancelled {
		return nil, apperr.ErrInvalidTransition.WithMessage("order is not awaiting payment")
	}
	if p, err := s.Payments.PendingForOrder(ctx, o.ID); err == nil && p.AuthorizationURL != "" {
		return &PaymentLink{AuthorizationURL: p.AuthorizationURL, Reference: p.Reference}, nil
	} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	ref := "cm_" + uuid.NewString()
	res, err := s.Gateway.Initialize(ctx, payments.InitializeRequest{
		Email:       u.Email,
		Amount:      payments.ToMinor(o.Total),
		Currency:    s.Currency,
		Reference:   ref,
		CallbackURL: s.CallbackURL,
		Metadata:    map[string]string{"order_id": o.ID, "user_id": u.ID},
	})
	if err != nil {
		return nil, upstream(err)
	}
	now := domain.Now()
	p := &domain.Payment{
		ID:               uuid.NewString(),
		OrderID:          o.ID,
		UserID:           u.ID,
		Reference:        ref,
		Amount:           o.Total,
		Currency:         s.Currency,
		Status:           domain.PaymentPending,
		AuthorizationURL: res.AuthorizationURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Payments.Create(ctx, p); err != nil {
		return nil, err
	}
	applog.Logger().Info("payment.initialized", "order_id", o.ID, "reference", ref)
	return &PaymentLink{AuthorizationURL: res.AuthorizationURL, Reference: ref}, nil
}

// Verify asks the gateway for the outcome of the caller's payment and applies it.
func (s *PaymentService) Verify(ctx context.Context, u *domain.User, reference string) (*domain.Payment, error) {
	p, err := s.Payments.ByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if p.UserID != u.ID && !u.HasRole(domain.RoleAdmin) {
		return nil, apperr.NotFound("payment")
	}
	return s.verify(ctx, p)
}

// Callback verifies the payment the gateway redirected the buyer back with.
func (s *PaymentService) Callback(ctx context.Context, reference string) (*domain.Payment, error) {
	if _, ok := validate.ID(reference); !ok {
		return nil, apperr.BadRequest("reference is required")
	}
	p, err := s.Payments.ByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, p)
}

func (s *PaymentService) verify(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	if p.Status != domain.PaymentPending {
		return p, nil
	}
	tx, err := s.Gateway.Verify(ctx, p.Reference)
	if err != nil {
		return nil, upstream(err)
	}
	switch tx.Status {
	case "success":
		if tx.Amount != payments.ToMinor(p.Amount) {
			applog.Logger().Warn("payment.amount.mismatch", "reference", p.Reference,
				"expected", payments.ToMinor(p.Amount), "got", tx.Amount)
			return nil, apperr.ErrUpstream.WithMessage("paid amount does not match the order")
		}
		if err := s.succeed(ctx, p); err != nil {
			return nil, err
		}
	case "failed", "reversed":
		if err := s.fail(ctx, p); err != nil {
			return nil, err
		}
	default:
		// abandoned, ongoing and pending only mean the buyer has not finished paying yet.
		applog.Logger().Info("payment.verify.open", "reference", p.Reference, "gateway_status", tx.Status)
	}
	return s.Payments.ByReference(ctx, p.Reference)
}

// HandleWebhook authenticates and applies a gateway event.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.Gateway.VerifySignature(body, signature) {
		return apperr.ErrBadSignature
	}
	ev, data, err := payments.ParseWebhook(body)
	if err != nil {
		return apperr.BadRequest("malformed webhook payload")
	}
	applog.Logger().Info("payment.webhook", "event", ev.Event, "reference", data.Reference)

	switch ev.Event {
	case payments.EventChargeSuccess:
		p, err := s.Payments.ByReference(ctx, data.Reference)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				// Not ours; acknowledge so the gateway stops retrying.
				return nil
			}
			return err
		}
		if p.Status != domain.PaymentPending {
			return nil
		}
		if data.Amount != payments.ToMinor(p.Amount) {
			applog.Logger().Warn("payment.amount.mismatch", "reference", p.Reference,
				"expected", payments.ToMinor(p.Amount), "got", data.Amount)
			return nil
		}
		return s.succeed(ctx, p)
	case payments.EventTransferSuccess, payments.EventTransferFailed, payments.EventTransferReversed:
		if s.Transfers == nil {
			return nil
		}
		return s.Transfers.HandleTransfer(ctx, ev.Event, data)
	}
	return nil
}

func (s *PaymentService) succeed(ctx context.Context, p *domain.Payment) error {
	ok, err := s.Orders.MarkPaid(ctx, p.Reference)
	if err != nil || !ok {
		return err
	}
	applog.Logger().Info("payment.succeeded", "reference", p.Reference, "order_id", p.OrderID)
	s.Notes.Notify(ctx, p.UserID, NotifyOrderPaid, "Payment received",
		"Your order "+short(p.OrderID)+" is paid and awaiting delivery", "/orders/"+p.OrderID)
	notifySellers(ctx, s.Orders, s.Notes, p.OrderID, NotifyNewOrder, "New paid order",
		"Order "+short(p.OrderID)+" is ready for delivery")
	emit(ctx, s.Events, events.PaymentSucceeded, map[string]any{
		"order_id": p.OrderID, "reference": p.Reference, "amount": p.Amount,
	})
	return nil
}

func (s *PaymentService) fail(ctx context.Context, p *domain.Payment) error {
	ok, err := s.Orders.Void(ctx, p.OrderID, domain.PaymentFailed, domain.PaymentFailed)
	if err != nil || !ok {
		return err
	}
	applog.Logger().Info("payment.failed", "reference", p.Reference, "order_id", p.OrderID)
	s.Notes.Notify(ctx, p.UserID, NotifyPaymentFailed, "Payment failed",
		"Order "+short(p.OrderID)+" was cancelled because the payment did not go through", "/orders/"+p.OrderID)
	emit(ctx, s.Events, events.PaymentFailed, map[string]any{
		"order_id": p.OrderID, "reference": p.Reference,
	})
	return nil
}

func (s *PaymentService) Mine(ctx context.Context, userID string, page domain.Page) ([]domain.Payment, error) {
	return s.Payments.ListByUser(ctx, userID, page)
}

// upstream maps gateway failures to a 502, keeping context cancellation intact.
func upstream(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.ErrTimeout
	}
	var api *payments.APIError
	if errors.As(err, &api) {
		return apperr.ErrUpstream.WithDetails(api.Message)
	}
	return apperr.ErrUpstream.WithDetails(err.Error())
}
