package services

import (
	"context"

	"github.com/google/uuid"

	"campusmart/internal/domain"
	applog "campusmart/internal/log"
	"campusmart/internal/realtime"
	"campusmart/internal/repos"
)

const (
	NotifyOrderPaid      = "order_paid"
	NotifyNewOrder       = "new_order"
	NotifyPaymentFailed  = "payment_failed"
	NotifyDelivery       = "delivery"
	NotifyEscrowReleased = "escrow_released"
	NotifyBooking        = "booking"
	NotifyWalker         = "walker"
	NotifyPayout         = "payout"
	NotifyMessage        = "message"
)

type NotificationService struct {
	Repo *repos.NotificationRepo
	Hub  *realtime.Hub
}

func NewNotificationService(repo *repos.NotificationRepo, hub *realtime.Hub) *NotificationService {
	return &NotificationService{Repo: repo, Hub: hub}
}

// Notify stores a notification and pushes it to the user's open streams.
// Failures are logged; a missed notification never fails the calling operation.
func (s *NotificationService) Notify(ctx context.Context, userID, kind, title, body, link string) {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		Link:      link,
		CreatedAt: domain.Now(),
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		applog.Logger().Error("notification.create.failed", "user_id", userID, "type", kind, "error", err)
		return
	}
	if s.Hub != nil {
		s.Hub.Publish(userID, realtime.Event{Kind: realtime.KindNotification, Data: n})
	}
}

type NotificationList struct {
	Items  []domain.Notification `json:"items"`
	Unread int                   `json:"unread"`
}

func (s *NotificationService) List(ctx context.Context, userID string, page domain.Page) (*NotificationList, error) {
	items, err := s.Repo.List(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	unread, err := s.Repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationList{Items: items, Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.Repo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.Repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	return s.Repo.Delete(ctx, id, userID)
}
