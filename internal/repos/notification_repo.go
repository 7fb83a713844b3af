package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO notifications(id,user_id,type,title,body,link,read,created_at) VALUES(?,?,?,?,?,?,0,?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.Link, n.CreatedAt)
	return err
}

func (r *NotificationRepo) List(ctx context.Context, userID string, page domain.Page) ([]domain.Notification, error) {
	out := []domain.Notification{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, user_id, type, title, body, link, read, created_at FROM notifications
	  WHERE user_id=? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, userID, page.Limit, page.Offset())
	return out, err
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id=? AND read=0`, userID)
	return n, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read=1 WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read=1 WHERE user_id=? AND read=0`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}
