package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type BookingRepo struct{ db *sqlx.DB }

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

// ref_title is resolved from whichever table the booking points at.
const bookingSelect = `
  SELECT b.id, b.ref_type, b.ref_id,
         COALESCE(s.title, l.title, '') AS ref_title,
         b.owner_id, b.user_id, b.scheduled_at, b.notes, b.status, b.created_at, b.updated_at
  FROM bookings b
  LEFT JOIN services s ON b.ref_type = 'service' AND s.id = b.ref_id
  LEFT JOIN listings l ON b.ref_type = 'listing' AND l.id = b.ref_id`

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO bookings(id,ref_type,ref_id,owner_id,user_id,scheduled_at,notes,status,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.RefType, b.RefID, b.OwnerID, b.UserID, b.ScheduledAt, b.Notes, b.Status, b.CreatedAt, b.UpdatedAt)
	return err
}

func (r *BookingRepo) Get(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.GetContext(ctx, &b, bookingSelect+` WHERE b.id=?`, id); err != nil {
		return nil, notFound(err, "booking")
	}
	return &b, nil
}

func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	out := []domain.Booking{}
	err := r.db.SelectContext(ctx, &out, bookingSelect+` WHERE b.user_id=? ORDER BY b.scheduled_at DESC`, userID)
	return out, err
}

func (r *BookingRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	out := []domain.Booking{}
	err := r.db.SelectContext(ctx, &out, bookingSelect+` WHERE b.owner_id=? ORDER BY b.scheduled_at DESC`, ownerID)
	return out, err
}

// SetStatus moves a booking from one status to another; a concurrent change yields a transition error.
func (r *BookingRepo) SetStatus(ctx context.Context, id, from, to string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status=?, updated_at=? WHERE id=? AND status=?`,
		to, domain.Now(), id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrInvalidTransition
	}
	return nil
}
