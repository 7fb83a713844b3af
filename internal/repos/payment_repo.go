package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/domain"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, order_id, user_id, reference, amount, currency, status, authorization_url,
  COALESCE(paid_at,'') AS paid_at, created_at, updated_at`

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO payments(id,order_id,user_id,reference,amount,currency,status,authorization_url,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.OrderID, p.UserID, p.Reference, p.Amount.String(), p.Currency, p.Status, p.AuthorizationURL,
		p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PaymentRepo) ByReference(ctx context.Context, ref string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.GetContext(ctx, &p, `SELECT `+paymentCols+` FROM payments WHERE reference=?`, ref); err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}

// PendingForOrder returns the open payment attempt for an order, if any.
func (r *PaymentRepo) PendingForOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.GetContext(ctx, &p, `
	  SELECT `+paymentCols+` FROM payments WHERE order_id=? AND status=?
	  ORDER BY created_at DESC LIMIT 1`, orderID, domain.PaymentPending)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}

func (r *PaymentRepo) ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+paymentCols+` FROM payments WHERE user_id=?
	  ORDER BY created_at DESC LIMIT ? OFFSET ?`, userID, page.Limit, page.Offset())
	return out, err
}
