package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"campusmart/internal/domain"
)

type PayoutRepo struct{ db *sqlx.DB }

func NewPayoutRepo(db *sqlx.DB) *PayoutRepo { return &PayoutRepo{db: db} }

const payoutCols = `id, seller_id, amount, status, reference, transfer_code, reason, created_at, updated_at`

func (r *PayoutRepo) Create(ctx context.Context, p *domain.Payout) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO payouts(id,seller_id,amount,status,reference,transfer_code,reason,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?)`,
		p.ID, p.SellerID, p.Amount.String(), p.Status, p.Reference, p.TransferCode, p.Reason, p.CreatedAt, p.UpdatedAt)
	return err
}

// SetStatus updates a payout by reference, skipping rows already in a final state.
func (r *PayoutRepo) SetStatus(ctx context.Context, reference, status, transferCode, reason string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE payouts SET status=?, transfer_code=COALESCE(NULLIF(?,''), transfer_code),
	    reason=COALESCE(NULLIF(?,''), reason), updated_at=?
	  WHERE reference=? AND status IN (?,?)`,
		status, transferCode, reason, domain.Now(), reference, domain.PayoutPending, domain.PayoutProcessing)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *PayoutRepo) ByReference(ctx context.Context, reference string) (*domain.Payout, error) {
	var p domain.Payout
	if err := r.db.GetContext(ctx, &p, `SELECT `+payoutCols+` FROM payouts WHERE reference=?`, reference); err != nil {
		return nil, notFound(err, "payout")
	}
	return &p, nil
}

func (r *PayoutRepo) ListBySeller(ctx context.Context, sellerID string, page domain.Page) ([]domain.Payout, error) {
	out := []domain.Payout{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+payoutCols+` FROM payouts WHERE seller_id=?
	  ORDER BY created_at DESC LIMIT ? OFFSET ?`, sellerID, page.Limit, page.Offset())
	return out, err
}

func (r *PayoutRepo) ListAll(ctx context.Context, status string, page domain.Page) ([]domain.Payout, error) {
	where, args := `1=1`, []any{}
	if status != "" {
		where, args = `status=?`, append(args, status)
	}
	out := []domain.Payout{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+payoutCols+` FROM payouts WHERE `+where+`
	  ORDER BY created_at DESC LIMIT ? OFFSET ?`, append(args, page.Limit, page.Offset())...)
	return out, err
}

// Totals sums a seller's payouts that are paid and those still in flight.
func (r *PayoutRepo) Totals(ctx context.Context, sellerID string) (paid, inFlight decimal.Decimal, err error) {
	if err = r.db.GetContext(ctx, &paid, `
	  SELECT COALESCE(SUM(amount),0) FROM payouts WHERE seller_id=? AND status=?`,
		sellerID, domain.PayoutPaid); err != nil {
		return
	}
	err = r.db.GetContext(ctx, &inFlight, `
	  SELECT COALESCE(SUM(amount),0) FROM payouts WHERE seller_id=? AND status IN (?,?)`,
		sellerID, domain.PayoutPending, domain.PayoutProcessing)
	return paid.Round(2), inFlight.Round(2), err
}
