package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO reviews(id,user_id,ref_type,ref_id,rating,comment,created_at) VALUES(?,?,?,?,?,?,?)`,
		rv.ID, rv.UserID, rv.RefType, rv.RefID, rv.Rating, rv.Comment, rv.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("you already reviewed this item")
	}
	return err
}

func (r *ReviewRepo) Get(ctx context.Context, id string) (*domain.Review, error) {
	var rv domain.Review
	err := r.db.GetContext(ctx, &rv, `
	  SELECT rv.id, rv.user_id, COALESCE(u.name,'') AS user_name, rv.ref_type, rv.ref_id, rv.rating, rv.comment, rv.created_at
	  FROM reviews rv LEFT JOIN users u ON u.id = rv.user_id WHERE rv.id=?`, id)
	if err != nil {
		return nil, notFound(err, "review")
	}
	return &rv, nil
}

func (r *ReviewRepo) ListFor(ctx context.Context, refType domain.RefType, refID string, page domain.Page) ([]domain.Review, error) {
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT rv.id, rv.user_id, COALESCE(u.name,'') AS user_name, rv.ref_type, rv.ref_id, rv.rating, rv.comment, rv.created_at
	  FROM reviews rv LEFT JOIN users u ON u.id = rv.user_id
	  WHERE rv.ref_type=? AND rv.ref_id=?
	  ORDER BY rv.created_at DESC LIMIT ? OFFSET ?`, refType, refID, page.Limit, page.Offset())
	return out, err
}

// Stats returns the rating average (0 when unrated) and count for a target.
func (r *ReviewRepo) Stats(ctx context.Context, refType domain.RefType, refID string) (float64, int, error) {
	var row struct {
		Avg   float64 `db:"avg"`
		Count int     `db:"count"`
	}
	err := r.db.GetContext(ctx, &row, `
	  SELECT COALESCE(AVG(rating),0) AS avg, COUNT(*) AS count FROM reviews WHERE ref_type=? AND ref_id=?`,
		refType, refID)
	return row.Avg, row.Count, err
}

func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("review")
	}
	return nil
}
