package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type WalkerRepo struct{ db *sqlx.DB }

func NewWalkerRepo(db *sqlx.DB) *WalkerRepo { return &WalkerRepo{db: db} }

const walkerCols = `id, user_id, full_name, phone, student_id, vehicle, status,
  COALESCE(reviewed_by,'') AS reviewed_by, COALESCE(reviewed_at,'') AS reviewed_at, created_at`

func (r *WalkerRepo) Create(ctx context.Context, w *domain.Walker) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO walkers(id,user_id,full_name,phone,student_id,vehicle,status,created_at)
	  VALUES(?,?,?,?,?,?,?,?)`,
		w.ID, w.UserID, w.FullName, w.Phone, w.StudentID, w.Vehicle, w.Status, w.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("application already submitted")
	}
	return err
}

func (r *WalkerRepo) Get(ctx context.Context, id string) (*domain.Walker, error) {
	var w domain.Walker
	if err := r.db.GetContext(ctx, &w, `SELECT `+walkerCols+` FROM walkers WHERE id=?`, id); err != nil {
		return nil, notFound(err, "walker application")
	}
	return &w, nil
}

func (r *WalkerRepo) ByUserID(ctx context.Context, userID string) (*domain.Walker, error) {
	var w domain.Walker
	if err := r.db.GetContext(ctx, &w, `SELECT `+walkerCols+` FROM walkers WHERE user_id=?`, userID); err != nil {
		return nil, notFound(err, "walker application")
	}
	return &w, nil
}

func (r *WalkerRepo) List(ctx context.Context, status string, page domain.Page) ([]domain.Walker, error) {
	where, args := `1=1`, []any{}
	if status != "" {
		where, args = `status=?`, append(args, status)
	}
	out := []domain.Walker{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+walkerCols+` FROM walkers WHERE `+where+`
	  ORDER BY created_at DESC LIMIT ? OFFSET ?`, append(args, page.Limit, page.Offset())...)
	return out, err
}

func (r *WalkerRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM walkers WHERE status=?`, domain.WalkerPending)
	return n, err
}

// Review records an admin decision on a pending application.
func (r *WalkerRepo) Review(ctx context.Context, id, status, adminID string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE walkers SET status=?, reviewed_by=?, reviewed_at=? WHERE id=? AND status=?`,
		status, adminID, domain.Now(), id, domain.WalkerPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return apperr.ErrInvalidTransition.WithMessage("application already reviewed")
	}
	return nil
}
