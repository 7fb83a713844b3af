package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type ServiceRepo struct{ db *sqlx.DB }

func NewServiceRepo(db *sqlx.DB) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceCols = `id, provider_id, COALESCE(category_id,'') AS category_id, title, description, price,
  duration_minutes, images, active, created_at, updated_at`

type ServiceFilter struct {
	Q          string
	ProviderID string
	CategoryID string
}

func (r *ServiceRepo) Create(ctx context.Context, s *domain.Service) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO services(id,provider_id,category_id,title,description,price,duration_minutes,images,active,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.ProviderID, nullable(s.CategoryID), s.Title, s.Description, s.Price.String(), s.DurationMinutes,
		s.Images, s.Active, s.CreatedAt, s.UpdatedAt)
	if isForeignKeyViolation(err) {
		return apperr.BadRequest("unknown category_id")
	}
	return err
}

func (r *ServiceRepo) Get(ctx context.Context, id string) (*domain.Service, error) {
	var s domain.Service
	if err := r.db.GetContext(ctx, &s, `SELECT `+serviceCols+` FROM services WHERE id=?`, id); err != nil {
		return nil, notFound(err, "service")
	}
	return &s, nil
}

func (r *ServiceRepo) Update(ctx context.Context, s *domain.Service) error {
	s.UpdatedAt = domain.Now()
	_, err := r.db.ExecContext(ctx, `
	  UPDATE services SET category_id=?, title=?, description=?, price=?, duration_minutes=?, images=?, active=?, updated_at=?
	  WHERE id=?`,
		nullable(s.CategoryID), s.Title, s.Description, s.Price.String(), s.DurationMinutes, s.Images, s.Active,
		s.UpdatedAt, s.ID)
	if isForeignKeyViolation(err) {
		return apperr.BadRequest("unknown category_id")
	}
	return err
}

func (r *ServiceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("service")
	}
	return nil
}

func (r *ServiceRepo) Search(ctx context.Context, f ServiceFilter, page domain.Page) ([]domain.Service, int, error) {
	where := `active = 1`
	args := []any{}
	if f.Q != "" {
		where += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, like(f.Q), like(f.Q))
	}
	if f.ProviderID != "" {
		where += ` AND provider_id = ?`
		args = append(args, f.ProviderID)
	}
	if f.CategoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM services WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	out := []domain.Service{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+serviceCols+` FROM services WHERE `+where+`
	  ORDER BY created_at DESC LIMIT ? OFFSET ?`, append(args, page.Limit, page.Offset())...)
	return out, total, err
}
