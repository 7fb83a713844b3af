package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id, name, slug, COALESCE(parent_id,'') AS parent_id, created_at`

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+categoryCols+` FROM categories ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) BySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, `SELECT `+categoryCols+` FROM categories WHERE slug=?`, slug); err != nil {
		return nil, notFound(err, "category")
	}
	return &c, nil
}

func (r *CategoryRepo) ByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, `SELECT `+categoryCols+` FROM categories WHERE id=?`, id); err != nil {
		return nil, notFound(err, "category")
	}
	return &c, nil
}

func (r *CategoryRepo) Children(ctx context.Context, parentID string) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+categoryCols+` FROM categories WHERE parent_id=? ORDER BY name`, parentID)
	return out, err
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories(id,name,slug,parent_id,created_at) VALUES(?,?,?,?,?)`,
		c.ID, c.Name, c.Slug, nullable(c.ParentID), c.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("category slug already exists")
	}
	return err
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx, `UPDATE categories SET name=?, slug=?, parent_id=? WHERE id=?`,
		c.Name, c.Slug, nullable(c.ParentID), c.ID)
	if isUniqueViolation(err) {
		return apperr.Conflict("category slug already exists")
	}
	return err
}

// Delete refuses when products still point at the category or its subcategories.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	var n int
	if err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM products
	  WHERE category_id=? OR category_id IN (SELECT id FROM categories WHERE parent_id=?)`, id, id); err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("category has products")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("category is in use")
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("category")
	}
	return nil
}
