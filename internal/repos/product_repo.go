package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, seller_id, category_id, name, description, price, stock, images, specs, views, active,
  created_at, updated_at`

// ProductFilter narrows a catalog listing. Zero values mean "no filter".
type ProductFilter struct {
	Q           string
	CategoryIDs []string
	SellerID    string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Sort        string
	// IncludeInactive is set for the owner's own listing.
	IncludeInactive bool
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO products(id,seller_id,category_id,name,description,price,stock,images,specs,views,active,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,0,?,?,?)`,
		p.ID, p.SellerID, p.CategoryID, p.Name, p.Description, p.Price.String(), p.Stock, p.Images, p.Specs,
		p.Active, p.CreatedAt, p.UpdatedAt)
	if isForeignKeyViolation(err) {
		return apperr.BadRequest("unknown category_id")
	}
	return err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id=?`, id); err != nil {
		return nil, notFound(err, "product")
	}
	return &p, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = domain.Now()
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products SET category_id=?, name=?, description=?, price=?, stock=?, images=?, specs=?, active=?, updated_at=?
	  WHERE id=?`,
		p.CategoryID, p.Name, p.Description, p.Price.String(), p.Stock, p.Images, p.Specs, p.Active, p.UpdatedAt, p.ID)
	if isForeignKeyViolation(err) {
		return apperr.BadRequest("unknown category_id")
	}
	return err
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("product")
	}
	return nil
}

func (r *ProductRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET views = views + 1 WHERE id=?`, id)
	return err
}

// Search lists products matching f and returns the unpaged total.
func (r *ProductRepo) Search(ctx context.Context, f ProductFilter, page domain.Page) ([]domain.Product, int, error) {
	where := `1=1`
	args := []any{}
	if !f.IncludeInactive {
		where += ` AND active = 1`
	}
	if f.Q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, like(f.Q), like(f.Q))
	}
	if len(f.CategoryIDs) > 0 {
		q, a, err := sqlx.In(` AND category_id IN (?)`, f.CategoryIDs)
		if err != nil {
			return nil, 0, err
		}
		where += q
		args = append(args, a...)
	}
	if f.SellerID != "" {
		where += ` AND seller_id = ?`
		args = append(args, f.SellerID)
	}
	if f.MinPrice != nil {
		where += ` AND CAST(price AS REAL) >= ?`
		args = append(args, f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		where += ` AND CAST(price AS REAL) <= ?`
		args = append(args, f.MaxPrice.InexactFloat64())
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	order := `created_at DESC`
	switch f.Sort {
	case "price_asc":
		order = `CAST(price AS REAL) ASC, created_at DESC`
	case "price_desc":
		order = `CAST(price AS REAL) DESC, created_at DESC`
	case "popular":
		order = `views DESC, created_at DESC`
	}

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+` FROM products
	  WHERE `+where+`
	  ORDER BY `+order+`
	  LIMIT ? OFFSET ?`, append(args, page.Limit, page.Offset())...)
	return out, total, err
}

// TopByViews returns a seller's most viewed products.
func (r *ProductRepo) TopByViews(ctx context.Context, sellerID string, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+` FROM products WHERE seller_id=?
	  ORDER BY views DESC, created_at DESC LIMIT ?`, sellerID, limit)
	return out, err
}

func (r *ProductRepo) CountBySeller(ctx context.Context, sellerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE seller_id=?`, sellerID)
	return n, err
}
