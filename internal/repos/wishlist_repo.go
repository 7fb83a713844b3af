package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

func (r *WishlistRepo) Add(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO wishlist_items(user_id, product_id, created_at)
	  VALUES(?, ?, ?)
	  ON CONFLICT(user_id, product_id) DO NOTHING
	`, userID, productID, domain.Now())
	if isForeignKeyViolation(err) {
		return apperr.NotFound("product")
	}
	return err
}

func (r *WishlistRepo) Remove(ctx context.Context, userID, productID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id=? AND product_id=?`, userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("wishlist item")
	}
	return nil
}

type WishlistRow struct {
	ProductID string          `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Image     string          `db:"image" json:"image"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	Active    bool            `db:"active" json:"active"`
	AddedAt   string          `db:"added_at" json:"added_at"`
}

func (r *WishlistRepo) List(ctx context.Context, userID string) ([]WishlistRow, error) {
	out := []WishlistRow{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT p.id AS product_id, p.name, COALESCE(json_extract(p.images, '$[0]'), '') AS image,
	         p.price, p.stock, p.active, wi.created_at AS added_at
	  FROM wishlist_items wi
	  JOIN products p ON p.id = wi.product_id
	  WHERE wi.user_id = ?
	  ORDER BY wi.created_at DESC
	`, userID)
	return out, err
}
