package repos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// EnsureCart returns the user's cart id, creating the cart on first use.
func (r *CartRepo) EnsureCart(ctx context.Context, userID string) (string, error) {
	var cartID string
	err := r.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE user_id = ?`, userID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	cartID = uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
	  INSERT INTO carts(id,user_id,updated_at) VALUES(?,?,?)
	  ON CONFLICT(user_id) DO NOTHING`, cartID, userID, domain.Now())
	if err != nil {
		return "", err
	}
	err = r.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE user_id = ?`, userID)
	return cartID, err
}

// ItemQty is the quantity currently in the cart for productID (0 when absent).
func (r *CartRepo) ItemQty(ctx context.Context, cartID, productID string) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, `SELECT qty FROM cart_items WHERE cart_id=? AND product_id=?`, cartID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}

// SetQty writes an absolute quantity, inserting the line when needed.
func (r *CartRepo) SetQty(ctx context.Context, cartID, productID string, qty int, price decimal.Decimal) error {
	now := domain.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id,product_id,qty,price_at_add,created_at,updated_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(cart_id,product_id) DO UPDATE
		SET qty = excluded.qty, updated_at = excluded.updated_at
	`, cartID, productID, qty, price.String(), now, now)
	if err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// UpdateQty changes an existing line only.
func (r *CartRepo) UpdateQty(ctx context.Context, cartID, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cart_items SET qty=?, updated_at=? WHERE cart_id=? AND product_id=?`,
		qty, domain.Now(), cartID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("cart item")
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepo) Remove(ctx context.Context, cartID, productID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id=? AND product_id=?`, cartID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("cart item")
	}
	return r.touch(ctx, cartID)
}

// Items joins cart lines with their live product rows.
func (r *CartRepo) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT ci.product_id, p.seller_id, p.name,
	         COALESCE(json_extract(p.images, '$[0]'), '') AS image,
	         ci.qty, ci.price_at_add, p.price, p.stock, p.active
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at
	`, cartID)
	return out, err
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

func (r *CartRepo) touch(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at=? WHERE id=?`, domain.Now(), cartID)
	return err
}
