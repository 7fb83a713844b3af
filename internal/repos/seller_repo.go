package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type SellerRepo struct{ db *sqlx.DB }

func NewSellerRepo(db *sqlx.DB) *SellerRepo { return &SellerRepo{db: db} }

const sellerCols = `s.id, s.user_id, s.store_name, s.slug, s.description, s.logo,
  s.bank_code, s.account_number, s.account_name, s.recipient_code, s.created_at, s.updated_at`

const storefrontCols = sellerCols + `,
  (SELECT COUNT(*) FROM follows f WHERE f.seller_id = s.id) AS follower_count,
  (SELECT COUNT(*) FROM products p WHERE p.seller_id = s.id AND p.active = 1) AS product_count`

func (r *SellerRepo) Create(ctx context.Context, s *domain.Seller) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO sellers(id,user_id,store_name,slug,description,logo,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?)`,
		s.ID, s.UserID, s.StoreName, s.Slug, s.Description, s.Logo, s.CreatedAt, s.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("storefront already exists")
	}
	return err
}

func (r *SellerRepo) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sellers WHERE slug=?`, slug)
	return n > 0, err
}

func (r *SellerRepo) ByID(ctx context.Context, id string) (*domain.Seller, error) {
	var s domain.Seller
	if err := r.db.GetContext(ctx, &s, `SELECT `+sellerCols+` FROM sellers s WHERE s.id=?`, id); err != nil {
		return nil, notFound(err, "seller")
	}
	return &s, nil
}

func (r *SellerRepo) ByUserID(ctx context.Context, userID string) (*domain.Seller, error) {
	var s domain.Seller
	if err := r.db.GetContext(ctx, &s, `SELECT `+sellerCols+` FROM sellers s WHERE s.user_id=?`, userID); err != nil {
		return nil, notFound(err, "storefront")
	}
	return &s, nil
}

func (r *SellerRepo) Storefront(ctx context.Context, slug string) (*domain.Storefront, error) {
	var sf domain.Storefront
	if err := r.db.GetContext(ctx, &sf, `SELECT `+storefrontCols+` FROM sellers s WHERE s.slug=?`, slug); err != nil {
		return nil, notFound(err, "storefront")
	}
	return &sf, nil
}

func (r *SellerRepo) UpdateProfile(ctx context.Context, s *domain.Seller) error {
	s.UpdatedAt = domain.Now()
	_, err := r.db.ExecContext(ctx, `UPDATE sellers SET store_name=?, description=?, logo=?, updated_at=? WHERE id=?`,
		s.StoreName, s.Description, s.Logo, s.UpdatedAt, s.ID)
	return err
}

func (r *SellerRepo) SetBank(ctx context.Context, s *domain.Seller) error {
	s.UpdatedAt = domain.Now()
	_, err := r.db.ExecContext(ctx, `
	  UPDATE sellers SET bank_code=?, account_number=?, account_name=?, recipient_code=?, updated_at=?
	  WHERE id=?`, s.BankCode, s.AccountNumber, s.AccountName, s.RecipientCode, s.UpdatedAt, s.ID)
	return err
}

// Search matches store names for the global search endpoint.
func (r *SellerRepo) Search(ctx context.Context, q string, limit int) ([]domain.Storefront, error) {
	out := []domain.Storefront{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+storefrontCols+` FROM sellers s
	  WHERE LOWER(s.store_name) LIKE ? OR LOWER(s.description) LIKE ?
	  ORDER BY s.store_name LIMIT ?`, like(q), like(q), limit)
	return out, err
}

func (r *SellerRepo) Follow(ctx context.Context, sellerID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO follows(seller_id,user_id,created_at) VALUES(?,?,?)
	  ON CONFLICT(seller_id,user_id) DO NOTHING`, sellerID, userID, domain.Now())
	return err
}

func (r *SellerRepo) Unfollow(ctx context.Context, sellerID, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM follows WHERE seller_id=? AND user_id=?`, sellerID, userID)
	return err
}

func (r *SellerRepo) IsFollowing(ctx context.Context, sellerID, userID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM follows WHERE seller_id=? AND user_id=?`, sellerID, userID)
	return n > 0, err
}

// Following lists the storefronts userID follows, most recent first.
func (r *SellerRepo) Following(ctx context.Context, userID string) ([]domain.Storefront, error) {
	out := []domain.Storefront{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+storefrontCols+` FROM follows fo JOIN sellers s ON s.id = fo.seller_id
	  WHERE fo.user_id=? ORDER BY fo.created_at DESC`, userID)
	return out, err
}

// FollowerIDs returns the user ids following a seller.
func (r *SellerRepo) FollowerIDs(ctx context.Context, sellerID string) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, `SELECT user_id FROM follows WHERE seller_id=?`, sellerID)
	return out, err
}

func (r *SellerRepo) FollowerCount(ctx context.Context, sellerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM follows WHERE seller_id=?`, sellerID)
	return n, err
}
