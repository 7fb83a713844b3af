package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,name,phone,avatar,password_hash,roles,is_verified,created_at,updated_at`

// UserSecrets holds the hashed one-time credentials of a user.
type UserSecrets struct {
	OTPHash        string `db:"otp_hash"`
	OTPExpiresAt   string `db:"otp_expires_at"`
	ResetHash      string `db:"reset_hash"`
	ResetExpiresAt string `db:"reset_expires_at"`
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO users(id,email,name,phone,avatar,password_hash,roles,is_verified,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.Name, u.Phone, u.Avatar, u.Hash, u.RolesCSV, u.IsVerified, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.ErrEmailTaken
	}
	return err
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) Secrets(ctx context.Context, id string) (UserSecrets, error) {
	var s UserSecrets
	err := r.DB.GetContext(ctx, &s, `
	  SELECT COALESCE(otp_hash,'') AS otp_hash, COALESCE(otp_expires_at,'') AS otp_expires_at,
	         COALESCE(reset_hash,'') AS reset_hash, COALESCE(reset_expires_at,'') AS reset_expires_at
	  FROM users WHERE id=?`, id)
	return s, notFound(err, "user")
}

func (r *UserRepo) SetOTP(ctx context.Context, id, hash, expiresAt string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET otp_hash=?, otp_expires_at=?, updated_at=? WHERE id=?`,
		hash, expiresAt, domain.Now(), id)
	return err
}

// MarkVerified flips is_verified and burns the OTP.
func (r *UserRepo) MarkVerified(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `
	  UPDATE users SET is_verified=1, otp_hash=NULL, otp_expires_at=NULL, updated_at=? WHERE id=?`,
		domain.Now(), id)
	return err
}

func (r *UserRepo) SetReset(ctx context.Context, id, hash, expiresAt string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET reset_hash=?, reset_expires_at=?, updated_at=? WHERE id=?`,
		hash, expiresAt, domain.Now(), id)
	return err
}

// UpdatePassword stores a new hash and invalidates any outstanding reset token.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := r.DB.ExecContext(ctx, `
	  UPDATE users SET password_hash=?, reset_hash=NULL, reset_expires_at=NULL, updated_at=? WHERE id=?`,
		hash, domain.Now(), id)
	return err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = domain.Now()
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET name=?, phone=?, avatar=?, updated_at=? WHERE id=?`,
		u.Name, u.Phone, u.Avatar, u.UpdatedAt, u.ID)
	return err
}

func (r *UserRepo) SetRoles(ctx context.Context, id string, roles []string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET roles=?, updated_at=? WHERE id=?`,
		domain.JoinRoles(roles), domain.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

// AddRole appends role to the user's role list if missing.
func (r *UserRepo) AddRole(ctx context.Context, id, role string) error {
	u, err := r.ByID(ctx, id)
	if err != nil {
		return err
	}
	if u.HasRole(role) {
		return nil
	}
	return r.SetRoles(ctx, id, append(u.Roles(), role))
}

// List returns users, optionally filtered to those holding role, plus the total count.
func (r *UserRepo) List(ctx context.Context, role string, page domain.Page) ([]domain.User, int, error) {
	where := `1=1`
	args := []any{}
	if role != "" {
		where = `(',' || roles || ',') LIKE ?`
		args = append(args, "%,"+role+",%")
	}
	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `
	  SELECT `+userCols+` FROM users WHERE `+where+`
	  ORDER BY created_at DESC LIMIT ? OFFSET ?`, append(args, page.Limit, page.Offset())...)
	return out, total, err
}

// CountByRole counts users holding each known role (a user may count under several).
func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	var csvs []string
	if err := r.DB.SelectContext(ctx, &csvs, `SELECT roles FROM users`); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(domain.AllRoles))
	for _, role := range domain.AllRoles {
		out[role] = 0
	}
	for _, csv := range csvs {
		for _, role := range domain.SplitRoles(csv) {
			out[role]++
		}
	}
	return out, nil
}

// PurgeExpiredSecrets clears OTP and reset hashes whose expiry is before now.
func (r *UserRepo) PurgeExpiredSecrets(ctx context.Context, now string) (int64, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	  UPDATE users SET otp_hash=NULL, otp_expires_at=NULL
	  WHERE otp_expires_at IS NOT NULL AND otp_expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	n1, _ := res.RowsAffected()
	res, err = tx.ExecContext(ctx, `
	  UPDATE users SET reset_hash=NULL, reset_expires_at=NULL
	  WHERE reset_expires_at IS NOT NULL AND reset_expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	n2, _ := res.RowsAffected()
	return n1 + n2, tx.Commit()
}

// DeleteUserCascade cancels the user's unpaid orders (restocking them) and removes the account.
// Paid orders stay for audit; owned rows (storefront, cart, wishlist, messages...) cascade.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, userID string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var orderIDs []string
	if err := tx.SelectContext(ctx, &orderIDs, `
	  SELECT id FROM orders WHERE buyer_id=? AND payment_status=? AND delivery_status<>?`,
		userID, domain.PaymentPending, domain.DeliveryCancelled); err != nil {
		return err
	}

	if len(orderIDs) > 0 {
		query, args, err := sqlx.In(`
		  UPDATE products SET stock = stock + (
		    SELECT COALESCE(SUM(oi.qty),0) FROM order_items oi
		    WHERE oi.product_id = products.id AND oi.order_id IN (?)
		  )
		  WHERE id IN (SELECT product_id FROM order_items WHERE order_id IN (?))`, orderIDs, orderIDs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		query, args, err = sqlx.In(`UPDATE orders SET delivery_status=?, updated_at=? WHERE id IN (?)`,
			domain.DeliveryCancelled, domain.Now(), orderIDs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		query, args, err = sqlx.In(`UPDATE payments SET status=?, updated_at=? WHERE status=? AND order_id IN (?)`,
			domain.PaymentAbandoned, domain.Now(), domain.PaymentPending, orderIDs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user")
	}
	return tx.Commit()
}
