package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type ListingRepo struct{ db *sqlx.DB }

func NewListingRepo(db *sqlx.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingCols = `id, owner_id, title, description, address, rent, rent_period, bedrooms, bathrooms,
  furnished, amenities, images, available, created_at, updated_at`

type ListingFilter struct {
	Q         string
	OwnerID   string
	MaxRent   *decimal.Decimal
	Bedrooms  int
	Furnished *bool
	Available *bool
}

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO listings(id,owner_id,title,description,address,rent,rent_period,bedrooms,bathrooms,
	    furnished,amenities,images,available,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.ID, l.OwnerID, l.Title, l.Description, l.Address, l.Rent.String(), l.RentPeriod, l.Bedrooms, l.Bathrooms,
		l.Furnished, l.Amenities, l.Images, l.Available, l.CreatedAt, l.UpdatedAt)
	return err
}

func (r *ListingRepo) Get(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := r.db.GetContext(ctx, &l, `SELECT `+listingCols+` FROM listings WHERE id=?`, id); err != nil {
		return nil, notFound(err, "listing")
	}
	return &l, nil
}

func (r *ListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	l.UpdatedAt = domain.Now()
	_, err := r.db.ExecContext(ctx, `
	  UPDATE listings SET title=?, description=?, address=?, rent=?, rent_period=?, bedrooms=?, bathrooms=?,
	    furnished=?, amenities=?, images=?, available=?, updated_at=?
	  WHERE id=?`,
		l.Title, l.Description, l.Address, l.Rent.String(), l.RentPeriod, l.Bedrooms, l.Bathrooms,
		l.Furnished, l.Amenities, l.Images, l.Available, l.UpdatedAt, l.ID)
	return err
}

func (r *ListingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("listing")
	}
	return nil
}

func (r *ListingRepo) Search(ctx context.Context, f ListingFilter, page domain.Page) ([]domain.Listing, int, error) {
	where := `1=1`
	args := []any{}
	if f.Q != "" {
		where += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(address) LIKE ?)`
		args = append(args, like(f.Q), like(f.Q), like(f.Q))
	}
	if f.OwnerID != "" {
		where += ` AND owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.MaxRent != nil {
		where += ` AND CAST(rent AS REAL) <= ?`
		args = append(args, f.MaxRent.InexactFloat64())
	}
	if f.Bedrooms > 0 {
		where += ` AND bedrooms >= ?`
		args = append(args, f.Bedrooms)
	}
	if f.Furnished != nil {
		where += ` AND furnished = ?`
		args = append(args, *f.Furnished)
	}
	if f.Available != nil {
		where += ` AND available = ?`
		args = append(args, *f.Available)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM listings WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	out := []domain.Listing{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+listingCols+` FROM listings WHERE `+where+`
	  ORDER BY created_at DESC LIMIT ? OFFSET ?`, append(args, page.Limit, page.Offset())...)
	return out, total, err
}
