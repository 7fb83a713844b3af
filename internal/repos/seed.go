package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"campusmart/internal/domain"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "Campus#2025"

// SeedDemo inserts a verified admin, seller and buyer plus a small catalog. It is a no-op when the
// demo admin already exists.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE id='demo-admin'`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := domain.Now()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	users := []struct{ id, email, name, roles string }{
		{"demo-admin", "admin@campusmart.test", "Campus Admin", "buyer,admin"},
		{"demo-seller", "seller@campusmart.test", "Ada Seller", "buyer,seller"},
		{"demo-buyer", "buyer@campusmart.test", "Ben Buyer", "buyer"},
		{"demo-tutor", "tutor@campusmart.test", "Tolu Tutor", "buyer,service_provider"},
	}
	for _, u := range users {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO users(id,email,name,password_hash,roles,is_verified,created_at,updated_at)
		  VALUES(?,?,?,?,?,1,?,?)`, u.id, u.email, u.name, string(hash), u.roles, now, now); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO sellers(id,user_id,store_name,slug,description,created_at,updated_at)
	  VALUES('demo-store','demo-seller','Hall Gadgets','hall-gadgets','Chargers, earbuds and more',?,?)`, now, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO products(id,seller_id,category_id,name,description,price,stock,images,specs,active,created_at,updated_at) VALUES
	    ('demo-p1','demo-store','cat-phones','USB-C Fast Charger','20W wall charger',7500,12,'[]','{"watts":"20"}',1,?,?),
	    ('demo-p2','demo-store','cat-phones','Wireless Earbuds','Bluetooth 5.3',15000,5,'[]','{}',1,?,?),
	    ('demo-p3','demo-store','cat-textbooks','Calculus Early Transcendentals','8th edition, used',9000,1,'[]','{"condition":"used"}',1,?,?)`,
		now, now, now, now, now, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO services(id,provider_id,category_id,title,description,price,duration_minutes,images,active,created_at,updated_at)
	  VALUES('demo-s1','demo-tutor','cat-tutoring','MTH101 tutoring','One-on-one exam prep',5000,60,'[]',1,?,?)`, now, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO listings(id,owner_id,title,description,address,rent,rent_period,bedrooms,bathrooms,furnished,amenities,images,available,created_at,updated_at)
	  VALUES('demo-l1','demo-seller','Self-contained room near south gate','Quiet, water all day','12 South Gate Rd',
	    250000,'yearly',1,1,1,'["wifi","water"]','[]',1,?,?)`, now, now); err != nil {
		return err
	}
	return tx.Commit()
}
