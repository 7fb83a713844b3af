package domain

import "github.com/shopspring/decimal"

type Seller struct {
	ID            string `db:"id" json:"id"`
	UserID        string `db:"user_id" json:"user_id"`
	StoreName     string `db:"store_name" json:"store_name"`
	Slug          string `db:"slug" json:"slug"`
	Description   string `db:"description" json:"description"`
	Logo          string `db:"logo" json:"logo"`
	BankCode      string `db:"bank_code" json:"bank_code,omitempty"`
	AccountNumber string `db:"account_number" json:"account_number,omitempty"`
	AccountName   string `db:"account_name" json:"account_name,omitempty"`
	RecipientCode string `db:"recipient_code" json:"-"`
	CreatedAt     string `db:"created_at" json:"created_at"`
	UpdatedAt     string `db:"updated_at" json:"updated_at"`
}

// Public strips payout details for storefront responses.
func (s Seller) Public() Seller {
	s.BankCode, s.AccountNumber, s.AccountName = "", "", ""
	return s
}

type Storefront struct {
	Seller
	FollowerCount int  `db:"follower_count" json:"follower_count"`
	ProductCount  int  `db:"product_count" json:"product_count"`
	Following     bool `db:"-" json:"following"`
}

type Category struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Slug          string     `db:"slug" json:"slug"`
	ParentID      string     `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt     string     `db:"created_at" json:"created_at"`
	Subcategories []Category `db:"-" json:"subcategories,omitempty"`
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	SellerID    string          `db:"seller_id" json:"seller_id"`
	CategoryID  string          `db:"category_id" json:"category_id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Images      StringList      `db:"images" json:"images"`
	Specs       Attributes      `db:"specs" json:"specs"`
	Views       int             `db:"views" json:"views"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

const (
	RentMonthly  = "monthly"
	RentSemester = "semester"
	RentYearly   = "yearly"
)

// Listing is a housing rental.
type Listing struct {
	ID          string          `db:"id" json:"id"`
	OwnerID     string          `db:"owner_id" json:"owner_id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Address     string          `db:"address" json:"address"`
	Rent        decimal.Decimal `db:"rent" json:"rent"`
	RentPeriod  string          `db:"rent_period" json:"rent_period"`
	Bedrooms    int             `db:"bedrooms" json:"bedrooms"`
	Bathrooms   int             `db:"bathrooms" json:"bathrooms"`
	Furnished   bool            `db:"furnished" json:"furnished"`
	Amenities   StringList      `db:"amenities" json:"amenities"`
	Images      StringList      `db:"images" json:"images"`
	Available   bool            `db:"available" json:"available"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

// Service is a bookable offering from a service provider.
type Service struct {
	ID              string          `db:"id" json:"id"`
	ProviderID      string          `db:"provider_id" json:"provider_id"`
	CategoryID      string          `db:"category_id" json:"category_id,omitempty"`
	Title           string          `db:"title" json:"title"`
	Description     string          `db:"description" json:"description"`
	Price           decimal.Decimal `db:"price" json:"price"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	Images          StringList      `db:"images" json:"images"`
	Active          bool            `db:"active" json:"active"`
	CreatedAt       string          `db:"created_at" json:"created_at"`
	UpdatedAt       string          `db:"updated_at" json:"updated_at"`
}

// RefType discriminates polymorphic references on reviews and bookings.
type RefType string

const (
	RefProduct RefType = "product"
	RefListing RefType = "listing"
	RefService RefType = "service"
)

func (r RefType) Reviewable() bool {
	return r == RefProduct || r == RefListing || r == RefService
}

func (r RefType) Bookable() bool { return r == RefListing || r == RefService }

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Booking is a service session or a housing viewing.
type Booking struct {
	ID          string  `db:"id" json:"id"`
	RefType     RefType `db:"ref_type" json:"ref_type"`
	RefID       string  `db:"ref_id" json:"ref_id"`
	RefTitle    string  `db:"ref_title" json:"ref_title"`
	OwnerID     string  `db:"owner_id" json:"owner_id"`
	UserID      string  `db:"user_id" json:"user_id"`
	ScheduledAt string  `db:"scheduled_at" json:"scheduled_at"`
	Notes       string  `db:"notes" json:"notes"`
	Status      string  `db:"status" json:"status"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at"`
}
