package domain

import "github.com/shopspring/decimal"

const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
	PaymentSuccess   = "success"
	PaymentAbandoned = "abandoned"

	DeliveryPending   = "pending"
	DeliveryAssigned  = "assigned"
	DeliveryPickedUp  = "picked_up"
	DeliveryDelivered = "delivered"
	DeliveryCancelled = "cancelled"

	EscrowNone     = "none"
	EscrowHeld     = "held"
	EscrowReleased = "released"
	EscrowRefunded = "refunded"

	PayoutPending    = "pending"
	PayoutProcessing = "processing"
	PayoutPaid       = "paid"
	PayoutFailed     = "failed"
)

var DeliveryStatuses = []string{DeliveryPending, DeliveryAssigned, DeliveryPickedUp, DeliveryDelivered, DeliveryCancelled}

type CartItem struct {
	ProductID  string          `db:"product_id" json:"product_id"`
	SellerID   string          `db:"seller_id" json:"seller_id"`
	Name       string          `db:"name" json:"name"`
	Image      string          `db:"image" json:"image"`
	Qty        int             `db:"qty" json:"qty"`
	PriceAtAdd decimal.Decimal `db:"price_at_add" json:"price_at_add"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Stock      int             `db:"stock" json:"stock"`
	Active     bool            `db:"active" json:"active"`
}

// Subtotal uses the current product price; price_at_add is informational.
func (it CartItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Qty)))
}

type Order struct {
	ID              string          `db:"id" json:"id"`
	BuyerID         string          `db:"buyer_id" json:"buyer_id"`
	Total           decimal.Decimal `db:"total" json:"total"`
	PaymentStatus   string          `db:"payment_status" json:"payment_status"`
	DeliveryStatus  string          `db:"delivery_status" json:"delivery_status"`
	EscrowStatus    string          `db:"escrow_status" json:"escrow_status"`
	WalkerID        string          `db:"walker_id" json:"walker_id,omitempty"`
	DeliveryAddress string          `db:"delivery_address" json:"delivery_address"`
	Note            string          `db:"note" json:"note"`
	DeliveredAt     string          `db:"delivered_at" json:"delivered_at,omitempty"`
	ConfirmedAt     string          `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt       string          `db:"created_at" json:"created_at"`
	UpdatedAt       string          `db:"updated_at" json:"updated_at"`
	Items           []OrderItem     `db:"-" json:"items,omitempty"`
}

type OrderItem struct {
	OrderID   string          `db:"order_id" json:"-"`
	ProductID string          `db:"product_id" json:"product_id"`
	SellerID  string          `db:"seller_id" json:"seller_id"`
	Name      string          `db:"name" json:"name"`
	Qty       int             `db:"qty" json:"qty"`
	Price     decimal.Decimal `db:"price" json:"price"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Qty)))
}

type Payment struct {
	ID               string          `db:"id" json:"id"`
	OrderID          string          `db:"order_id" json:"order_id"`
	UserID           string          `db:"user_id" json:"user_id"`
	Reference        string          `db:"reference" json:"reference"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Currency         string          `db:"currency" json:"currency"`
	Status           string          `db:"status" json:"status"`
	AuthorizationURL string          `db:"authorization_url" json:"authorization_url,omitempty"`
	PaidAt           string          `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt        string          `db:"created_at" json:"created_at"`
	UpdatedAt        string          `db:"updated_at" json:"updated_at"`
}

type Payout struct {
	ID           string          `db:"id" json:"id"`
	SellerID     string          `db:"seller_id" json:"seller_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Status       string          `db:"status" json:"status"`
	Reference    string          `db:"reference" json:"reference"`
	TransferCode string          `db:"transfer_code" json:"transfer_code,omitempty"`
	Reason       string          `db:"reason" json:"reason,omitempty"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
	UpdatedAt    string          `db:"updated_at" json:"updated_at"`
}

type PayoutSummary struct {
	TotalEarned decimal.Decimal `json:"total_earned"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	PaidOut     decimal.Decimal `json:"paid_out"`
	Pending     decimal.Decimal `json:"pending"`
	Available   decimal.Decimal `json:"available"`
}
