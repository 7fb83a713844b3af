package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `o.id, o.buyer_id, o.total, o.payment_status, o.delivery_status, o.escrow_status,
  COALESCE(o.walker_id,'') AS walker_id, o.delivery_address, o.note,
  COALESCE(o.delivered_at,'') AS delivered_at, COALESCE(o.confirmed_at,'') AS confirmed_at,
  o.created_at, o.updated_at`

// PlaceFromCart turns the cart into an order in one transaction: every line is re-priced at the
// product's current price, stock is decremented conditionally and the cart is emptied.
func (r *OrderRepo) PlaceFromCart(ctx context.Context, buyerID, cartID, address, note string) (*domain.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var lines []domain.CartItem
	if err := tx.SelectContext(ctx, &lines, `
	  SELECT ci.product_id, p.seller_id, p.name, '' AS image, ci.qty, ci.price_at_add, p.price, p.stock, p.active
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at`, cartID); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.ErrCartEmpty
	}

	now := domain.Now()
	o := &domain.Order{
		ID:              uuid.NewString(),
		BuyerID:         buyerID,
		Total:           decimal.Zero,
		PaymentStatus:   domain.PaymentPending,
		DeliveryStatus:  domain.DeliveryPending,
		EscrowStatus:    domain.EscrowNone,
		DeliveryAddress: address,
		Note:            note,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range lines {
		if !it.Active {
			return nil, apperr.ErrProductInactive.WithDetails(it.Name)
		}
		res, err := tx.ExecContext(ctx, `
		  UPDATE products SET stock = stock - ?, updated_at = ?
		  WHERE id = ? AND active = 1 AND stock >= ?`, it.Qty, now, it.ProductID, it.Qty)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, apperr.ErrInsufficientStock.WithDetails(it.Name)
		}
		o.Items = append(o.Items, domain.OrderItem{
			OrderID:   o.ID,
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Name:      it.Name,
			Qty:       it.Qty,
			Price:     it.Price,
		})
		o.Total = o.Total.Add(it.Subtotal())
	}

	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO orders(id,buyer_id,total,payment_status,delivery_status,escrow_status,delivery_address,note,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.BuyerID, o.Total.String(), o.PaymentStatus, o.DeliveryStatus, o.EscrowStatus,
		o.DeliveryAddress, o.Note, o.CreatedAt, o.UpdatedAt); err != nil {
		return nil, err
	}
	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_items(order_id,product_id,seller_id,name,qty,price) VALUES(?,?,?,?,?,?)`,
			it.OrderID, it.ProductID, it.SellerID, it.Name, it.Qty, it.Price.String()); err != nil {
			return nil, err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return nil, err
	}
	return o, tx.Commit()
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderCols+` FROM orders o WHERE o.id = ?`, id); err != nil {
		return nil, notFound(err, "order")
	}
	items := []domain.OrderItem{}
	if err := r.db.SelectContext(ctx, &items, `
	  SELECT order_id, product_id, seller_id, name, qty, price FROM order_items
	  WHERE order_id = ? ORDER BY name`, id); err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

// attachItems loads items for a page of orders; sellerID limits them to one seller's lines.
func (r *OrderRepo) attachItems(ctx context.Context, orders []domain.Order, sellerID string) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	q := `SELECT order_id, product_id, seller_id, name, qty, price FROM order_items WHERE order_id IN (?)`
	args := []any{ids}
	if sellerID != "" {
		q += ` AND seller_id = ?`
		args = append(args, sellerID)
	}
	query, qargs, err := sqlx.In(q+` ORDER BY name`, args...)
	if err != nil {
		return err
	}
	var items []domain.OrderItem
	if err := r.db.SelectContext(ctx, &items, query, qargs...); err != nil {
		return err
	}
	byOrder := map[string][]domain.OrderItem{}
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return nil
}

func (r *OrderRepo) list(ctx context.Context, where string, args []any, page domain.Page, sellerID string) ([]domain.Order, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders o WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	out := []domain.Order{}
	if err := r.db.SelectContext(ctx, &out, `
	  SELECT `+orderCols+` FROM orders o WHERE `+where+`
	  ORDER BY o.created_at DESC LIMIT ? OFFSET ?`, append(args, page.Limit, page.Offset())...); err != nil {
		return nil, 0, err
	}
	return out, total, r.attachItems(ctx, out, sellerID)
}

func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID string, page domain.Page) ([]domain.Order, int, error) {
	return r.list(ctx, `o.buyer_id = ?`, []any{buyerID}, page, "")
}

// ListBySeller returns orders containing the seller's items, each carrying only those items.
func (r *OrderRepo) ListBySeller(ctx context.Context, sellerID string, page domain.Page) ([]domain.Order, int, error) {
	return r.list(ctx, `o.id IN (SELECT order_id FROM order_items WHERE seller_id = ?)`, []any{sellerID}, page, sellerID)
}

func (r *OrderRepo) ListAll(ctx context.Context, deliveryStatus string, page domain.Page) ([]domain.Order, int, error) {
	if deliveryStatus == "" {
		return r.list(ctx, `1=1`, nil, page, "")
	}
	return r.list(ctx, `o.delivery_status = ?`, []any{deliveryStatus}, page, "")
}

// ListAvailableForDelivery returns paid orders nobody has picked up yet.
func (r *OrderRepo) ListAvailableForDelivery(ctx context.Context, page domain.Page) ([]domain.Order, int, error) {
	return r.list(ctx, `o.payment_status = ? AND o.delivery_status = ? AND o.walker_id IS NULL`,
		[]any{domain.PaymentPaid, domain.DeliveryPending}, page, "")
}

func (r *OrderRepo) ListByWalker(ctx context.Context, walkerID string, page domain.Page) ([]domain.Order, int, error) {
	return r.list(ctx, `o.walker_id = ?`, []any{walkerID}, page, "")
}

// RecentForSeller is the dashboard's latest orders list.
func (r *OrderRepo) RecentForSeller(ctx context.Context, sellerID string, limit int) ([]domain.Order, error) {
	out, _, err := r.ListBySeller(ctx, sellerID, domain.Page{Page: 1, Limit: limit})
	return out, err
}

// SellerUserIDs maps the order's sellers to their account ids.
func (r *OrderRepo) SellerUserIDs(ctx context.Context, orderID string) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, `
	  SELECT DISTINCT s.user_id FROM order_items oi JOIN sellers s ON s.id = oi.seller_id
	  WHERE oi.order_id = ?`, orderID)
	return out, err
}

func (r *OrderRepo) HasSellerItems(ctx context.Context, orderID, sellerID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM order_items WHERE order_id=? AND seller_id=?`, orderID, sellerID)
	return n > 0, err
}

// restock puts an order's quantities back on the shelf.
func restock(ctx context.Context, tx *sqlx.Tx, orderID string) error {
	_, err := tx.ExecContext(ctx, `
	  UPDATE products SET stock = stock + (
	    SELECT oi.qty FROM order_items oi WHERE oi.order_id = ? AND oi.product_id = products.id
	  )
	  WHERE id IN (SELECT product_id FROM order_items WHERE order_id = ?)`, orderID, orderID)
	return err
}

// Void marks an unpaid order as given up on and restocks it. paymentStatus is the order's new
// payment_status (failed for gateway failures, pending stays pending on buyer cancel).
func (r *OrderRepo) Void(ctx context.Context, orderID, paymentStatus, paymentRowStatus string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	now := domain.Now()
	res, err := tx.ExecContext(ctx, `
	  UPDATE orders SET payment_status=?, delivery_status=?, updated_at=?
	  WHERE id=? AND payment_status=? AND delivery_status<>?`,
		paymentStatus, domain.DeliveryCancelled, now, orderID, domain.PaymentPending, domain.DeliveryCancelled)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	if err := restock(ctx, tx, orderID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE payments SET status=?, updated_at=? WHERE order_id=? AND status=?`,
		paymentRowStatus, now, orderID, domain.PaymentPending); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// MarkPaid records a successful charge: payment success, order paid, escrow held.
// It reports false when the payment was already finalised.
func (r *OrderRepo) MarkPaid(ctx context.Context, reference string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	now := domain.Now()
	res, err := tx.ExecContext(ctx, `UPDATE payments SET status=?, paid_at=?, updated_at=? WHERE reference=? AND status=?`,
		domain.PaymentSuccess, now, now, reference, domain.PaymentPending)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `
	  UPDATE orders SET payment_status=?, escrow_status=?, updated_at=?
	  WHERE id = (SELECT order_id FROM payments WHERE reference=?)`,
		domain.PaymentPaid, domain.EscrowHeld, now, reference); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// AssignWalker claims a deliverable order for a walker; false means someone else got it first.
func (r *OrderRepo) AssignWalker(ctx context.Context, orderID, walkerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE orders SET walker_id=?, delivery_status=?, updated_at=?
	  WHERE id=? AND walker_id IS NULL AND payment_status=? AND delivery_status=?`,
		walkerID, domain.DeliveryAssigned, domain.Now(), orderID, domain.PaymentPaid, domain.DeliveryPending)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// AdvanceDelivery moves a walker's order from one delivery status to the next.
func (r *OrderRepo) AdvanceDelivery(ctx context.Context, orderID, walkerID, from, to string) error {
	now := domain.Now()
	q := `UPDATE orders SET delivery_status=?, updated_at=?`
	args := []any{to, now}
	if to == domain.DeliveryDelivered {
		q += `, delivered_at=?`
		args = append(args, now)
	}
	q += ` WHERE id=? AND walker_id=? AND delivery_status=?`
	res, err := r.db.ExecContext(ctx, q, append(args, orderID, walkerID, from)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrInvalidTransition
	}
	return nil
}

// SetDeliveryStatus is the admin override; delivered also stamps delivered_at.
func (r *OrderRepo) SetDeliveryStatus(ctx context.Context, orderID, status string) error {
	now := domain.Now()
	q := `UPDATE orders SET delivery_status=?, updated_at=?`
	args := []any{status, now}
	if status == domain.DeliveryDelivered {
		q += `, delivered_at=COALESCE(delivered_at, ?)`
		args = append(args, now)
	}
	res, err := r.db.ExecContext(ctx, q+` WHERE id=?`, append(args, orderID)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order")
	}
	return nil
}

// ReleaseEscrow confirms a delivered order and releases the held funds to its sellers.
func (r *OrderRepo) ReleaseEscrow(ctx context.Context, orderID string) (bool, error) {
	now := domain.Now()
	res, err := r.db.ExecContext(ctx, `
	  UPDATE orders SET escrow_status=?, confirmed_at=?, updated_at=?
	  WHERE id=? AND delivery_status=? AND escrow_status=?`,
		domain.EscrowReleased, now, now, orderID, domain.DeliveryDelivered, domain.EscrowHeld)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeliveredBefore lists orders delivered before cutoff whose escrow is still held.
func (r *OrderRepo) DeliveredBefore(ctx context.Context, cutoff string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
	  SELECT id FROM orders
	  WHERE delivery_status=? AND escrow_status=? AND delivered_at IS NOT NULL AND delivered_at < ?`,
		domain.DeliveryDelivered, domain.EscrowHeld, cutoff)
	return ids, err
}

// UnpaidBefore lists orders still awaiting payment since before cutoff.
func (r *OrderRepo) UnpaidBefore(ctx context.Context, cutoff string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
	  SELECT id FROM orders WHERE payment_status=? AND delivery_status<>? AND created_at < ?`,
		domain.PaymentPending, domain.DeliveryCancelled, cutoff)
	return ids, err
}

type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

func (r *OrderRepo) CountByDeliveryStatus(ctx context.Context) ([]StatusCount, error) {
	out := []StatusCount{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT delivery_status AS status, COUNT(*) AS count FROM orders GROUP BY delivery_status ORDER BY delivery_status`)
	return out, err
}

func (r *OrderRepo) CountByPaymentStatus(ctx context.Context) ([]StatusCount, error) {
	out := []StatusCount{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT payment_status AS status, COUNT(*) AS count FROM orders GROUP BY payment_status ORDER BY payment_status`)
	return out, err
}

// GrossRevenue sums paid order totals.
func (r *OrderRepo) GrossRevenue(ctx context.Context) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := r.db.GetContext(ctx, &v, `SELECT COALESCE(SUM(total),0) FROM orders WHERE payment_status=?`, domain.PaymentPaid)
	return v.Round(2), err
}

func (r *OrderRepo) SellerOrderCount(ctx context.Context, sellerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(DISTINCT order_id) FROM order_items WHERE seller_id=?`, sellerID)
	return n, err
}

// SellerRevenue sums the seller's lines across paid orders.
func (r *OrderRepo) SellerRevenue(ctx context.Context, sellerID string) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := r.db.GetContext(ctx, &v, `
	  SELECT COALESCE(SUM(oi.price * oi.qty),0) FROM order_items oi JOIN orders o ON o.id = oi.order_id
	  WHERE oi.seller_id=? AND o.payment_status=?`, sellerID, domain.PaymentPaid)
	return v.Round(2), err
}

// SellerEarnings sums the seller's lines across orders whose escrow has been released.
func (r *OrderRepo) SellerEarnings(ctx context.Context, sellerID string) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := r.db.GetContext(ctx, &v, `
	  SELECT COALESCE(SUM(oi.price * oi.qty),0) FROM order_items oi JOIN orders o ON o.id = oi.order_id
	  WHERE oi.seller_id=? AND o.escrow_status=?`, sellerID, domain.EscrowReleased)
	return v.Round(2), err
}
