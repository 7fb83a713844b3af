package handlers_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/domain"
	"campusmart/internal/events"
	"campusmart/internal/payments"
	"campusmart/internal/repos"
	"campusmart/internal/services"
)

func TestCart_ClampsQuantity(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "2500", 3)
	buyer := env.user("Buyer")

	status, res := env.call(http.MethodPost, "/api/cart", buyer.Token, map[string]any{"product_id": p.ID, "qty": 5})
	require.Equal(t, http.StatusOK, status, res.Message)
	cart := decode[services.CartView](t, res.Data)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Qty)
	assert.Equal(t, "7500.00", cart.Total.StringFixed(2))

	status, res = env.call(http.MethodPatch, "/api/cart/"+p.ID, buyer.Token, map[string]any{"qty": 0})
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, 1, decode[services.CartView](t, res.Data).Items[0].Qty)

	status, res = env.call(http.MethodPatch, "/api/cart/"+p.ID, buyer.Token, map[string]any{"qty": 40})
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, 3, decode[services.CartView](t, res.Data).Items[0].Qty)

	status, res = env.call(http.MethodDelete, "/api/cart/"+p.ID, buyer.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[services.CartView](t, res.Data).Items)
}

func TestCart_RejectsOutOfStockAndMissingID(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	sold := env.product(shop.ID, "Sold Out Mug", "900", 0)
	buyer := env.user("Buyer")

	status, res := env.call(http.MethodPost, "/api/cart", buyer.Token, map[string]any{"product_id": sold.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", res.errCode())

	status, res = env.call(http.MethodPost, "/api/cart", buyer.Token, map[string]any{"qty": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, res.Error)
	assert.Contains(t, res.Error.Details, "product_id")
}

func TestCheckout_TotalsAndEmptiesCart(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	lamp := env.product(shop.ID, "Desk Lamp", "1500.50", 3)
	pen := env.product(shop.ID, "Pen Set", "200", 10)
	buyer := env.user("Buyer")

	for id, qty := range map[string]int{lamp.ID: 2, pen.ID: 1} {
		status, _ := env.call(http.MethodPost, "/api/cart", buyer.Token, map[string]any{"product_id": id, "qty": qty})
		require.Equal(t, http.StatusOK, status)
	}
	// The order uses the price at checkout time.
	_, err := env.db.Exec(`UPDATE products SET price = ? WHERE id = ?`, "210", pen.ID)
	require.NoError(t, err)

	status, res := env.call(http.MethodPost, "/api/orders/checkout", buyer.Token, map[string]any{"delivery_address": "Hall 3, Room 12"})
	require.Equal(t, http.StatusCreated, status, res.Message)
	o := decode[domain.Order](t, res.Data)
	assert.Equal(t, "3211.00", o.Total.StringFixed(2))
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, domain.DeliveryPending, o.DeliveryStatus)
	assert.Equal(t, domain.EscrowNone, o.EscrowStatus)
	assert.Len(t, o.Items, 2)

	status, res = env.call(http.MethodGet, "/api/cart", buyer.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, decode[services.CartView](t, res.Data).Count)

	got, err := repos.NewProductRepo(env.db).Get(context.Background(), lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
	assert.Contains(t, env.events.Types(), events.OrderPlaced)

	status, res = env.call(http.MethodPost, "/api/orders/checkout", buyer.Token, map[string]any{"delivery_address": "Hall 3, Room 12"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CART_EMPTY", res.errCode())
}

func TestCheckout_RequiresAddress(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.user("Buyer")
	status, res := env.call(http.MethodPost, "/api/orders/checkout", buyer.Token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", res.errCode())
}

func TestOrder_HiddenFromOtherBuyers(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 5)
	buyer := env.user("Buyer")
	other := env.user("Other")
	o := env.checkout(buyer, map[string]int{p.ID: 1})

	status, _ := env.call(http.MethodGet, "/api/orders/"+o.ID, other.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Sellers see orders that contain their products.
	status, _ = env.call(http.MethodGet, "/api/orders/"+o.ID, seller.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCancel_RestocksUnpaidOrder(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 5)
	buyer := env.user("Buyer")
	o := env.checkout(buyer, map[string]int{p.ID: 2})

	status, res := env.call(http.MethodPost, "/api/orders/"+o.ID+"/cancel", buyer.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	got := decode[domain.Order](t, res.Data)
	assert.Equal(t, domain.DeliveryCancelled, got.DeliveryStatus)

	prod, err := repos.NewProductRepo(env.db).Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, prod.Stock)

	status, res = env.call(http.MethodPost, "/api/orders/"+o.ID+"/cancel", buyer.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", res.errCode())
}

func TestAdminCancel_RestocksUnpaidOrder(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 3)
	buyer := env.user("Buyer")
	admin := env.user("Admin", domain.RoleBuyer, domain.RoleAdmin)
	o := env.checkout(buyer, map[string]int{p.ID: 2})

	status, res := env.call(http.MethodPatch, "/api/admin/orders/"+o.ID+"/status", admin.Token, map[string]any{"delivery_status": "cancelled"})
	require.Equal(t, http.StatusOK, status, res.Message)
	got := decode[domain.Order](t, res.Data)
	assert.Equal(t, domain.DeliveryCancelled, got.DeliveryStatus)
	assert.Equal(t, domain.PaymentFailed, got.PaymentStatus)

	ctx := context.Background()
	prod, err := repos.NewProductRepo(env.db).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, prod.Stock)

	// Repeating the cancel leaves the stock alone.
	status, _ = env.call(http.MethodPatch, "/api/admin/orders/"+o.ID+"/status", admin.Token, map[string]any{"delivery_status": "cancelled"})
	require.Equal(t, http.StatusOK, status)
	prod, err = repos.NewProductRepo(env.db).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, prod.Stock)

	paid := env.checkout(buyer, map[string]int{p.ID: 1})
	env.pay(buyer, paid)
	status, res = env.call(http.MethodPatch, "/api/admin/orders/"+paid.ID+"/status", admin.Token, map[string]any{"delivery_status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", res.errCode())

	_, res = env.call(http.MethodGet, "/api/orders/"+paid.ID, buyer.Token, nil)
	assert.Equal(t, domain.DeliveryPending, decode[domain.Order](t, res.Data).DeliveryStatus)
}

func TestWebhook_Signature(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 5)
	buyer := env.user("Buyer")
	o := env.checkout(buyer, map[string]int{p.ID: 1})

	status, res := env.call(http.MethodPost, "/api/payments/initialize", buyer.Token, map[string]any{"order_id": o.ID})
	require.Equal(t, http.StatusOK, status, res.Message)
	link := decode[services.PaymentLink](t, res.Data)
	assert.Equal(t, "https://checkout.test/"+link.Reference, link.AuthorizationURL)

	// A second initialize reuses the open attempt.
	_, res = env.call(http.MethodPost, "/api/payments/initialize", buyer.Token, map[string]any{"order_id": o.ID})
	assert.Equal(t, link.Reference, decode[services.PaymentLink](t, res.Data).Reference)

	body := webhookBody(payments.EventChargeSuccess, link.Reference, payments.ToMinor(o.Total))

	resp, res := env.do(signedWebhook(body, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_SIGNATURE", res.errCode())

	resp, _ = env.do(signedWebhook(body, payments.Sign("sk_wrong", body)))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	status, res = env.call(http.MethodGet, "/api/orders/"+o.ID, buyer.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.PaymentPending, decode[domain.Order](t, res.Data).PaymentStatus)

	// An amount that does not match is acknowledged but ignored.
	short := webhookBody(payments.EventChargeSuccess, link.Reference, payments.ToMinor(o.Total)-100)
	resp, _ = env.do(signedWebhook(short, payments.Sign(gatewaySecret, short)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, res = env.call(http.MethodGet, "/api/orders/"+o.ID, buyer.Token, nil)
	assert.Equal(t, domain.PaymentPending, decode[domain.Order](t, res.Data).PaymentStatus)

	resp, _ = env.do(signedWebhook(body, payments.Sign(gatewaySecret, body)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, res = env.call(http.MethodGet, "/api/orders/"+o.ID, buyer.Token, nil)
	paid := decode[domain.Order](t, res.Data)
	assert.Equal(t, domain.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, domain.EscrowHeld, paid.EscrowStatus)
	assert.Contains(t, env.events.Types(), events.PaymentSucceeded)

	// Replays are harmless.
	resp, _ = env.do(signedWebhook(body, payments.Sign(gatewaySecret, body)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, res = env.call(http.MethodPost, "/api/payments/initialize", buyer.Token, map[string]any{"order_id": o.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", res.errCode())
}

func TestVerifyPayment_AppliesGatewayOutcome(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 5)
	buyer := env.user("Buyer")
	o := env.checkout(buyer, map[string]int{p.ID: 1})

	_, res := env.call(http.MethodPost, "/api/payments/initialize", buyer.Token, map[string]any{"order_id": o.ID})
	link := decode[services.PaymentLink](t, res.Data)

	stranger := env.user("Stranger")
	status, _ := env.call(http.MethodGet, "/api/payments/verify/"+link.Reference, stranger.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, res = env.call(http.MethodGet, "/api/payments/verify/"+link.Reference, buyer.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, domain.PaymentSuccess, decode[domain.Payment](t, res.Data).Status)

	_, res = env.call(http.MethodGet, "/api/orders/"+o.ID, buyer.Token, nil)
	assert.Equal(t, domain.PaymentPaid, decode[domain.Order](t, res.Data).PaymentStatus)
}

func TestVerifyPayment_UnfinishedStaysOpen(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 5)
	buyer := env.user("Buyer")
	o := env.checkout(buyer, map[string]int{p.ID: 2})

	_, res := env.call(http.MethodPost, "/api/payments/initialize", buyer.Token, map[string]any{"order_id": o.ID})
	link := decode[services.PaymentLink](t, res.Data)
	products := repos.NewProductRepo(env.db)

	for _, gwStatus := range []string{"abandoned", "ongoing", "pending"} {
		env.gw.setStatus(link.Reference, gwStatus)
		status, res := env.call(http.MethodGet, "/api/payments/verify/"+link.Reference, buyer.Token, nil)
		require.Equal(t, http.StatusOK, status, res.Message)
		assert.Equal(t, domain.PaymentPending, decode[domain.Payment](t, res.Data).Status, gwStatus)

		_, res = env.call(http.MethodGet, "/api/orders/"+o.ID, buyer.Token, nil)
		got := decode[domain.Order](t, res.Data)
		assert.Equal(t, domain.PaymentPending, got.PaymentStatus, gwStatus)
		assert.Equal(t, domain.DeliveryPending, got.DeliveryStatus, gwStatus)
		prod, err := products.Get(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, prod.Stock, gwStatus)
	}

	// The buyer can still finish paying.
	env.gw.setStatus(link.Reference, "success")
	status, res := env.call(http.MethodGet, "/api/payments/verify/"+link.Reference, buyer.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, domain.PaymentSuccess, decode[domain.Payment](t, res.Data).Status)
}

func TestVerifyPayment_FailedVoidsAndRestocks(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 5)
	buyer := env.user("Buyer")
	o := env.checkout(buyer, map[string]int{p.ID: 2})

	_, res := env.call(http.MethodPost, "/api/payments/initialize", buyer.Token, map[string]any{"order_id": o.ID})
	link := decode[services.PaymentLink](t, res.Data)

	env.gw.setStatus(link.Reference, "failed")
	status, res := env.call(http.MethodGet, "/api/payments/verify/"+link.Reference, buyer.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, domain.PaymentFailed, decode[domain.Payment](t, res.Data).Status)

	_, res = env.call(http.MethodGet, "/api/orders/"+o.ID, buyer.Token, nil)
	got := decode[domain.Order](t, res.Data)
	assert.Equal(t, domain.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, domain.DeliveryCancelled, got.DeliveryStatus)
	prod, err := repos.NewProductRepo(env.db).Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, prod.Stock)
}

func TestDeliveryAndPayout(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 5)
	buyer := env.user("Buyer")
	walker := env.user("Walker", domain.RoleBuyer, domain.RoleWalker)
	rival := env.user("Rival", domain.RoleBuyer, domain.RoleWalker)

	unpaid := env.checkout(buyer, map[string]int{p.ID: 1})
	status, res := env.call(http.MethodPost, "/api/walkers/deliveries/"+unpaid.ID+"/accept", walker.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", res.errCode())

	o := env.checkout(buyer, map[string]int{p.ID: 2})
	env.pay(buyer, o)

	status, res = env.call(http.MethodGet, "/api/walkers/deliveries", walker.Token, nil)
	require.Equal(t, http.StatusOK, status)
	queue := decode[services.OrderPage](t, res.Data)
	require.Len(t, queue.Items, 1)
	assert.Equal(t, o.ID, queue.Items[0].ID)

	path := "/api/walkers/deliveries/" + o.ID
	status, res = env.call(http.MethodPost, path+"/accept", walker.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, domain.DeliveryAssigned, decode[domain.Order](t, res.Data).DeliveryStatus)

	status, res = env.call(http.MethodPost, path+"/accept", rival.Token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", res.errCode())

	status, _ = env.call(http.MethodPost, path+"/pickup", rival.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Deliver before pickup skips a step.
	status, _ = env.call(http.MethodPost, path+"/deliver", walker.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.call(http.MethodPost, "/api/orders/"+o.ID+"/confirm-delivery", buyer.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.call(http.MethodPost, path+"/pickup", walker.Token, nil)
	require.Equal(t, http.StatusOK, status)
	status, res = env.call(http.MethodPost, path+"/deliver", walker.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode[domain.Order](t, res.Data).DeliveredAt)

	// Nothing is withdrawable while the escrow is held.
	status, res = env.call(http.MethodGet, "/api/payouts/summary", seller.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.True(t, decode[domain.PayoutSummary](t, res.Data).Available.IsZero())

	status, res = env.call(http.MethodPost, "/api/orders/"+o.ID+"/confirm-delivery", buyer.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, domain.EscrowReleased, decode[domain.Order](t, res.Data).EscrowStatus)

	status, res = env.call(http.MethodGet, "/api/payouts/summary", seller.Token, nil)
	require.Equal(t, http.StatusOK, status)
	sum := decode[domain.PayoutSummary](t, res.Data)
	assert.Equal(t, "2000.00", sum.TotalEarned.StringFixed(2))
	assert.Equal(t, "100.00", sum.PlatformFee.StringFixed(2))
	assert.Equal(t, "1900.00", sum.Available.StringFixed(2))

	status, _ = env.call(http.MethodPost, "/api/payouts", seller.Token, map[string]any{"amount": 500})
	assert.Equal(t, http.StatusBadRequest, status, "bank details come first")

	status, res = env.call(http.MethodPut, "/api/payouts/bank", seller.Token, map[string]any{
		"bank_code": "058", "account_number": "0123456789", "account_name": "Ada Store",
	})
	require.Equal(t, http.StatusOK, status, res.Message)

	status, res = env.call(http.MethodPost, "/api/payouts", seller.Token, map[string]any{"amount": 5000})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INSUFFICIENT_BALANCE", res.errCode())

	status, res = env.call(http.MethodPost, "/api/payouts", seller.Token, map[string]any{"amount": 500})
	require.Equal(t, http.StatusCreated, status, res.Message)
	po := decode[domain.Payout](t, res.Data)
	assert.Equal(t, domain.PayoutProcessing, po.Status)
	assert.Equal(t, "TRF_test", po.TransferCode)

	_, res = env.call(http.MethodGet, "/api/payouts/summary", seller.Token, nil)
	sum = decode[domain.PayoutSummary](t, res.Data)
	assert.Equal(t, "500.00", sum.Pending.StringFixed(2))
	assert.Equal(t, "1400.00", sum.Available.StringFixed(2))

	// The transfer webhook settles the payout.
	body := []byte(`{"event":"transfer.success","data":{"reference":"` + po.Reference + `","transfer_code":"TRF_test"}}`)
	resp, _ := env.do(signedWebhook(body, payments.Sign(gatewaySecret, body)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, res = env.call(http.MethodGet, "/api/payouts/summary", seller.Token, nil)
	sum = decode[domain.PayoutSummary](t, res.Data)
	assert.Equal(t, "500.00", sum.PaidOut.StringFixed(2))
	assert.True(t, sum.Pending.IsZero())
	assert.Equal(t, "1400.00", sum.Available.StringFixed(2))
}

func TestPayout_ConcurrentRequestsCannotOverdraw(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Gadget Hub")
	p := env.product(shop.ID, "Desk Lamp", "1000", 5)
	buyer := env.user("Buyer")
	walker := env.user("Walker", domain.RoleBuyer, domain.RoleWalker)

	o := env.checkout(buyer, map[string]int{p.ID: 2})
	env.pay(buyer, o)
	path := "/api/walkers/deliveries/" + o.ID
	for _, step := range []string{"/accept", "/pickup", "/deliver"} {
		status, res := env.call(http.MethodPost, path+step, walker.Token, nil)
		require.Equal(t, http.StatusOK, status, res.Message)
	}
	status, res := env.call(http.MethodPost, "/api/orders/"+o.ID+"/confirm-delivery", buyer.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	status, res = env.call(http.MethodPut, "/api/payouts/bank", seller.Token, map[string]any{
		"bank_code": "058", "account_number": "0123456789", "account_name": "Ada Store",
	})
	require.Equal(t, http.StatusOK, status, res.Message)

	// 1900.00 available covers three withdrawals of 500.
	const attempts = 10
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := jsonRequest(http.MethodPost, "/api/payouts", map[string]any{"amount": 500})
			req.Header.Set("Authorization", "Bearer "+seller.Token)
			resp, err := env.app.Test(req, -1)
			if err != nil {
				return
			}
			_ = resp.Body.Close()
			codes[i] = resp.StatusCode
		}()
	}
	wg.Wait()

	created := 0
	for _, c := range codes {
		if c == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusBadRequest, c)
		}
	}
	assert.Equal(t, 3, created)

	_, res = env.call(http.MethodGet, "/api/payouts/summary", seller.Token, nil)
	sum := decode[domain.PayoutSummary](t, res.Data)
	assert.Equal(t, "1500.00", sum.Pending.StringFixed(2))
	assert.Equal(t, "400.00", sum.Available.StringFixed(2))
}
