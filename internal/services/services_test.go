package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/repos"
	"campusmart/internal/services"
)

func TestWithTimeout(t *testing.T) {
	ctx := context.Background()

	v, err := services.WithTimeout(ctx, time.Second, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = services.WithTimeout(ctx, 20*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return 1, nil
	})
	assert.True(t, errors.Is(err, apperr.ErrTimeout))
}

func newUser(t *testing.T, users *repos.UserRepo, name string) string {
	t.Helper()
	now := domain.Now()
	u := &domain.User{
		ID: uuid.NewString(), Email: name + "@campus.test", Name: name, Hash: "x",
		RolesCSV: domain.RoleBuyer, IsVerified: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u.ID
}

func TestCheckout_LastUnitGoesToOneBuyer(t *testing.T) {
	ctx := context.Background()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repos.NewUserRepo(db)
	sellers := repos.NewSellerRepo(db)
	prods := repos.NewProductRepo(db)
	carts := repos.NewCartRepo(db)
	cart := services.NewCartService(carts, prods)
	orders := services.NewOrderService(carts, repos.NewOrderRepo(db), sellers, nil, nil)

	owner := newUser(t, users, "owner")
	now := domain.Now()
	shop := &domain.Seller{ID: uuid.NewString(), UserID: owner, StoreName: "Lamp Shop", Slug: "lamp-shop", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, sellers.Create(ctx, shop))
	p := &domain.Product{
		ID: uuid.NewString(), SellerID: shop.ID, CategoryID: "cat-laptops", Name: "Desk lamp",
		Price: decimal.NewFromInt(1500), Stock: 1, Images: domain.StringList{}, Specs: domain.Attributes{},
		Active: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, prods.Create(ctx, p))

	first := newUser(t, users, "first")
	second := newUser(t, users, "second")
	for _, id := range []string{first, second} {
		_, err := cart.Add(ctx, id, services.AddToCartInput{ProductID: p.ID, Qty: 1})
		require.NoError(t, err)
	}

	in := services.CheckoutInput{DeliveryAddress: "Hall 3, Room 12"}
	o, err := orders.Checkout(ctx, first, in)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", o.Total.StringFixed(2))

	_, err = orders.Checkout(ctx, second, in)
	assert.True(t, errors.Is(err, apperr.ErrInsufficientStock))

	// The losing buyer keeps their cart.
	view, err := cart.View(ctx, second)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	left, err := prods.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, left.Stock)

	// An order left unpaid past the cutoff is voided and its stock returned.
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	n, err := orders.AbandonUnpaid(ctx, future)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	voided, err := orders.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, voided.PaymentStatus)
	assert.Equal(t, domain.DeliveryCancelled, voided.DeliveryStatus)
	left, err = prods.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, left.Stock)

	n, err = orders.AbandonUnpaid(ctx, future)
	require.NoError(t, err)
	assert.Zero(t, n)
}
