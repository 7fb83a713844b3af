package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/domain"
	"campusmart/internal/events"
	"campusmart/internal/services"
)

func TestSellerStorefront_SlugsAndSingleStore(t *testing.T) {
	env := newTestEnv(t)
	ada := env.user("Ada", domain.RoleBuyer, domain.RoleSeller)
	bola := env.user("Bola", domain.RoleBuyer, domain.RoleSeller)

	status, res := env.call(http.MethodPost, "/api/sellers", ada.Token, map[string]any{"store_name": "Ada's Book Nook"})
	require.Equal(t, http.StatusCreated, status, res.Message)
	assert.Equal(t, "ada-s-book-nook", decode[domain.Seller](t, res.Data).Slug)

	status, res = env.call(http.MethodPost, "/api/sellers", bola.Token, map[string]any{"store_name": "Ada's Book Nook"})
	require.Equal(t, http.StatusCreated, status, res.Message)
	assert.Equal(t, "ada-s-book-nook-2", decode[domain.Seller](t, res.Data).Slug)

	status, _ = env.call(http.MethodPost, "/api/sellers", ada.Token, map[string]any{"store_name": "Another Shop"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.call(http.MethodGet, "/api/sellers/no-such-store", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProduct_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	body := map[string]any{"category_id": "cat-textbooks", "name": "Calculus Early Transcendentals", "price": 9000, "stock": 2}

	status, res := env.call(http.MethodPost, "/api/products", seller.Token, body)
	assert.Equal(t, http.StatusForbidden, status, "a storefront is required first")
	assert.Equal(t, "FORBIDDEN", res.errCode())

	env.store(seller, "Book Nook")
	status, res = env.call(http.MethodPost, "/api/products", seller.Token, body)
	require.Equal(t, http.StatusCreated, status, res.Message)
	p := decode[domain.Product](t, res.Data)
	assert.True(t, p.Active)
	assert.Equal(t, "9000.00", p.Price.StringFixed(2))

	bad := map[string]any{"category_id": "cat-textbooks", "name": "Free book", "price": 0, "stock": 1}
	status, _ = env.call(http.MethodPost, "/api/products", seller.Token, bad)
	assert.Equal(t, http.StatusBadRequest, status)
	bad = map[string]any{"category_id": "cat-nope", "name": "Lost book", "price": 10, "stock": 1}
	status, _ = env.call(http.MethodPost, "/api/products", seller.Token, bad)
	assert.Equal(t, http.StatusBadRequest, status)

	list := func(query string) services.ProductPage {
		status, res := env.call(http.MethodGet, "/api/products"+query, "", nil)
		require.Equal(t, http.StatusOK, status, res.Message)
		return decode[services.ProductPage](t, res.Data)
	}
	assert.Equal(t, 1, list("?category=books-stationery").Total, "parent category includes subcategories")
	assert.Zero(t, list("?category=electronics").Total)
	assert.Equal(t, 1, list("?q=calculus").Total)
	assert.Zero(t, list("?min_price=10000").Total)
	assert.Equal(t, 1, list("?max_price=9000&sort=price_asc").Total)

	status, _ = env.call(http.MethodGet, "/api/products?sort=cheapest", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.call(http.MethodGet, "/api/products?min_price=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, res = env.call(http.MethodGet, "/api/products/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[domain.Product](t, res.Data).Views)

	rival := env.user("Rival", domain.RoleBuyer, domain.RoleSeller)
	env.store(rival, "Rival Books")
	status, _ = env.call(http.MethodPatch, "/api/products/"+p.ID, rival.Token, map[string]any{"price": 1})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.call(http.MethodDelete, "/api/products/"+p.ID, rival.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Deactivated products leave the catalog but stay visible to their owner.
	status, res = env.call(http.MethodPatch, "/api/products/"+p.ID, seller.Token, map[string]any{"active": false, "stock": 5})
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, 5, decode[domain.Product](t, res.Data).Stock)
	assert.Zero(t, list("").Total)
	status, _ = env.call(http.MethodGet, "/api/products/"+p.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.call(http.MethodGet, "/api/products/"+p.ID, seller.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, res = env.call(http.MethodGet, "/api/sellers/me/products", seller.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[services.ProductPage](t, res.Data).Total)

	status, _ = env.call(http.MethodDelete, "/api/products/"+p.ID, seller.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.call(http.MethodGet, "/api/products/"+p.ID, seller.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCategories_AdminTree(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user("Admin", domain.RoleBuyer, domain.RoleAdmin)

	status, res := env.call(http.MethodPost, "/api/categories", admin.Token, map[string]any{"name": "Dorm Gear"})
	require.Equal(t, http.StatusCreated, status, res.Message)
	parent := decode[domain.Category](t, res.Data)
	assert.Equal(t, "dorm-gear", parent.Slug)

	status, res = env.call(http.MethodPost, "/api/categories", admin.Token, map[string]any{"name": "Bedding", "parent_id": parent.ID})
	require.Equal(t, http.StatusCreated, status, res.Message)
	child := decode[domain.Category](t, res.Data)

	status, _ = env.call(http.MethodPost, "/api/categories", admin.Token, map[string]any{"name": "Pillows", "parent_id": child.ID})
	assert.Equal(t, http.StatusBadRequest, status, "the tree is one level deep")
	status, _ = env.call(http.MethodPost, "/api/categories", admin.Token, map[string]any{"name": "Dorm Gear"})
	assert.Equal(t, http.StatusConflict, status)

	status, res = env.call(http.MethodGet, "/api/categories/dorm-gear", "", nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[domain.Category](t, res.Data)
	require.Len(t, got.Subcategories, 1)
	assert.Equal(t, "bedding", got.Subcategories[0].Slug)

	status, res = env.call(http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	for _, c := range decode[[]domain.Category](t, res.Data) {
		assert.Empty(t, c.ParentID, "only top-level categories at the root")
	}

	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	env.product(env.store(seller, "Gadgets").ID, "Laptop stand", "4000", 1)
	status, _ = env.call(http.MethodDelete, "/api/categories/cat-electronics", admin.Token, nil)
	assert.Equal(t, http.StatusConflict, status, "a subcategory still has products")

	status, _ = env.call(http.MethodDelete, "/api/categories/"+parent.ID, seller.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.call(http.MethodDelete, "/api/categories/"+parent.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.call(http.MethodGet, "/api/categories/bedding", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCategories_MoveKeepsOneLevel(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user("Admin", domain.RoleBuyer, domain.RoleAdmin)

	status, res := env.call(http.MethodPatch, "/api/categories/cat-electronics", admin.Token, map[string]any{"parent_id": "cat-books"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", res.errCode())

	status, res = env.call(http.MethodGet, "/api/categories/electronics", "", nil)
	require.Equal(t, http.StatusOK, status)
	electronics := decode[domain.Category](t, res.Data)
	assert.Empty(t, electronics.ParentID)
	assert.Len(t, electronics.Subcategories, 2)

	// A leaf can still move between parents.
	status, res = env.call(http.MethodPatch, "/api/categories/cat-laptops", admin.Token, map[string]any{"parent_id": "cat-books"})
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, "cat-books", decode[domain.Category](t, res.Data).ParentID)

	status, res = env.call(http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	total := 0
	for _, c := range decode[[]domain.Category](t, res.Data) {
		total += 1 + len(c.Subcategories)
	}
	assert.Equal(t, 9, total, "every category is reachable from the tree")
}

func TestListings_FiltersAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	landlord := env.user("Landlord", domain.RoleBuyer, domain.RoleSeller)

	status, res := env.call(http.MethodPost, "/api/listings", landlord.Token, map[string]any{
		"title": "Two-bed flat near North Gate", "address": "12 North Gate Rd", "rent": 150000,
		"rent_period": "semester", "bedrooms": 2, "bathrooms": 1, "furnished": true, "amenities": []string{"wifi"},
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	l := decode[domain.Listing](t, res.Data)
	assert.True(t, l.Available)

	status, _ = env.call(http.MethodPost, "/api/listings", landlord.Token, map[string]any{
		"title": "Room", "address": "Hall 1", "rent": 1000, "rent_period": "weekly",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	list := func(query string) int {
		status, res := env.call(http.MethodGet, "/api/listings"+query, "", nil)
		require.Equal(t, http.StatusOK, status, res.Message)
		return decode[services.ListingPage](t, res.Data).Total
	}
	assert.Equal(t, 1, list("?q=north&furnished=true"))
	assert.Zero(t, list("?max_rent=100000"))
	assert.Zero(t, list("?bedrooms=3"))
	status, _ = env.call(http.MethodGet, "/api/listings?furnished=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	other := env.user("Other", domain.RoleBuyer, domain.RoleSeller)
	status, _ = env.call(http.MethodPatch, "/api/listings/"+l.ID, other.Token, map[string]any{"available": false})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.call(http.MethodPatch, "/api/listings/"+l.ID, landlord.Token, map[string]any{"available": false})
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, list("?available=true"))

	admin := env.user("Admin", domain.RoleBuyer, domain.RoleAdmin)
	status, _ = env.call(http.MethodDelete, "/api/listings/"+l.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	env.product(env.store(seller, "Calculus Corner").ID, "Calculus workbook", "2500", 4)

	status, res := env.call(http.MethodGet, "/api/search?q=calculus", "", nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	out := decode[services.SearchResults](t, res.Data)
	assert.Len(t, out.Products, 1)
	assert.Len(t, out.Sellers, 1)
	assert.Empty(t, out.Listings)

	status, _ = env.call(http.MethodGet, "/api/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.call(http.MethodGet, "/api/search?q=%3Cscript%3E", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWalkerApplication_Review(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user("Admin", domain.RoleBuyer, domain.RoleAdmin)
	student := env.user("Runner")

	apply := map[string]any{"full_name": "Runner Okafor", "phone": "+234 801 234 5678", "student_id": "ENG-19-001", "vehicle": "bicycle"}
	status, res := env.call(http.MethodPost, "/api/walkers/apply", student.Token, apply)
	require.Equal(t, http.StatusCreated, status, res.Message)
	app := decode[domain.Walker](t, res.Data)
	assert.Equal(t, domain.WalkerPending, app.Status)

	status, _ = env.call(http.MethodPost, "/api/walkers/apply", student.Token, apply)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.call(http.MethodGet, "/api/walkers/deliveries", student.Token, nil)
	assert.Equal(t, http.StatusForbidden, status, "pending applicants cannot see deliveries")

	status, res = env.call(http.MethodGet, "/api/admin/walkers?status=pending", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]domain.Walker](t, res.Data), 1)

	status, res = env.call(http.MethodPost, "/api/admin/walkers/"+app.ID+"/approve", admin.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Contains(t, env.events.Types(), events.WalkerApproved)

	status, res = env.call(http.MethodPost, "/api/admin/walkers/"+app.ID+"/reject", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", res.errCode())

	// The same token now carries the walker role.
	status, _ = env.call(http.MethodGet, "/api/walkers/deliveries", student.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, res = env.call(http.MethodGet, "/api/walkers/me", student.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.WalkerApproved, decode[domain.Walker](t, res.Data).Status)
}

func TestSellerDashboard(t *testing.T) {
	env := newTestEnv(t)
	seller := env.user("Seller", domain.RoleBuyer, domain.RoleSeller)
	shop := env.store(seller, "Lamp Shop")
	lamp := env.product(shop.ID, "Desk lamp", "1500", 5)
	buyer := env.user("Buyer")

	o := env.checkout(buyer, map[string]int{lamp.ID: 2})
	env.pay(buyer, o)

	status, res := env.call(http.MethodGet, "/api/sellers/me/dashboard", seller.Token, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	d := decode[services.Dashboard](t, res.Data)
	assert.Equal(t, 1, d.ProductCount)
	assert.Equal(t, 1, d.OrderCount)
	assert.Equal(t, "3000.00", d.Revenue.StringFixed(2))
	require.Len(t, d.RecentOrders, 1)
	assert.Len(t, d.TopProducts, 1)

	status, res = env.call(http.MethodGet, "/api/admin/stats", env.user("Admin", domain.RoleAdmin).Token, nil)
	require.Equal(t, http.StatusOK, status)
	st := decode[services.Stats](t, res.Data)
	assert.Equal(t, "3000.00", st.GrossRevenue.StringFixed(2))
}
