package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"campusmart/internal/auth"
	"campusmart/internal/config"
	"campusmart/internal/domain"
	"campusmart/internal/events"
	"campusmart/internal/http/handlers"
	"campusmart/internal/payments"
	"campusmart/internal/repos"
	"campusmart/internal/storage"
)

const (
	gatewaySecret = "sk_test"
	testPassword  = "Campus#2025"
)

// fakeMailer keeps the last code and reset token per address.
type fakeMailer struct {
	mu     sync.Mutex
	codes  map[string]string
	resets map[string]string
}

func (m *fakeMailer) SendOTP(_ context.Context, to, _ string, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, _ string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[to] = token
	return nil
}

func (m *fakeMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

func (m *fakeMailer) reset(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[to]
}

// fakeGateway answers like the hosted payment API. Verify reports every
// initialized reference as paid in full unless statuses says otherwise.
type fakeGateway struct {
	mu        sync.Mutex
	amounts   map[string]int64
	statuses  map[string]string
	transfers int
}

func (g *fakeGateway) setStatus(ref, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[ref] = status
}

func (g *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transaction/initialize", func(w http.ResponseWriter, r *http.Request) {
		var in payments.InitializeRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		g.mu.Lock()
		g.amounts[in.Reference] = in.Amount
		g.mu.Unlock()
		writeGateway(w, map[string]any{
			"authorization_url": "https://checkout.test/" + in.Reference,
			"access_code":       "ac_" + in.Reference,
			"reference":         in.Reference,
		})
	})
	mux.HandleFunc("GET /transaction/verify/{ref}", func(w http.ResponseWriter, r *http.Request) {
		ref := r.PathValue("ref")
		g.mu.Lock()
		amount, ok := g.amounts[ref]
		txStatus := g.statuses[ref]
		g.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
			return
		}
		if txStatus == "" {
			txStatus = "success"
		}
		writeGateway(w, map[string]any{"id": 1, "status": txStatus, "reference": ref, "amount": amount, "currency": "NGN"})
	})
	mux.HandleFunc("POST /transferrecipient", func(w http.ResponseWriter, r *http.Request) {
		writeGateway(w, map[string]any{
			"recipient_code": "RCP_test",
			"details":        map[string]string{"account_name": "ADA STORE", "bank_name": "Test Bank"},
		})
	})
	mux.HandleFunc("POST /transfer", func(w http.ResponseWriter, r *http.Request) {
		var in payments.TransferRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		g.mu.Lock()
		g.transfers++
		g.mu.Unlock()
		writeGateway(w, map[string]any{"transfer_code": "TRF_test", "reference": in.Reference, "status": "pending"})
	})
	return mux
}

func writeGateway(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": true, "message": "ok", "data": data})
}

type testEnv struct {
	t      *testing.T
	app    *fiber.App
	deps   *handlers.Deps
	db     *sqlx.DB
	mail   *fakeMailer
	gw     *fakeGateway
	events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gw := &fakeGateway{amounts: map[string]int64{}, statuses: map[string]string{}}
	srv := httptest.NewServer(gw.handler())
	t.Cleanup(srv.Close)

	media := t.TempDir()
	store, err := storage.NewDisk(media, "http://localhost/media")
	require.NoError(t, err)

	cfg := config.Config{
		BaseURL:        "http://localhost",
		MediaDir:       media,
		CORSOrigins:    "*",
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		MaxUploadMB:    1,
		Currency:       "NGN",
		PlatformFeePct: "5",
	}
	env := &testEnv{
		t:      t,
		db:     db,
		gw:     gw,
		mail:   &fakeMailer{codes: map[string]string{}, resets: map[string]string{}},
		events: &events.Recorder{},
	}
	env.app, env.deps, err = handlers.NewApp(db, cfg, handlers.Options{
		Mailer:     env.mail,
		Gateway:    payments.NewClient(srv.URL, gatewaySecret),
		Events:     env.events,
		Store:      store,
		BcryptCost: bcrypt.MinCost,
		AccessLog:  io.Discard,
	})
	require.NoError(t, err)
	return env
}

// envelope mirrors handlers.Response with raw data for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

func (e envelope) errCode() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

func (env *testEnv) do(req *http.Request) (*http.Response, envelope) {
	env.t.Helper()
	resp, err := env.app.Test(req, -1)
	require.NoError(env.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(env.t, err)
	_ = resp.Body.Close()
	var out envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(env.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

// call sends body as JSON with an optional bearer token.
func (env *testEnv) call(method, path, token string, body any) (int, envelope) {
	env.t.Helper()
	req := jsonRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, out := env.do(req)
	return resp.StatusCode, out
}

func jsonRequest(method, path string, body any) *http.Request {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// ---------- fixtures ----------

type testUser struct {
	ID    string
	Email string
	Token string
}

func (env *testEnv) user(name string, roles ...string) testUser {
	env.t.Helper()
	if len(roles) == 0 {
		roles = []string{domain.RoleBuyer}
	}
	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(env.t, err)
	now := domain.Now()
	u := &domain.User{
		ID:         uuid.NewString(),
		Email:      strings.ToLower(name) + "@campus.test",
		Name:       name,
		Hash:       hash,
		RolesCSV:   domain.JoinRoles(roles),
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(env.t, env.deps.Users.Create(context.Background(), u))
	tok, err := env.deps.Auth.Tokens.Issue(u.ID, roles)
	require.NoError(env.t, err)
	return testUser{ID: u.ID, Email: u.Email, Token: tok}
}

func (env *testEnv) store(owner testUser, name string) *domain.Seller {
	env.t.Helper()
	now := domain.Now()
	s := &domain.Seller{
		ID:        uuid.NewString(),
		UserID:    owner.ID,
		StoreName: name,
		Slug:      strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(env.t, repos.NewSellerRepo(env.db).Create(context.Background(), s))
	return s
}

func (env *testEnv) product(sellerID, name, price string, stock int) *domain.Product {
	env.t.Helper()
	now := domain.Now()
	p := &domain.Product{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		CategoryID:  "cat-laptops",
		Name:        name,
		Description: name + " in good condition",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Images:      domain.StringList{},
		Specs:       domain.Attributes{},
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(env.t, repos.NewProductRepo(env.db).Create(context.Background(), p))
	return p
}

// checkout fills the buyer's cart and places the order.
func (env *testEnv) checkout(buyer testUser, lines map[string]int) domain.Order {
	env.t.Helper()
	for id, qty := range lines {
		status, res := env.call(http.MethodPost, "/api/cart", buyer.Token, map[string]any{"product_id": id, "qty": qty})
		require.Equal(env.t, http.StatusOK, status, res.Message)
	}
	status, res := env.call(http.MethodPost, "/api/orders/checkout", buyer.Token, map[string]any{"delivery_address": "Hall 3, Room 12"})
	require.Equal(env.t, http.StatusCreated, status, res.Message)
	return decode[domain.Order](env.t, res.Data)
}

// pay initializes a payment and delivers a signed charge.success webhook.
func (env *testEnv) pay(buyer testUser, o domain.Order) string {
	env.t.Helper()
	status, res := env.call(http.MethodPost, "/api/payments/initialize", buyer.Token, map[string]any{"order_id": o.ID})
	require.Equal(env.t, http.StatusOK, status, res.Message)
	link := decode[struct {
		Reference string `json:"reference"`
	}](env.t, res.Data)

	body := webhookBody(payments.EventChargeSuccess, link.Reference, payments.ToMinor(o.Total))
	resp, _ := env.do(signedWebhook(body, payments.Sign(gatewaySecret, body)))
	require.Equal(env.t, http.StatusOK, resp.StatusCode)
	return link.Reference
}

func webhookBody(event, reference string, amount int64) []byte {
	b, _ := json.Marshal(map[string]any{
		"event": event,
		"data":  map[string]any{"reference": reference, "amount": amount, "status": "success"},
	})
	return b
}

func signedWebhook(body []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("x-paystack-signature", signature)
	}
	return req
}
