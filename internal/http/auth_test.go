package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/domain"
)

func TestRegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)

	status, res := env.call(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Ada Obi", "email": "Ada@Campus.test", "password": testPassword, "role": "seller",
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	view := decode[domain.UserView](t, res.Data)
	assert.Equal(t, "ada@campus.test", view.Email)
	assert.ElementsMatch(t, []string{domain.RoleBuyer, domain.RoleSeller}, view.Roles)
	assert.False(t, view.IsVerified)

	// Unverified accounts cannot sign in.
	status, res = env.call(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@campus.test", "password": testPassword})
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, res.Success)

	code := env.mail.code("ada@campus.test")
	require.Len(t, code, 6)
	status, _ = env.call(http.MethodPost, "/api/auth/verify-otp", "", map[string]any{"email": "ada@campus.test", "otp": "000000x"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, res = env.call(http.MethodPost, "/api/auth/verify-otp", "", map[string]any{"email": "ada@campus.test", "otp": code})
	require.Equal(t, http.StatusOK, status, res.Message)

	req := jsonRequest(http.MethodPost, "/api/auth/login", map[string]any{"email": "ada@campus.test", "password": testPassword})
	resp, res := env.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login should set the token cookie")
	assert.True(t, cookie.HttpOnly)

	login := decode[struct {
		Token string          `json:"token"`
		User  domain.UserView `json:"user"`
	}](t, res.Data)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, cookie.Value, login.Token)

	status, res = env.call(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[domain.UserView](t, res.Data)
	assert.Equal(t, view.ID, me.ID)
	assert.True(t, me.IsVerified)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{"name": "Ada Obi", "email": "ada@campus.test", "password": testPassword}
	status, _ := env.call(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, status)

	status, res := env.call(http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "USER_ALREADY_EXISTS", res.errCode())
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]map[string]any{
		"missing name":   {"email": "x@campus.test", "password": testPassword},
		"weak password":  {"name": "Ada", "email": "x@campus.test", "password": "password"},
		"bad email":      {"name": "Ada", "email": "not-an-email", "password": testPassword},
		"admin not self": {"name": "Ada", "email": "x@campus.test", "password": testPassword, "role": "admin"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, res := env.call(http.MethodPost, "/api/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, res.Success)
			assert.Equal(t, http.StatusBadRequest, res.Code)
		})
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	u := env.user("Bola")
	status, res := env.call(http.MethodPost, "/api/auth/login", "", map[string]any{"email": u.Email, "password": "Wrong#2025"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", res.errCode())
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	u := env.user("Bola")
	for range 5 {
		status, _ := env.call(http.MethodPost, "/api/auth/login", "", map[string]any{"email": u.Email, "password": "Wrong#2025"})
		require.Equal(t, http.StatusUnauthorized, status)
	}
	status, res := env.call(http.MethodPost, "/api/auth/login", "", map[string]any{"email": u.Email, "password": testPassword})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "TOO_MANY_REQUESTS", res.errCode())
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	u := env.user("Chidi")

	status, _ := env.call(http.MethodPost, "/api/auth/forgot-password", "", map[string]any{"email": u.Email})
	require.Equal(t, http.StatusOK, status)
	// Unknown addresses get the same answer.
	status, _ = env.call(http.MethodPost, "/api/auth/forgot-password", "", map[string]any{"email": "ghost@campus.test"})
	require.Equal(t, http.StatusOK, status)

	token := env.mail.reset(u.Email)
	require.NotEmpty(t, token)

	status, _ = env.call(http.MethodPost, "/api/auth/reset-password", "", map[string]any{
		"email": u.Email, "token": "bogus", "password": "Fresh#2026x",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, res := env.call(http.MethodPost, "/api/auth/reset-password", "", map[string]any{
		"email": u.Email, "token": token, "password": "Fresh#2026x",
	})
	require.Equal(t, http.StatusOK, status, res.Message)

	status, _ = env.call(http.MethodPost, "/api/auth/login", "", map[string]any{"email": u.Email, "password": "Fresh#2026x"})
	assert.Equal(t, http.StatusOK, status)
}

func TestMe_RequiresToken(t *testing.T) {
	env := newTestEnv(t)
	status, res := env.call(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", res.errCode())

	status, _ = env.call(http.MethodGet, "/api/auth/me", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	u := env.user("Dayo")
	status, res := env.call(http.MethodPatch, "/api/users/me", u.Token, map[string]any{"name": "Dayo Ade", "phone": "+234 801 234 5678"})
	require.Equal(t, http.StatusOK, status, res.Message)
	view := decode[domain.UserView](t, res.Data)
	assert.Equal(t, "Dayo Ade", view.Name)
	assert.Equal(t, "+234 801 234 5678", view.Phone)

	status, _ = env.call(http.MethodPatch, "/api/users/me", u.Token, map[string]any{"phone": "call me"})
	assert.Equal(t, http.StatusBadRequest, status)
}
