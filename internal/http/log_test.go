package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/domain"
	applog "campusmart/internal/log"
)

type logEntry struct {
	Level  string         `json:"level"`
	Msg    string         `json:"msg"`
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	ReqID  string         `json:"req_id"`
	Status int            `json:"status"`
	Fields map[string]any `json:"fields"`
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// captureLogs routes the process logger into a buffer while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var out lockedBuffer
	require.NoError(t, applog.Setup("debug", &out))
	defer func() { _ = applog.Setup("info", os.Stdout) }()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(out.buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func TestLog_FailedLoginIsSecurityEvent(t *testing.T) {
	env := newTestEnv(t)
	u := env.user("Ada")

	entries := captureLogs(t, func() {
		status, _ := env.call(http.MethodPost, "/api/auth/login", "", map[string]any{"email": u.Email, "password": "Wrong#2025"})
		require.Equal(t, http.StatusUnauthorized, status)
	})
	e, ok := findAction(entries, "auth.login.fail")
	require.True(t, ok, "no auth.login.fail entry in %v", entries)
	assert.Equal(t, "security", e.Kind)
	assert.Equal(t, "WARN", e.Level)
	assert.Equal(t, "INVALID_CREDENTIALS", e.Fields["reason"])
	assert.NotEmpty(t, e.ReqID)
	_, leaked := e.Fields["password"]
	assert.False(t, leaked)
}

func TestLog_AccessDeniedAndAdminAudit(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.user("Buyer")
	admin := env.user("Admin", domain.RoleBuyer, domain.RoleAdmin)

	entries := captureLogs(t, func() {
		env.call(http.MethodGet, "/api/admin/users", buyer.Token, nil)
		env.call(http.MethodPatch, "/api/admin/users/"+buyer.ID+"/roles", admin.Token, map[string]any{"roles": []string{"buyer", "seller"}})
		env.call(http.MethodGet, "/api/cart", "not-a-jwt", nil)
	})

	denied, ok := findAction(entries, "access.denied.role")
	require.True(t, ok)
	assert.Equal(t, buyer.ID, denied.UserID)

	audit, ok := findAction(entries, "admin.user.roles")
	require.True(t, ok)
	assert.Equal(t, "audit", audit.Kind)
	assert.Equal(t, admin.ID, audit.UserID)
	assert.Equal(t, buyer.ID, audit.Fields["target_id"])

	_, ok = findAction(entries, "auth.token.invalid")
	assert.True(t, ok)
}
