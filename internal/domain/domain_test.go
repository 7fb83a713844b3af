package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: 20}, NewPage(0, 0))
	assert.Equal(t, Page{Page: 3, Limit: 100}, NewPage(3, 500))
	assert.Equal(t, 40, NewPage(3, 20).Offset())
}

func TestRoles(t *testing.T) {
	u := &User{RolesCSV: JoinRoles([]string{RoleBuyer, RoleSeller, RoleBuyer})}
	assert.True(t, u.HasRole(RoleSeller))
	assert.False(t, u.HasRole(RoleAdmin))
	assert.Equal(t, []string{RoleBuyer, RoleSeller}, u.Roles())
	assert.False(t, ValidRole("root"))
}

func TestConversationID_IsSymmetric(t *testing.T) {
	assert.Equal(t, ConversationID("a", "b"), ConversationID("b", "a"))
}

func TestStringList_Scan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, l)
	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestSubtotal_UsesCurrentPrice(t *testing.T) {
	it := CartItem{Qty: 3, PriceAtAdd: decimal.NewFromInt(100), Price: decimal.RequireFromString("120.50")}
	assert.Equal(t, "361.50", it.Subtotal().StringFixed(2))
}

func TestAmountsMarshalAsNumbers(t *testing.T) {
	b, err := json.Marshal(Payout{Amount: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"amount":12.5`)
}
