package validate

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusmart/internal/apperr"
)

type signup struct {
	Name     string          `json:"name" validate:"required,min=2"`
	Password string          `json:"password" validate:"required,password"`
	Phone    string          `json:"phone" validate:"omitempty,phone"`
	Ref      string          `json:"ref" validate:"omitempty,rid"`
	Price    decimal.Decimal `json:"price" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	ok := signup{Name: "Ada", Password: "Campus#2025", Phone: "+234 801 234 5678", Ref: "cat-books", Price: decimal.NewFromInt(10)}
	require.NoError(t, Struct(ok))

	cases := map[string]struct {
		mutate func(*signup)
		field  string
	}{
		"name":     {func(s *signup) { s.Name = "" }, "signup.name"},
		"password": {func(s *signup) { s.Password = "password1" }, "signup.password"},
		"phone":    {func(s *signup) { s.Phone = "call me" }, "signup.phone"},
		"ref":      {func(s *signup) { s.Ref = "../etc" }, "signup.ref"},
		"price":    {func(s *signup) { s.Price = decimal.Zero }, "signup.price"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := ok
			tc.mutate(&in)
			err := Struct(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrValidation))
			e, _ := apperr.As(err)
			assert.Equal(t, tc.field, e.Details)
		})
	}
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("Campus#2025"))
	assert.False(t, Password("Cam#25"), "too short")
	assert.False(t, Password("campus#2025"), "no upper")
	assert.False(t, Password("Campus2025"), "no symbol")
	assert.False(t, Password("Campus 2025"), "space is not a symbol")
}

func TestHelpers(t *testing.T) {
	email, ok := Email("  Ada@Campus.TEST ")
	assert.True(t, ok)
	assert.Equal(t, "ada@campus.test", email)
	_, ok = Email("ada@")
	assert.False(t, ok)

	_, ok = OTP("12345")
	assert.False(t, ok)
	code, ok := OTP(" 123456 ")
	assert.True(t, ok)
	assert.Equal(t, "123456", code)

	_, ok = Q("<script>")
	assert.False(t, ok)
	q, ok := Q("  used laptop ")
	assert.True(t, ok)
	assert.Equal(t, "used laptop", q)

	assert.Equal(t, "ada-s-book-nook", Slug("  Ada's Book Nook!! "))
}
