package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesCopies(t *testing.T) {
	err := ErrInsufficientStock.WithDetails("Desk Lamp")
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrCartEmpty))

	wrapped := errors.Wrap(NotFound("order"), "load order")
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestAs(t *testing.T) {
	e, ok := As(errors.Wrap(Conflict("taken"), "accept"))
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, e.Status)
	assert.Equal(t, "taken", e.Message)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestCopiesDoNotMutateSentinels(t *testing.T) {
	_ = ErrValidation.WithMessage("name is required").WithDetails("RegisterInput.name")
	assert.Equal(t, "invalid input", ErrValidation.Message)
	assert.Empty(t, ErrValidation.Details)
}
