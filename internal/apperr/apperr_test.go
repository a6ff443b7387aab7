package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrapped(t *testing.T) {
	base := Validation("invalid_amount", "amount must be positive")
	wrapped := fmt.Errorf("apply water: %w", base)

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, base))

	typed, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "invalid_amount", typed.Code)
}

func TestStorageUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("get daily record", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOfUntyped(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindNotFound:   http.StatusNotFound,
		KindLookup:     http.StatusBadGateway,
		KindStorage:    http.StatusServiceUnavailable,
		KindInternal:   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}
