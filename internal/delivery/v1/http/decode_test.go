package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeString(t *testing.T, body string) object {
	t.Helper()

	obj, err := decodeBody(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	require.NoError(t, err)
	return obj
}

func TestObjectFields(t *testing.T) {
	obj := decodeString(t, `{"name":"Pizza","id":12,"price":"10.5","amount":7.25,"empty":null}`)

	name, err := obj.String("name")
	require.NoError(t, err)
	assert.Equal(t, "Pizza", *name)

	id, err := obj.Int("id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), *id)

	price, err := obj.Decimal("price")
	require.NoError(t, err)
	assert.Equal(t, "10.50", price.StringFixed(2))

	amount, err := obj.Decimal("amount")
	require.NoError(t, err)
	assert.Equal(t, "7.25", amount.String())

	missing, err := obj.String("missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := obj.Int("empty")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestObjectTypeErrors(t *testing.T) {
	obj := decodeString(t, `{"name":["x"],"id":"12","price":true}`)

	_, err := obj.String("name")
	assert.True(t, e.IsValidation(err))

	_, err = obj.Int("id")
	var vErr *e.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "id", vErr.Field)

	_, err = obj.Decimal("price")
	assert.True(t, e.IsValidation(err))
}

func TestEmptyBodyIsEmptyObject(t *testing.T) {
	obj := decodeString(t, "  ")
	assert.Empty(t, obj)
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{err: e.Wrap("op", e.NewValidationError("name", "the name field is required")), code: http.StatusUnprocessableEntity, msg: "the name field is required"},
		{err: e.Wrap("op", e.ErrOrderNotFound), code: http.StatusNotFound, msg: "order not found"},
		{err: e.Wrap("op", e.ErrStatusUpToDate), code: http.StatusBadRequest, msg: "status already up to date"},
		{err: errors.New("dial tcp: connection refused"), code: http.StatusInternalServerError, msg: "something went wrong, try again later"},
	}

	for _, tt := range tests {
		code, msg := ToHTTPResponse(tt.err)
		assert.Equal(t, tt.code, code)
		assert.Equal(t, tt.msg, msg)
	}
}
