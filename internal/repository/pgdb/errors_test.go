package pgdb

import (
	"errors"
	"testing"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(pgx.ErrNoRows, e.ErrOrderNotFound), e.ErrOrderNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: foreignKeyViolation}, nil), e.ErrReferencedEntity)
	assert.True(t, e.IsValidation(mapError(&pgconn.PgError{Code: uniqueViolation}, nil)))

	boom := errors.New("boom")
	assert.Equal(t, boom, mapError(boom, e.ErrOrderNotFound))
}

func TestOrderBy(t *testing.T) {
	clause, err := orderBy(productColumns, "price", true, "")
	require.NoError(t, err)
	assert.Equal(t, "ORDER BY price DESC, id ASC", clause)

	clause, err = orderBy(productColumns, "id", false, "page.")
	require.NoError(t, err)
	assert.Equal(t, "ORDER BY page.id ASC", clause)

	_, err = orderBy(productColumns, "price; DROP TABLE products", false, "")
	assert.True(t, e.IsValidation(err))
}
