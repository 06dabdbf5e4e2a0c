package converter

import (
	"testing"
	"time"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductToEntityKeepsScale(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("MSK", 3*3600))

	p, err := ProductToEntity(&ProductModel{ID: 1, CategoryID: 2, Name: "Margherita", Price: "10.50", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	assert.Equal(t, "10.50", p.Price.StringFixed(2))
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
}

func TestOrderToEntity(t *testing.T) {
	o, err := OrderToEntity(&OrderModel{ID: 3, Status: "approved", TotalPrice: "25.00"})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusApproved, o.Status)
	assert.True(t, o.TotalPrice.Equal(o.TotalPrice.Round(2)))
	assert.NotNil(t, o.Lines)
}

func TestBrokenNumeric(t *testing.T) {
	_, err := OrderLineToEntity(&OrderLineModel{UnitPrice: "ten"})
	assert.Error(t, err)
}
