package domain

import (
	"testing"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		current   OrderStatus
		requested OrderStatus
		wantErr   error
	}{
		{OrderStatusOpen, OrderStatusOpen, e.ErrStatusUpToDate},
		{OrderStatusOpen, OrderStatusApproved, nil},
		{OrderStatusOpen, OrderStatusCompleted, nil},
		{OrderStatusOpen, OrderStatusCancelled, nil},

		{OrderStatusApproved, OrderStatusOpen, e.ErrBackToOpen},
		{OrderStatusApproved, OrderStatusApproved, e.ErrStatusUpToDate},
		{OrderStatusApproved, OrderStatusCompleted, nil},
		{OrderStatusApproved, OrderStatusCancelled, nil},

		{OrderStatusCompleted, OrderStatusOpen, e.ErrBackToOpen},
		{OrderStatusCompleted, OrderStatusApproved, e.ErrCompletedToApproved},
		{OrderStatusCompleted, OrderStatusCompleted, e.ErrStatusUpToDate},
		{OrderStatusCompleted, OrderStatusCancelled, nil},

		{OrderStatusCancelled, OrderStatusOpen, e.ErrCancelledOrder},
		{OrderStatusCancelled, OrderStatusApproved, e.ErrCancelledOrder},
		{OrderStatusCancelled, OrderStatusCompleted, e.ErrCancelledOrder},
		{OrderStatusCancelled, OrderStatusCancelled, e.ErrStatusUpToDate},
	}

	require.Len(t, tests, len(OrderStatuses)*len(OrderStatuses))

	for _, tt := range tests {
		t.Run(string(tt.current)+"->"+string(tt.requested), func(t *testing.T) {
			err := Transition(tt.current, tt.requested)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, e.IsConflict(err))
		})
	}
}

func TestChangeStatusLeavesOrderOnRejection(t *testing.T) {
	o := NewOrder([]OrderLine{{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")}})
	o.Status = OrderStatusCancelled

	err := o.ChangeStatus(OrderStatusCompleted)
	require.ErrorIs(t, err, e.ErrCancelledOrder)
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.True(t, decimal.RequireFromString("20").Equal(o.TotalPrice))
}

func TestNewOrderTotal(t *testing.T) {
	lines := []OrderLine{
		{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")},
		{ProductID: 2, Quantity: 7, UnitPrice: decimal.RequireFromString("19.99")},
		{ProductID: 3, Quantity: 1, UnitPrice: decimal.Zero},
	}

	o := NewOrder(lines)

	assert.Equal(t, OrderStatusOpen, o.Status)
	assert.Equal(t, "140.23", o.TotalPrice.StringFixed(2))
	assert.True(t, decimal.RequireFromString("140.23").Equal(o.TotalPrice))
}

func TestParseOrderStatus(t *testing.T) {
	st, ok := ParseOrderStatus("approved")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusApproved, st)

	_, ok = ParseOrderStatus("Approved")
	assert.False(t, ok)
}
