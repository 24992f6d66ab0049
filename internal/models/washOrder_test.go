package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWashOrder_IsLate(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dateEnd  time.Time
		status   OrderStatus
		expected bool
	}{
		{
			name:     "end passed and not completed",
			dateEnd:  now.Add(-time.Minute),
			status:   OrderStatusPickedUp,
			expected: true,
		},
		{
			name:     "end passed but completed",
			dateEnd:  now.Add(-time.Hour),
			status:   OrderStatusCompleted,
			expected: false,
		},
		{
			name:     "end in the future",
			dateEnd:  now.Add(time.Hour),
			status:   OrderStatusPaid,
			expected: false,
		},
		{
			name:     "end exactly now",
			dateEnd:  now,
			status:   OrderStatusPaid,
			expected: false,
		},
		{
			name:     "canceled order past its end",
			dateEnd:  now.Add(-24 * time.Hour),
			status:   OrderStatusCanceledByClient,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &WashOrder{DateEnd: tt.dateEnd, Status: tt.status}
			assert.Equal(t, tt.expected, order.IsLate(now))
		})
	}
}

func TestWashOrder_IsLateIgnoresUpstreamFlag(t *testing.T) {
	now := time.Now()
	upstream := false
	order := &WashOrder{
		DateEnd: now.Add(-time.Hour),
		Status:  OrderStatusPaid,
		Late:    &upstream,
	}

	assert.True(t, order.IsLate(now))
}

func TestOrderStatus_Misspelling(t *testing.T) {
	status := OrderStatusCanceledByClientMisspelled

	assert.True(t, status.IsValid())
	assert.True(t, status.IsCanceled())
	assert.True(t, status.IsTerminal())
	assert.True(t, status.IsMisspelled())
	assert.False(t, OrderStatusCanceledByClient.IsMisspelled())
	assert.NotEqual(t, OrderStatusCanceledByClient, status)
	assert.Equal(t, OrderStatusCanceledByClient.Label(), status.Label())
}

func TestOrderStatus_Label(t *testing.T) {
	assert.Equal(t, "Payée", OrderStatusPaid.Label())
	assert.Equal(t, "something_new", OrderStatus("something_new").Label())
	assert.False(t, OrderStatus("something_new").IsValid())
}

func TestOrderAction_IsForward(t *testing.T) {
	assert.True(t, ActionAccept.IsForward())
	assert.True(t, ActionConfirmReceipt.IsForward())
	assert.False(t, ActionCancel.IsForward())
	assert.False(t, OrderAction("dance").IsForward())
}

func TestWashOrder_DecodesUpstreamPayload(t *testing.T) {
	payload := `{
		"id": "ord-1",
		"userId": "u-1",
		"washerId": "w-1",
		"status": "paid",
		"price": 24.5,
		"deplacementClient": true,
		"dateStart": "2024-01-10T09:00:00Z",
		"dateEnd": "2024-01-10T13:00:00Z",
		"User": {"id": "u-1", "email": "client@example.com", "firstName": "Ana"},
		"Washer": {"id": "w-1", "email": "washer@example.com", "lastName": "Diallo"}
	}`

	var order WashOrder
	require.NoError(t, json.Unmarshal([]byte(payload), &order))

	assert.Equal(t, OrderStatusPaid, order.Status)
	assert.True(t, order.Price.Equal(decimal.RequireFromString("24.5")))
	assert.Equal(t, "24.50 €", order.FormattedPrice())
	assert.True(t, order.DeplacementClient)
	assert.Equal(t, "Ana", order.Counterparty(RoleWasher).FullName())
	assert.Equal(t, "Diallo", order.Counterparty(RoleClient).FullName())
	assert.True(t, order.IsUpcoming())
}

func TestPageMeta_HasMore(t *testing.T) {
	assert.True(t, PageMeta{Page: 1, TotalPages: 3}.HasMore())
	assert.False(t, PageMeta{Page: 3, TotalPages: 3}.HasMore())
	assert.False(t, PageMeta{}.HasMore())
}
