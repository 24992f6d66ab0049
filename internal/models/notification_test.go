package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification_DecodeActions(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantTarget string
		wantOK     bool
	}{
		{
			name:       "array of actions",
			payload:    `{"id":"n1","actions":[{"type":"navigate","target":"/orders/42"}]}`,
			wantTarget: "/orders/42",
			wantOK:     true,
		},
		{
			name:       "actions encoded as a string",
			payload:    `{"id":"n1","actions":"[{\"type\":\"dismiss\"},{\"type\":\"navigate\",\"target\":\"/missions\"}]"}`,
			wantTarget: "/missions",
			wantOK:     true,
		},
		{
			name:    "null actions",
			payload: `{"id":"n1","actions":null}`,
		},
		{
			name:    "empty string actions",
			payload: `{"id":"n1","actions":""}`,
		},
		{
			name:    "navigate without target",
			payload: `{"id":"n1","actions":[{"type":"navigate"}]}`,
		},
		{
			name:    "garbage string",
			payload: `{"id":"n1","actions":"not json"}`,
		},
		{
			name:    "object instead of array",
			payload: `{"id":"n1","actions":{"type":"navigate","target":"/orders/42"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notification Notification
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &notification))
			assert.Equal(t, "n1", notification.ID)

			target, ok := notification.NavigationTarget()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestNotification_UnreadableActionsKeepThePage(t *testing.T) {
	payload := `[
		{"id":"n1","actions":"{broken"},
		{"id":"n2","actions":[{"type":"navigate","target":"/missions"}]}
	]`

	var notifications []Notification
	require.NoError(t, json.Unmarshal([]byte(payload), &notifications))
	require.Len(t, notifications, 2)
	assert.Empty(t, notifications[0].Actions)

	target, ok := notifications[1].NavigationTarget()
	assert.True(t, ok)
	assert.Equal(t, "/missions", target)
}

func TestAvailabilityDraft(t *testing.T) {
	draft := &AvailabilityDraft{
		PendingCreates: []WeeklySlot{
			{Date: "2024-01-08", StartTime: "09:00", EndTime: "10:00"},
			{Date: "2024-01-09", StartTime: "14:00", EndTime: "16:00"},
		},
		PendingDeletes: []WeeklySlot{
			{Date: "2024-01-07", StartTime: "08:00", EndTime: "09:00"},
		},
	}

	assert.Len(t, draft.CreatesOn("2024-01-09"), 1)
	assert.True(t, draft.HasPendingDelete(SlotKey{Date: "2024-01-07", StartTime: "08:00", EndTime: "09:00"}))

	assert.True(t, draft.DropCreate(SlotKey{Date: "2024-01-08", StartTime: "09:00", EndTime: "10:00"}))
	assert.False(t, draft.DropCreate(SlotKey{Date: "2024-01-08", StartTime: "09:00", EndTime: "10:00"}))

	draft.DropBefore("2024-01-08")
	assert.Len(t, draft.PendingCreates, 1)
	assert.Empty(t, draft.PendingDeletes)
	assert.False(t, draft.IsEmpty())
}
