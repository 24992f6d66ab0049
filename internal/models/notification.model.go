package models

import (
	"encoding/json"
	"time"
)

const NotificationActionNavigate = "navigate"

type NotificationAction struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	Label  string `json:"label,omitempty"`
}

// NotificationActions accepts either a JSON array or a string holding a
// JSON-encoded array, both of which upstream produces.
type NotificationActions []NotificationAction

func (a *NotificationActions) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = nil
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		if encoded == "" {
			*a = nil
			return nil
		}
		data = []byte(encoded)
	}

	var actions []NotificationAction
	if err := json.Unmarshal(data, &actions); err != nil {
		// Unreadable actions decode as none.
		*a = nil
		return nil
	}

	*a = actions
	return nil
}

type Notification struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId,omitempty"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	Type      OrderRole           `json:"type,omitempty"`
	Actions   NotificationActions `json:"actions"`
	Read      bool                `json:"read"`
	Data      json.RawMessage     `json:"data,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`

	// Target is the resolved navigation target, filled in by the gateway.
	Target string `json:"target,omitempty"`
}

// NavigationTarget returns the target of the first navigate action.
func (n *Notification) NavigationTarget() (string, bool) {
	for _, action := range n.Actions {
		if action.Type == NotificationActionNavigate && action.Target != "" {
			return action.Target, true
		}
	}
	return "", false
}

type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
	HasMore       bool           `json:"hasMore"`
}
