package models

import "time"

// Session is the gateway's server-side record of one signed-in device. It
// owns the upstream token pair and the last fetched user projection.
type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	User         *User     `json:"user,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSeenAt   time.Time `json:"lastSeenAt"`
}

func (s *Session) HasTokens() bool {
	return s != nil && s.AccessToken != ""
}

func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

func (s *Session) ClearTokens() {
	s.AccessToken = ""
	s.RefreshToken = ""
}
