package models

import (
	"strings"
	"time"
)

type Sexe string

const (
	SexeMale    Sexe = "male"
	SexeFemelle Sexe = "femelle"
	SexeAutre   Sexe = "autre"
)

// User is the gateway's projection of the upstream account.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username,omitempty"`
	Name             string     `json:"name,omitempty"`
	Lastname         string     `json:"lastname,omitempty"`
	PhoneNumber      string     `json:"phoneNumber,omitempty"`
	Address          string     `json:"address,omitempty"`
	City             string     `json:"city,omitempty"`
	Zip              string     `json:"zip,omitempty"`
	Country          string     `json:"country,omitempty"`
	Sexe             Sexe       `json:"sexe,omitempty"`
	BornDate         *time.Time `json:"bornDate,omitempty"`
	ProfilePicture   string     `json:"profilePicture,omitempty"`
	Role             string     `json:"role,omitempty"`
	Washer           bool       `json:"washer"`
	ProfileCompleted bool       `json:"profileCompleted"`
	IdentityVerified bool       `json:"identityVerified"`
	IsVerified       bool       `json:"isVerified"`
	IsOnline         bool       `json:"isOnline"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Lastname)
}

type WasherAccess string

const (
	WasherAccessCompleteProfile WasherAccess = "complete_profile"
	WasherAccessVerifyIdentity  WasherAccess = "verify_identity"
	WasherAccessGranted         WasherAccess = "granted"
)

// WasherAccess is the next gate standing between the user and washer mode.
func (u *User) WasherAccess() WasherAccess {
	switch {
	case !u.ProfileCompleted:
		return WasherAccessCompleteProfile
	case !u.IdentityVerified:
		return WasherAccessVerifyIdentity
	default:
		return WasherAccessGranted
	}
}

func (u *User) CanActAsWasher() bool {
	return u.WasherAccess() == WasherAccessGranted
}

// WasherSummary is a washer as returned by search and proximity lookups.
type WasherSummary struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	FirstName      string   `json:"firstName,omitempty"`
	LastName       string   `json:"lastName,omitempty"`
	ProfilePicture string   `json:"profilePicture,omitempty"`
	Address        string   `json:"address,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Distance       *float64 `json:"distance,omitempty"`
	IsOnline       bool     `json:"isOnline"`
}
