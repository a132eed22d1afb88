package models

import (
	"encoding/json"
	"time"
)

// Account represents a registered user of the service.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Role         Role      `json:"role"`
	DisplayName  string    `json:"displayName"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the account currently holds admin capability.
func (a Account) IsAdmin() bool { return a.Role.IsAdmin() }

// IsOwner reports whether the account is an owner.
func (a Account) IsOwner() bool { return a.Role.IsOwner() }

// MarshalJSON adds the derived isAdmin and isOwner flags.
func (a Account) MarshalJSON() ([]byte, error) {
	type account Account
	return json.Marshal(struct {
		account
		IsAdmin bool `json:"isAdmin"`
		IsOwner bool `json:"isOwner"`
	}{account(a), a.IsAdmin(), a.IsOwner()})
}
