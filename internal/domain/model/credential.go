package model

import "time"

// Credential is the identity provider's login record for one account.
type Credential struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
}
