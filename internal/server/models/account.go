package models

import "time"

// Account is the single record the server keeps per registered user. Email is
// stored lowercase; PasswordHash and RefreshTokenHash are one-way digests and
// never leave the server. RefreshTokenHash is nil when no session is active.
type Account struct {
	ID               string
	Email            string
	PasswordHash     string
	RefreshTokenHash *string
	CreatedAt        time.Time
}

// PublicAccount is the externally visible projection of an Account.
type PublicAccount struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the projection safe to hand to callers.
func (a *Account) Public() *PublicAccount {
	return &PublicAccount{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt}
}
