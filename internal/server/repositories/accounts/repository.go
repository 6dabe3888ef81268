// Package accounts provides the credential store consumed by the auth
// service: one row per account with the email, password hash, and the hash of
// the currently active refresh token.
package accounts

import (
	"context"

	"github.com/spetrenko/authkeeper/internal/server/models"
)

// Repository is the storage contract for accounts.
//
// Lookups return common.ErrorNotFound when no row matches. Create returns
// common.ErrorConflict when the email is already taken (emails are stored
// pre-normalized, so equality is effectively case-insensitive).
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, email, passwordHash string) (*models.Account, error)

	// SetRefreshHash overwrites the stored refresh token hash. A nil hash
	// clears it. The overwrite is idempotent.
	SetRefreshHash(ctx context.Context, id string, hash *string) error

	// ReplaceRefreshHash swaps the stored hash for newHash only while it still
	// equals expectedHash, and returns common.ErrorUnauthorized otherwise.
	// This is the arbiter that gives concurrent rotations exactly one winner.
	ReplaceRefreshHash(ctx context.Context, id, expectedHash, newHash string) error
}
