// Package storage persists the client's session state between runs. Only the
// refresh token is stored durably; access tokens live in memory and die with
// the process.
package storage

import "context"

type Store interface {
	// RefreshToken returns the stored refresh token, or "" when none is stored.
	RefreshToken(ctx context.Context) (string, error)
	SaveRefreshToken(ctx context.Context, token string) error
	ClearRefreshToken(ctx context.Context) error
}
