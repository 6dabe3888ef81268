// Package services contains server-side business logic. This file implements
// AuthService, which handles registration, login, refresh-token rotation,
// logout, and profile lookup.
package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/spetrenko/authkeeper/internal/common"
	"github.com/spetrenko/authkeeper/internal/server/config"
	"github.com/spetrenko/authkeeper/internal/server/models"
	"github.com/spetrenko/authkeeper/internal/server/repositories/accounts"
	"github.com/spetrenko/authkeeper/internal/server/token"
)

// hashCost is the bcrypt cost factor for passwords and refresh tokens.
const hashCost = bcrypt.DefaultCost

// AuthService provides authentication-related operations:
//   - Register: create accounts
//   - Login: verify credentials and mint a token pair
//   - Refresh: rotate the refresh token and mint a new pair
//   - Logout: invalidate the active refresh token
//   - Profile: fetch the public account view
//
// Every credential or token failure is collapsed to common.ErrorUnauthorized
// so callers cannot probe which check failed.
type AuthService struct {
	repo   accounts.Repository
	issuer *token.Issuer
}

// NewAuthService constructs an AuthService from the account repository and
// server config.
func NewAuthService(repo accounts.Repository, cfg *config.Config) *AuthService {
	issuer := token.NewIssuer(cfg.AccessSecret, cfg.RefreshSecret,
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)
	return &AuthService{repo: repo, issuer: issuer}
}

// Issuer exposes the token issuer so transport middleware can verify access
// tokens without reaching into service internals.
func (s *AuthService) Issuer() *token.Issuer {
	return s.issuer
}

// Register creates an account for the normalized email. Duplicate emails
// yield common.ErrorConflict. The password is stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.PublicAccount, error) {
	email = normalizeEmail(email)

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	account, err := s.repo.Create(ctx, email, string(passwordHash))
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return account.Public(), nil
}

// Login verifies the credentials and, on success, issues a fresh token pair
// and stores the new refresh token's hash, superseding any prior one. Missing
// accounts and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.PublicAccount, *token.Pair, error) {
	email = normalizeEmail(email)

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.issuer.Issue(account.ID, account.Email)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	refreshHash, err := hashRefreshToken(pair.RefreshToken)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	// Overwriting the stored hash implicitly invalidates any refresh token
	// issued earlier for this account.
	if err := s.repo.SetRefreshHash(ctx, account.ID, &refreshHash); err != nil {
		return nil, nil, common.ErrorInternal
	}

	return account.Public(), pair, nil
}

// Refresh validates the presented refresh token, rotates it, and returns a
// new pair. A token that was already superseded fails the stored-hash
// comparison even while cryptographically valid; that is the replay defense.
// All failure modes collapse to common.ErrorUnauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	claims, err := s.issuer.Verify(refreshToken, token.Refresh)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	account, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	if account.RefreshTokenHash == nil {
		return nil, common.ErrorUnauthorized
	}
	if !refreshTokenMatches(*account.RefreshTokenHash, refreshToken) {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.issuer.Issue(account.ID, account.Email)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	newHash, err := hashRefreshToken(pair.RefreshToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	// The swap is conditional on the hash we just compared against: when two
	// callers race with the same token, exactly one rotation lands.
	if err := s.repo.ReplaceRefreshHash(ctx, account.ID, *account.RefreshTokenHash, newHash); err != nil {
		return nil, common.ErrorUnauthorized
	}
	return pair, nil
}

// Logout clears the stored refresh hash for the account. It is idempotent:
// logging out an account with no active session succeeds.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if err := s.repo.SetRefreshHash(ctx, accountID, nil); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}
	return nil
}

// Profile returns the public account view. An account that vanished between
// token issuance and lookup yields common.ErrorUnauthorized.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*models.PublicAccount, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return account.Public(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashRefreshToken digests the token before bcrypt: JWTs exceed bcrypt's
// 72-byte input limit, so the hash covers a sha256 of the token instead.
func hashRefreshToken(refreshToken string) (string, error) {
	digest := sha256.Sum256([]byte(refreshToken))
	hash, err := bcrypt.GenerateFromPassword(digest[:], hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func refreshTokenMatches(storedHash, refreshToken string) bool {
	digest := sha256.Sum256([]byte(refreshToken))
	return bcrypt.CompareHashAndPassword([]byte(storedHash), digest[:]) == nil
}
