package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spetrenko/authkeeper/internal/common"
	"github.com/spetrenko/authkeeper/internal/server/config"
	"github.com/spetrenko/authkeeper/internal/server/repositories/accounts"
	"github.com/spetrenko/authkeeper/internal/server/token"
)

func newTestService(t *testing.T) (*AuthService, *accounts.InMemoryRepository) {
	t.Helper()
	cfg := &config.Config{
		AccessSecret:                 "test-access-secret",
		RefreshSecret:                "test-refresh-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	repo := accounts.NewInMemoryRepository()
	return NewAuthService(repo, cfg), repo
}

func TestRegisterThenLogin(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.Register(ctx, "A@X.com", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if created.Email != "a@x.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("incomplete public view: %+v", created)
	}

	account, pair, err := s.Login(ctx, "a@X.COM", "secret1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if account.ID != created.ID {
		t.Fatalf("account mismatch: %q vs %q", account.ID, created.ID)
	}

	claims, err := s.Issuer().Verify(pair.AccessToken, token.Access)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.Subject != created.ID {
		t.Fatalf("subject %q, want %q", claims.Subject, created.ID)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("email claim %q", claims.Email)
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, err := s.Register(ctx, "A@x.COM ", "secret2")
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("expected common.ErrorConflict, got %v", err)
	}
}

func TestLogin_GenericUnauthorized(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, _, errWrongPassword := s.Login(ctx, "a@x.com", "wrong")
	_, _, errNoSuchUser := s.Login(ctx, "ghost@x.com", "whatever")

	if !errors.Is(errWrongPassword, common.ErrorUnauthorized) {
		t.Fatalf("wrong password: expected common.ErrorUnauthorized, got %v", errWrongPassword)
	}
	if !errors.Is(errNoSuchUser, common.ErrorUnauthorized) {
		t.Fatalf("no such user: expected common.ErrorUnauthorized, got %v", errNoSuchUser)
	}
	// anti-enumeration: the two failures must be indistinguishable
	if errWrongPassword.Error() != errNoSuchUser.Error() {
		t.Fatalf("failure modes are distinguishable: %q vs %q", errWrongPassword, errNoSuchUser)
	}
}

func TestLogin_SupersedesPriorRefreshToken(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, first, err := s.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("first Login error: %v", err)
	}
	if _, _, err := s.Login(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("second Login error: %v", err)
	}

	_, err = s.Refresh(ctx, first.RefreshToken)
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("superseded token must be rejected, got %v", err)
	}
}

func TestRefresh_RotationChain(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, pair1, err := s.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	pair2, err := s.Refresh(ctx, pair1.RefreshToken)
	if err != nil {
		t.Fatalf("refresh(R1) error: %v", err)
	}

	// R1 was superseded by the rotation and must fail on reuse even though it
	// has not expired.
	if _, err := s.Refresh(ctx, pair1.RefreshToken); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("refresh(R1) reuse: expected common.ErrorUnauthorized, got %v", err)
	}

	pair3, err := s.Refresh(ctx, pair2.RefreshToken)
	if err != nil {
		t.Fatalf("refresh(R2) error: %v", err)
	}
	if pair3.AccessToken == "" || pair3.RefreshToken == "" {
		t.Fatalf("incomplete pair: %+v", pair3)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Refresh(context.Background(), "not.a.jwt")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected common.ErrorUnauthorized, got %v", err)
	}
}

func TestRefresh_AccessTokenIsNotARefreshToken(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, pair, err := s.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if _, err := s.Refresh(ctx, pair.AccessToken); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.Register(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, pair, err := s.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if err := s.Logout(ctx, created.ID); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	// idempotent
	if err := s.Logout(ctx, created.ID); err != nil {
		t.Fatalf("repeated Logout error: %v", err)
	}

	if _, err := s.Refresh(ctx, pair.RefreshToken); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("refresh after logout: expected common.ErrorUnauthorized, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.Register(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	got, err := s.Profile(ctx, created.ID)
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if got.Email != "a@x.com" || got.ID != created.ID {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if _, err := s.Profile(ctx, "vanished"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("missing account: expected common.ErrorUnauthorized, got %v", err)
	}
}
