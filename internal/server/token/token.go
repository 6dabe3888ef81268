// Package token implements the issuer for the two JWT kinds the service
// uses: short-lived access tokens and long-lived refresh tokens. Each kind is
// signed with its own secret; verification is pure and touches no storage.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spetrenko/authkeeper/internal/common"
)

// Kind selects which of the two signing secrets and lifetimes applies.
type Kind int

const (
	Access Kind = iota
	Refresh
)

// Claims carries the registered claims plus the account email. Subject holds
// the account id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Pair bundles a freshly issued access and refresh token.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer mints and verifies tokens. The two secrets are independent pieces of
// configuration; neither is derived from the other.
type Issuer struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
}

// NewIssuer constructs an Issuer from the two secrets and validity windows.
func NewIssuer(accessSecret, refreshSecret string, accessValidity, refreshValidity time.Duration) *Issuer {
	return &Issuer{
		accessSecret:    []byte(accessSecret),
		refreshSecret:   []byte(refreshSecret),
		accessValidity:  accessValidity,
		refreshValidity: refreshValidity,
	}
}

// Issue produces a token pair bound to the given subject (account id) and
// email. The two tokens are signed independently.
func (i *Issuer) Issue(subject, email string) (*Pair, error) {
	access, err := i.sign(subject, email, i.accessSecret, i.accessValidity)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(subject, email, i.refreshSecret, i.refreshValidity)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature and expiry of a token of the given kind and returns
// its claims. Expired tokens yield common.ErrTokenExpired; anything else that
// fails validation yields common.ErrInvalidToken.
func (i *Issuer) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret(kind), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) secret(kind Kind) []byte {
	if kind == Refresh {
		return i.refreshSecret
	}
	return i.accessSecret
}

func (i *Issuer) sign(subject, email string, secret []byte, validity time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Email: email,
	})
	return t.SignedString(secret)
}
