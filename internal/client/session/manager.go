// Package session keeps the client's token pair alive. The access token is
// held only in memory; the refresh token is mirrored to durable storage so a
// session survives process restarts.
package session

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/spetrenko/authkeeper/internal/client/api"
	"github.com/spetrenko/authkeeper/internal/client/storage"
	"github.com/spetrenko/authkeeper/internal/common"
)

// API is the server surface the manager needs. *api.Client satisfies it.
type API interface {
	Login(ctx context.Context, email, password string) (*api.User, *api.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	Profile(ctx context.Context, accessToken string) (*api.User, error)
}

// Manager owns the client side of the token lifecycle: it attaches access
// tokens to requests, refreshes them when the server rejects one, and retries
// the rejected call once with the new token.
//
// Concurrent callers that hit an expired access token at the same time are
// coalesced into a single refresh round-trip; all of them wait for the same
// result and retry with the same new token.
type Manager struct {
	api   API
	store storage.Store

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	email        string

	refreshGroup singleflight.Group
}

func NewManager(apiClient API, store storage.Store) *Manager {
	return &Manager{api: apiClient, store: store}
}

// IsLoggedIn reports whether the manager currently holds a token pair.
func (m *Manager) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken != ""
}

// Email returns the email of the logged-in account, or "".
func (m *Manager) Email() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.email
}

// Restore resumes a previous session from the stored refresh token. When no
// token is stored it returns nil and leaves the manager logged out. A refresh
// token the server no longer accepts ends the session.
func (m *Manager) Restore(ctx context.Context) error {
	stored, err := m.store.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if stored == "" {
		return nil
	}

	pair, err := m.api.Refresh(ctx, stored)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return m.endSession(ctx)
		}
		return err
	}
	if err := m.adoptPair(ctx, pair); err != nil {
		return err
	}

	// The token carries no profile, so fetch it to label the session.
	user, err := m.Profile(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.email = user.Email
	m.mu.Unlock()
	return nil
}

// Login authenticates and adopts the issued token pair.
func (m *Manager) Login(ctx context.Context, email, password string) (*api.User, error) {
	user, pair, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.adoptPair(ctx, pair); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.email = user.Email
	m.mu.Unlock()
	return user, nil
}

// Logout invalidates the session on the server and forgets both tokens
// locally. The server call runs through the same refresh-and-retry path as
// any other authorized request, so an expired access token still reaches the
// server and clears the stored refresh hash there. Local state is cleared
// even when the server call fails.
func (m *Manager) Logout(ctx context.Context) error {
	apiErr := m.authorized(ctx, func(accessToken string) error {
		return m.api.Logout(ctx, accessToken)
	})

	if err := m.endSession(ctx); err != nil {
		return err
	}
	if errors.Is(apiErr, common.ErrSessionEnded) {
		// The session was already beyond saving; from the caller's point of
		// view logging out of it is a success.
		return nil
	}
	return apiErr
}

// Profile fetches the account profile using the managed access token.
func (m *Manager) Profile(ctx context.Context) (*api.User, error) {
	var user *api.User
	err := m.authorized(ctx, func(accessToken string) error {
		u, err := m.api.Profile(ctx, accessToken)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authorized runs call with the current access token. When the server answers
// unauthorized, it refreshes once and retries; a second rejection means the
// account itself is no longer valid, so the session ends.
func (m *Manager) authorized(ctx context.Context, call func(accessToken string) error) error {
	m.mu.RLock()
	accessToken := m.accessToken
	loggedIn := m.refreshToken != ""
	m.mu.RUnlock()

	if !loggedIn {
		return common.ErrSessionEnded
	}

	if accessToken != "" {
		err := call(accessToken)
		if err == nil || !errors.Is(err, api.ErrUnauthorized) {
			return err
		}
	}

	accessToken, err := m.refresh(ctx)
	if err != nil {
		return err
	}

	err = call(accessToken)
	if errors.Is(err, api.ErrUnauthorized) {
		if endErr := m.endSession(ctx); endErr != nil {
			return endErr
		}
		return common.ErrSessionEnded
	}
	return err
}

// refresh rotates the token pair. Concurrent callers share one round-trip via
// singleflight. A rejected refresh token ends the session; transport errors
// leave the stored tokens untouched so a later attempt can succeed.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	result, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		m.mu.RLock()
		refreshToken := m.refreshToken
		m.mu.RUnlock()

		if refreshToken == "" {
			return nil, common.ErrSessionEnded
		}

		pair, err := m.api.Refresh(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				if endErr := m.endSession(ctx); endErr != nil {
					return nil, endErr
				}
				return nil, common.ErrSessionEnded
			}
			return nil, err
		}

		if err := m.adoptPair(ctx, pair); err != nil {
			return nil, err
		}
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (m *Manager) adoptPair(ctx context.Context, pair *api.TokenPair) error {
	if err := m.store.SaveRefreshToken(ctx, pair.RefreshToken); err != nil {
		return err
	}
	m.mu.Lock()
	m.accessToken = pair.AccessToken
	m.refreshToken = pair.RefreshToken
	m.mu.Unlock()
	return nil
}

func (m *Manager) endSession(ctx context.Context) error {
	m.mu.Lock()
	m.accessToken = ""
	m.refreshToken = ""
	m.email = ""
	m.mu.Unlock()
	return m.store.ClearRefreshToken(ctx)
}
