package accounts

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spetrenko/authkeeper/internal/common"
	"github.com/spetrenko/authkeeper/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests and when the
// server runs without a database DSN.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byEmail map[string]string
}

// NewInMemoryRepository constructs an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyAccount(r.byID[id]), nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyAccount(account), nil
}

func (r *InMemoryRepository) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Uniqueness is case-insensitive, like the lower(email) index in the
	// Postgres schema.
	key := strings.ToLower(email)
	if _, exists := r.byEmail[key]; exists {
		return nil, common.ErrorConflict
	}
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.byID[account.ID] = account
	r.byEmail[key] = account.ID
	return copyAccount(account), nil
}

func (r *InMemoryRepository) SetRefreshHash(ctx context.Context, id string, hash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	account.RefreshTokenHash = copyHash(hash)
	return nil
}

func (r *InMemoryRepository) ReplaceRefreshHash(ctx context.Context, id, expectedHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.byID[id]
	if !ok {
		return common.ErrorUnauthorized
	}
	if account.RefreshTokenHash == nil || *account.RefreshTokenHash != expectedHash {
		return common.ErrorUnauthorized
	}
	account.RefreshTokenHash = &newHash
	return nil
}

func copyAccount(a *models.Account) *models.Account {
	c := *a
	c.RefreshTokenHash = copyHash(a.RefreshTokenHash)
	return &c
}

func copyHash(h *string) *string {
	if h == nil {
		return nil
	}
	v := *h
	return &v
}
