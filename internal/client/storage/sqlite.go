package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spetrenko/authkeeper/internal/dbx"
)

const refreshTokenKey = "refresh_token"

type SQLiteStore struct {
	db dbx.DBTX
}

func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) RefreshToken(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_state WHERE key = ?`, refreshTokenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session state[%s]: %w", refreshTokenKey, err)
	}
	return value, nil
}

func (s *SQLiteStore) SaveRefreshToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, refreshTokenKey, token)
	if err != nil {
		return fmt.Errorf("failed to set session state[%s]: %w", refreshTokenKey, err)
	}
	return nil
}

func (s *SQLiteStore) ClearRefreshToken(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_state WHERE key = ?`, refreshTokenKey)
	if err != nil {
		return fmt.Errorf("failed to clear session state[%s]: %w", refreshTokenKey, err)
	}
	return nil
}
