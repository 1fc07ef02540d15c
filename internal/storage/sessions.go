package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nerrad567/ewelink-core/internal/cloud"
	"github.com/nerrad567/ewelink-core/internal/infrastructure/database"
)

// ErrNoSession indicates no cloud session has been persisted yet.
var ErrNoSession = errors.New("no stored session")

// Sessions persists the single cloud login session.
type Sessions struct {
	db *database.DB
}

// NewSessions creates a session repository on an open database.
func NewSessions(db *database.DB) *Sessions {
	return &Sessions{db: db}
}

// Save stores the session, replacing any previous one.
func (r *Sessions) Save(ctx context.Context, s cloud.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cloud_sessions (id, access_token, refresh_token, user_apikey, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			user_apikey   = excluded.user_apikey,
			updated_at    = excluded.updated_at
	`, s.AccessToken, s.RefreshToken, s.UserAPIKey, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load returns the stored session, or ErrNoSession when none exists.
func (r *Sessions) Load(ctx context.Context) (cloud.Session, error) {
	var s cloud.Session
	err := r.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, user_apikey, updated_at
		FROM cloud_sessions WHERE id = 1
	`).Scan(&s.AccessToken, &s.RefreshToken, &s.UserAPIKey, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cloud.Session{}, ErrNoSession
	}
	if err != nil {
		return cloud.Session{}, fmt.Errorf("loading session: %w", err)
	}
	return s, nil
}

// Clear removes the stored session.
func (r *Sessions) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cloud_sessions WHERE id = 1"); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
