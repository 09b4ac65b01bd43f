package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Sessions struct {
	db *sql.DB
}

func NewSessions(db *sql.DB) *Sessions {
	return &Sessions{db: db}
}

// LoadSession returns the serialized session state, or nil when the user has
// never been seen.
func (s *Sessions) LoadSession(ctx context.Context, userID string) ([]byte, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE user_id = ?`, userID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return []byte(state), nil
}

func (s *Sessions) SaveSession(ctx context.Context, userID string, state []byte) error {
	query := `INSERT INTO sessions (user_id, state, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET state = excluded.state, updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, query, userID, string(state)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
