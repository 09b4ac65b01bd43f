package core

import "context"

// HistoryRepository is the durable turn-message collaborator. Messages are
// returned oldest first. Implementations bound per-user storage themselves;
// callers treat read failures as empty history, never as fatal.
type HistoryRepository interface {
	AddMessage(ctx context.Context, userID string, msg Message) error
	GetMessages(ctx context.Context, userID string, limit int) ([]Message, error)
	CountMessages(ctx context.Context, userID string) (int, error)
}

// SessionRepository persists serialized session state per user. Load returns
// nil state without error when no session exists.
type SessionRepository interface {
	LoadSession(ctx context.Context, userID string) ([]byte, error)
	SaveSession(ctx context.Context, userID string, state []byte) error
}
