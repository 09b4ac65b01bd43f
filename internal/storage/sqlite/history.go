package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/pkg/log"
)

// maxStoredMessages bounds per-user history size. Pruning is a safety valve
// against unbounded growth, not a correctness mechanism.
const maxStoredMessages = 10000

type History struct {
	db *sql.DB
}

func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

func (h *History) AddMessage(ctx context.Context, userID string, msg core.Message) error {
	query := `INSERT INTO messages (user_id, role, content) VALUES (?, ?, ?)`
	if _, err := h.db.ExecContext(ctx, query, userID, msg.Role, msg.Content); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	// Keep only the newest maxStoredMessages rows per user.
	prune := `DELETE FROM messages
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE user_id = ? ORDER BY id DESC LIMIT ?
		)`
	if _, err := h.db.ExecContext(ctx, prune, userID, userID, maxStoredMessages); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("history prune failed")
	}
	return nil
}

// GetMessages returns the newest limit messages in chronological order. A
// non-positive limit returns the full history.
func (h *History) GetMessages(ctx context.Context, userID string, limit int) ([]core.Message, error) {
	if limit <= 0 {
		limit = maxStoredMessages
	}

	// Fetch the LAST 'limit' messages by ordering DESC
	query := `SELECT role, content, created_at FROM messages WHERE user_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := h.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		var content sql.NullString

		if err := rows.Scan(&msg.Role, &content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Content = content.String
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query returned messages newest first; reverse back to
	// chronological order for context assembly.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded history messages")
	return messages, nil
}

func (h *History) CountMessages(ctx context.Context, userID string) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
