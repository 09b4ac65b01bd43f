package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sandevgo/engram/internal/service/memory"
)

type SessionCommand struct {
	store     *memory.Store
	formatter *ResponseFormatter
}

func NewSessionCommand(store *memory.Store) *SessionCommand {
	return &SessionCommand{
		store:     store,
		formatter: NewResponseFormatter(),
	}
}

func (c *SessionCommand) Name() string {
	return "session"
}

func (c *SessionCommand) Description() string {
	return "Show the current session preferences"
}

func (c *SessionCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	sess, ok := c.store.LookupSession(userID)
	if !ok {
		return "No session yet. Send a message first.\n", nil
	}

	prefs := sess.Preferences
	model := prefs.Model
	if model == "" {
		model = "(default)"
	}

	return c.formatter.Combine(
		c.formatter.Title("Session "+sess.UserID),
		c.formatter.Label("warmth", strconv.Itoa(prefs.Warmth)),
		c.formatter.Label("enthusiasm", strconv.Itoa(prefs.Enthusiasm)),
		c.formatter.Label("useHeaders", strconv.FormatBool(prefs.UseHeaders)),
		c.formatter.Label("useEmojis", strconv.FormatBool(prefs.UseEmojis)),
		c.formatter.Label("model", model),
		c.formatter.Label("temperature", fmt.Sprintf("%.2f", prefs.Temperature)),
		c.formatter.Label("tone", sess.Summary().Tone),
	), nil
}
