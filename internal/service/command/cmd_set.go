package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/service/memory"
	"github.com/sandevgo/engram/pkg/log"
)

type SetCommand struct {
	store     *memory.Store
	sessions  core.SessionRepository
	formatter *ResponseFormatter
}

func NewSetCommand(store *memory.Store, sessions core.SessionRepository) *SetCommand {
	return &SetCommand{
		store:     store,
		sessions:  sessions,
		formatter: NewResponseFormatter(),
	}
}

func (c *SetCommand) Name() string {
	return "set"
}

func (c *SetCommand) Description() string {
	return "Update a session preference (warmth, enthusiasm, useHeaders, useEmojis, model, temperature)"
}

func (c *SetCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) != 2 {
		return c.formatter.Usage("/set <preference> <value>"), nil
	}

	if err := c.store.SetPreference(userID, args[0], args[1]); err != nil {
		return c.formatter.Error(err), nil
	}
	c.persist(ctx, userID)
	return fmt.Sprintf("Set %s to %s.\n", args[0], args[1]), nil
}

// persist mirrors the updated session to durable storage so a preference
// change survives a restart even without a following turn.
func (c *SetCommand) persist(ctx context.Context, userID string) {
	if c.sessions == nil {
		return
	}
	sess, ok := c.store.LookupSession(userID)
	if !ok {
		return
	}

	blob, err := json.Marshal(sess)
	if err == nil {
		err = c.sessions.SaveSession(ctx, userID, blob)
	}
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to persist session state")
	}
}
