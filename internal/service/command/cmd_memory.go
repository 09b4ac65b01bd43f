package command

import (
	"context"
	"strconv"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/service/memory"
)

type MemoryCommand struct {
	store     *memory.Store
	history   core.HistoryRepository
	formatter *ResponseFormatter
}

func NewMemoryCommand(store *memory.Store, history core.HistoryRepository) *MemoryCommand {
	return &MemoryCommand{
		store:     store,
		history:   history,
		formatter: NewResponseFormatter(),
	}
}

func (c *MemoryCommand) Name() string {
	return "memory"
}

func (c *MemoryCommand) Description() string {
	return "Show the memory engine state for this user"
}

func (c *MemoryCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	state := c.store.State(userID)

	stored := "unavailable"
	if n, err := c.history.CountMessages(ctx, userID); err == nil {
		stored = strconv.Itoa(n)
	}

	return c.formatter.Combine(
		c.formatter.Title("Memory state"),
		c.formatter.Label("User", state.UserID),
		c.formatter.Label("Session", strconv.FormatBool(state.SessionPresent)),
		c.formatter.Label("Memories", strconv.Itoa(state.MemoryCount)),
		c.formatter.Label("Interactions", strconv.Itoa(state.InteractionCount)),
		c.formatter.Label("Tasks", strconv.Itoa(state.TaskCount)),
		c.formatter.Label("Stored messages", stored),
	), nil
}
