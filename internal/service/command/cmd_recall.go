package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/engram/internal/service/memory"
)

type RecallCommand struct {
	store     *memory.Store
	formatter *ResponseFormatter
}

func NewRecallCommand(store *memory.Store) *RecallCommand {
	return &RecallCommand{
		store:     store,
		formatter: NewResponseFormatter(),
	}
}

func (c *RecallCommand) Name() string {
	return "recall"
}

func (c *RecallCommand) Description() string {
	return "Search stored memories and the interaction log"
}

func (c *RecallCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Usage("/recall <query>"), nil
	}

	query := strings.Join(args, " ")
	results := c.store.Recall(query)
	if len(results) == 0 {
		return fmt.Sprintf("No matches for %q.\n", query), nil
	}

	items := make([]string, 0, len(results))
	for _, r := range results {
		label := r.Value
		if r.Key != "" {
			label = r.Key + ": " + r.Value
		}
		items = append(items, fmt.Sprintf("%s (confidence %.2f)", label, r.Confidence))
	}

	return c.formatter.Combine(
		c.formatter.Title(fmt.Sprintf("Recall: %q", query)),
		c.formatter.List(items),
	), nil
}
