package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/engram/internal/core"
)

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	Models(ctx context.Context) ([]core.Model, error)
}

type ModelsCommand struct {
	provider  core.ModelProvider
	formatter *ResponseFormatter
}

func NewModelsCommand(provider core.ModelProvider) *ModelsCommand {
	return &ModelsCommand{
		provider:  provider,
		formatter: NewResponseFormatter(),
	}
}

func (c *ModelsCommand) Name() string {
	return "models"
}

func (c *ModelsCommand) Description() string {
	return "List models available from the configured provider"
}

func (c *ModelsCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	lister, ok := c.provider.(ModelLister)
	if !ok {
		return "The configured provider does not support model listing.\n", nil
	}

	models, err := lister.Models(ctx)
	if err != nil {
		return "", fmt.Errorf("list models: %w", err)
	}
	if len(models) == 0 {
		return "No models reported by the provider.\n", nil
	}

	items := make([]string, 0, len(models))
	for _, m := range models {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		items = append(items, fmt.Sprintf("%s (%s)", name, m.ID))
	}

	return c.formatter.Combine(
		c.formatter.Title("Available models"),
		c.formatter.List(items),
	), nil
}
