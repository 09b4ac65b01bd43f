package command

import (
	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/service/memory"
)

// NewCommands assembles the full command set for the local transport.
func NewCommands(
	store *memory.Store,
	history core.HistoryRepository,
	sessions core.SessionRepository,
	provider core.ModelProvider,
) []core.Command {
	return []core.Command{
		NewRecallCommand(store),
		NewMemoryCommand(store, history),
		NewSessionCommand(store),
		NewSetCommand(store, sessions),
		NewModelsCommand(provider),
	}
}
