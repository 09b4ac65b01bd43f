// Package pipeline orchestrates one conversational turn through the
// Planner -> Executor -> Verifier state machine.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/service/assembler"
	"github.com/sandevgo/engram/internal/service/memory"
	"github.com/sandevgo/engram/pkg/log"
)

type state string

const (
	statePlanning  state = "PLANNING"
	stateExecuting state = "EXECUTING"
	stateVerifying state = "VERIFYING"
	stateCommitted state = "COMMITTED"
	stateDegraded  state = "DEGRADED"
)

const modelCallTimeout = 25 * time.Second

type Pipeline struct {
	store     *memory.Store
	history   core.HistoryRepository
	sessions  core.SessionRepository
	provider  core.ModelProvider
	assembler *assembler.Assembler
	model     string
	timeout   time.Duration
}

func NewPipeline(
	store *memory.Store,
	history core.HistoryRepository,
	sessions core.SessionRepository,
	provider core.ModelProvider,
	asm *assembler.Assembler,
	model string,
) *Pipeline {
	return &Pipeline{
		store:     store,
		history:   history,
		sessions:  sessions,
		provider:  provider,
		assembler: asm,
		model:     model,
		timeout:   modelCallTimeout,
	}
}

// Run processes one turn. Model and persistence failures are contained; an
// error return means the request itself was unusable.
func (p *Pipeline) Run(ctx context.Context, req core.TurnRequest) (core.TurnResponse, error) {
	logger := log.FromCtx(ctx)

	userMsg, ok := latestUserMessage(req.Messages)
	if !ok {
		return core.TurnResponse{}, fmt.Errorf("turn request carries no user message")
	}
	if req.UserID == "" {
		return core.TurnResponse{}, fmt.Errorf("turn request carries no userId")
	}

	logger.Debug().Str("state", string(statePlanning)).Str("user", req.UserID).Msg("turn")
	plan := p.plan(ctx, req, userMsg)

	logger.Debug().Str("state", string(stateExecuting)).Msg("turn")
	call := p.execute(ctx, plan)

	logger.Debug().Str("state", string(stateVerifying)).Msg("turn")
	resp, final := p.verify(ctx, req, call)

	// The audit trail is written regardless of outcome, even for degraded
	// turns: conversation state must survive provider outages.
	p.commit(ctx, req, plan, userMsg, call.reply())

	if resp.MemoryRecall == nil {
		resp.MemoryRecall = plan.recall
	}

	logger.Info().
		Str("state", string(final)).
		Str("user", req.UserID).
		Str("mode", string(req.Mode)).
		Bool("structured", req.StructuredOutput).
		Msg("turn finished")
	return resp, nil
}

// commit appends the user and (possibly failsafe) assistant messages to
// durable history and records the interaction. Failures are logged, never
// retried, never fatal to the turn.
func (p *Pipeline) commit(ctx context.Context, req core.TurnRequest, plan turnPlan, userMsg, reply core.Message) {
	logger := log.FromCtx(ctx)

	if err := p.history.AddMessage(ctx, req.UserID, userMsg); err != nil {
		logger.Error().Err(err).Msg("failed to append user message")
	}
	if err := p.history.AddMessage(ctx, req.UserID, reply); err != nil {
		logger.Error().Err(err).Msg("failed to append assistant message")
	}

	p.store.RecordInteraction(req.UserID, userMsg.Content, string(req.Mode))

	if plan.session != nil && p.sessions != nil {
		blob, err := json.Marshal(plan.session)
		if err == nil {
			err = p.sessions.SaveSession(ctx, req.UserID, blob)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("failed to persist session state")
		}
	}
}

func latestUserMessage(msgs []core.Message) (core.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			msg := msgs[i]
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			return msg, true
		}
	}
	return core.Message{}, false
}
