package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/pkg/log"
)

// FailsafeReply is the fixed substitute assistant message emitted when the
// model call fails or times out. The turn still commits.
const FailsafeReply = "I could not reach the model provider just now. Nothing was lost: the conversation state is intact, please send that again."

type callOutcome int

const (
	callOK callOutcome = iota
	callTimedOut
	callTransportError
)

// callResult is the explicit model-call variant: exactly one of ok, timed
// out, or transport error.
type callResult struct {
	outcome callOutcome
	message core.Message
	detail  string
}

// reply maps every non-ok variant to the failsafe message deterministically.
func (r callResult) reply() core.Message {
	if r.outcome == callOK {
		msg := r.message
		msg.Role = core.RoleAssistant
		return msg
	}
	return core.Message{Role: core.RoleAssistant, Content: FailsafeReply}
}

// execute issues exactly one model call under an absolute deadline. The
// in-flight call is aborted, not abandoned, when the deadline passes.
func (p *Pipeline) execute(ctx context.Context, plan turnPlan) callResult {
	logger := log.FromCtx(ctx)

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg, err := p.provider.Complete(cctx, core.CompletionRequest{
		Model:       plan.model,
		Messages:    plan.messages,
		Temperature: plan.temperature,
		JSONMode:    plan.jsonMode,
	})
	if err == nil {
		return callResult{outcome: callOK, message: msg}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded) {
		logger.Warn().Err(err).Dur("timeout", p.timeout).Msg("model call timed out")
		return callResult{outcome: callTimedOut, detail: core.ErrModelTimeout.Error()}
	}

	logger.Warn().Err(err).Msg("model call failed")
	return callResult{outcome: callTransportError, detail: fmt.Sprintf("%v: %v", core.ErrModelTransport, err)}
}
