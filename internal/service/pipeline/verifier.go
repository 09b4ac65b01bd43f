package pipeline

import (
	"context"
	"encoding/json"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/schema"
	"github.com/sandevgo/engram/pkg/log"
)

// Payload confidence above this admits the verified result into the memory
// store.
const memoryAdmissionConfidence = 0.9

// verify checks the model reply and decides the terminal state. Structured
// replies are parsed and validated; high-confidence validated payloads flow
// back into the memory store.
func (p *Pipeline) verify(ctx context.Context, req core.TurnRequest, call callResult) (core.TurnResponse, state) {
	reply := call.reply()
	resp := core.TurnResponse{
		Reply:        reply.Content,
		Verification: core.Verification{Passed: true},
	}

	if call.outcome != callOK {
		if req.StructuredOutput {
			resp.Verification = core.Verification{
				Passed: false,
				Errors: []string{"model call failed: " + call.detail},
			}
			resp.Structured = &core.StructuredResult{
				Error:   "model call failed",
				Details: []string{call.detail},
			}
		}
		// Non-structured turns degrade to the failsafe reply but still pass
		// verification; the caller got a usable assistant message.
		return resp, stateDegraded
	}

	if !req.StructuredOutput {
		return resp, stateCommitted
	}

	obj, violations := schema.ParseStructured(reply.Content)
	if violations == nil && req.Schema != nil {
		violations = schema.Validate(obj, *req.Schema)
	}

	if len(violations) > 0 {
		resp.Verification = core.Verification{Passed: false, Errors: violations}
		resp.Structured = &core.StructuredResult{
			Error:   core.ErrStructuredOutputInvalid.Error(),
			Details: violations,
			Raw:     reply.Content,
		}
		return resp, stateDegraded
	}

	resp.Structured = &core.StructuredResult{Object: obj, Raw: reply.Content}
	p.admitMemory(ctx, req, obj)
	return resp, stateCommitted
}

// admitMemory bridges a verified high-confidence payload back into the
// long-term store.
func (p *Pipeline) admitMemory(ctx context.Context, req core.TurnRequest, obj map[string]any) {
	conf, ok := obj["confidence"].(float64)
	if !ok || conf <= memoryAdmissionConfidence {
		return
	}

	userMsg, ok := latestUserMessage(req.Messages)
	if !ok {
		return
	}

	value, err := json.Marshal(obj)
	if err != nil {
		return
	}

	key := string(req.Mode) + ":" + recallQuery(userMsg.Content)
	if p.store.CreateMemory(key, string(value), conf) {
		log.FromCtx(ctx).Debug().Str("key", key).Float64("importance", conf).Msg("memory admitted")
	}
}
