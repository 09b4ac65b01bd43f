package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/service/assembler"
	"github.com/sandevgo/engram/internal/service/memory"
	"github.com/sandevgo/engram/pkg/log"
)

const (
	defaultTemperature = 0.15

	// Only high-confidence recall results are injected into the prompt.
	recallInjectionThreshold = 0.9

	// Recall queries use a bounded prefix of the latest user message.
	recallQueryLen = 64
)

type turnPlan struct {
	session     *memory.Session
	messages    []core.Message
	model       string
	temperature float64
	jsonMode    bool
	recall      *core.RecallStats
}

// plan resolves the session, gathers context and relevant memories, and
// composes the system instruction for the model call.
func (p *Pipeline) plan(ctx context.Context, req core.TurnRequest, userMsg core.Message) turnPlan {
	logger := log.FromCtx(ctx)

	session := p.resolveSession(ctx, req.UserID)

	// Degraded persistence reads become empty history, never a crash.
	history, err := p.history.GetMessages(ctx, req.UserID, 0)
	if err != nil {
		logger.Warn().Err(err).Msg("history load failed, proceeding with empty history")
		history = nil
	}
	contextBlock := p.assembler.Assemble(ctx, history)

	summary := p.store.ContextSummary(req.UserID, req.TaskID)

	query := recallQuery(userMsg.Content)
	results := p.store.Recall(query)

	var injected []memory.RecallResult
	var stats *core.RecallStats
	if len(results) > 0 {
		top := 0.0
		for _, r := range results {
			if r.Confidence > top {
				top = r.Confidence
			}
			if r.Confidence > recallInjectionThreshold {
				injected = append(injected, r)
			}
		}
		stats = &core.RecallStats{Count: len(results), Confidence: top}
	}

	var sb strings.Builder
	sb.WriteString(assembler.BuildSystemPrompt(contextBlock))
	sb.WriteString("\n\n")
	sb.WriteString(renderSummary(summary))

	if len(injected) > 0 {
		sb.WriteString("\nRECALLED FACTS:\n")
		for _, r := range injected {
			sb.WriteString("- " + r.Key + ": " + r.Value + "\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(assembler.ModeGuidance(req.Mode))

	if req.StructuredOutput {
		sb.WriteString("\n")
		sb.WriteString(assembler.StructuredOutputInstruction)
		if req.Schema != nil {
			if raw, err := json.Marshal(req.Schema); err == nil {
				sb.WriteString("\nSCHEMA: ")
				sb.Write(raw)
			}
		}
	}

	messages := append([]core.Message{{Role: core.RoleSystem, Content: sb.String()}}, req.Messages...)

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = session.Preferences.Temperature
	}
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	model := session.Preferences.Model
	if model == "" {
		model = p.model
	}

	return turnPlan{
		session:     session,
		messages:    messages,
		model:       model,
		temperature: temperature,
		jsonMode:    req.StructuredOutput,
		recall:      stats,
	}
}

// resolveSession prefers the in-process session, falls back to the persisted
// one, and creates a fresh session on first contact.
func (p *Pipeline) resolveSession(ctx context.Context, userID string) *memory.Session {
	if sess, ok := p.store.LookupSession(userID); ok {
		return sess
	}

	if p.sessions != nil {
		blob, err := p.sessions.LoadSession(ctx, userID)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("session load failed")
		} else if blob != nil {
			var sess memory.Session
			if err := json.Unmarshal(blob, &sess); err == nil && sess.UserID == userID {
				return p.store.RestoreSession(&sess)
			}
		}
	}

	return p.store.GetOrCreateSession(userID)
}

func renderSummary(s memory.ContextSummary) string {
	var sb strings.Builder
	sb.WriteString("STATE SUMMARY:\n")
	if s.Session != nil {
		sb.WriteString("- user tone: " + s.Session.Tone + "\n")
	}
	if s.Task != nil {
		sb.WriteString("- active task: " + s.Task.Goal + "\n")
	}
	for _, m := range s.RecentMemories {
		sb.WriteString("- known: " + m.Key + ": " + m.Value + "\n")
	}
	return sb.String()
}

func recallQuery(content string) string {
	runes := []rune(content)
	if len(runes) > recallQueryLen {
		runes = runes[:recallQueryLen]
	}
	return strings.TrimSpace(string(runes))
}
