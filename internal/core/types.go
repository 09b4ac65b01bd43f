package core

import (
	"time"

	"github.com/sandevgo/engram/internal/schema"
)

const (
	EngramName          = "Engram"
	EngramUserAgent     = "Engram-Agent/0.1"
	EngramRepositoryURL = "https://github.com/sandevgo/engram"
	EngramVersion       = "0.1.0"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single durable turn in a conversation. History is append-only:
// messages are never edited or reordered once written.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Mode selects the behavioral profile appended to the system instruction.
type Mode string

const (
	ModeChat     Mode = "chat"
	ModeLearn    Mode = "learn"
	ModeResearch Mode = "research"
	ModeCouncil  Mode = "council"
)

type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length,omitempty"`
}

// TurnRequest is the inbound shape of one turn submission.
type TurnRequest struct {
	Messages         []Message      `json:"messages"`
	UserID           string         `json:"userId"`
	TaskID           string         `json:"taskId,omitempty"`
	Mode             Mode           `json:"mode"`
	StructuredOutput bool           `json:"structuredOutput"`
	Schema           *schema.Schema `json:"schema,omitempty"`
	Temperature      float64        `json:"temperature,omitempty"`
}

// Verification reports the outcome of structured-output checking. A turn that
// did not request structured output always passes.
type Verification struct {
	Passed bool     `json:"passed"`
	Errors []string `json:"errors,omitempty"`
}

type RecallStats struct {
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

// StructuredResult carries a parsed structured payload. On validation failure
// it carries the error details instead, with the raw reply preserved for
// diagnostics. Callers must check Verification.Passed, never the shape of
// this struct.
type StructuredResult struct {
	Object  map[string]any `json:"object,omitempty"`
	Raw     string         `json:"raw,omitempty"`
	Error   string         `json:"error,omitempty"`
	Details []string       `json:"details,omitempty"`
}

// TurnResponse is the outbound shape of one completed turn.
type TurnResponse struct {
	Reply        string            `json:"reply"`
	Structured   *StructuredResult `json:"structured,omitempty"`
	Verification Verification      `json:"verification"`
	MemoryRecall *RecallStats      `json:"memoryRecall,omitempty"`
}
