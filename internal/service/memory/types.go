package memory

import "time"

// Preferences holds the recognized per-user tuning knobs.
type Preferences struct {
	Warmth      int     `json:"warmth"`     // 1-5
	Enthusiasm  int     `json:"enthusiasm"` // 1-5
	UseHeaders  bool    `json:"useHeaders"`
	UseEmojis   bool    `json:"useEmojis"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"` // 0.0-1.0
}

func DefaultPreferences() Preferences {
	return Preferences{
		Warmth:      3,
		Enthusiasm:  2,
		UseHeaders:  true,
		UseEmojis:   false,
		Temperature: 0.15,
	}
}

// Session is the per-user identity and preference record. One per user,
// created lazily on first contact, never deleted.
type Session struct {
	UserID      string      `json:"userId"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"createdAt"`
	LastActive  time.Time   `json:"lastActive"`
}

// SessionSummary is the minimized view injected into prompts. Full preference
// state is deliberately never echoed to the model.
type SessionSummary struct {
	Warmth int    `json:"warmth"`
	Model  string `json:"model"`
	Tone   string `json:"tone"`
}

func (s *Session) Summary() SessionSummary {
	tone := "measured"
	if s.Preferences.Enthusiasm > 3 {
		tone = "enthusiastic"
	}
	return SessionSummary{
		Warmth: s.Preferences.Warmth,
		Model:  s.Preferences.Model,
		Tone:   tone,
	}
}

type StepType string

const (
	StepPlan    StepType = "plan"
	StepExecute StepType = "execute"
	StepVerify  StepType = "verify"
)

const maxStepRetries = 3

// Step is a single planned, executed or verified unit of work. It belongs
// exclusively to one Task. Terminal states: Output set (completed) or Error
// set with retries exhausted (failed).
type Step struct {
	ID          string     `json:"id"`
	Type        StepType   `json:"type"`
	Input       string     `json:"input,omitempty"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retryCount"`
	MaxRetries  int        `json:"maxRetries"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (s *Step) CanRetry() bool {
	return s.RetryCount < s.MaxRetries
}

func (s *Step) Complete(output string) {
	now := time.Now()
	s.Output = output
	s.CompletedAt = &now
}

// Fail records a failed attempt and reports whether another retry remains.
func (s *Step) Fail(errMsg string) bool {
	s.Error = errMsg
	s.RetryCount++
	return s.CanRetry()
}

// Task is a goal decomposed into ordered steps. Identified by a ULID rather
// than the ambiguous timestamp+goal key the design notes flag.
type Task struct {
	ID          string     `json:"id"`
	Goal        string     `json:"goal"`
	Steps       []*Step    `json:"steps"`
	Materials   []string   `json:"materials,omitempty"`
	Constraints []string   `json:"constraints,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type TaskSummary struct {
	Goal      string `json:"goal"`
	StepCount int    `json:"stepCount"`
	Completed bool   `json:"completed"`
}

func (t *Task) Summary() TaskSummary {
	return TaskSummary{
		Goal:      t.Goal,
		StepCount: len(t.Steps),
		Completed: t.CompletedAt != nil,
	}
}

// Memory is a quality fact. Admission is gated at write time; once admitted a
// memory is retained for the process lifetime.
type Memory struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Importance  float64   `json:"importance"`
	Created     time.Time `json:"created"`
	AccessCount int       `json:"accessCount"`
}

// Interaction is one raw log entry, kept in a FIFO-capped rolling log.
type Interaction struct {
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}

// RecallResult is one recall match. Memory-tier matches carry a fixed 0.95
// confidence, log-tier matches the 0.77 baseline.
type RecallResult struct {
	Key        string  `json:"key,omitempty"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Importance float64 `json:"importance,omitempty"`
	Context    string  `json:"context,omitempty"`
}

// ContextSummary is the read-only snapshot injected into prompts.
type ContextSummary struct {
	Session        *SessionSummary `json:"session,omitempty"`
	Task           *TaskSummary    `json:"task,omitempty"`
	RecentMemories []Memory        `json:"recentMemories,omitempty"`
}

// State is the read-only inspector view exposed by the memory endpoint.
type State struct {
	UserID           string `json:"userId"`
	SessionPresent   bool   `json:"sessionPresent"`
	InteractionCount int    `json:"interactionCount"`
	MemoryCount      int    `json:"memoryCount"`
	TaskCount        int    `json:"taskCount"`
}
