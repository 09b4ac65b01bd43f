// Package memory implements the process-local memory engine: sessions, tasks,
// steps, the importance-gated fact store and the rolling interaction log.
package memory

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// Facts below this importance are not worth keeping. Strictly greater
	// than; the boundary itself is rejected.
	importanceThreshold = 0.7

	// The interaction log is capped FIFO at this many entries.
	interactionCap = 1000

	// Log-tier recall returns at most this many matches.
	logRecallLimit = 5

	memoryConfidence = 0.95
	logConfidence    = 0.77

	recentMemoryCount = 3
)

// Store owns the Session/Task/Step/Memory/Interaction collections for the
// process lifetime. It is constructed once at startup and handed to every
// request-scoped pipeline invocation. The mutex keeps the collections
// consistent under concurrent turns; per-user turn serialization remains the
// caller's concern.
type Store struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	tasks        map[string]*Task
	steps        map[string]*Step
	memories     map[string]*Memory
	memoryOrder  []string
	interactions []Interaction
	entropy      io.Reader
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		tasks:    make(map[string]*Task),
		steps:    make(map[string]*Step),
		memories: make(map[string]*Memory),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		now:      time.Now,
	}
}

// GetOrCreateSession returns the existing session for userID or creates one
// with default preferences. Idempotent.
func (s *Store) GetOrCreateSession(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok {
		sess.LastActive = s.now()
		return sess
	}

	sess := &Session{
		UserID:      userID,
		Preferences: DefaultPreferences(),
		CreatedAt:   s.now(),
		LastActive:  s.now(),
	}
	s.sessions[userID] = sess
	return sess
}

// LookupSession returns the in-process session without creating one.
func (s *Store) LookupSession(userID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// RestoreSession adopts a session loaded from the persistence collaborator.
// An already-present in-process session wins.
func (s *Store) RestoreSession(sess *Session) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[sess.UserID]; ok {
		return existing
	}
	sess.LastActive = s.now()
	s.sessions[sess.UserID] = sess
	return sess
}

// SetPreference updates one recognized preference key on the user's session,
// enforcing value bounds. Creates the session if needed.
func (s *Store) SetPreference(userID, key, value string) error {
	sess := s.GetOrCreateSession(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case "warmth":
		n, err := parseScale(value)
		if err != nil {
			return fmt.Errorf("warmth: %w", err)
		}
		sess.Preferences.Warmth = n
	case "enthusiasm":
		n, err := parseScale(value)
		if err != nil {
			return fmt.Errorf("enthusiasm: %w", err)
		}
		sess.Preferences.Enthusiasm = n
	case "useHeaders":
		sess.Preferences.UseHeaders = value == "true"
	case "useEmojis":
		sess.Preferences.UseEmojis = value == "true"
	case "model":
		sess.Preferences.Model = value
	case "temperature":
		t, err := parseUnit(value)
		if err != nil {
			return fmt.Errorf("temperature: %w", err)
		}
		sess.Preferences.Temperature = t
	default:
		return fmt.Errorf("unknown preference: %s", key)
	}

	sess.LastActive = s.now()
	return nil
}

// CreateTask allocates a new task with a collision-resistant ULID identifier.
func (s *Store) CreateTask(goal string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &Task{
		ID:        ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String(),
		Goal:      goal,
		CreatedAt: s.now(),
	}
	s.tasks[task.ID] = task
	return task
}

// CreateStep allocates a step and indexes it under (taskID, stepID). The step
// is also appended to the owning task when the task exists.
func (s *Store) CreateStep(taskID, stepID string, stepType StepType) *Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := &Step{
		ID:         stepID,
		Type:       stepType,
		MaxRetries: maxStepRetries,
		CreatedAt:  s.now(),
	}
	s.steps[taskID+"/"+stepID] = step

	if task, ok := s.tasks[taskID]; ok {
		task.Steps = append(task.Steps, step)
	}
	return step
}

// GetTask returns the task for id, if present.
func (s *Store) GetTask(id string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	return task, ok
}

// CreateMemory admits a fact into the long-term store only when its
// importance clears the threshold. Quality over quantity: anything at or
// below the bar is a no-op, which bounds growth to high-value facts.
func (s *Store) CreateMemory(key, value string, importance float64) bool {
	if importance <= importanceThreshold {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memories[key]; !exists {
		s.memoryOrder = append(s.memoryOrder, key)
	}
	s.memories[key] = &Memory{
		Key:        key,
		Value:      value,
		Importance: importance,
		Created:    s.now(),
	}
	return true
}

// Recall matches query case-insensitively against memory keys first; only
// when no curated memory matches does it fall back to scanning the raw
// interaction log. Memory-tier results take strict precedence, log-tier
// results keep chronological order.
func (s *Store) Recall(query string) []RecallResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	var results []RecallResult

	for _, key := range s.memoryOrder {
		if !strings.Contains(strings.ToLower(key), q) {
			continue
		}
		mem := s.memories[key]
		mem.AccessCount++
		results = append(results, RecallResult{
			Key:        mem.Key,
			Value:      mem.Value,
			Confidence: memoryConfidence,
			Importance: mem.Importance,
		})
	}
	if len(results) > 0 {
		return results
	}

	var matched []Interaction
	for _, in := range s.interactions {
		if strings.Contains(strings.ToLower(in.Content), q) {
			matched = append(matched, in)
		}
	}
	if len(matched) > logRecallLimit {
		matched = matched[len(matched)-logRecallLimit:]
	}
	for _, in := range matched {
		results = append(results, RecallResult{
			Value:      in.Content,
			Confidence: logConfidence,
			Context:    in.Context,
		})
	}
	return results
}

// RecordInteraction appends to the rolling log, dropping the oldest entries
// once the cap is exceeded.
func (s *Store) RecordInteraction(userID, content, context string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interactions = append(s.interactions, Interaction{
		UserID:    userID,
		Content:   content,
		Context:   context,
		Timestamp: s.now(),
	})

	if n := len(s.interactions); n > interactionCap {
		s.interactions = append(s.interactions[:0:0], s.interactions[n-interactionCap:]...)
	}
}

// ContextSummary returns the read-only snapshot used for prompt injection:
// the minimized session summary, the task summary when a task is named, and
// the most recently admitted memories.
func (s *Store) ContextSummary(userID, taskID string) ContextSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summary ContextSummary

	if sess, ok := s.sessions[userID]; ok {
		ss := sess.Summary()
		summary.Session = &ss
	}
	if taskID != "" {
		if task, ok := s.tasks[taskID]; ok {
			ts := task.Summary()
			summary.Task = &ts
		}
	}

	start := len(s.memoryOrder) - recentMemoryCount
	if start < 0 {
		start = 0
	}
	for _, key := range s.memoryOrder[start:] {
		summary.RecentMemories = append(summary.RecentMemories, *s.memories[key])
	}

	return summary
}

// State reports collection sizes for the read-only inspector endpoint.
func (s *Store) State(userID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		UserID:      userID,
		MemoryCount: len(s.memories),
		TaskCount:   len(s.tasks),
	}
	_, st.SessionPresent = s.sessions[userID]
	for _, in := range s.interactions {
		if in.UserID == userID {
			st.InteractionCount++
		}
	}
	return st
}

func parseScale(value string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	if n < 1 || n > 5 {
		return 0, fmt.Errorf("out of range 1-5: %d", n)
	}
	return n, nil
}

func parseUnit(value string) (float64, error) {
	var f float64
	if _, err := fmt.Sscanf(value, "%g", &f); err != nil {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("out of range 0.0-1.0: %g", f)
	}
	return f, nil
}
