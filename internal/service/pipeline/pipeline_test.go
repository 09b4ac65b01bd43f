package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/schema"
	"github.com/sandevgo/engram/internal/service/assembler"
	"github.com/sandevgo/engram/internal/service/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	mu       sync.Mutex
	messages map[string][]core.Message
	loadErr  error
	addErr   error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{messages: make(map[string][]core.Message)}
}

func (f *fakeHistory) AddMessage(_ context.Context, userID string, msg core.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.messages[userID] = append(f.messages[userID], msg)
	return nil
}

func (f *fakeHistory) GetMessages(_ context.Context, userID string, _ int) ([]core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]core.Message(nil), f.messages[userID]...), nil
}

func (f *fakeHistory) CountMessages(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[userID]), nil
}

type fakeSessions struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{blobs: make(map[string][]byte)}
}

func (f *fakeSessions) LoadSession(_ context.Context, userID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blobs[userID], nil
}

func (f *fakeSessions) SaveSession(_ context.Context, userID string, state []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[userID] = state
	return nil
}

type stubProvider struct {
	reply string
	err   error
	hang  bool

	mu   sync.Mutex
	last core.CompletionRequest
}

func (s *stubProvider) Complete(ctx context.Context, req core.CompletionRequest) (core.Message, error) {
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()

	if s.hang {
		<-ctx.Done()
		return core.Message{}, ctx.Err()
	}
	if s.err != nil {
		return core.Message{}, s.err
	}
	return core.Message{Role: core.RoleAssistant, Content: s.reply}, nil
}

func (s *stubProvider) lastRequest() core.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func newTestPipeline(provider core.ModelProvider) (*Pipeline, *memory.Store, *fakeHistory, *fakeSessions) {
	store := memory.NewStore()
	history := newFakeHistory()
	sessions := newFakeSessions()
	p := NewPipeline(store, history, sessions, provider, assembler.New(0), "test-model")
	return p, store, history, sessions
}

func chatRequest(content string) core.TurnRequest {
	return core.TurnRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: content}},
		UserID:   "u1",
		Mode:     core.ModeChat,
	}
}

func TestRunPlainChat(t *testing.T) {
	provider := &stubProvider{reply: "hi there"}
	p, _, history, _ := newTestPipeline(provider)

	resp, err := p.Run(context.Background(), chatRequest("hello"))
	require.NoError(t, err)

	assert.Equal(t, "hi there", resp.Reply)
	assert.True(t, resp.Verification.Passed)
	assert.Nil(t, resp.Structured)

	msgs := history.messages["u1"]
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hi there", msgs[1].Content)
}

func TestRunComposesSystemInstruction(t *testing.T) {
	provider := &stubProvider{reply: "ok"}
	p, _, _, _ := newTestPipeline(provider)

	req := chatRequest("hello")
	req.Mode = core.ModeResearch
	_, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	last := provider.lastRequest()
	require.NotEmpty(t, last.Messages)
	system := last.Messages[0]
	assert.Equal(t, core.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "No prior context.")
	assert.Contains(t, system.Content, "MODE: RESEARCH")
	assert.Equal(t, "test-model", last.Model)
	assert.InDelta(t, 0.15, last.Temperature, 1e-9)
	assert.False(t, last.JSONMode)
}

func TestRunStructuredInvalidJSON(t *testing.T) {
	provider := &stubProvider{reply: "not json"}
	p, _, history, _ := newTestPipeline(provider)

	req := chatRequest("classify this")
	req.StructuredOutput = true
	s := schema.MemoryRecall()
	req.Schema = &s

	resp, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, resp.Verification.Passed)
	assert.Contains(t, resp.Verification.Errors, "invalid JSON")
	require.NotNil(t, resp.Structured)
	assert.Equal(t, "not json", resp.Structured.Raw)
	assert.Nil(t, resp.Structured.Object)

	// Degraded turns still commit the audit trail.
	assert.Len(t, history.messages["u1"], 2)

	last := provider.lastRequest()
	assert.True(t, last.JSONMode)
	assert.Contains(t, last.Messages[0].Content, "single valid JSON object")
}

func TestRunStructuredSchemaViolation(t *testing.T) {
	provider := &stubProvider{reply: `{"found": true}`}
	p, _, _, _ := newTestPipeline(provider)

	req := chatRequest("did I mention my deadline?")
	req.StructuredOutput = true
	s := schema.MemoryRecall()
	req.Schema = &s

	resp, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, resp.Verification.Passed)
	assert.Contains(t, resp.Verification.Errors, "missing required field: confidence")
	assert.Equal(t, `{"found": true}`, resp.Structured.Raw)
}

func TestRunStructuredSuccessAdmitsMemory(t *testing.T) {
	provider := &stubProvider{reply: `{"found": true, "confidence": 0.97}`}
	p, store, _, _ := newTestPipeline(provider)

	req := chatRequest("remember the launch window")
	req.StructuredOutput = true
	s := schema.MemoryRecall()
	req.Schema = &s

	resp, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.Verification.Passed)
	require.NotNil(t, resp.Structured)
	assert.Equal(t, true, resp.Structured.Object["found"])

	results := store.Recall("launch window")
	require.NotEmpty(t, results)
	assert.Equal(t, 0.95, results[0].Confidence)
}

func TestRunStructuredLowConfidenceNotAdmitted(t *testing.T) {
	provider := &stubProvider{reply: `{"found": true, "confidence": 0.85}`}
	p, store, _, _ := newTestPipeline(provider)

	req := chatRequest("remember the retro date")
	req.StructuredOutput = true
	s := schema.MemoryRecall()
	req.Schema = &s

	resp, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Verification.Passed)

	// Below the admission bar, nothing reaches the memory tier.
	for _, r := range store.Recall("retro date") {
		assert.NotEqual(t, 0.95, r.Confidence)
	}
}

func TestRunModelTimeoutYieldsFailsafe(t *testing.T) {
	provider := &stubProvider{hang: true}
	p, _, history, _ := newTestPipeline(provider)
	p.timeout = 50 * time.Millisecond

	resp, err := p.Run(context.Background(), chatRequest("hello"))
	require.NoError(t, err)

	assert.Equal(t, FailsafeReply, resp.Reply)
	assert.True(t, resp.Verification.Passed)

	msgs := history.messages["u1"]
	require.Len(t, msgs, 2)
	assert.Equal(t, FailsafeReply, msgs[1].Content)
}

func TestRunTransportErrorYieldsFailsafe(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	p, _, history, _ := newTestPipeline(provider)

	resp, err := p.Run(context.Background(), chatRequest("hello"))
	require.NoError(t, err)

	assert.Equal(t, FailsafeReply, resp.Reply)
	assert.True(t, resp.Verification.Passed)
	assert.Len(t, history.messages["u1"], 2)
}

func TestRunStructuredModelFailureFailsVerification(t *testing.T) {
	provider := &stubProvider{err: errors.New("http 503: upstream down")}
	p, _, _, _ := newTestPipeline(provider)

	req := chatRequest("classify this")
	req.StructuredOutput = true

	resp, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, FailsafeReply, resp.Reply)
	assert.False(t, resp.Verification.Passed)
	require.NotEmpty(t, resp.Verification.Errors)
	assert.Contains(t, resp.Verification.Errors[0], "model call failed")
}

func TestRunHistoryLoadFailureDegradesToEmpty(t *testing.T) {
	provider := &stubProvider{reply: "still here"}
	p, _, history, _ := newTestPipeline(provider)
	history.loadErr = core.ErrStoreUnavailable

	resp, err := p.Run(context.Background(), chatRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "still here", resp.Reply)

	assert.Contains(t, provider.lastRequest().Messages[0].Content, "No prior context.")
}

func TestRunAppendFailureDoesNotFailTurn(t *testing.T) {
	provider := &stubProvider{reply: "fine"}
	p, _, history, _ := newTestPipeline(provider)
	history.addErr = core.ErrStoreUnavailable

	resp, err := p.Run(context.Background(), chatRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, "fine", resp.Reply)
	assert.True(t, resp.Verification.Passed)
}

func TestRunRecallStatsReported(t *testing.T) {
	provider := &stubProvider{reply: "noted"}
	p, store, _, _ := newTestPipeline(provider)
	store.CreateMemory("deadline", "friday", 0.92)

	resp, err := p.Run(context.Background(), chatRequest("deadline"))
	require.NoError(t, err)

	require.NotNil(t, resp.MemoryRecall)
	assert.Equal(t, 1, resp.MemoryRecall.Count)
	assert.Equal(t, 0.95, resp.MemoryRecall.Confidence)

	assert.Contains(t, provider.lastRequest().Messages[0].Content, "RECALLED FACTS")
}

func TestRunRejectsEmptyRequests(t *testing.T) {
	provider := &stubProvider{reply: "x"}
	p, _, _, _ := newTestPipeline(provider)

	_, err := p.Run(context.Background(), core.TurnRequest{UserID: "u1"})
	assert.Error(t, err)

	_, err = p.Run(context.Background(), core.TurnRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}

func TestRunPersistsSessionState(t *testing.T) {
	provider := &stubProvider{reply: "ok"}
	p, store, _, sessions := newTestPipeline(provider)

	require.NoError(t, store.SetPreference("u1", "warmth", "5"))
	_, err := p.Run(context.Background(), chatRequest("hello"))
	require.NoError(t, err)

	blob := sessions.blobs["u1"]
	require.NotNil(t, blob)
	assert.Contains(t, string(blob), `"warmth":5`)
}

func TestRunRestoresPersistedSession(t *testing.T) {
	provider := &stubProvider{reply: "ok"}
	p, store, _, sessions := newTestPipeline(provider)

	sessions.blobs["u1"] = []byte(`{"userId":"u1","preferences":{"warmth":1,"enthusiasm":5,"model":"custom-model","temperature":0.5}}`)

	_, err := p.Run(context.Background(), chatRequest("hello"))
	require.NoError(t, err)

	sess, ok := store.LookupSession("u1")
	require.True(t, ok)
	assert.Equal(t, "custom-model", sess.Preferences.Model)
	assert.Equal(t, "custom-model", provider.lastRequest().Model)
	assert.InDelta(t, 0.5, provider.lastRequest().Temperature, 1e-9)
}
