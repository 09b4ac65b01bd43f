package command

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/service/memory"
)

type countingHistory struct {
	count int
	err   error
}

func (h *countingHistory) AddMessage(ctx context.Context, userID string, msg core.Message) error {
	return nil
}

func (h *countingHistory) GetMessages(ctx context.Context, userID string, limit int) ([]core.Message, error) {
	return nil, nil
}

func (h *countingHistory) CountMessages(ctx context.Context, userID string) (int, error) {
	return h.count, h.err
}

type listingProvider struct {
	models []core.Model
}

func (p *listingProvider) Complete(ctx context.Context, req core.CompletionRequest) (core.Message, error) {
	return core.Message{}, nil
}

func (p *listingProvider) Models(ctx context.Context) ([]core.Model, error) {
	return p.models, nil
}

type bareProvider struct{}

func (p *bareProvider) Complete(ctx context.Context, req core.CompletionRequest) (core.Message, error) {
	return core.Message{}, nil
}

type blobSessions struct {
	blobs map[string][]byte
}

func newBlobSessions() *blobSessions {
	return &blobSessions{blobs: make(map[string][]byte)}
}

func (s *blobSessions) LoadSession(ctx context.Context, userID string) ([]byte, error) {
	return s.blobs[userID], nil
}

func (s *blobSessions) SaveSession(ctx context.Context, userID string, state []byte) error {
	s.blobs[userID] = state
	return nil
}

func newTestRouter(t *testing.T, store *memory.Store, provider core.ModelProvider) *Router {
	t.Helper()
	return New(NewCommands(store, &countingHistory{count: 7}, newBlobSessions(), provider))
}

func TestRouterIgnoresPlainText(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &bareProvider{})

	_, handled := router.Execute(context.Background(), "u1", "hello there")
	assert.False(t, handled)
}

func TestRouterUnknownCommand(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &bareProvider{})

	out, handled := router.Execute(context.Background(), "u1", "/frobnicate")
	require.True(t, handled)
	assert.Equal(t, "Unknown command: /frobnicate (try /help)", out)
}

func TestRouterHelpListsAllCommands(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &bareProvider{})

	out, handled := router.Execute(context.Background(), "u1", "/help")
	require.True(t, handled)
	for _, name := range []string{"/recall", "/memory", "/session", "/set", "/models"} {
		assert.Contains(t, out, name)
	}
}

func TestSetThenSessionReflectsPreference(t *testing.T) {
	store := memory.NewStore()
	router := newTestRouter(t, store, &bareProvider{})
	ctx := context.Background()

	out, handled := router.Execute(ctx, "u1", "/set warmth 5")
	require.True(t, handled)
	assert.Contains(t, out, "Set warmth to 5")

	out, handled = router.Execute(ctx, "u1", "/session")
	require.True(t, handled)
	assert.Contains(t, out, "5")

	sess, ok := store.LookupSession("u1")
	require.True(t, ok)
	assert.Equal(t, 5, sess.Preferences.Warmth)
}

func TestSetPersistsSession(t *testing.T) {
	store := memory.NewStore()
	sessions := newBlobSessions()
	router := New(NewCommands(store, &countingHistory{}, sessions, &bareProvider{}))

	_, handled := router.Execute(context.Background(), "u1", "/set warmth 4")
	require.True(t, handled)

	require.NotEmpty(t, sessions.blobs["u1"])
	assert.Contains(t, string(sessions.blobs["u1"]), `"warmth":4`)
}

func TestSetRejectsOutOfRangeValue(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &bareProvider{})

	out, handled := router.Execute(context.Background(), "u1", "/set warmth 9")
	require.True(t, handled)
	assert.Contains(t, out, "warmth")
}

func TestSetUsageOnMissingArgs(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &bareProvider{})

	out, handled := router.Execute(context.Background(), "u1", "/set warmth")
	require.True(t, handled)
	assert.Contains(t, out, "Usage: /set")
}

func TestRecallFindsAdmittedMemory(t *testing.T) {
	store := memory.NewStore()
	require.True(t, store.CreateMemory("favorite_color", "blue", 0.9))
	router := newTestRouter(t, store, &bareProvider{})

	out, handled := router.Execute(context.Background(), "u1", "/recall blue")
	require.True(t, handled)
	assert.Contains(t, out, "favorite_color")
	assert.Contains(t, out, "0.95")
}

func TestRecallNoMatches(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &bareProvider{})

	out, handled := router.Execute(context.Background(), "u1", "/recall quasar")
	require.True(t, handled)
	assert.Contains(t, out, "No matches")
}

func TestMemoryStateIncludesStoredCount(t *testing.T) {
	store := memory.NewStore()
	store.GetOrCreateSession("u1")
	store.RecordInteraction("u1", "hello", "chat")
	router := newTestRouter(t, store, &bareProvider{})

	out, handled := router.Execute(context.Background(), "u1", "/memory")
	require.True(t, handled)
	assert.Contains(t, out, "u1")
	assert.Contains(t, out, "7")
}

func TestModelsWithListingProvider(t *testing.T) {
	provider := &listingProvider{models: []core.Model{
		{ID: "m-1", Name: "Model One"},
		{ID: "m-2", Name: "Model Two"},
	}}
	router := newTestRouter(t, memory.NewStore(), provider)

	out, handled := router.Execute(context.Background(), "u1", "/models")
	require.True(t, handled)
	assert.Contains(t, out, "Model One")
	assert.Contains(t, out, "m-2")
}

func TestModelsWithoutListingSupport(t *testing.T) {
	router := newTestRouter(t, memory.NewStore(), &bareProvider{})

	out, handled := router.Execute(context.Background(), "u1", "/models")
	require.True(t, handled)
	assert.True(t, strings.Contains(out, "does not support"))
}
