package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sandevgo/engram/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *History {
	t.Helper()

	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "engram.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewHistory(db)
}

func TestHistoryRoundTrip(t *testing.T) {
	h := testDB(t)
	ctx := context.Background()

	require.NoError(t, h.AddMessage(ctx, "u1", core.Message{Role: core.RoleUser, Content: "hello"}))
	require.NoError(t, h.AddMessage(ctx, "u1", core.Message{Role: core.RoleAssistant, Content: "hi there"}))
	require.NoError(t, h.AddMessage(ctx, "u2", core.Message{Role: core.RoleUser, Content: "other user"}))

	msgs, err := h.GetMessages(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Chronological order, scoped to the requested user.
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi there", msgs[1].Content)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestHistoryLimitReturnsNewest(t *testing.T) {
	h := testDB(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, h.AddMessage(ctx, "u1", core.Message{
			Role:    core.RoleUser,
			Content: fmt.Sprintf("msg-%d", i),
		}))
	}

	msgs, err := h.GetMessages(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-7", msgs[0].Content)
	assert.Equal(t, "msg-9", msgs[2].Content)
}

func TestHistoryCount(t *testing.T) {
	h := testDB(t)
	ctx := context.Background()

	n, err := h.CountMessages(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, h.AddMessage(ctx, "u1", core.Message{Role: core.RoleUser, Content: "x"}))
	n, err = h.CountMessages(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSessionsRoundTrip(t *testing.T) {
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "engram.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewSessions(db)
	ctx := context.Background()

	blob, err := s.LoadSession(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, s.SaveSession(ctx, "u1", []byte(`{"userId":"u1"}`)))
	require.NoError(t, s.SaveSession(ctx, "u1", []byte(`{"userId":"u1","v":2}`)))

	blob, err = s.LoadSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, `{"userId":"u1","v":2}`, string(blob))
}
