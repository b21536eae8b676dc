package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	ai "github.com/spetersoncode/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adapters(t *testing.T) map[string]Adapter {
	t.Helper()
	file, err := NewFileAdapter(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	return map[string]Adapter{
		"memory": NewMemoryAdapter(),
		"file":   file,
	}
}

func TestAdapters(t *testing.T) {
	ctx := context.Background()
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := a.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, a.Set(ctx, "b", json.RawMessage(`{"n":1}`)))
			require.NoError(t, a.Set(ctx, "a", json.RawMessage(`[]`)))
			require.NoError(t, a.Set(ctx, "b", json.RawMessage(`{"n":2}`)))

			v, ok, err := a.Get(ctx, "b")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"n":2}`, string(v))

			keys, err := a.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)

			require.NoError(t, a.Delete(ctx, "b"))
			require.NoError(t, a.Delete(ctx, "b"))
			keys, err = a.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, keys)
		})
	}
}

func TestFileAdapterRejectsBadKeys(t *testing.T) {
	a, err := NewFileAdapter(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "../escape", `a\b`, "x/y"} {
		err := a.Set(context.Background(), key, json.RawMessage(`[]`))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestFileAdapterLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFileAdapter(dir)
	require.NoError(t, err)
	require.NoError(t, a.Set(context.Background(), "chat", json.RawMessage(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "chat.json", entries[0].Name())
}

func TestMessageStore(t *testing.T) {
	ms := NewMessageStore(nil)
	assert.Equal(t, 0, ms.Len())

	ms.Append(ai.Message{Role: ai.RoleUser, Content: "Hello"})
	ms.Append()
	ms.Append(
		ai.Message{Role: ai.RoleAssistant, Content: "Hi"},
		ai.Message{Role: ai.RoleUser, Content: "How are you?"},
	)
	assert.Equal(t, 3, ms.Len())

	msgs := ms.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, "Hello", ms.Messages()[0].Content)

	assert.Nil(t, ms.Last(0))
	assert.Len(t, ms.Last(2), 2)
	assert.Equal(t, "How are you?", ms.Last(2)[1].Content)
	assert.Len(t, ms.Last(10), 3)

	ms.Clear()
	assert.Empty(t, ms.Messages())
}

func TestMessageStoreSyncReload(t *testing.T) {
	ctx := context.Background()
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ms := NewMessageStore(a)
			assert.Same(t, a, ms.Adapter())
			assert.ErrorIs(t, ms.Reload(ctx, "trip"), ErrKeyNotFound)

			ms.Append(
				ai.NewUserMessage("What's the weather?"),
				ai.Message{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "call_1", Name: "get_weather", Arguments: `{"city":"Shenzhen"}`}}},
				ai.Message{Role: ai.RoleTool, ToolResults: []ai.ToolResult{{ToolCallID: "call_1", Content: "Sunny"}}},
			)
			require.NoError(t, ms.Sync(ctx, "trip"))

			restored := NewMessageStore(a)
			require.NoError(t, restored.Reload(ctx, "trip"))
			assert.Equal(t, ms.Messages(), restored.Messages())
		})
	}
}

func TestMessageStoreReloadCorrupt(t *testing.T) {
	a := NewMemoryAdapter()
	require.NoError(t, a.Set(context.Background(), "bad", json.RawMessage(`{"not":"a list"}`)))

	err := NewMessageStore(a).Reload(context.Background(), "bad")
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "bad", serr.Key)
}

func TestMessageStoreConcurrent(t *testing.T) {
	ms := NewMessageStore(nil)
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ms.Append(ai.NewUserMessage("hi"))
			_ = ms.Sync(context.Background(), "k")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, ms.Len())
}
