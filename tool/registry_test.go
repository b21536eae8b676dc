package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	ai "github.com/spetersoncode/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testArgs struct {
	Query string `json:"query" desc:"Search query" required:"true"`
}

type weatherArgs struct {
	Location string   `json:"location" desc:"City name" required:"true"`
	Unit     string   `json:"unit,omitempty" enum:"celsius,fahrenheit"`
	Days     int      `json:"days"`
	Tags     []string `json:"tags"`
	secret   string
	Ignored  string `json:"-"`
}

func TestRegistryAdd(t *testing.T) {
	t.Run("registers tools in one call", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("search", "Search the web", func(ctx context.Context, args testArgs) (string, error) {
				return "result: " + args.Query, nil
			}),
			Func("calc", "Calculate", func(ctx context.Context, args struct {
				A int `json:"a"`
			}) (string, error) {
				return "calc", nil
			}),
		)

		assert.Equal(t, 2, registry.Len())
		assert.Equal(t, []string{"calc", "search"}, registry.Names())

		tool, ok := registry.GetTool("search")
		require.True(t, ok)
		assert.Equal(t, "Search the web", tool.Description)
	})

	t.Run("panics on duplicate tool name", func(t *testing.T) {
		assert.Panics(t, func() {
			NewRegistry().Add(
				Func("dupe", "First", func(ctx context.Context, args testArgs) (string, error) { return "", nil }),
				Func("dupe", "Second", func(ctx context.Context, args testArgs) (string, error) { return "", nil }),
			)
		})
	})
}

func TestRegister(t *testing.T) {
	registry := NewRegistry()
	handler := func(ctx context.Context, call ai.ToolCall) (string, error) { return "ok", nil }

	require.NoError(t, registry.Register(ai.Tool{Name: "a"}, handler))

	err := registry.Register(ai.Tool{Name: "a"}, handler)
	var dup *ErrToolAlreadyRegistered
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)

	registry.Unregister("a")
	assert.Equal(t, 0, registry.Len())
	registry.Unregister("missing")
}

func TestExecute(t *testing.T) {
	registry := NewRegistry().Add(
		Func("greet", "Greet someone", func(ctx context.Context, args struct {
			Name string `json:"name" required:"true"`
		}) (string, error) {
			return "Hello, " + args.Name + "!", nil
		}),
		WithHandler("fail", "Always fails", json.RawMessage(`{"type":"object"}`),
			func(ctx context.Context, call ai.ToolCall) (string, error) {
				return "", errors.New("disk full")
			}),
	)

	t.Run("success", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), ai.ToolCall{ID: "call_1", Name: "greet", Arguments: `{"name": "World"}`})
		require.NoError(t, err)
		assert.Equal(t, ai.ToolResult{ToolCallID: "call_1", Content: "Hello, World!"}, result)
	})

	t.Run("handler error becomes error result", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), ai.ToolCall{ID: "call_2", Name: "fail"})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "disk full", result.Content)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), ai.ToolCall{ID: "call_3", Name: "greet", Arguments: `{invalid`})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content, "invalid arguments")
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := registry.Execute(context.Background(), ai.ToolCall{ID: "call_4", Name: "nope"})
		var notFound *ErrToolNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "nope", notFound.Name)
	})
}

func TestSchemaFor(t *testing.T) {
	t.Run("struct tags", func(t *testing.T) {
		raw, err := SchemaFor[weatherArgs]()
		require.NoError(t, err)

		assert.JSONEq(t, `{
			"type": "object",
			"properties": {
				"location": {"type": "string", "description": "City name"},
				"unit": {"type": "string", "enum": ["celsius", "fahrenheit"]},
				"days": {"type": "integer"},
				"tags": {"type": "array", "items": {"type": "string"}}
			},
			"required": ["location"]
		}`, string(raw))
	})

	t.Run("pointer to struct", func(t *testing.T) {
		raw, err := SchemaFor[*testArgs]()
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"query"`)
	})

	t.Run("non-struct", func(t *testing.T) {
		_, err := SchemaFor[string]()
		assert.Error(t, err)
		assert.Panics(t, func() { MustSchemaFor[int]() })
	})
}
