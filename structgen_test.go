package structgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/structgen/config"
	"github.com/BaSui01/structgen/generate"
	"github.com/BaSui01/structgen/llm"
	"github.com/BaSui01/structgen/testutil/mocks"
)

type profile struct {
	Name string `json:"name" jsonschema:"required,minLength=1"`
}

func TestNewProvider(t *testing.T) {
	t.Run("claude", func(t *testing.T) {
		cfg := config.DefaultConfig()
		p, err := NewProvider(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, "claude", p.Name())
	})

	t.Run("gemini", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.Name = "gemini"
		cfg.Provider.Model = "gemini-1.5-pro"
		p, err := NewProvider(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, "gemini", p.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.Name = "mock"
		_, err := NewProvider(cfg, nil)
		assert.Error(t, err)
	})
}

func TestNewGeneratorWithProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	provider := mocks.NewMockProvider().WithResponse(`{"name":"Ada"}`)

	gen, err := NewGeneratorWithProvider[profile](cfg, provider, nil)
	require.NoError(t, err)

	value, err := gen.Generate(context.Background(), "who wrote the first program?")
	require.NoError(t, err)
	assert.Equal(t, "Ada", value.Name)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, cfg.Provider.Model, calls[0].Model)
	assert.Equal(t, cfg.Generation.MaxTokens, calls[0].MaxTokens)
}

func TestNewGeneratorWithProvider_ToolCallingConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Generation.Mode = "tool_calling"
	cfg.Generation.ToolName = "record_profile"

	provider := mocks.NewMockProvider().
		WithNativeToolCalling(true).
		WithToolCalls(llm.ToolCall{
			ID:        "call_1",
			Name:      "record_profile",
			Arguments: []byte(`{"name":"Ada"}`),
		})

	gen, err := NewGeneratorWithProvider[profile](cfg, provider, nil,
		generate.WithInstruction[profile]("Extract the person."))
	require.NoError(t, err)

	value, err := gen.Generate(context.Background(), "input")
	require.NoError(t, err)
	assert.Equal(t, "Ada", value.Name)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Tools, 1)
	assert.Equal(t, "record_profile", calls[0].Tools[0].Name)
}
