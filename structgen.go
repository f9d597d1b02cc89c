// Package structgen provides a top-level convenience entry point for
// schema-constrained generation with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/structgen"
//
//	cfg := config.DefaultConfig()
//	gen, err := structgen.NewGenerator[MyType](cfg, logger)
//	value, err := gen.Generate(ctx, "extract from this text")
//
// This is a thin wrapper wiring config, provider, and generator together.
// Use the generate package directly when you need finer control.
package structgen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/structgen/config"
	"github.com/BaSui01/structgen/generate"
	"github.com/BaSui01/structgen/llm"
	"github.com/BaSui01/structgen/providers"
	claude "github.com/BaSui01/structgen/providers/anthropic"
	"github.com/BaSui01/structgen/providers/gemini"
)

// NewProvider builds an llm.Provider from configuration.
// API keys left empty in config are resolved from ANTHROPIC_API_KEY or
// GEMINI_API_KEY at construction time.
func NewProvider(cfg *config.Config, logger *zap.Logger) (llm.Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Provider.Name {
	case "claude":
		return claude.NewClaudeProvider(providers.ClaudeConfig{
			APIKey:  cfg.Provider.APIKey,
			BaseURL: cfg.Provider.BaseURL,
			Model:   cfg.Provider.Model,
			Timeout: cfg.Provider.Timeout,
		}, logger), nil
	case "gemini":
		return gemini.NewGeminiProvider(providers.GeminiConfig{
			APIKey:  cfg.Provider.APIKey,
			BaseURL: cfg.Provider.BaseURL,
			Model:   cfg.Provider.Model,
			Timeout: cfg.Provider.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider.Name)
	}
}

// NewGenerator builds a generate.Generator for T from configuration,
// deriving the schema from T. Extra options are applied after the
// config-derived ones and may override them.
func NewGenerator[T any](cfg *config.Config, logger *zap.Logger, opts ...generate.Option[T]) (*generate.Generator[T], error) {
	provider, err := NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewGeneratorWithProvider[T](cfg, provider, logger, opts...)
}

// NewGeneratorWithProvider is like NewGenerator but uses a pre-built
// provider, which is how tests inject mocks.
func NewGeneratorWithProvider[T any](cfg *config.Config, provider llm.Provider, logger *zap.Logger, opts ...generate.Option[T]) (*generate.Generator[T], error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := []generate.Option[T]{
		generate.WithModel[T](cfg.Provider.Model),
		generate.WithMaxTokens[T](cfg.Generation.MaxTokens),
		generate.WithTemperature[T](float32(cfg.Generation.Temperature)),
		generate.WithLogger[T](logger),
	}
	if cfg.Generation.Mode == "tool_calling" {
		base = append(base, generate.WithToolCalling[T](cfg.Generation.ToolName))
	}

	return generate.New[T](provider, append(base, opts...)...)
}
