package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/structgen/internal/metrics"
	"github.com/BaSui01/structgen/llm"
	"github.com/BaSui01/structgen/prompt"
	"github.com/BaSui01/structgen/structured"
	"github.com/BaSui01/structgen/tokenizer"
)

// retryBudget 固定为 1: 校验失败后至多补发一次带违规反馈的请求。
const retryBudget = 1

// Mode 决定 Schema 如何抵达模型。
type Mode string

const (
	// ModePrompt 把序列化的 Schema 嵌入系统指令。
	ModePrompt Mode = "prompt"
	// ModeToolCalling 声明一个入参 Schema 即目标 Schema 的工具并强制调用。
	ModeToolCalling Mode = "tool_calling"
)

// ValidationFailedError 表示重试额度耗尽后任务仍未产出合法输出。
// Violations 是最后一次尝试的完整违规列表。
type ValidationFailedError struct {
	Attempts   int
	Violations []structured.Violation
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts with %d violations", e.Attempts, len(e.Violations))
}

// Generator 驱动 组装 → 发送 → 校验 → (至多一次)重试 的生成管线。
// 一个 Generator 可在多次调用间复用; 每次调用独占自己的 Attempt 数据,
// 跨任务并行无需加锁。
type Generator[T any] struct {
	schema    *structured.Schema
	provider  llm.Provider
	validator *structured.Validator
	composer  *prompt.Composer
	logger    *zap.Logger
	collector *metrics.Collector
	counter   tokenizer.Counter

	mode        Mode
	toolName    string
	model       string
	maxTokens   int
	temperature float32
}

// Option 配置 Generator。
type Option[T any] func(*Generator[T])

// WithSchema 使用自定义 Schema 替代从 T 反射生成的 Schema。
func WithSchema[T any](schema *structured.Schema) Option[T] {
	return func(g *Generator[T]) { g.schema = schema }
}

// WithValidator 使用自定义校验器, 用于挂载跨字段规则或自定义格式。
func WithValidator[T any](v *structured.Validator) Option[T] {
	return func(g *Generator[T]) { g.validator = v }
}

// WithInstruction 设置系统指令开头的任务说明。
func WithInstruction[T any](instruction string) Option[T] {
	return func(g *Generator[T]) { g.composer.Instruction = instruction }
}

// WithExample 在系统指令中嵌入一个合法输出示例。
func WithExample[T any](example string) Option[T] {
	return func(g *Generator[T]) { g.composer.Example = example }
}

// WithLogger 设置日志器。
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(g *Generator[T]) { g.logger = logger }
}

// WithMetrics 挂载指标收集器。
func WithMetrics[T any](c *metrics.Collector) Option[T] {
	return func(g *Generator[T]) { g.collector = c }
}

// WithModel 指定模型标识。
func WithModel[T any](model string) Option[T] {
	return func(g *Generator[T]) { g.model = model }
}

// WithMaxTokens 指定最大输出长度。
func WithMaxTokens[T any](n int) Option[T] {
	return func(g *Generator[T]) { g.maxTokens = n }
}

// WithTemperature 指定采样温度。
func WithTemperature[T any](t float32) Option[T] {
	return func(g *Generator[T]) { g.temperature = t }
}

// WithToolCalling 启用工具调用模式, Schema 经工具声明下发。
// 仅在 provider.SupportsNativeToolCalling() 为真时生效。
func WithToolCalling[T any](toolName string) Option[T] {
	return func(g *Generator[T]) {
		g.mode = ModeToolCalling
		g.toolName = toolName
	}
}

// WithTokenCounter 设置提示词规模核算用的计数器。
func WithTokenCounter[T any](c tokenizer.Counter) Option[T] {
	return func(g *Generator[T]) { g.counter = c }
}

// New 为类型 T 创建 Generator, 默认从 T 反射生成 Schema。
func New[T any](provider llm.Provider, opts ...Option[T]) (*Generator[T], error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	g := &Generator[T]{
		provider:  provider,
		validator: structured.NewValidator(),
		composer:  prompt.NewComposer(""),
		logger:    zap.NewNop(),
		mode:      ModePrompt,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.schema == nil {
		schema, err := structured.SchemaFor[T]()
		if err != nil {
			return nil, fmt.Errorf("generate schema for %T: %w", *new(T), err)
		}
		g.schema = schema
	}

	if g.mode == ModeToolCalling && !g.provider.SupportsNativeToolCalling() {
		g.logger.Warn("provider lacks native tool calling, falling back to prompt mode",
			zap.String("provider", g.provider.Name()))
		g.mode = ModePrompt
	}
	// 工具调用模式下 Schema 由工具声明携带
	g.composer.SchemaInPrompt = g.mode == ModePrompt

	if g.counter == nil {
		g.counter = tokenizer.ForModel(g.model)
	}

	return g, nil
}

// Schema 返回生效的 Schema。
func (g *Generator[T]) Schema() *structured.Schema {
	return g.schema
}

// Generate 执行一次任务调用, 返回合法的类型化实例。
// 校验失败且重试后仍失败时返回 *ValidationFailedError;
// 传输或响应封装错误直接终止任务, 不消耗重试。
func (g *Generator[T]) Generate(ctx context.Context, input string) (*T, error) {
	result, err := g.GenerateWithResult(ctx, input)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// GenerateWithResult 与 Generate 相同, 但同时暴露每次尝试的细节。
// 出错时返回的 Result 仍携带已完成的尝试记录。
func (g *Generator[T]) GenerateWithResult(ctx context.Context, input string) (*Result[T], error) {
	result := &Result[T]{}
	start := time.Now()

	var priorRaw string
	var priorViolations []structured.Violation

	for index := 0; index <= retryBudget; index++ {
		attempt := newAttempt(index)
		result.Attempts = append(result.Attempts, attempt)

		if err := g.compose(attempt, input, priorRaw, priorViolations); err != nil {
			attempt.State = StateFailed
			g.recordOutcome("error", result, start)
			return result, err
		}

		value, err := g.send(ctx, attempt)
		if err != nil {
			// 传输/封装错误是致命的, 重试策略只覆盖校验失败
			attempt.State = StateFailed
			g.recordOutcome("error", result, start)
			return result, err
		}

		if attempt.State == StateValid {
			result.Value = value
			g.recordOutcome("valid", result, start)
			return result, nil
		}

		// INVALID: 带着错误上下文回到拼装阶段
		priorRaw = attempt.Raw
		priorViolations = attempt.Violations

		if index < retryBudget {
			g.logger.Info("validation failed, retrying with violation feedback",
				zap.String("attempt_id", attempt.ID),
				zap.Int("violations", len(attempt.Violations)))
			if g.collector != nil {
				g.collector.RecordRetry(g.provider.Name(), g.model)
			}
		}
	}

	final := result.Final()
	final.State = StateFailed
	g.recordOutcome("failed", result, start)

	return result, &ValidationFailedError{
		Attempts:   len(result.Attempts),
		Violations: final.Violations,
	}
}

// compose 拼装提示词并迁移到 COMPOSED。
func (g *Generator[T]) compose(attempt *Attempt, input, priorRaw string, priorViolations []structured.Violation) error {
	var system, user string
	var err error

	if attempt.Index == 0 {
		system, user, err = g.composer.Compose(g.schema, input)
	} else {
		system, user, err = g.composer.ComposeRetry(g.schema, input, priorRaw, priorViolations)
	}
	if err != nil {
		return fmt.Errorf("compose prompt: %w", err)
	}

	attempt.System = system
	attempt.User = user
	attempt.State = StateComposed

	if n, err := g.counter.CountPrompt(system, user); err == nil {
		attempt.PromptTokens = n
	}

	g.logger.Debug("prompt composed",
		zap.String("attempt_id", attempt.ID),
		zap.Int("index", attempt.Index),
		zap.Int("prompt_tokens_estimate", attempt.PromptTokens))

	return nil
}

// send 提交请求, 提取原始文本并校验, 迁移到 VALID 或 INVALID。
func (g *Generator[T]) send(ctx context.Context, attempt *Attempt) (*T, error) {
	req := g.buildRequest(attempt)

	sendStart := time.Now()
	resp, err := g.provider.Completion(ctx, req)
	attempt.Duration = time.Since(sendStart)
	attempt.State = StateSent

	if g.collector != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		g.collector.RecordLLMRequest(g.provider.Name(), g.model, status, attempt.Duration)
	}
	if err != nil {
		return nil, fmt.Errorf("provider completion: %w", err)
	}

	attempt.Usage = resp.Usage
	if g.collector != nil {
		g.collector.RecordTokens(g.provider.Name(), g.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	raw, err := g.extractRaw(resp)
	if err != nil {
		return nil, err
	}
	attempt.Raw = raw

	payload := raw
	if g.mode == ModePrompt {
		payload = extractJSON(raw)
	}

	value, violations := structured.Parse[T]([]byte(payload), g.schema, g.validator)
	if len(violations) == 0 {
		attempt.State = StateValid
		return value, nil
	}

	attempt.State = StateInvalid
	attempt.Violations = violations
	if g.collector != nil {
		for _, v := range violations {
			g.collector.RecordViolation(string(v.Constraint))
		}
	}
	g.logger.Debug("attempt invalid",
		zap.String("attempt_id", attempt.ID),
		zap.Int("violations", len(violations)))

	return nil, nil
}

// buildRequest 按模式构造请求。
func (g *Generator[T]) buildRequest(attempt *Attempt) *llm.ChatRequest {
	req := &llm.ChatRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: attempt.System},
			{Role: llm.RoleUser, Content: attempt.User},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	if g.mode == ModeToolCalling {
		schemaJSON, _ := g.schema.ToJSON()
		req.Tools = []llm.ToolSchema{{
			Name:        g.toolName,
			Description: "Record the structured result.",
			Parameters:  schemaJSON,
		}}
		req.ToolChoice = g.toolName
	}

	return req
}

// extractRaw 从响应封装中取出待校验的文本。
// 工具调用模式下工具入参优先于正文文本。
func (g *Generator[T]) extractRaw(resp *llm.ChatResponse) (string, error) {
	if g.mode == ModeToolCalling {
		if tc := resp.FirstToolCall(); tc != nil {
			return string(tc.Arguments), nil
		}
	}

	text := resp.FirstText()
	if text == "" {
		return "", &llm.Error{
			Code:     llm.ErrEmptyResponse,
			Message:  "response contains no usable content",
			Provider: g.provider.Name(),
		}
	}
	return text, nil
}

func (g *Generator[T]) recordOutcome(outcome string, result *Result[T], start time.Time) {
	if g.collector == nil {
		return
	}
	g.collector.RecordGeneration(g.provider.Name(), g.model, outcome, len(result.Attempts), time.Since(start))
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// extractJSON 从可能混有散文或 markdown 围栏的响应里取出 JSON 文本。
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```") {
		if matches := fenceRe.FindStringSubmatch(response); len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		candidate := response[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	start = strings.Index(response, "[")
	end = strings.LastIndex(response, "]")
	if start >= 0 && end > start {
		candidate := response[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	return response
}
