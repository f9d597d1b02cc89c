// MockProvider 是 llm.Provider 的测试模拟实现。
//
// 支持固定响应、按调用顺序编排的脚本响应与错误注入。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/structgen/llm"
)

// ScriptStep 是脚本模式下第 N 次调用的预设结果。
type ScriptStep struct {
	Text      string
	ToolCalls []llm.ToolCall
	Err       error
}

// MockProvider 是 llm.Provider 的模拟实现。
// 零值即可用, 默认返回固定文本。
type MockProvider struct {
	mu sync.Mutex

	// 固定响应配置
	response  string
	toolCalls []llm.ToolCall
	err       error

	// 脚本模式: 每次调用消费一步, 超出后沿用最后一步
	script []ScriptStep

	// Token 使用统计
	promptTokens     int
	completionTokens int

	// 调用记录
	calls          []*llm.ChatRequest
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	nativeToolCalling bool
}

// NewMockProvider 创建默认的 MockProvider。
func NewMockProvider() *MockProvider {
	return &MockProvider{
		response:         "mock response",
		promptTokens:     10,
		completionTokens: 5,
	}
}

// WithResponse 设置固定文本响应。
func (m *MockProvider) WithResponse(text string) *MockProvider {
	m.response = text
	return m
}

// WithToolCalls 设置固定工具调用响应。
func (m *MockProvider) WithToolCalls(calls ...llm.ToolCall) *MockProvider {
	m.toolCalls = calls
	return m
}

// WithError 让每次调用都返回给定错误。
func (m *MockProvider) WithError(err error) *MockProvider {
	m.err = err
	return m
}

// WithScript 按调用顺序编排响应, 用于一次失败一次成功之类的场景。
func (m *MockProvider) WithScript(steps ...ScriptStep) *MockProvider {
	m.script = steps
	return m
}

// WithUsage 设置响应中的 token 用量。
func (m *MockProvider) WithUsage(prompt, completion int) *MockProvider {
	m.promptTokens = prompt
	m.completionTokens = completion
	return m
}

// WithNativeToolCalling 声明是否支持原生工具调用。
func (m *MockProvider) WithNativeToolCalling(supported bool) *MockProvider {
	m.nativeToolCalling = supported
	return m
}

// WithCompletionFunc 完全接管 Completion 行为。
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.completionFunc = fn
	return m
}

// Completion 实现 llm.Provider。
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	callIndex := len(m.calls) - 1
	m.mu.Unlock()

	if m.completionFunc != nil {
		return m.completionFunc(ctx, req)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := m.response
	toolCalls := m.toolCalls
	if len(m.script) > 0 {
		idx := callIndex
		if idx >= len(m.script) {
			idx = len(m.script) - 1
		}
		step := m.script[idx]
		if step.Err != nil {
			return nil, step.Err
		}
		text = step.Text
		toolCalls = step.ToolCalls
	} else if m.err != nil {
		return nil, m.err
	}

	return &llm.ChatResponse{
		Model: req.Model,
		Choices: []llm.ChatChoice{{
			Message: llm.Message{
				Role:      llm.RoleAssistant,
				Content:   text,
				ToolCalls: toolCalls,
			},
			FinishReason: "stop",
		}},
		Usage: llm.ChatUsage{
			PromptTokens:     m.promptTokens,
			CompletionTokens: m.completionTokens,
			TotalTokens:      m.promptTokens + m.completionTokens,
		},
	}, nil
}

// Name 实现 llm.Provider。
func (m *MockProvider) Name() string {
	return "mock"
}

// SupportsNativeToolCalling 实现 llm.Provider。
func (m *MockProvider) SupportsNativeToolCalling() bool {
	return m.nativeToolCalling
}

// CallCount 返回累计调用次数。
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls 返回调用记录的副本。
func (m *MockProvider) Calls() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*llm.ChatRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset 清空调用记录。
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
