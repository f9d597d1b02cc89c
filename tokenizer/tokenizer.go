// Package tokenizer 提供提示词的 token 计数, 用于生成前的规模核算和日志。
package tokenizer

// Counter 是统一的 token 计数接口。
type Counter interface {
	// CountTokens 返回给定文本的 token 数。
	CountTokens(text string) (int, error)

	// CountPrompt 返回 system/user 提示词对的总 token 数,
	// 含角色标记等固定开销。
	CountPrompt(system, user string) (int, error)

	// Name 返回计数器名称。
	Name() string
}

// ForModel 返回适合给定模型的计数器。
// OpenAI 家族走 tiktoken 精确计数, 其余模型回退到启发式估算。
func ForModel(model string) Counter {
	if t, err := NewTiktokenCounter(model); err == nil {
		return t
	}
	return NewEstimator(model)
}
