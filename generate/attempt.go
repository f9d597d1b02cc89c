package generate

import (
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/structgen/llm"
	"github.com/BaSui01/structgen/structured"
)

// State 是单次生成尝试的状态。
// 每次任务调用内的迁移: COMPOSED → SENT → {VALID, INVALID};
// INVALID 且重试额度未用尽时回到 COMPOSED 重新拼装,
// 否则终止于 FAILED。终态只有 VALID 和 FAILED。
type State string

const (
	StateComposed State = "COMPOSED"
	StateSent     State = "SENT"
	StateValid    State = "VALID"
	StateInvalid  State = "INVALID"
	StateFailed   State = "FAILED"
)

// Attempt 是一次请求/响应对: 拼装好的提示词、模型原始输出,
// 以及校验后的违规列表。随任务调用创建, 调用方消费结果后即弃。
type Attempt struct {
	ID    string `json:"id"`
	Index int    `json:"index"` // 0 为首次, 1 为重试
	State State  `json:"state"`

	System string `json:"system"`
	User   string `json:"user"`

	Raw        string                 `json:"raw,omitempty"`
	Usage      llm.ChatUsage          `json:"usage"`
	Violations []structured.Violation `json:"violations,omitempty"`

	PromptTokens int           `json:"prompt_tokens_estimate,omitempty"`
	Duration     time.Duration `json:"duration"`
}

func newAttempt(index int) *Attempt {
	return &Attempt{
		ID:    uuid.NewString(),
		Index: index,
	}
}

// Result 汇总一次任务调用的全部尝试。
type Result[T any] struct {
	Value    *T         `json:"value,omitempty"`
	Attempts []*Attempt `json:"attempts"`
}

// Final 返回最后一次尝试。
func (r *Result[T]) Final() *Attempt {
	if len(r.Attempts) == 0 {
		return nil
	}
	return r.Attempts[len(r.Attempts)-1]
}

// Valid 报告任务是否以合法输出收尾。
func (r *Result[T]) Valid() bool {
	return r.Value != nil && r.Final() != nil && r.Final().State == StateValid
}

// Retried 报告是否消耗了重试。
func (r *Result[T]) Retried() bool {
	return len(r.Attempts) > 1
}
