// Package prompt 负责把 Schema 和任务输入拼装成确定性的提示词对。
// 纯字符串构造, 无副作用; 重试时把上一轮原始输出和全部违规追加进
// 系统指令, 让模型能一次看到所有需要修正的问题。
package prompt

import (
	"fmt"
	"strings"

	"github.com/BaSui01/structgen/structured"
)

// Composer 按固定模板拼装 system/user 提示词。
// 同样的输入永远产出同样的文本。
type Composer struct {
	// Instruction 是任务说明, 出现在系统指令开头。
	Instruction string

	// Example 是可选的合法输出示例, 嵌入在 Schema 之后。
	Example string

	// SchemaInPrompt 控制是否把序列化的 Schema 嵌入系统指令。
	// 走原生 tool calling 时 Schema 由工具声明携带, 无需重复嵌入。
	SchemaInPrompt bool
}

// NewComposer 创建嵌入 Schema 的默认 Composer。
func NewComposer(instruction string) *Composer {
	return &Composer{
		Instruction:    instruction,
		SchemaInPrompt: true,
	}
}

// Compose 返回 (system, user) 提示词对。
func (c *Composer) Compose(schema *structured.Schema, input string) (string, string, error) {
	var sb strings.Builder

	if c.Instruction != "" {
		sb.WriteString(c.Instruction)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Respond with a single JSON object and nothing else. ")
	sb.WriteString("Do not include explanations, markdown fences, or any text outside the JSON object.")

	if c.SchemaInPrompt && schema != nil {
		schemaJSON, err := schema.ToJSONIndent()
		if err != nil {
			return "", "", fmt.Errorf("serialize schema: %w", err)
		}
		sb.WriteString("\n\nThe JSON object must conform to this JSON Schema:\n")
		sb.Write(schemaJSON)
	}

	if c.Example != "" {
		sb.WriteString("\n\nExample of a valid response:\n")
		sb.WriteString(c.Example)
	}

	return sb.String(), input, nil
}

// ComposeRetry 在 Compose 的基础上追加上一轮的原始输出和完整违规列表。
// 违规按传入顺序逐条列出, 每条带字段路径、约束名和违规值。
func (c *Composer) ComposeRetry(schema *structured.Schema, input, priorRaw string, violations []structured.Violation) (string, string, error) {
	system, user, err := c.Compose(schema, input)
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	sb.WriteString(system)
	sb.WriteString("\n\nYour previous response was rejected. Previous response:\n")
	sb.WriteString(priorRaw)
	sb.WriteString("\n\nIt violated the following constraints:\n")
	sb.WriteString(FormatViolations(violations))
	sb.WriteString("\nProduce a corrected JSON object that fixes every violation above.")

	return sb.String(), user, nil
}

// FormatViolations 把违规列表渲染成逐行的说明文本。
func FormatViolations(violations []structured.Violation) string {
	var sb strings.Builder
	for i, v := range violations {
		path := v.Path
		if path == "" {
			path = "(payload)"
		}
		sb.WriteString(fmt.Sprintf("%d. field %q, constraint %q: %s", i+1, path, v.Constraint, v.Message))
		if v.Value != nil {
			sb.WriteString(fmt.Sprintf(" (got %v)", v.Value))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
