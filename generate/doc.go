// Copyright 2026 StructGen Authors
// Use of this source code is governed by the project license.

/*
# 概述

包 generate 是结构化生成管线的编排层：组装提示词、调用 Provider、
校验输出，并在校验失败时执行至多一次带违规反馈的重试。

数据严格单向流动：composer → client → validator →（可选）composer(重试)
→ client → validator。单次重试之外没有反馈环，没有队列，没有持久化。

# 状态机

每次任务调用内：COMPOSED → SENT → {VALID, INVALID}；
INVALID 且重试额度（固定 1）未用尽时带错误上下文回到 COMPOSED，
否则终止于 FAILED。终态只有 VALID 和 FAILED。

# 错误语义

  - 传输/鉴权失败与空响应封装是致命错误，直接终止任务，不消耗重试
  - 校验失败（含整体解析失败）可经一次重试恢复
  - 重试后仍失败返回 *ValidationFailedError，携带末轮完整违规列表

# 典型用法

	gen, _ := generate.New[PetProfile](provider,
		generate.WithInstruction[PetProfile]("Extract the pet profile."),
		generate.WithModel[PetProfile]("claude-3-5-sonnet-20241022"))
	value, err := gen.Generate(ctx, "My pug loves his squeaky ball.")

	// 需要逐次尝试细节时
	result, err := gen.GenerateWithResult(ctx, input)
	for _, a := range result.Attempts { ... }
*/
package generate
