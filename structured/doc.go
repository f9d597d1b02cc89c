// Copyright 2026 StructGen Authors
// Use of this source code is governed by the project license.

/*
# 概述

包 structured 提供 JSON Schema 建模、反射生成与逐字段校验能力。

该包是结构化生成管线的约束层：Schema 既用于拼装提示词，也用于
校验模型返回的数据。校验永远走完整遍历，一次返回本轮发现的全部
违规项，供重试提示词回灌使用。

# 主要类型

  - Schema — JSON Schema 定义，支持 object/array/enum 及常用约束
  - SchemaGenerator — 通过反射从 Go 类型生成 Schema，支持 jsonschema 标签
  - Validator — 逐字段校验器，内置格式校验（email/uri/uuid/date-time 等）
  - Violation / ValidationErrors — 带字段路径、约束名和违规值的完整违规列表
  - Rule — 跨字段规则，在结构校验之后独立求值

# 典型用法

	schema, _ := structured.SchemaFor[PetProfile]()
	v := structured.NewValidator()
	if err := v.Validate(raw, schema); err != nil {
		ve := err.(*structured.ValidationErrors)
		// ve.Violations 是本轮全部违规，不是第一条
	}

# 违规语义

  - 负载不是合法 JSON 时，只产生一条 payload 级违规（Constraint 为 json）
  - required 按 Schema 声明顺序检查，属性按字典序遍历，列表顺序确定
  - 跨字段规则彼此独立，失败项追加在结构违规之后
*/
package structured
