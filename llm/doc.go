/*
包 llm 提供统一的大语言模型接入层，定义 Provider 抽象与请求/响应模型。

# 概述

本包目标是屏蔽不同模型服务商在接口、鉴权与错误语义上的差异，
对上层暴露一致的请求与响应模型。结构化生成的编排（Schema 注入、
校验与重试）在 generate 包完成，本包只负责一次同步的请求/响应交换。

# 核心接口

  - [Provider]：LLM 提供者接口，提供 Completion / Name /
    SupportsNativeToolCalling
  - [Error]：带统一错误码的 Provider 错误，标注 HTTP 状态与可重试性

# 错误语义

传输与鉴权失败、响应缺少内容段均为致命错误，直接返回调用方；
Provider 自身不做重试。校验类失败不属于本包职责。
*/
package llm
