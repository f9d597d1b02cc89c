package config

import "time"

// DefaultConfig 返回带默认值的配置
func DefaultConfig() *Config {
	return &Config{
		Provider:   DefaultProviderConfig(),
		Generation: DefaultGenerationConfig(),
		Batch:      DefaultBatchConfig(),
		Log:        DefaultLogConfig(),
	}
}

// DefaultProviderConfig 返回默认提供商配置
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Name:    "claude",
		Model:   "claude-3-5-sonnet-20241022",
		Timeout: 60 * time.Second,
	}
}

// DefaultGenerationConfig 返回默认生成参数
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxTokens:   1024,
		Temperature: 0,
		Mode:        "prompt",
		ToolName:    "record_result",
	}
}

// DefaultBatchConfig 返回默认批处理配置
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Concurrency: 1,
		OutputPath:  "answers.json",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stderr"},
	}
}
