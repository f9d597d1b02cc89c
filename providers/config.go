package providers

import (
	"os"
	"time"
)

// ClaudeConfig Claude Provider 配置
type ClaudeConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// GeminiConfig Gemini Provider 配置
type GeminiConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// APIKeyFromEnv 在配置未显式给出密钥时回退到环境变量。
// 密钥加载是唯一的认证关注点，不做任何持久化或刷新。
func APIKeyFromEnv(configured, envName string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(envName)
}
