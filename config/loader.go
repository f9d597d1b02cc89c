// =============================================================================
// 📦 StructGen 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("STRUCTGEN").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是 StructGen 的完整配置结构
type Config struct {
	// Provider 模型提供商配置
	Provider ProviderConfig `yaml:"provider" env:"PROVIDER"`

	// Generation 生成参数
	Generation GenerationConfig `yaml:"generation" env:"GENERATION"`

	// Batch 批处理配置
	Batch BatchConfig `yaml:"batch" env:"BATCH"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`
}

// ProviderConfig 模型提供商配置
type ProviderConfig struct {
	// 提供商名称: claude / gemini
	Name string `yaml:"name" env:"NAME"`
	// 模型标识
	Model string `yaml:"model" env:"MODEL"`
	// API Key。留空时从提供商各自的环境变量读取
	// (ANTHROPIC_API_KEY / GEMINI_API_KEY)
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 自定义接入点, 留空用官方地址
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// GenerationConfig 生成参数
type GenerationConfig struct {
	// 最大输出 token 数
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// 采样温度
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// 生成模式: prompt / tool_calling
	Mode string `yaml:"mode" env:"MODE"`
	// 工具调用模式下的工具名
	ToolName string `yaml:"tool_name" env:"TOOL_NAME"`
}

// BatchConfig 批处理配置
type BatchConfig struct {
	// 并行上限
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// 批结果 JSON 文件输出路径
	OutputPath string `yaml:"output_path" env:"OUTPUT_PATH"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug / info / warn / error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json / console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// Loader 配置加载器
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "STRUCTGEN",
	}
}

// WithConfigPath 指定 YAML 配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 指定环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 追加自定义校验器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 按 默认值 → YAML 文件 → 环境变量 的优先级加载配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// Validate 检查配置的基本一致性
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "claude", "gemini", "mock", "":
	default:
		return fmt.Errorf("unsupported provider: %s (supported: claude, gemini)", c.Provider.Name)
	}

	switch c.Generation.Mode {
	case "prompt", "tool_calling", "":
	default:
		return fmt.Errorf("unsupported generation mode: %s (supported: prompt, tool_calling)", c.Generation.Mode)
	}

	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("batch concurrency must not be negative")
	}

	return nil
}

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
