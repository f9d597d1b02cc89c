package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter 用 tiktoken 为 OpenAI 家族模型做精确计数。
type TiktokenCounter struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// knownEncodings 把模型名前缀映射到 tiktoken 编码。
var knownEncodings = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o", "o200k_base"},
	{"gpt-4", "cl100k_base"},
	{"gpt-3.5-turbo", "cl100k_base"},
	{"text-embedding-3", "cl100k_base"},
}

// NewTiktokenCounter 为给定模型创建 tiktoken 计数器。
// 未知模型返回错误, 由调用方回退到估算器。
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	for _, e := range knownEncodings {
		if strings.HasPrefix(model, e.prefix) {
			return &TiktokenCounter{model: model, encoding: e.encoding}, nil
		}
	}
	return nil, fmt.Errorf("no tiktoken encoding for model: %s", model)
}

// init 延迟初始化编码表, 首次使用时可能触发数据下载。
func (t *TiktokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *TiktokenCounter) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *TiktokenCounter) CountPrompt(system, user string) (int, error) {
	sys, err := t.CountTokens(system)
	if err != nil {
		return 0, err
	}
	usr, err := t.CountTokens(user)
	if err != nil {
		return 0, err
	}
	return sys + usr + 2*4 + 3, nil
}

func (t *TiktokenCounter) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
