package tokenizer

import "unicode/utf8"

// Estimator 是基于字符统计的启发式计数器。
// 区分 CJK 与 ASCII 字符, 比单纯 len/4 更接近真实值。
type Estimator struct {
	model string
}

// NewEstimator 创建通用估算器。
func NewEstimator(model string) *Estimator {
	return &Estimator{model: model}
}

func (e *Estimator) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	total := utf8.RuneCountInString(text)
	cjk := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		}
	}

	// CJK 约 1.5 字符/token, ASCII 约 4 字符/token
	estimated := int(float64(cjk)/1.5 + float64(total-cjk)/4.0)
	if estimated == 0 {
		estimated = 1
	}
	return estimated, nil
}

func (e *Estimator) CountPrompt(system, user string) (int, error) {
	sys, err := e.CountTokens(system)
	if err != nil {
		return 0, err
	}
	usr, err := e.CountTokens(user)
	if err != nil {
		return 0, err
	}
	// 每条消息约 4 token 的角色/分隔开销, 会话收尾约 3 token
	return sys + usr + 2*4 + 3, nil
}

func (e *Estimator) Name() string {
	return "estimator"
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF)
}
