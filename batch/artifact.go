package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// WriteAnswers 把扁平的 key→value 映射写成 JSON 文件。
// 每次运行整体覆盖目标文件, 不追加, 不带版本号。
func WriteAnswers(path string, answers map[string]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write answers file: %w", err)
	}
	return nil
}

// ReadAnswers 读回 WriteAnswers 写出的文件。
func ReadAnswers(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers file: %w", err)
	}

	answers := make(map[string]string)
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers file: %w", err)
	}
	return answers, nil
}

// Keys 返回排序后的键列表, 便于确定性遍历。
func Keys(answers map[string]string) []string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
