package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"unicode/utf8"

	"TaskPilotGo/config"
)

// 单次生成最多保留的条目数，模型超产时截断
const maxGeneratedItems = 5

// GeneratedSubtask 模型产出的子任务条目
type GeneratedSubtask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GeneratedTask 模型产出的任务条目
type GeneratedTask struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Subtasks    []GeneratedSubtask `json:"subtasks"`
}

func (s *GeneratedSubtask) Validate() error {
	if n := utf8.RuneCountInString(s.Title); n < 1 || n > 100 {
		return fmt.Errorf("title length %d out of range [1,100]", n)
	}
	if n := utf8.RuneCountInString(s.Description); n < 1 || n > 300 {
		return fmt.Errorf("description length %d out of range [1,300]", n)
	}
	return nil
}

func (t *GeneratedTask) Validate() error {
	if n := utf8.RuneCountInString(t.Title); n < 1 || n > 100 {
		return fmt.Errorf("title length %d out of range [1,100]", n)
	}
	if n := utf8.RuneCountInString(t.Description); n < 1 || n > 500 {
		return fmt.Errorf("description length %d out of range [1,500]", n)
	}
	if len(t.Subtasks) > maxGeneratedItems {
		return fmt.Errorf("too many subtasks: %d", len(t.Subtasks))
	}
	for i := range t.Subtasks {
		if err := t.Subtasks[i].Validate(); err != nil {
			return fmt.Errorf("subtask %d: %w", i, err)
		}
	}
	return nil
}

// 按优先级尝试的提取模式：带 json 标记的代码块、任意代码块、裸数组
var (
	fencedJSONArrayRe = regexp.MustCompile("```json\\s*(\\[[\\s\\S]*?\\])\\s*```")
	fencedArrayRe     = regexp.MustCompile("```\\s*(\\[[\\s\\S]*?\\])\\s*```")
	bareArrayRe       = regexp.MustCompile(`\[[\s\S]*\]`)
)

// extractJSONArray 从模型自由文本输出中截取 JSON 数组子串
func extractJSONArray(raw string) (string, error) {
	if m := fencedJSONArrayRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	if m := fencedArrayRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	if m := bareArrayRe.FindString(raw); m != "" {
		return m, nil
	}
	return "", ErrNoJSONArray
}

// ExtractTasks 从原始输出提取并校验任务条目。整体 JSON 语法错误对本批次
// 是致命的；单个元素校验失败仅丢弃该元素。
func ExtractTasks(raw string) ([]GeneratedTask, error) {
	jsonStr, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &elements); err != nil {
		return nil, fmt.Errorf("解析模型输出失败: %w", err)
	}

	var valid []GeneratedTask
	for i, el := range elements {
		var task GeneratedTask
		if err := json.Unmarshal(el, &task); err != nil {
			config.Logger.Warnw("丢弃无法解析的任务条目", "index", i, "error", err)
			continue
		}
		if err := task.Validate(); err != nil {
			config.Logger.Warnw("丢弃校验失败的任务条目", "index", i, "error", err)
			continue
		}
		valid = append(valid, task)
	}

	if len(valid) == 0 {
		return nil, ErrNoValidItems
	}
	if len(valid) > maxGeneratedItems {
		valid = valid[:maxGeneratedItems]
	}
	return valid, nil
}

// ExtractSubtasks 从原始输出提取并校验子任务条目
func ExtractSubtasks(raw string) ([]GeneratedSubtask, error) {
	jsonStr, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &elements); err != nil {
		return nil, fmt.Errorf("解析模型输出失败: %w", err)
	}

	var valid []GeneratedSubtask
	for i, el := range elements {
		var subtask GeneratedSubtask
		if err := json.Unmarshal(el, &subtask); err != nil {
			config.Logger.Warnw("丢弃无法解析的子任务条目", "index", i, "error", err)
			continue
		}
		if err := subtask.Validate(); err != nil {
			config.Logger.Warnw("丢弃校验失败的子任务条目", "index", i, "error", err)
			continue
		}
		valid = append(valid, subtask)
	}

	if len(valid) == 0 {
		return nil, ErrNoValidItems
	}
	if len(valid) > maxGeneratedItems {
		valid = valid[:maxGeneratedItems]
	}
	return valid, nil
}
