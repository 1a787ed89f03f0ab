package services

import (
	"fmt"
	"strings"
)

// PromptItem 提示词中列出的已有条目
type PromptItem struct {
	Title       string
	Description string
	Source      string // "user" 或 "ai"
}

// TasksPromptInput 项目级任务生成的上下文
type TasksPromptInput struct {
	ProjectTitle       string
	ProjectDescription string
	ProjectComments    string
	ExistingTasks      []PromptItem
	ExistingSubtasks   []PromptItem
}

// SubtasksPromptInput 任务级子任务生成的上下文
type SubtasksPromptInput struct {
	ProjectTitle       string
	ProjectDescription string
	ProjectComments    string
	TaskTitle          string
	TaskDescription    string
	TaskComments       string
	ExistingSubtasks   []PromptItem
}

// EnhancePromptInput 描述优化的上下文
type EnhancePromptInput struct {
	EntityType         string
	Title              string
	CurrentDescription string
	AdditionalContext  string
}

// formatItems 将已有条目格式化为带来源标签的列表，去重靠提示词约束，
// 不做程序侧语义去重
func formatItems(items []PromptItem) string {
	if len(items) == 0 {
		return "None"
	}
	var sb strings.Builder
	for _, item := range items {
		source := strings.ToUpper(item.Source)
		if source == "" {
			source = "USER"
		}
		description := item.Description
		if description == "" {
			description = "No description"
		}
		sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", source, item.Title, description))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// BuildTasksPrompt 组装项目级任务生成提示词
func BuildTasksPrompt(input TasksPromptInput) string {
	return fmt.Sprintf(`You are a project management assistant. Generate UNIQUE, NON-DUPLICATE tasks that complement existing work.

Project Information:
Title: %s
Description: %s
Comments: %s

EXISTING TASKS (DO NOT DUPLICATE - be completely different):
%s

EXISTING SUBTASKS (for reference):
%s

CRITICAL REQUIREMENTS:
1. Generate EXACTLY 5 NEW tasks that are COMPLETELY DIFFERENT from existing tasks
2. Each task must be UNIQUE - no similar titles or concepts to existing tasks
3. Each task should have 2-3 diverse subtasks
4. Think creatively - explore different aspects, phases, or angles of the project
5. Avoid any overlap with existing task titles or core concepts
6. Generate complementary tasks that fill gaps in the existing work

Return ONLY a valid JSON array with exactly this structure:
[
  {
    "title": "Unique task title (max 100 chars, must be different from all existing)",
    "description": "Detailed task description (max 500 chars)",
    "subtasks": [
      {
        "title": "Subtask title (max 100 chars)",
        "description": "Subtask description (max 300 chars)"
      }
    ]
  }
]

Response:`,
		input.ProjectTitle,
		orDefault(input.ProjectDescription, "No description provided"),
		orDefault(input.ProjectComments, "No comments"),
		formatItems(input.ExistingTasks),
		formatItems(input.ExistingSubtasks),
	)
}

// BuildSubtasksPrompt 组装任务级子任务生成提示词
func BuildSubtasksPrompt(input SubtasksPromptInput) string {
	return fmt.Sprintf(`You are a task breakdown assistant. Generate UNIQUE subtasks that complement existing work for this specific task.

Project Information:
Title: %s
Description: %s
Comments: %s

Task Information:
Title: %s
Description: %s
Comments: %s

EXISTING SUBTASKS (DO NOT DUPLICATE - be completely different):
%s

CRITICAL REQUIREMENTS:
1. Generate EXACTLY 5 NEW subtasks that are COMPLETELY DIFFERENT from existing subtasks
2. Each subtask must be UNIQUE - no similar titles or concepts to existing subtasks
3. All subtasks must contribute to completing the main task: "%s"
4. Think creatively about different approaches, phases, or aspects of the main task
5. Avoid any overlap with existing subtask titles or core concepts
6. Generate complementary subtasks that fill gaps in the existing work

Return ONLY a valid JSON array with exactly this structure:
[
  {
    "title": "Unique subtask title (max 100 chars, must be different from all existing)",
    "description": "Detailed subtask description (max 300 chars)"
  }
]

Response:`,
		input.ProjectTitle,
		orDefault(input.ProjectDescription, "No description provided"),
		orDefault(input.ProjectComments, "No comments"),
		input.TaskTitle,
		orDefault(input.TaskDescription, "No description provided"),
		orDefault(input.TaskComments, "No comments"),
		formatItems(input.ExistingSubtasks),
		input.TaskTitle,
	)
}

// BuildEnhancePrompt 组装描述优化提示词，要求纯文本输出
func BuildEnhancePrompt(input EnhancePromptInput) string {
	return fmt.Sprintf(`You are a writing assistant for a project management tool. Improve the description of the following %s.

Title: %s

Current description:
%s

Additional context from comments:
%s

REQUIREMENTS:
1. Rewrite the description to be clear, specific and actionable
2. Keep the original intent; do not invent requirements that are not implied
3. Maximum 500 characters
4. Return ONLY the improved description as plain text, no markdown, no quotes, no preamble

Response:`,
		input.EntityType,
		input.Title,
		orDefault(input.CurrentDescription, "No description provided"),
		orDefault(input.AdditionalContext, "None"),
	)
}
