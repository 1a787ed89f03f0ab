package models

// TaskView 任务响应结构体，附带描述与子任务
type TaskView struct {
	Task
	Description string        `json:"description,omitempty"`
	Subtasks    []SubtaskView `json:"subtasks,omitempty"`
}

// SubtaskView 子任务响应结构体，附带描述
type SubtaskView struct {
	Subtask
	Description string `json:"description,omitempty"`
}

// GenerateTasksResponse 生成任务响应
type GenerateTasksResponse struct {
	Tasks    []TaskView `json:"tasks"`
	Appended bool       `json:"appended"`
}

// GenerateSubtasksResponse 生成子任务响应
type GenerateSubtasksResponse struct {
	Subtasks []SubtaskView `json:"subtasks"`
	Appended bool          `json:"appended"`
}

// AcceptTaskResponse 采纳任务响应
type AcceptTaskResponse struct {
	Task    Task   `json:"task"`
	Message string `json:"message"`
}

// AcceptSubtaskResponse 采纳子任务响应
type AcceptSubtaskResponse struct {
	Subtask Subtask `json:"subtask"`
	Message string  `json:"message"`
}

// AcceptAllTasksResponse 批量采纳任务响应
type AcceptAllTasksResponse struct {
	AcceptedCount int    `json:"acceptedCount"`
	Tasks         []Task `json:"tasks"`
	Message       string `json:"message"`
}

// AcceptAllSubtasksResponse 批量采纳子任务响应
type AcceptAllSubtasksResponse struct {
	AcceptedCount int       `json:"acceptedCount"`
	Subtasks      []Subtask `json:"subtasks"`
	Message       string    `json:"message"`
}

// EnhanceDescriptionResponse 优化描述响应
type EnhanceDescriptionResponse struct {
	Description string `json:"description"`
}
