package models

import (
	"time"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name    string     `json:"name" binding:"required"`
	Status  string     `json:"status"`
	DueDate *time.Time `json:"dueDate"`
}

// UpdateProjectRequest 更新项目请求，nil 字段不更新
type UpdateProjectRequest struct {
	Name     *string    `json:"name"`
	Status   *string    `json:"status"`
	DueDate  *time.Time `json:"dueDate"`
	Archived *bool      `json:"archived"`
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Status    string `json:"status"`
}

// UpdateTaskRequest 更新任务请求
type UpdateTaskRequest struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

// CreateSubtaskRequest 创建子任务请求
type CreateSubtaskRequest struct {
	TaskID string `json:"taskId" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Status string `json:"status"`
}

// UpdateSubtaskRequest 更新子任务请求
type UpdateSubtaskRequest struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

// ReorderRequest 重排请求，ids 按新的展示顺序排列，order_index 重写为 0..n-1
type ReorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// SaveDescriptionRequest 保存描述请求
type SaveDescriptionRequest struct {
	Description string `json:"description"`
}

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	EntityType string `json:"entityType" binding:"required"`
	EntityID   string `json:"entityId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// GenerateTasksRequest AI 生成任务请求
type GenerateTasksRequest struct {
	ProjectID string `json:"projectId"`
	Refresh   bool   `json:"refresh"`
}

// GenerateSubtasksRequest AI 生成子任务请求
type GenerateSubtasksRequest struct {
	TaskID  string `json:"taskId"`
	Refresh bool   `json:"refresh"`
}

// AcceptTaskRequest 采纳单个 AI 任务
type AcceptTaskRequest struct {
	TaskID string `json:"taskId"`
}

// AcceptSubtaskRequest 采纳单个 AI 子任务
type AcceptSubtaskRequest struct {
	SubtaskID string `json:"subtaskId"`
}

// AcceptAllTasksRequest 采纳项目下全部 AI 任务
type AcceptAllTasksRequest struct {
	ProjectID string `json:"projectId"`
}

// AcceptAllSubtasksRequest 采纳任务下全部 AI 子任务
type AcceptAllSubtasksRequest struct {
	TaskID string `json:"taskId"`
}

// EnhanceDescriptionRequest AI 优化描述请求
type EnhanceDescriptionRequest struct {
	EntityID   string `json:"entityId"`
	EntityType string `json:"entityType"`
}
