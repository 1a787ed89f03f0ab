package models

import "time"

// 描述详情为 1:1 可选记录，首次保存描述时惰性创建，之后原地更新。

// ProjectDetail 项目描述
type ProjectDetail struct {
	ID          string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	ProjectID   string    `gorm:"type:varchar(50);uniqueIndex" json:"projectId"`
	Description string    `gorm:"type:text" json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskDetail 任务描述
type TaskDetail struct {
	ID          string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	TaskID      string    `gorm:"type:varchar(50);uniqueIndex" json:"taskId"`
	Description string    `gorm:"type:text" json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SubtaskDetail 子任务描述
type SubtaskDetail struct {
	ID          string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	SubtaskID   string    `gorm:"type:varchar(50);uniqueIndex" json:"subtaskId"`
	Description string    `gorm:"type:text" json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
