package models

import "time"

// Subtask 子任务模型
type Subtask struct {
	ID         string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	TaskID     string    `gorm:"type:varchar(50);index" json:"taskId"`
	Name       string    `gorm:"type:varchar(100)" json:"name"`
	Status     string    `gorm:"type:varchar(20);default:To-Do" json:"status"`
	OrderIndex int       `gorm:"default:0" json:"orderIndex"`
	SourceType string    `gorm:"type:varchar(10);default:user" json:"sourceType"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
