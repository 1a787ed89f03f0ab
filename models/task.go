package models

import (
	"time"
)

// Task / Subtask statuses.
const (
	StatusToDo       = "To-Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// Source types. SourceAI rows become SourceUser through the accept
// endpoints; there is no transition in the other direction.
const (
	SourceUser = "user"
	SourceAI   = "ai"
)

// Task 任务模型
type Task struct {
	ID         string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	ProjectID  string    `gorm:"type:varchar(50);index" json:"projectId"`
	Name       string    `gorm:"type:varchar(100)" json:"name"`
	Status     string    `gorm:"type:varchar(20);default:To-Do" json:"status"`
	OrderIndex int       `gorm:"default:0" json:"orderIndex"`
	SourceType string    `gorm:"type:varchar(10);default:user" json:"sourceType"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func ValidItemStatus(s string) bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}
