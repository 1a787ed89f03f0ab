package models

import (
	"time"
)

// Project statuses.
const (
	ProjectStatusActive    = "Active"
	ProjectStatusCompleted = "Completed"
	ProjectStatusArchived  = "Archived"
)

// Project 项目模型
type Project struct {
	ID         string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	Name       string     `gorm:"type:varchar(100)" json:"name"`
	Status     string     `gorm:"type:varchar(20);default:Active" json:"status"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Archived   bool       `gorm:"default:false" json:"archived"`
	OrderIndex int        `gorm:"default:0" json:"orderIndex"`
	UserID     string     `gorm:"type:varchar(50);index" json:"userId"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	}
	return false
}
