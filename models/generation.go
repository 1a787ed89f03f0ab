package models

import "time"

// Generation types.
const (
	GenerationTasks    = "tasks"
	GenerationSubtasks = "subtasks"
)

// AIGeneration 生成标记，每个 (entity_type, entity_id, generation_type)
// 一条，生成成功后 upsert，UI 据此判断是否可以 refresh。
type AIGeneration struct {
	ID             string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	EntityType     string    `gorm:"type:varchar(10);uniqueIndex:idx_generation_scope" json:"entityType"`
	EntityID       string    `gorm:"type:varchar(50);uniqueIndex:idx_generation_scope" json:"entityId"`
	GenerationType string    `gorm:"type:varchar(10);uniqueIndex:idx_generation_scope" json:"generationType"`
	GeneratedAt    time.Time `json:"generatedAt"`
}
