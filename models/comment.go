package models

import (
	"fmt"
	"time"
)

// EntityKind 实体类型标签，接口层使用强类型引用，仅在存储层展开为
// entity_type 字符串。
type EntityKind string

const (
	EntityProject EntityKind = "project"
	EntityTask    EntityKind = "task"
	EntitySubtask EntityKind = "subtask"
)

// ParseEntityKind 解析请求中的实体类型
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case EntityProject, EntityTask, EntitySubtask:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("invalid entity type: %q", s)
}

// EntityRef 实体引用
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// Comment 评论模型，append-only，按创建时间排序
type Comment struct {
	ID         string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	EntityType string    `gorm:"type:varchar(10);index:idx_comments_entity" json:"entityType"`
	EntityID   string    `gorm:"type:varchar(50);index:idx_comments_entity" json:"entityId"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
