package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID        string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(100)" json:"email"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) GetDisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
