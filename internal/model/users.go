package model

import "time"

// User is keyed by the Google subject identifier.
type User struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"not null;uniqueIndex" json:"email"`
	Name        string    `json:"name"`
	LastLoginAt time.Time `gorm:"not null" json:"last_login_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
