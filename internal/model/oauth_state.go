package model

import "time"

type OAuthState struct {
	State     string    `gorm:"primaryKey" json:"state"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (OAuthState) TableName() string {
	return "oauth_states"
}
