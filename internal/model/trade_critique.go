package model

import (
	"time"

	"gorm.io/datatypes"
)

type TradeCritique struct {
	ID                 string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID             string         `gorm:"not null;index" json:"user_id"`
	Idea               string         `gorm:"not null" json:"idea"`
	Critique           string         `gorm:"not null" json:"critique"`
	Decision           string         `gorm:"not null" json:"decision"`
	CashRecommendation string         `json:"cash_recommendation"`
	Provider           string         `gorm:"not null" json:"provider"`
	Response           datatypes.JSON `json:"response"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (TradeCritique) TableName() string {
	return "trade_critiques"
}
