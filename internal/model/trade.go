package model

import "time"

type TradeStatus string

const (
	TradeStatusScheduled TradeStatus = "scheduled"
	TradeStatusOpen      TradeStatus = "open"
	TradeStatusClosed    TradeStatus = "closed"
)

type PositionType string

const (
	PositionTypeLong  PositionType = "long"
	PositionTypeShort PositionType = "short"
)

func (p PositionType) IsValid() bool {
	return p == PositionTypeLong || p == PositionTypeShort
}

// Trade is a single position record. A scheduled trade carries PendingOpenDate;
// open and closed trades carry EntryDate and EntryPrice instead.
type Trade struct {
	ID                  string       `gorm:"primaryKey;type:uuid" json:"id"`
	UserID              string       `gorm:"not null;index" json:"user_id"`
	Ticker              string       `gorm:"not null" json:"ticker"`
	PositionType        PositionType `gorm:"not null" json:"position_type"`
	NumShares           int          `gorm:"not null" json:"num_shares"`
	EntryDate           *time.Time   `gorm:"type:date" json:"entry_date"`
	EntryPrice          *float64     `json:"entry_price"`
	Status              TradeStatus  `gorm:"not null;index" json:"status"`
	PendingOpenDate     *time.Time   `gorm:"type:date" json:"pending_open_date"`
	CloseDate           *time.Time   `gorm:"type:date" json:"close_date"`
	ClosePrice          *float64     `json:"close_price"`
	PnlUsd              *float64     `json:"pnl_usd"`
	ReturnPct           *float64     `json:"return_pct"`
	UnrealizedPnlUsd    *float64     `json:"unrealized_pnl_usd"`
	UnrealizedReturnPct *float64     `json:"unrealized_return_pct"`
	OpenedByUser        bool         `gorm:"not null" json:"opened_by_user"`
	OpenedByModel       bool         `gorm:"not null" json:"opened_by_model"`
	CritiqueID          *string      `gorm:"type:uuid" json:"critique_id"`
	CreatedAt           time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Trade) TableName() string {
	return "trades"
}
