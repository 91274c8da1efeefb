package dto

import (
	"time"

	"trading-journal/internal/model"
	"trading-journal/pkg/utils"
)

const (
	PriceSourceManual = "manual"
	PriceSourceLatest = "latest"
)

type OpenTradeRequest struct {
	Ticker       string `json:"ticker" validate:"required,max=16"`
	PositionType string `json:"position_type" validate:"required,oneof=long short"`
	NumShares    int    `json:"num_shares" validate:"required,gt=0"`
	EntryDate    string `json:"entry_date" validate:"required,datetime=2006-01-02"`
	CritiqueID   string `json:"critique_id" validate:"omitempty,uuid"`
}

type ClosePositionRequest struct {
	PriceSource string   `json:"price_source" validate:"required,oneof=manual latest"`
	ClosePrice  *float64 `json:"close_price" validate:"required_if=PriceSource manual,omitempty,gte=0"`
	CloseDate   string   `json:"close_date" validate:"omitempty,datetime=2006-01-02"`
}

// OpenImmediateTradeParam carries the already resolved entry of a trade opened now.
type OpenImmediateTradeParam struct {
	UserID        string
	Ticker        string
	PositionType  model.PositionType
	NumShares     int
	EntryDate     time.Time
	EntryPrice    float64
	OpenedByUser  bool
	OpenedByModel bool
	CritiqueID    *string
}

type ScheduleTradeParam struct {
	UserID        string
	Ticker        string
	PositionType  model.PositionType
	NumShares     int
	ScheduledDate time.Time
	OpenedByUser  bool
	OpenedByModel bool
	CritiqueID    *string
}

type GetTradesParam struct {
	IDs      []string
	UserID   string
	Statuses []model.TradeStatus
}

type TradeResponse struct {
	ID                  string   `json:"id"`
	Ticker              string   `json:"ticker"`
	PositionType        string   `json:"position_type"`
	NumShares           int      `json:"num_shares"`
	Status              string   `json:"status"`
	EntryDate           string   `json:"entry_date,omitempty"`
	EntryPrice          *float64 `json:"entry_price,omitempty"`
	PendingOpenDate     string   `json:"pending_open_date,omitempty"`
	CloseDate           string   `json:"close_date,omitempty"`
	ClosePrice          *float64 `json:"close_price,omitempty"`
	PnlUsd              *float64 `json:"pnl_usd,omitempty"`
	ReturnPct           *float64 `json:"return_pct,omitempty"`
	UnrealizedPnlUsd    *float64 `json:"unrealized_pnl_usd,omitempty"`
	UnrealizedReturnPct *float64 `json:"unrealized_return_pct,omitempty"`
	OpenedByUser        bool     `json:"opened_by_user"`
	OpenedByModel       bool     `json:"opened_by_model"`
	CritiqueID          *string  `json:"critique_id,omitempty"`
	CreatedAt           string   `json:"created_at"`
}

func NewTradeResponse(t model.Trade) TradeResponse {
	return TradeResponse{
		ID:                  t.ID,
		Ticker:              t.Ticker,
		PositionType:        string(t.PositionType),
		NumShares:           t.NumShares,
		Status:              string(t.Status),
		EntryDate:           utils.FormatDatePtr(t.EntryDate),
		EntryPrice:          t.EntryPrice,
		PendingOpenDate:     utils.FormatDatePtr(t.PendingOpenDate),
		CloseDate:           utils.FormatDatePtr(t.CloseDate),
		ClosePrice:          t.ClosePrice,
		PnlUsd:              t.PnlUsd,
		ReturnPct:           t.ReturnPct,
		UnrealizedPnlUsd:    t.UnrealizedPnlUsd,
		UnrealizedReturnPct: t.UnrealizedReturnPct,
		OpenedByUser:        t.OpenedByUser,
		OpenedByModel:       t.OpenedByModel,
		CritiqueID:          t.CritiqueID,
		CreatedAt:           t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type PositionsResponse struct {
	Scheduled []TradeResponse `json:"scheduled"`
	Open      []TradeResponse `json:"open"`
	Closed    []TradeResponse `json:"closed"`
}

// NewPositionsResponse groups trades by status, keeping the given order within each group.
func NewPositionsResponse(trades []model.Trade) PositionsResponse {
	resp := PositionsResponse{
		Scheduled: []TradeResponse{},
		Open:      []TradeResponse{},
		Closed:    []TradeResponse{},
	}
	for _, t := range trades {
		switch t.Status {
		case model.TradeStatusScheduled:
			resp.Scheduled = append(resp.Scheduled, NewTradeResponse(t))
		case model.TradeStatusOpen:
			resp.Open = append(resp.Open, NewTradeResponse(t))
		case model.TradeStatusClosed:
			resp.Closed = append(resp.Closed, NewTradeResponse(t))
		}
	}
	return resp
}

type TickResult struct {
	Finalized int `json:"finalized"`
	Refreshed int `json:"refreshed"`
}
