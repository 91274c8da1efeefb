package repository

import (
	"context"
	"errors"
	"strings"

	"trading-journal/internal/dto"
	"trading-journal/internal/model"
	"trading-journal/pkg/utils"

	"gorm.io/gorm"
)

type TradeRepository interface {
	Create(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error
	GetByID(ctx context.Context, id string, opts ...utils.DBOption) (*model.Trade, error)
	Get(ctx context.Context, param dto.GetTradesParam, opts ...utils.DBOption) ([]model.Trade, error)
	// Transition applies values only while the trade is still in status from.
	// It reports false when the row was missing or had already moved on.
	Transition(ctx context.Context, id string, from model.TradeStatus, values map[string]interface{}, opts ...utils.DBOption) (bool, error)
	UpdateUnrealized(ctx context.Context, id string, pnlUsd, returnPct float64, opts ...utils.DBOption) (bool, error)
}

type tradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{
		db: db,
	}
}

func (r *tradeRepository) Create(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(trade).Error
}

func (r *tradeRepository) GetByID(ctx context.Context, id string, opts ...utils.DBOption) (*model.Trade, error) {
	var trade model.Trade
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("id = ?", id).First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

func (r *tradeRepository) Get(ctx context.Context, param dto.GetTradesParam, opts ...utils.DBOption) ([]model.Trade, error) {
	var trades []model.Trade

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.IDs) > 0 {
		qFilter = append(qFilter, "id IN (?)")
		qFilterParam = append(qFilterParam, param.IDs)
	}

	if param.UserID != "" {
		qFilter = append(qFilter, "user_id = ?")
		qFilterParam = append(qFilterParam, param.UserID)
	}

	if len(param.Statuses) > 0 {
		qFilter = append(qFilter, "status IN (?)")
		qFilterParam = append(qFilterParam, param.Statuses)
	}

	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if len(qFilter) > 0 {
		tx = tx.Where(strings.Join(qFilter, " AND "), qFilterParam...)
	}

	if err := tx.Order("created_at ASC").Order("id ASC").Find(&trades).Error; err != nil {
		return nil, err
	}

	return trades, nil
}

func (r *tradeRepository) Transition(ctx context.Context, id string, from model.TradeStatus, values map[string]interface{}, opts ...utils.DBOption) (bool, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Trade{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *tradeRepository) UpdateUnrealized(ctx context.Context, id string, pnlUsd, returnPct float64, opts ...utils.DBOption) (bool, error) {
	return r.Transition(ctx, id, model.TradeStatusOpen, map[string]interface{}{
		"unrealized_pnl_usd":    pnlUsd,
		"unrealized_return_pct": returnPct,
	}, opts...)
}
