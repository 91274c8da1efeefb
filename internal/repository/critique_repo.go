package repository

import (
	"context"
	"errors"

	"trading-journal/internal/model"
	"trading-journal/pkg/utils"

	"gorm.io/gorm"
)

type CritiqueRepository interface {
	Create(ctx context.Context, critique *model.TradeCritique, opts ...utils.DBOption) error
	GetByID(ctx context.Context, id string, opts ...utils.DBOption) (*model.TradeCritique, error)
	ListByUser(ctx context.Context, userID string, limit int, opts ...utils.DBOption) ([]model.TradeCritique, error)
}

type critiqueRepository struct {
	db *gorm.DB
}

func NewCritiqueRepository(db *gorm.DB) CritiqueRepository {
	return &critiqueRepository{
		db: db,
	}
}

func (r *critiqueRepository) Create(ctx context.Context, critique *model.TradeCritique, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(critique).Error
}

func (r *critiqueRepository) GetByID(ctx context.Context, id string, opts ...utils.DBOption) (*model.TradeCritique, error) {
	var critique model.TradeCritique
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("id = ?", id).First(&critique).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &critique, nil
}

func (r *critiqueRepository) ListByUser(ctx context.Context, userID string, limit int, opts ...utils.DBOption) ([]model.TradeCritique, error) {
	var critiques []model.TradeCritique
	opts = append(opts, utils.WithOrder("created_at DESC"))
	if limit > 0 {
		opts = append(opts, utils.WithLimit(limit))
	}
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("user_id = ?", userID).Find(&critiques).Error
	return critiques, err
}
