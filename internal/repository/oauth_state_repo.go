package repository

import (
	"context"
	"time"

	"trading-journal/internal/model"
	"trading-journal/pkg/utils"

	"gorm.io/gorm"
)

type OAuthStateRepository interface {
	Store(ctx context.Context, state *model.OAuthState, opts ...utils.DBOption) error
	// Consume deletes an unexpired state and reports whether one was found.
	Consume(ctx context.Context, state string, now time.Time, opts ...utils.DBOption) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time, opts ...utils.DBOption) (int64, error)
}

type oauthStateRepository struct {
	db *gorm.DB
}

func NewOAuthStateRepository(db *gorm.DB) OAuthStateRepository {
	return &oauthStateRepository{
		db: db,
	}
}

func (r *oauthStateRepository) Store(ctx context.Context, state *model.OAuthState, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(state).Error
}

func (r *oauthStateRepository) Consume(ctx context.Context, state string, now time.Time, opts ...utils.DBOption) (bool, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("state = ? AND expires_at > ?", state, now.UTC()).
		Delete(&model.OAuthState{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *oauthStateRepository) DeleteExpired(ctx context.Context, now time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("expires_at <= ?", now.UTC()).
		Delete(&model.OAuthState{})
	return result.RowsAffected, result.Error
}
