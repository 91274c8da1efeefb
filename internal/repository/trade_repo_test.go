package repository

import (
	"context"
	"testing"
	"time"

	"trading-journal/internal/dto"
	"trading-journal/internal/model"
	"trading-journal/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedTrade(t *testing.T, repo TradeRepository, userID string, status model.TradeStatus) *model.Trade {
	t.Helper()
	trade := &model.Trade{
		ID:           uuid.NewString(),
		UserID:       userID,
		Ticker:       "AAPL",
		PositionType: model.PositionTypeLong,
		NumShares:    10,
		Status:       status,
		OpenedByUser: true,
	}
	if status == model.TradeStatusScheduled {
		trade.PendingOpenDate = utils.ToPointer(date(2024, 1, 10))
	} else {
		trade.EntryDate = utils.ToPointer(date(2024, 1, 2))
		trade.EntryPrice = utils.ToPointer(100.0)
	}
	require.NoError(t, repo.Create(context.Background(), trade))
	return trade
}

func TestTradeRepository_CreateAndGetByID(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()

	created := seedTrade(t, repo, "u-1", model.TradeStatusOpen)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, model.TradeStatusOpen, got.Status)
	assert.Equal(t, 100.0, *got.EntryPrice)
	assert.True(t, got.EntryDate.Equal(date(2024, 1, 2)))
	assert.Nil(t, got.PendingOpenDate)

	missing, err := repo.GetByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTradeRepository_Get(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()

	seedTrade(t, repo, "u-1", model.TradeStatusOpen)
	seedTrade(t, repo, "u-1", model.TradeStatusScheduled)
	seedTrade(t, repo, "u-2", model.TradeStatusScheduled)

	all, err := repo.Get(ctx, dto.GetTradesParam{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := repo.Get(ctx, dto.GetTradesParam{UserID: "u-1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	scheduled, err := repo.Get(ctx, dto.GetTradesParam{Statuses: []model.TradeStatus{model.TradeStatusScheduled}})
	require.NoError(t, err)
	assert.Len(t, scheduled, 2)

	mineScheduled, err := repo.Get(ctx, dto.GetTradesParam{UserID: "u-1", Statuses: []model.TradeStatus{model.TradeStatusScheduled}})
	require.NoError(t, err)
	require.Len(t, mineScheduled, 1)
	assert.Equal(t, "u-1", mineScheduled[0].UserID)
}

func TestTradeRepository_Transition(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()
	trade := seedTrade(t, repo, "u-1", model.TradeStatusScheduled)

	values := map[string]interface{}{
		"status":            model.TradeStatusOpen,
		"entry_price":       101.25,
		"entry_date":        date(2024, 1, 10),
		"pending_open_date": nil,
	}

	ok, err := repo.Transition(ctx, trade.ID, model.TradeStatusScheduled, values)
	require.NoError(t, err)
	assert.True(t, ok)

	// second attempt loses: the trade is no longer scheduled
	ok, err = repo.Transition(ctx, trade.ID, model.TradeStatusScheduled, values)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusOpen, got.Status)
	assert.Nil(t, got.PendingOpenDate)
	assert.Equal(t, 101.25, *got.EntryPrice)
}

func TestTradeRepository_UpdateUnrealized(t *testing.T) {
	repo := NewTradeRepository(newTestDB(t))
	ctx := context.Background()

	open := seedTrade(t, repo, "u-1", model.TradeStatusOpen)
	closed := seedTrade(t, repo, "u-1", model.TradeStatusClosed)

	ok, err := repo.UpdateUnrealized(ctx, open.ID, 25.5, 2.55)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateUnrealized(ctx, closed.ID, 99, 9.9)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.5, *got.UnrealizedPnlUsd)
	assert.Equal(t, 2.55, *got.UnrealizedReturnPct)

	untouched, err := repo.GetByID(ctx, closed.ID)
	require.NoError(t, err)
	assert.Nil(t, untouched.UnrealizedPnlUsd)
}

func TestUnitOfWork_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	repo := NewTradeRepository(db)
	uow := NewUnitOfWork(db)
	ctx := context.Background()

	err := uow.Run(func(opts ...utils.DBOption) error {
		trade := &model.Trade{
			ID: uuid.NewString(), UserID: "u-1", Ticker: "AAPL",
			PositionType: model.PositionTypeLong, NumShares: 1, Status: model.TradeStatusOpen,
		}
		if err := repo.Create(ctx, trade, opts...); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	all, err := repo.Get(ctx, dto.GetTradesParam{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
