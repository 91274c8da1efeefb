package service

import (
	"context"
	"testing"
	"time"

	"trading-journal/internal/dto"
	"trading-journal/internal/model"
	"trading-journal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerService_StartStop(t *testing.T) {
	f := newTradeFixture(t)
	cfg := testConfig()
	cfg.Scheduler.Cron = "*/15 * * * *"

	s := newSchedulerService(cfg, logger.Nop(), f.svc)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.False(t, s.NextRun().IsZero())

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(stopCtx))
}

func TestSchedulerService_StartRejectsBadCron(t *testing.T) {
	f := newTradeFixture(t)
	cfg := testConfig()
	cfg.Scheduler.Cron = "every now and then"

	s := newSchedulerService(cfg, logger.Nop(), f.svc)
	assert.Error(t, s.Start(context.Background()))
	assert.True(t, s.NextRun().IsZero())
}

func TestSchedulerService_RunTicks(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()

	_, err := f.svc.ScheduleTrade(ctx, dto.ScheduleTradeParam{
		UserID: me.UserID, Ticker: "AAPL", PositionType: model.PositionTypeLong,
		NumShares: 10, ScheduledDate: date(2024, 1, 9),
	})
	require.NoError(t, err)
	f.market.setClose("AAPL", date(2024, 1, 9), 185.14)

	s := newSchedulerService(testConfig(), logger.Nop(), f.svc)
	s.run(ctx)

	trades, err := f.tradeRepo.Get(ctx, dto.GetTradesParam{UserID: me.UserID})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, model.TradeStatusOpen, trades[0].Status)
}
