package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/internal/model"
	"trading-journal/internal/repository"
	"trading-journal/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.OAuthState{}, &model.Trade{}, &model.TradeCritique{}))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Market: config.Market{TimeZone: "America/New_York"},
		Auth: config.Auth{
			AllowedEmails: []string{"me@example.com"},
			JWTSecret:     "test-secret",
			SessionTTL:    time.Hour,
			StateTTL:      10 * time.Minute,
		},
		Critique: config.Critique{
			Provider:             "gemini",
			UserRequestPerMinute: 2,
		},
		Scheduler: config.Scheduler{TimeoutDuration: 30 * time.Second},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeMarketData serves fixed closes and latest prices and counts lookups.
type fakeMarketData struct {
	mu          sync.Mutex
	closes      map[string]map[time.Time]float64
	latest      map[string]float64
	latestCalls map[string]int
}

func newFakeMarketData() *fakeMarketData {
	return &fakeMarketData{
		closes:      make(map[string]map[time.Time]float64),
		latest:      make(map[string]float64),
		latestCalls: make(map[string]int),
	}
}

func (f *fakeMarketData) setClose(ticker string, d time.Time, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes[ticker] == nil {
		f.closes[ticker] = make(map[time.Time]float64)
	}
	f.closes[ticker][d] = price
}

func (f *fakeMarketData) LatestPrice(_ context.Context, ticker string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestCalls[ticker]++
	p, ok := f.latest[ticker]
	if !ok {
		return 0, fmt.Errorf("no quote for %s: %w", ticker, dto.ErrMarketDataNotFound)
	}
	return p, nil
}

func (f *fakeMarketData) CloseOnOrBefore(_ context.Context, ticker string, d time.Time) (*dto.HistoricalClose, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for day := d; !day.Before(d.AddDate(0, 0, -60)); day = day.AddDate(0, 0, -1) {
		if p, ok := f.closes[ticker][day]; ok {
			return &dto.HistoricalClose{Price: p, Date: day}, nil
		}
	}
	return nil, fmt.Errorf("no close for %s: %w", ticker, dto.ErrMarketDataNotFound)
}

type recordingNotifier struct {
	messages chan string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages <- message
	return nil
}

type tradeFixture struct {
	svc          *tradeService
	tradeRepo    repository.TradeRepository
	critiqueRepo repository.CritiqueRepository
	market       *fakeMarketData
}

// newTradeFixture pins "now" to 2024-01-10 15:00 in New York.
func newTradeFixture(t *testing.T) *tradeFixture {
	t.Helper()
	db := newTestDB(t)
	tradeRepo := repository.NewTradeRepository(db)
	critiqueRepo := repository.NewCritiqueRepository(db)
	market := newFakeMarketData()

	svc := newTradeService(testConfig(), logger.Nop(), tradeRepo, critiqueRepo, market, nil)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, ny) }

	return &tradeFixture{svc: svc, tradeRepo: tradeRepo, critiqueRepo: critiqueRepo, market: market}
}
