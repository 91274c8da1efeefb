package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/pkg/cache"
	"trading-journal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Daily bars stamped at the 09:30 New York open.
const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "currency": "USD", "exchangeTimezoneName": "America/New_York"%s},
      "timestamp": [1704205800, 1704292200, 1704378600, 1704465000, 1704724200],
      "indicators": {"quote": [{"close": [185.64, 184.25, null, 181.18, 185.56]}]}
    }],
    "error": null
  }
}`

func newMarketDataTestRepo(t *testing.T, handler http.HandlerFunc) (MarketDataRepository, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	repo := NewYahooFinanceRepository(config.MarketData{
		BaseURL:             srv.URL,
		Timeout:             5 * time.Second,
		MaxRequestPerMinute: 6000,
		LookbackDays:        60,
		LatestPriceTTL:      time.Minute,
	}, cache.NewCache(time.Minute, time.Minute), logger.Nop())
	return repo, &hits
}

func writeChart(w http.ResponseWriter, meta string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(fmt.Sprintf(chartBody, meta)))
}

func TestCloseOnOrBefore(t *testing.T) {
	var period1, period2 int64
	repo, _ := newMarketDataTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AAPL", r.URL.Path)
		period1, _ = strconv.ParseInt(r.URL.Query().Get("period1"), 10, 64)
		period2, _ = strconv.ParseInt(r.URL.Query().Get("period2"), 10, 64)
		writeChart(w, "")
	})
	ctx := context.Background()

	tests := []struct {
		name      string
		date      time.Time
		wantPrice float64
		wantDate  time.Time
	}{
		{"trading day", date(2024, 1, 3), 184.25, date(2024, 1, 3)},
		{"null close falls back a day", date(2024, 1, 4), 184.25, date(2024, 1, 3)},
		{"weekend falls back to friday", date(2024, 1, 7), 181.18, date(2024, 1, 5)},
		{"monday", date(2024, 1, 8), 185.56, date(2024, 1, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.CloseOnOrBefore(ctx, "AAPL", tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, got.Price)
			assert.True(t, got.Date.Equal(tt.wantDate), "got %s", got.Date)
			assert.False(t, got.Date.After(tt.date))
		})
	}

	assert.Equal(t, date(2024, 1, 8).AddDate(0, 0, -60).Unix(), period1)
	assert.Equal(t, date(2024, 1, 9).Unix(), period2)
}

func TestCloseOnOrBefore_NoData(t *testing.T) {
	repo, _ := newMarketDataTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		writeChart(w, "")
	})

	// every bar is after the requested date
	_, err := repo.CloseOnOrBefore(context.Background(), "AAPL", date(2023, 12, 29))
	assert.ErrorIs(t, err, dto.ErrMarketDataNotFound)
}

func TestCloseOnOrBefore_UnknownSymbol(t *testing.T) {
	repo, _ := newMarketDataTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := repo.CloseOnOrBefore(context.Background(), "NOPE", date(2024, 1, 3))
	assert.ErrorIs(t, err, dto.ErrMarketDataNotFound)
}

func TestLatestPrice(t *testing.T) {
	t.Run("regular market price, cached", func(t *testing.T) {
		repo, hits := newMarketDataTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "5d", r.URL.Query().Get("range"))
			writeChart(w, `, "regularMarketPrice": 190.5`)
		})

		price, err := repo.LatestPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, 190.5, price)

		price, err = repo.LatestPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, 190.5, price)
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	})

	t.Run("falls back to last close", func(t *testing.T) {
		repo, _ := newMarketDataTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
			writeChart(w, "")
		})

		price, err := repo.LatestPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, 185.56, price)
	})

	t.Run("server error", func(t *testing.T) {
		repo, _ := newMarketDataTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := repo.LatestPrice(context.Background(), "AAPL")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, dto.ErrMarketDataNotFound)
	})
}
