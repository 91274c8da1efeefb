package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/pkg/cache"
	"trading-journal/pkg/common"
	"trading-journal/pkg/httpclient"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/utils"

	"golang.org/x/time/rate"
)

type MarketDataRepository interface {
	// LatestPrice returns the most recent traded price for ticker.
	LatestPrice(ctx context.Context, ticker string) (float64, error)
	// CloseOnOrBefore returns the daily close for date or, when the market was shut,
	// the nearest earlier close within the lookback window. The returned date is never after date.
	CloseOnOrBefore(ctx context.Context, ticker string, date time.Time) (*dto.HistoricalClose, error)
}

type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            config.MarketData
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	cache          cache.Cache
}

func NewYahooFinanceRepository(cfg config.MarketData, inmemoryCache cache.Cache, log *logger.Logger) MarketDataRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &yahooFinanceRepository{
		httpClient:     httpclient.New(log, cfg.BaseURL, cfg.Timeout, ""),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		cache:          inmemoryCache,
	}
}

func (r *yahooFinanceRepository) LatestPrice(ctx context.Context, ticker string) (float64, error) {
	key := fmt.Sprintf(common.KEY_LAST_PRICE, ticker)
	if price, ok := cache.GetFromCache[float64](r.cache, key); ok {
		return price, nil
	}

	result, err := r.fetchChart(ctx, ticker, map[string]string{
		"range":    "5d",
		"interval": "1d",
	})
	if err != nil {
		return 0, err
	}

	price := 0.0
	if result.Meta.RegularMarketPrice != nil && utils.IsFinitePositive(*result.Meta.RegularMarketPrice) {
		price = *result.Meta.RegularMarketPrice
	} else {
		for _, bar := range dailyCloses(result) {
			price = bar.Price
		}
	}

	if price == 0 {
		return 0, fmt.Errorf("no latest price for %s: %w", ticker, dto.ErrMarketDataNotFound)
	}

	if r.cache != nil {
		r.cache.Set(key, price, r.cfg.LatestPriceTTL)
	}
	return price, nil
}

func (r *yahooFinanceRepository) CloseOnOrBefore(ctx context.Context, ticker string, date time.Time) (*dto.HistoricalClose, error) {
	date = utils.CivilDate(date)
	start := date.AddDate(0, 0, -r.cfg.LookbackDays)
	end := date.AddDate(0, 0, 1)

	result, err := r.fetchChart(ctx, ticker, map[string]string{
		"period1":  strconv.FormatInt(start.Unix(), 10),
		"period2":  strconv.FormatInt(end.Unix(), 10),
		"interval": "1d",
	})
	if err != nil {
		return nil, err
	}

	closes := make(map[time.Time]float64)
	for _, bar := range dailyCloses(result) {
		closes[bar.Date] = bar.Price
	}

	for d := date; !d.Before(start); d = d.AddDate(0, 0, -1) {
		if price, ok := closes[d]; ok {
			return &dto.HistoricalClose{Price: price, Date: d}, nil
		}
	}

	return nil, fmt.Errorf("no close for %s on or before %s: %w", ticker, utils.FormatDate(date), dto.ErrMarketDataNotFound)
}

func (r *yahooFinanceRepository) fetchChart(ctx context.Context, ticker string, queryParams map[string]string) (*dto.YahooChartResult, error) {
	if !r.requestLimiter.Allow() {
		r.logger.WarnContext(ctx, "Yahoo Finance API request limit exceeded, waiting",
			logger.IntField("max_request_per_minute", r.cfg.MaxRequestPerMinute),
		)
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	headers := map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}

	var yahooResp dto.YahooChartResponse
	resp, err := r.httpClient.Get(ctx, "/"+url.PathEscape(ticker), queryParams, headers, &yahooResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from yahoo finance: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("unknown symbol %s: %w", ticker, dto.ErrMarketDataNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.StringField("ticker", ticker),
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("yahoo finance api returned status: %d", resp.StatusCode)
	}

	if yahooResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance api error %s: %s: %w",
			yahooResp.Chart.Error.Code, yahooResp.Chart.Error.Description, dto.ErrMarketDataNotFound)
	}

	if len(yahooResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data returned for symbol %s: %w", ticker, dto.ErrMarketDataNotFound)
	}

	return &yahooResp.Chart.Result[0], nil
}

// dailyCloses pairs every non-null close with its calendar date in the exchange time zone,
// in the order the bars were returned.
func dailyCloses(result *dto.YahooChartResult) []dto.HistoricalClose {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	loc := time.UTC
	if tz := result.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	quote := result.Indicators.Quote[0]
	bars := make([]dto.HistoricalClose, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil || !utils.IsFinitePositive(*quote.Close[i]) {
			continue
		}
		bars = append(bars, dto.HistoricalClose{
			Price: *quote.Close[i],
			Date:  utils.CivilDate(time.Unix(ts, 0).In(loc)),
		})
	}
	return bars
}
