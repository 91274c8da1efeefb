package dto

import "time"

// YahooChartResponse mirrors the v8 chart endpoint. Bars with no trades carry null prices.
type YahooChartResponse struct {
	Chart struct {
		Result []YahooChartResult `json:"result"`
		Error  *YahooChartError   `json:"error"`
	} `json:"chart"`
}

type YahooChartResult struct {
	Meta struct {
		Symbol               string   `json:"symbol"`
		Currency             string   `json:"currency"`
		ExchangeTimezoneName string   `json:"exchangeTimezoneName"`
		RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type YahooChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// HistoricalClose is a daily close together with the calendar date it belongs to.
type HistoricalClose struct {
	Price float64   `json:"price"`
	Date  time.Time `json:"date"`
}
