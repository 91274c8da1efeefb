package dto

import "errors"

var (
	ErrTradeNotFound      = errors.New("trade not found")
	ErrInvalidTradeState  = errors.New("invalid trade state")
	ErrMarketDataNotFound = errors.New("market data not found")
	ErrCritiqueNotFound   = errors.New("critique not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrInvalidArgument    = errors.New("invalid argument")
)
