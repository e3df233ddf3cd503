package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidParameters   = errors.New("invalid order parameters")
	ErrUntradeableMarket   = errors.New("market has no settlement condition")
	ErrExchangeRejected    = errors.New("exchange rejected order")
	ErrSigningFailed       = errors.New("signing failed")
	ErrContextDone         = errors.New("context cancelled")
)
