package errors

import "errors"

var (
	ErrorExchangeNotFound = errors.New("store: exchange not found")
	ErrorCoinNotFound     = errors.New("store: coin not found")
	ErrorSeriesNotFound   = errors.New("store: series not found")
)
