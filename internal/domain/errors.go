package domain

import "errors"

var (
	ErrRateNotFound        = errors.New("rate not found")
	ErrRateUnavailable     = errors.New("no fx rate available")
	ErrQuoteNotLoaded      = errors.New("quote currency not loaded into snapshot")
	ErrProviderUnavailable = errors.New("fx provider unavailable")
	ErrFxDisabled          = errors.New("fx subsystem disabled")
	ErrUnsupportedPair     = errors.New("currency pair not supported")
)
