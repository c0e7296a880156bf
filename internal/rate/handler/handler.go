package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fxengine/internal/domain"
	"fxengine/internal/rate"

	"github.com/shopspring/decimal"
)

type currencyValidator interface {
	ValidateLookup(base, quote string) error
	ValidateConversion(from, to string) error
	SupportedCodes() []string
}

type fxEngine interface {
	Lookup(ctx context.Context, base, quote string, date time.Time) (domain.LookupResult, error)
	ConvertWithDetails(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (domain.Conversion, error)
	Health(ctx context.Context) ([]domain.QuoteHealth, error)
	Volatility(ctx context.Context, windowDays int) ([]domain.QuoteVolatility, error)
	Refresh(ctx context.Context, days int) (int, error)
	LastRefresh() (domain.RefreshOutcome, bool)
	Mode() *rate.Mode
	ToggleDynamicFetch() bool
	ClearCache()
	IngestionStats() domain.IngestionStats
	EffectiveSettings() domain.EffectiveSettings
}

type Handler struct {
	validator currencyValidator
	engine    fxEngine
}

func NewRateHandler(validator currencyValidator, engine fxEngine) *Handler {
	return &Handler{validator: validator, engine: engine}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{
		Error: errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps engine errors to HTTP status codes; ok is false for unexpected errors.
func statusFor(err error) (status int, ok bool) {
	switch {
	case errors.Is(err, domain.ErrRateNotFound), errors.Is(err, domain.ErrRateUnavailable):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrUnsupportedPair):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrFxDisabled):
		return http.StatusConflict, true
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway, true
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, true
	}
	return http.StatusInternalServerError, false
}

// parseDate reads an optional YYYY-MM-DD query value; empty means today.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return domain.ParseDate(raw)
}
