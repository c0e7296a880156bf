package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fxengine/internal/domain"

	"github.com/shopspring/decimal"
)

// RequestCache is the conversion context of one request. It remembers every leg it looked up,
// so converting many amounts on the same dates costs one lookup per (quote, date).
type RequestCache struct {
	lookup lookuper
	base   string

	mu    sync.Mutex
	rates map[string]domain.LookupResult
}

// Convert returns amount expressed in `to`, rounded to 8 fractional digits.
func (c *RequestCache) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	conv, err := c.ConvertWithDetails(ctx, amount, from, to, date)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return conv.Result, nil
}

// AmountInBase converts amount from currency into the canonical base.
func (c *RequestCache) AmountInBase(ctx context.Context, amount decimal.Decimal, currency string, date time.Time) (decimal.Decimal, error) {
	return c.Convert(ctx, amount, currency, c.base, date)
}

// ConvertWithDetails converts through the base: base->X multiplies by rate(X), X->base divides by
// rate(X), X->Y multiplies by rate(Y)/rate(X). Warnings of every leg are kept.
func (c *RequestCache) ConvertWithDetails(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (domain.Conversion, error) {
	conv := domain.Conversion{Amount: amount, From: from, To: to, Date: date}

	switch {
	case from == to:
		conv.Result = amount
	case from == c.base:
		toRate, err := c.rate(ctx, to, date)
		if err != nil {
			return domain.Conversion{}, err
		}
		conv.Result = amount.Mul(toRate.Rate).Round(domain.RateScale)
		conv.Warnings = toRate.Warnings
	case to == c.base:
		fromRate, err := c.rate(ctx, from, date)
		if err != nil {
			return domain.Conversion{}, err
		}
		conv.Result = amount.DivRound(fromRate.Rate, domain.RateScale)
		conv.Warnings = fromRate.Warnings
	default:
		fromRate, err := c.rate(ctx, from, date)
		if err != nil {
			return domain.Conversion{}, err
		}
		toRate, err := c.rate(ctx, to, date)
		if err != nil {
			return domain.Conversion{}, err
		}
		conv.Result = amount.Mul(toRate.Rate).DivRound(fromRate.Rate, domain.RateScale)
		conv.Warnings = append(append([]domain.Warning{}, fromRate.Warnings...), toRate.Warnings...)
	}
	return conv, nil
}

func (c *RequestCache) rate(ctx context.Context, quote string, date time.Time) (domain.LookupResult, error) {
	key := memoKey(c.base, quote, date)

	c.mu.Lock()
	res, ok := c.rates[key]
	c.mu.Unlock()
	if ok {
		return res, nil
	}

	res, err := c.lookup.Lookup(ctx, c.base, quote, date)
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("failed to look up %s/%s: %w", c.base, quote, err)
	}
	if res.Rate.IsZero() {
		return domain.LookupResult{}, fmt.Errorf("%w: zero rate for %s/%s", domain.ErrRateUnavailable, c.base, quote)
	}

	c.mu.Lock()
	c.rates[key] = res
	c.mu.Unlock()
	return res, nil
}

func NewRequestCache(lookup lookuper, base string) *RequestCache {
	return &RequestCache{lookup: lookup, base: base, rates: make(map[string]domain.LookupResult)}
}
