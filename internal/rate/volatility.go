package rate

import (
	"context"
	"fmt"
	"math"

	"fxengine/internal/domain"

	"github.com/shopspring/decimal"
)

const statsScale = 10

// Volatility computes per-quote statistics over the trailing window ending yesterday.
func (s *Service) Volatility(ctx context.Context, windowDays int) ([]domain.QuoteVolatility, error) {
	if windowDays <= 0 {
		windowDays = defaultVolatilityWindow
	}
	end := domain.AddDays(domain.DateOf(s.clock.Now()), -1)
	start := domain.AddDays(end, -(windowDays - 1))

	quotes := s.settings.QuoteCodes()
	out := make([]domain.QuoteVolatility, 0, len(quotes))
	for _, quote := range quotes {
		rows, err := s.store.FindRange(ctx, s.settings.Base, quote, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s/%s window: %w", s.settings.Base, quote, err)
		}
		values := make([]decimal.Decimal, 0, len(rows))
		for _, r := range rows {
			values = append(values, r.RateMid)
		}
		out = append(out, computeVolatility(quote, values, windowDays))
	}
	return out, nil
}

// computeVolatility uses the sample standard deviation (n-1). Fewer observations than window days
// marks the result partial.
func computeVolatility(quote string, values []decimal.Decimal, windowDays int) domain.QuoteVolatility {
	n := len(values)
	v := domain.QuoteVolatility{Quote: quote, SampleSize: n}
	if n == 0 {
		v.Partial = true
		return v
	}

	lo, hi, sum := values[0], values[0], decimal.Zero
	for _, x := range values {
		sum = sum.Add(x)
		lo = decimal.Min(lo, x)
		hi = decimal.Max(hi, x)
	}
	mean := sum.DivRound(decimal.NewFromInt(int64(n)), statsScale)
	v.Mean, v.Min, v.Max = &mean, &lo, &hi

	if n == 1 {
		zero := decimal.Zero
		v.StdDev = &zero
		v.Partial = windowDays != 1
		return v
	}

	squares := decimal.Zero
	for _, x := range values {
		d := x.Sub(mean)
		squares = squares.Add(d.Mul(d))
	}
	variance := squares.DivRound(decimal.NewFromInt(int64(n-1)), statsScale)
	stdDev := decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())).Round(statsScale)
	v.StdDev = &stdDev
	v.Partial = n < windowDays
	return v
}
