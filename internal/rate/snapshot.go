package rate

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"
	"time"

	"fxengine/internal/adapters"
	"fxengine/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Point struct {
	Date time.Time
	Rate decimal.Decimal
}

// snapshot is immutable once published.
type snapshot struct {
	loadedAt time.Time
	series   map[string][]Point // quote -> ascending by date
}

// SnapshotCache serves rate reads from an in-memory copy of the trailing window of the store.
// Reloads build a new snapshot and swap it in, so readers never see a partial one.
type SnapshotCache struct {
	store  adapters.RateStore
	clock  clockwork.Clock
	base   string
	quotes []string

	current atomic.Pointer[snapshot]
}

// LoadAll rebuilds every quote series from the last `days` days ending today.
func (c *SnapshotCache) LoadAll(ctx context.Context, days int) error {
	if days < 1 {
		days = 1
	}
	now := c.clock.Now()
	today := domain.DateOf(now)
	start := domain.AddDays(today, -(days - 1))

	next := &snapshot{loadedAt: now, series: make(map[string][]Point, len(c.quotes))}
	total := 0
	for _, quote := range c.quotes {
		rates, err := c.store.FindRange(ctx, c.base, quote, start, today)
		if err != nil {
			return fmt.Errorf("failed to load %s/%s series: %w", c.base, quote, err)
		}
		points := make([]Point, 0, len(rates))
		for _, r := range rates {
			points = append(points, Point{Date: domain.DateOf(r.RateDate), Rate: r.RateMid})
		}
		slices.SortFunc(points, func(a, b Point) int { return a.Date.Compare(b.Date) })
		next.series[quote] = points
		total += len(points)
	}

	c.current.Store(next)
	logrus.WithFields(logrus.Fields{"days": days, "quotes": len(c.quotes), "points": total}).Info("FX snapshot loaded")
	return nil
}

// GetRate returns the rate the snapshot answers for date.
func (c *SnapshotCache) GetRate(date time.Time, quote string) (decimal.Decimal, error) {
	p, err := c.Resolve(date, quote)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return p.Rate, nil
}

// Resolve picks the point for date: the newest point for future dates, else the exact day,
// else the nearest earlier day, else the earliest loaded day.
func (c *SnapshotCache) Resolve(date time.Time, quote string) (Point, error) {
	points, err := c.series(quote)
	if err != nil {
		return Point{}, err
	}
	if len(points) == 0 {
		return Point{}, fmt.Errorf("%w: snapshot series for %s/%s is empty", domain.ErrRateUnavailable, c.base, quote)
	}

	day := domain.DateOf(date)
	if day.After(domain.DateOf(c.clock.Now())) {
		return points[len(points)-1], nil
	}

	i := sort.Search(len(points), func(i int) bool { return !points[i].Date.Before(day) })
	if i < len(points) && points[i].Date.Equal(day) {
		return points[i], nil
	}
	if i > 0 {
		return points[i-1], nil
	}
	return points[0], nil
}

func (c *SnapshotCache) EarliestDate(quote string) (time.Time, bool) {
	points, err := c.series(quote)
	if err != nil || len(points) == 0 {
		return time.Time{}, false
	}
	return points[0].Date, true
}

func (c *SnapshotCache) LatestDate(quote string) (time.Time, bool) {
	points, err := c.series(quote)
	if err != nil || len(points) == 0 {
		return time.Time{}, false
	}
	return points[len(points)-1].Date, true
}

// LoadedAt is the zero time until the first LoadAll.
func (c *SnapshotCache) LoadedAt() time.Time {
	if snap := c.current.Load(); snap != nil {
		return snap.loadedAt
	}
	return time.Time{}
}

func (c *SnapshotCache) series(quote string) ([]Point, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: %s (snapshot never loaded)", domain.ErrQuoteNotLoaded, quote)
	}
	points, ok := snap.series[quote]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuoteNotLoaded, quote)
	}
	return points, nil
}

func NewSnapshotCache(store adapters.RateStore, clock clockwork.Clock, base string, quotes []string) *SnapshotCache {
	return &SnapshotCache{store: store, clock: clock, base: base, quotes: slices.Clone(quotes)}
}
