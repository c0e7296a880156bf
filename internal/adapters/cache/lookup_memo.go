package cache

import (
	"fmt"
	"time"

	"fxengine/internal/domain"

	"github.com/dgraph-io/ristretto"
)

// RistrettoLookupMemo keeps resolved lookups for a bounded number of keys and a bounded time.
type RistrettoLookupMemo struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewLookupMemo(maxItems int64, ttl time.Duration) (*RistrettoLookupMemo, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create lookup memo failed: %w", err)
	}
	return &RistrettoLookupMemo{cache: c, ttl: ttl}, nil
}

func (c *RistrettoLookupMemo) Get(key string) (domain.LookupResult, bool) {
	if v, ok := c.cache.Get(key); ok {
		res, ok := v.(domain.LookupResult)
		return res, ok
	}
	return domain.LookupResult{}, false
}

// Set publishes the result and waits for the write buffer so the next Get observes it.
func (c *RistrettoLookupMemo) Set(key string, result domain.LookupResult) {
	if c.ttl > 0 {
		c.cache.SetWithTTL(key, result, 1, c.ttl)
	} else {
		c.cache.Set(key, result, 1)
	}
	c.cache.Wait()
}

func (c *RistrettoLookupMemo) Clear() { c.cache.Clear() }

func (c *RistrettoLookupMemo) Close() { c.cache.Close() }
