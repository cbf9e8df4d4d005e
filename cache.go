package main

import (
	"context"
	"strconv"
	"sync"
	"time"

	"picks-dashboard/chart"
)

type windowCacheEntry struct {
	Payload chart.Payload
	Time    time.Time
}

// windowCache keeps recently built chart windows in memory so page loads do
// not hit SQLite for every toggle or refresh.
type windowCache struct {
	store *store
	days  int
	ttl   time.Duration
	now   func() time.Time

	mu   sync.Mutex
	data map[string]windowCacheEntry
}

func newWindowCache(s *store, days int, ttl time.Duration) *windowCache {
	return &windowCache{
		store: s,
		days:  days,
		ttl:   ttl,
		now:   time.Now,
		data:  make(map[string]windowCacheEntry),
	}
}

func (c *windowCache) key(sport string) string {
	return sport + "-" + strconv.Itoa(c.days)
}

// get returns the chart window for sport, loading it from the store when the
// cached copy is missing or older than the TTL.
func (c *windowCache) get(ctx context.Context, sport string) (chart.Payload, error) {
	cacheKey := c.key(sport)

	c.mu.Lock()
	if ent, ok := c.data[cacheKey]; ok {
		if c.now().Sub(ent.Time) < c.ttl {
			p := ent.Payload
			c.mu.Unlock()
			return p, nil
		}
		delete(c.data, cacheKey)
	}
	c.mu.Unlock()

	p, err := c.store.window(ctx, sport, c.days)
	if err != nil {
		return chart.Payload{}, err
	}

	c.mu.Lock()
	c.data[cacheKey] = windowCacheEntry{Payload: p, Time: c.now()}
	c.mu.Unlock()
	return p, nil
}

// invalidate drops sport and the combined view after an import.
func (c *windowCache) invalidate(sport string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, c.key(sport))
	delete(c.data, c.key(sportAll))
}
