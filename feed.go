package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"picks-dashboard/chart"

	"go.uber.org/zap"
)

const feedAuthHeader = "X-Picks-Auth-Key"

// feed fetches daily aggregates from the picks producer, either an HTTP
// endpoint or a local export file.
type feed struct {
	client  *http.Client
	authKey string
	ttl     time.Duration
	l       *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	cache     map[string]chart.Payload
	timestamp map[string]time.Time
}

func newFeed(cfg Config, l *zap.Logger) *feed {
	return &feed{
		client:    &http.Client{Timeout: cfg.Feed.Timeout},
		authKey:   cfg.Feed.AuthKey,
		ttl:       cfg.Chart.CacheTTL,
		l:         l.Named("feed"),
		now:       time.Now,
		cache:     make(map[string]chart.Payload),
		timestamp: make(map[string]time.Time),
	}
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// fetch reads and validates the export at location. HTTP responses are
// cached for the configured TTL; files are always read fresh.
func (f *feed) fetch(ctx context.Context, location string) (chart.Payload, error) {
	if !isURL(location) {
		file, err := os.Open(location)
		if err != nil {
			return chart.Payload{}, err
		}
		defer file.Close()
		return decodeFeed(file)
	}

	f.mu.Lock()
	if p, ok := f.cache[location]; ok && f.now().Sub(f.timestamp[location]) < f.ttl {
		f.mu.Unlock()
		f.l.Debug("feed cache hit", zap.String("url", location))
		return p, nil
	}
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return chart.Payload{}, err
	}
	if f.authKey != "" {
		req.Header.Set(feedAuthHeader, f.authKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return chart.Payload{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return chart.Payload{}, fmt.Errorf("feed %s: unexpected status %s", location, resp.Status)
	}

	p, err := decodeFeed(resp.Body)
	if err != nil {
		return chart.Payload{}, err
	}

	f.mu.Lock()
	f.cache[location] = p
	f.timestamp[location] = f.now()
	f.mu.Unlock()
	return p, nil
}

// decodeFeed parses an export and runs it through the same validation the
// chart applies to page data. An export with no days at all is accepted; one
// where only some series are empty is not.
func decodeFeed(r io.Reader) (chart.Payload, error) {
	src, err := chart.ReadJSONSource(r)
	if err != nil {
		return chart.Payload{}, err
	}
	p, err := chart.Extract(src)
	switch {
	case errors.Is(err, chart.ErrEmpty):
		if len(p.Dates) != 0 || len(p.LockCounts) != 0 || len(p.RockCounts) != 0 || len(p.SuccessRates) != 0 {
			return chart.Payload{}, fmt.Errorf("%w: some series are empty", chart.ErrMalformed)
		}
		return chart.Payload{}, nil
	case err != nil:
		return chart.Payload{}, err
	}
	return p, nil
}
