package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"picks-dashboard/chart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const exportJSON = `{
  "dates": ["2024-01-01", "2024-01-02"],
  "lockCounts": [3, 5],
  "rockCounts": [1, 2],
  "successRates": [75.0, 71.4]
}`

func testFeed(t *testing.T, authKey string) *feed {
	t.Helper()

	cfg := defaultConfig()
	cfg.Feed.AuthKey = authKey
	cfg.Feed.Timeout = 5 * time.Second
	return newFeed(cfg, zaptest.NewLogger(t))
}

func TestFeedFetchURL(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get(feedAuthHeader) != "secret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(exportJSON))
	}))
	t.Cleanup(ts.Close)

	f := testFeed(t, "secret")
	p, err := f.fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, nbaPayload(), p)

	_, err = f.fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second fetch should be served from cache")

	clock := time.Now().Add(f.ttl + time.Second)
	f.now = func() time.Time { return clock }
	_, err = f.fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "expired entry should be fetched again")
}

func TestFeedFetchDoesNotSerializeURLs(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		w.Write([]byte(exportJSON))
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })

	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(exportJSON))
	}))
	t.Cleanup(fast.Close)

	f := testFeed(t, "")

	go f.fetch(context.Background(), slow.URL)
	<-arrived

	done := make(chan error, 1)
	go func() {
		_, err := f.fetch(context.Background(), fast.URL)
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("fetch of one URL waited on another")
	}
}

func TestFeedFetchURLForbidden(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(ts.Close)

	_, err := testFeed(t, "wrong").fetch(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFeedFetchFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nba.json")
	require.NoError(t, os.WriteFile(path, []byte(exportJSON), 0o644))

	p, err := testFeed(t, "").fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, nbaPayload(), p)

	_, err = testFeed(t, "").fetch(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDecodeFeed(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		body    string
		wantErr error
	}{
		"Empty": {
			body: `{"dates": [], "lockCounts": [], "rockCounts": [], "successRates": []}`,
		},
		"Mismatch": {
			body:    `{"dates": ["2024-01-01"], "lockCounts": [1, 2], "rockCounts": [1], "successRates": [50]}`,
			wantErr: chart.ErrMalformed,
		},
		"OneEmpty": {
			body:    `{"dates": ["2024-01-01"], "lockCounts": [], "rockCounts": [1], "successRates": [50]}`,
			wantErr: chart.ErrMalformed,
		},
		"MissingField": {
			body:    `{"dates": ["2024-01-01"], "lockCounts": [1], "rockCounts": [1]}`,
			wantErr: chart.ErrMalformed,
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p, err := decodeFeed(strings.NewReader(tc.body))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.Empty())
		})
	}

	_, err := decodeFeed(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)
}
