package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"picks-dashboard/chart"
	"picks-dashboard/templates"

	"github.com/a-h/templ"
	"go.uber.org/zap"
)

const chartContainerID = "performance-chart"

// server carries what the handlers share for the life of the process.
type server struct {
	cfg     Config
	store   *store
	windows *windowCache
	feed    *feed
	panel   *chart.Panel
	l       *zap.Logger
	now     func() time.Time
}

func newServer(cfg Config, st *store, l *zap.Logger) (*server, error) {
	backend, err := chart.NewBackend(cfg.Chart.Backend)
	if err != nil {
		return nil, err
	}
	return &server{
		cfg:     cfg,
		store:   st,
		windows: newWindowCache(st, cfg.Chart.WindowDays, cfg.Chart.CacheTTL),
		feed:    newFeed(cfg, l),
		panel:   chart.NewPanel(chart.NewRenderer(backend, l), l),
		l:       l.Named("http"),
		now:     time.Now,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/dashboard", s.dashboardHandler)
	mux.HandleFunc("/api/chart-data", s.chartDataHandler)
	mux.HandleFunc("/api/import", s.importHandler)
	mux.HandleFunc("/api/refresh", s.refreshHandler)
	mux.HandleFunc("/sparkline", s.sparklineHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return logRequests(s.l, mux)
}

func (s *server) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// sportParam reads ?sport=, defaulting to the combined view.
func sportParam(r *http.Request) (string, bool) {
	sport := r.URL.Query().Get("sport")
	if sport == "" {
		return sportAll, true
	}
	return sport, validSport(sport)
}

func (s *server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sport, ok := sportParam(r)
	if !ok {
		http.Error(w, "Unknown sport", http.StatusBadRequest)
		return
	}
	mode, err := chart.ParseViewMode(r.URL.Query().Get("view"))
	if err != nil {
		http.Error(w, "Unknown view", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	now := s.now()

	payload, err := s.windows.get(ctx, sport)
	if err != nil {
		s.storeFailure(w, r, "window", err)
		return
	}
	summaries, err := s.store.summaries(ctx)
	if err != nil {
		s.storeFailure(w, r, "summaries", err)
		return
	}
	lastUpdated, err := s.store.lastUpdated(ctx, sport)
	if err != nil {
		s.storeFailure(w, r, "last updated", err)
		return
	}

	attrs, err := payload.Attrs()
	if err != nil {
		http.Error(w, "Could not encode chart data", http.StatusInternalServerError)
		return
	}

	page := chart.NewPage(chartContainerID)
	data := templates.DashboardPageData{
		Sports:        append([]string{sportAll}, sports...),
		SelectedSport: sport,
		Mode:          mode,
		WindowDays:    s.cfg.Chart.WindowDays,
		Chart:         page.Container(chartContainerID),
		ChartData:     attrs,
		Summaries:     summaries,
		LastUpdated:   lastUpdated,
		Now:           now,
	}

	h, err := s.panel.Load(page, chartContainerID, attrs, mode)
	if err != nil && !errors.Is(err, chart.ErrEmpty) {
		s.l.Info("chart not mounted", zap.String("sport", sport), zap.Error(err))
	}
	if h != nil && h.State() == chart.StateMounted {
		patches, err := s.panel.Patches(h)
		if err != nil {
			s.l.Warn("chart patches failed", zap.String("sport", sport), zap.Error(err))
		} else {
			data.Patches = patches
			data.UpdateScript = h.Chart().UpdateScript()
		}
		data.Scripts = h.Chart().Scripts()
	}

	templ.Handler(templates.Dashboard(data)).ServeHTTP(w, r)
}

func (s *server) storeFailure(w http.ResponseWriter, r *http.Request, what string, err error) {
	s.l.Error("store query failed", zap.String("query", what), zap.Error(err))
	component := templates.ErrorPage("Dashboard unavailable", "Could not load picks data. Try again shortly.", s.now())
	templ.Handler(component, templ.WithStatus(http.StatusInternalServerError)).ServeHTTP(w, r)
}

func (s *server) chartDataHandler(w http.ResponseWriter, r *http.Request) {
	sport, ok := sportParam(r)
	if !ok {
		http.Error(w, "Unknown sport", http.StatusBadRequest)
		return
	}

	payload, err := s.windows.get(r.Context(), sport)
	if err != nil {
		s.l.Error("store query failed", zap.String("query", "window"), zap.Error(err))
		http.Error(w, "Could not load chart data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func (s *server) sparklineHandler(w http.ResponseWriter, r *http.Request) {
	sport, ok := sportParam(r)
	if !ok {
		http.Error(w, "Unknown sport", http.StatusBadRequest)
		return
	}

	payload, err := s.windows.get(r.Context(), sport)
	if err != nil {
		s.l.Error("store query failed", zap.String("query", "window"), zap.Error(err))
		http.Error(w, "Could not load chart data", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := writeSparkline(&buf, payload); err != nil {
		if errors.Is(err, errNoSparkline) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.l.Warn("sparkline failed", zap.String("sport", sport), zap.Error(err))
		http.Error(w, "Could not draw sparkline", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "max-age=300")
	w.Write(buf.Bytes())
}

// importHandler accepts an export pushed by the picks producer. When a feed
// key is configured the request must carry it.
func (s *server) importHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sport := r.URL.Query().Get("sport")
	if sport == sportAll || !validSport(sport) {
		http.Error(w, "Unknown sport", http.StatusBadRequest)
		return
	}

	payload, err := decodeFeed(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.l.Warn("import rejected", zap.String("sport", sport), zap.Error(err))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := s.store.upsertDaily(r.Context(), sport, "http", payload); err != nil {
		if errors.Is(err, errInvalidImport) {
			s.l.Warn("import rejected", zap.String("sport", sport), zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.l.Error("import failed", zap.String("sport", sport), zap.Error(err))
		http.Error(w, "Could not store import", http.StatusInternalServerError)
		return
	}
	s.windows.invalidate(sport)

	s.l.Info("import complete", zap.String("sport", sport), zap.Int("days", len(payload.Dates)))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) authorized(r *http.Request) bool {
	return s.cfg.Feed.AuthKey == "" || r.Header.Get(feedAuthHeader) == s.cfg.Feed.AuthKey
}

var errNoSource = errors.New("no feed source configured")

// refresh pulls the configured source for sport through the shared feed and
// stores it. Pulls within the cache TTL reuse the last response.
func (s *server) refresh(ctx context.Context, sport string) (int, error) {
	location, ok := s.cfg.Feed.Sources[sport]
	if !ok {
		return 0, errNoSource
	}
	payload, err := s.feed.fetch(ctx, location)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", location, err)
	}
	if err := s.store.upsertDaily(ctx, sport, location, payload); err != nil {
		return 0, err
	}
	s.windows.invalidate(sport)
	return len(payload.Dates), nil
}

// refreshAll pulls every configured source, logging failures per sport.
func (s *server) refreshAll(ctx context.Context) {
	for _, sport := range sports {
		if _, ok := s.cfg.Feed.Sources[sport]; !ok {
			continue
		}
		days, err := s.refresh(ctx, sport)
		if err != nil {
			s.l.Warn("feed refresh failed", zap.String("sport", sport), zap.Error(err))
			continue
		}
		s.l.Info("feed refreshed", zap.String("sport", sport), zap.Int("days", days))
	}
}

// pollFeeds refreshes all sources every interval until ctx is done.
func (s *server) pollFeeds(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.refreshAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll(ctx)
		}
	}
}

func (s *server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sport := r.URL.Query().Get("sport")
	if sport == sportAll || !validSport(sport) {
		http.Error(w, "Unknown sport", http.StatusBadRequest)
		return
	}

	days, err := s.refresh(r.Context(), sport)
	switch {
	case errors.Is(err, errNoSource):
		http.Error(w, "No feed source for sport", http.StatusNotFound)
		return
	case errors.Is(err, errInvalidImport), errors.Is(err, chart.ErrMalformed):
		s.l.Warn("refresh rejected", zap.String("sport", sport), zap.Error(err))
		http.Error(w, "Feed returned invalid data", http.StatusBadGateway)
		return
	case err != nil:
		s.l.Error("refresh failed", zap.String("sport", sport), zap.Error(err))
		http.Error(w, "Could not refresh feed", http.StatusBadGateway)
		return
	}

	s.l.Info("feed refreshed", zap.String("sport", sport), zap.Int("days", days))
	w.WriteHeader(http.StatusNoContent)
}
