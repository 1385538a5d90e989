package listing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cinefeed/crawler/internal/cache"
	"github.com/cinefeed/crawler/internal/run"
)

// EnrichConfig controls Enricher behavior.
type EnrichConfig struct {
	// Concurrency bounds the number of simultaneous detail-page fetches.
	Concurrency int
	// PositiveTTL holds successful descriptions; NegativeTTL holds
	// confirmed-empty markers so dead pages are not re-fetched every run.
	PositiveTTL time.Duration
	NegativeTTL time.Duration
	// Source tags every cache entry written by this pipeline.
	Source string
	// ScheduleEnabled turns on per-movie showtime fetching; MaxSessions
	// caps how many sessions a single movie may carry.
	ScheduleEnabled bool
	MaxSessions     int
}

// Enricher turns bare candidates into fully described movies, reusing
// cached detail where possible and bounding concurrent page fetches.
type Enricher struct {
	cache    cache.Cache
	fetcher  DetailFetcher
	sessions SessionFetcher
	clock    Clock
	cfg      EnrichConfig
	logger   *zap.Logger
}

// NewEnricher constructs an Enricher. The session fetcher may be nil when
// schedules are disabled.
func NewEnricher(
	c cache.Cache,
	fetcher DetailFetcher,
	sessions SessionFetcher,
	clock Clock,
	cfg EnrichConfig,
	logger *zap.Logger,
) *Enricher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Source == "" {
		cfg.Source = "cineplexx"
	}
	return &Enricher{
		cache:    c,
		fetcher:  fetcher,
		sessions: sessions,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Enrich resolves every candidate concurrently, gating detail fetches with
// a fixed permit pool. A candidate's failure never aborts the run; it
// degrades to an empty description. The returned movies are filtered to
// those with both title and URL and sorted by case-insensitive title, then
// URL, so output order is independent of fetch completion order.
func (e *Enricher) Enrich(ctx context.Context, meta run.Meta, candidates []Candidate) ([]Movie, Stats) {
	start := time.Now()
	permits := make(chan struct{}, e.cfg.Concurrency)
	results := make([]Movie, len(candidates))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		stats Stats
	)
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand Candidate) {
			defer wg.Done()
			movie, outcome := e.enrichOne(ctx, meta, cand, permits)
			mu.Lock()
			results[i] = movie
			stats.CacheHits += outcome.hits
			stats.CacheMisses += outcome.misses
			stats.PagesFetched += outcome.fetches
			stats.Sessions += len(movie.Sessions)
			mu.Unlock()
		}(i, cand)
	}
	wg.Wait()

	movies := make([]Movie, 0, len(results))
	for _, m := range results {
		if m.Title == "" || m.URL == "" {
			continue
		}
		movies = append(movies, m)
	}
	sort.Slice(movies, func(i, j int) bool {
		ti, tj := strings.ToLower(movies[i].Title), strings.ToLower(movies[j].Title)
		if ti != tj {
			return ti < tj
		}
		return movies[i].URL < movies[j].URL
	})

	e.logger.Info("listing enrichment done",
		zap.String("run_id", meta.ID),
		zap.Duration("duration", time.Since(start)),
		zap.Int("movies", len(movies)),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int("cache_misses", stats.CacheMisses),
		zap.Int("pages_fetched", stats.PagesFetched),
	)
	return movies, stats
}

type outcome struct {
	hits    int
	misses  int
	fetches int
}

func (e *Enricher) enrichOne(
	ctx context.Context,
	meta run.Meta,
	cand Candidate,
	permits chan struct{},
) (Movie, outcome) {
	movie := Movie{Title: cand.Title, URL: cand.URL}
	var out outcome
	if cand.URL == "" {
		return movie, out
	}

	key := cache.Key(cand.URL)
	entry, found, err := e.cache.Get(ctx, key)
	if err != nil {
		// Cache failures degrade to a miss; the run continues.
		e.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		found = false
	}

	switch {
	case found && entry.Usable():
		out.hits++
		movie.Description = entry.Description
		if entry.Title != "" {
			movie.Title = entry.Title
		}
	default:
		out.misses++
		desc, fetched := e.fetchDescription(ctx, cand.URL, permits)
		movie.Description = desc
		// Only a completed fetch may write back: a cancelled run must not
		// record never-attempted pages as confirmed-empty.
		if fetched {
			out.fetches++
			e.writeBack(ctx, key, cand.Title, desc)
		}
	}

	movie.Sessions = e.fetchSessions(ctx, meta, cand.URL, permits)
	return movie, out
}

// fetchDescription acquires one fetch permit, renders the film page, and
// releases the permit whether or not the fetch succeeded.
func (e *Enricher) fetchDescription(ctx context.Context, filmURL string, permits chan struct{}) (string, bool) {
	select {
	case permits <- struct{}{}:
	case <-ctx.Done():
		return "", false
	}
	defer func() { <-permits }()

	desc, err := e.fetcher.Description(ctx, filmURL)
	if err != nil {
		e.logger.Warn("detail fetch failed", zap.String("url", filmURL), zap.Error(err))
		return "", true
	}
	return desc, true
}

func (e *Enricher) writeBack(ctx context.Context, key, title, desc string) {
	entry := cache.Entry{
		Title:     title,
		FetchedAt: e.clock.Now(),
		Source:    e.cfg.Source,
	}
	ttl := e.cfg.PositiveTTL
	if desc != "" {
		entry.Description = desc
	} else {
		entry.Error = "not_found"
		ttl = e.cfg.NegativeTTL
	}
	if err := e.cache.Set(ctx, key, entry, ttl); err != nil {
		e.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// fetchSessions runs on every candidate, cache hit or not: showtimes are
// live data and are never cached.
func (e *Enricher) fetchSessions(ctx context.Context, meta run.Meta, filmURL string, permits chan struct{}) []Session {
	if !e.cfg.ScheduleEnabled || e.sessions == nil || meta.Date == "" {
		return nil
	}
	select {
	case permits <- struct{}{}:
	case <-ctx.Done():
		return nil
	}
	defer func() { <-permits }()

	sessions, err := e.sessions.SessionsForDate(ctx, filmURL, meta.Date)
	if err != nil {
		e.logger.Warn("session fetch failed",
			zap.String("url", filmURL),
			zap.String("date", meta.Date),
			zap.Error(err),
		)
		return nil
	}
	if e.cfg.MaxSessions > 0 && len(sessions) > e.cfg.MaxSessions {
		sessions = sessions[:e.cfg.MaxSessions]
	}
	return sessions
}

// String renders stats for log lines.
func (s Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d fetched=%d sessions=%d",
		s.CacheHits, s.CacheMisses, s.PagesFetched, s.Sessions)
}
