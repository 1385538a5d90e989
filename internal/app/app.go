// Package app initializes and holds the services that make up one crawler
// process, acting as the wiring container for the run command.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cinefeed/crawler/internal/cache"
	"github.com/cinefeed/crawler/internal/clock/system"
	"github.com/cinefeed/crawler/internal/config"
	"github.com/cinefeed/crawler/internal/listing"
	"github.com/cinefeed/crawler/internal/logging"
	"github.com/cinefeed/crawler/internal/metrics"
	"github.com/cinefeed/crawler/internal/render"
	"github.com/cinefeed/crawler/internal/rss"
	"github.com/cinefeed/crawler/internal/run"
	"github.com/cinefeed/crawler/internal/state"
	"github.com/cinefeed/crawler/internal/telegram"
)

// enricher resolves candidates into movies.
type enricher interface {
	Enrich(ctx context.Context, meta run.Meta, candidates []listing.Candidate) ([]listing.Movie, listing.Stats)
}

// channelScraper extracts posts from one channel.
type channelScraper interface {
	Scrape(ctx context.Context, channel string) (telegram.Channel, error)
}

// App holds the shared, long-lived services for the crawler.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	clock  listing.Clock

	lister   listing.Lister
	enricher enricher
	scraper  channelScraper
	store    *state.Store
	sink     *rss.Sink

	metricsServer *metrics.Server
	closers       []func(context.Context) error
}

// New creates and initializes an App from the loaded configuration. It
// fails fast when a critical service cannot be brought up; the cache is
// the one exception and degrades to an in-process fallback.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()

	a := &App{
		cfg:    cfg,
		logger: logger,
		clock:  system.New(),
	}

	filmCache := buildCache(ctx, cfg, logger, a)

	renderer, err := render.New(render.Config{
		BaseURL:     cfg.Site.BaseURL,
		UserAgent:   cfg.Site.UserAgent,
		NavTimeout:  cfg.NavTimeout(),
		WaitTimeout: cfg.WaitTimeout(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize renderer: %w", err)
	}
	a.lister = renderer
	a.closers = append(a.closers, renderer.Close)

	a.enricher = listing.NewEnricher(filmCache, renderer, renderer, a.clock, listing.EnrichConfig{
		Concurrency:     cfg.Enrich.Concurrency,
		PositiveTTL:     cfg.PositiveTTL(),
		NegativeTTL:     cfg.NegativeTTL(),
		ScheduleEnabled: cfg.Enrich.ScheduleEnabled,
		MaxSessions:     cfg.Enrich.MaxSessions,
	}, logger)

	a.store = state.NewStore(cfg.State.Path, logger)

	fetcher, err := telegram.NewCollyFetcher(cfg.Site.UserAgent, cfg.NavTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize channel fetcher: %w", err)
	}
	a.scraper = telegram.NewScraper(fetcher, cfg.Telegram.PostLimit, logger)

	a.sink, err = rss.NewSink(cfg.Feed.OutDir, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize feed sink: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.metricsServer = metrics.NewServer(cfg.Metrics.Addr, logger)
		a.metricsServer.Start()
	}

	return a, nil
}

func buildCache(ctx context.Context, cfg config.Config, logger *zap.Logger, a *App) cache.Cache {
	if !cfg.Cache.Enabled {
		logger.Info("film cache disabled")
		return cache.NewNoop()
	}
	r, err := cache.NewRedis(ctx, cfg.Cache.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
		return cache.NewMemory()
	}
	logger.Info("film cache backed by redis")
	a.closers = append(a.closers, func(context.Context) error { return r.Close() })
	return r
}

// RunOnce executes one batch run: listing extraction, enrichment, state
// diffing and feed output, then the channel feeds. It returns an error
// only when the run produced no usable listing, matching the contract
// that partial failures degrade rather than abort.
func (a *App) RunOnce(ctx context.Context) error {
	start := a.clock.Now()
	status := "success"
	defer func() {
		metrics.ObserveRun(status, a.clock.Now().Sub(start))
	}()

	date, err := run.ResolveDate(a.cfg.Run.DateMode, a.cfg.Run.FixedDate, a.cfg.Run.Timezone, start)
	if err != nil {
		status = "error"
		return fmt.Errorf("resolve run date: %w", err)
	}
	meta := run.NewMeta(start, a.cfg.Site.Location, date)
	log := logging.WithRun(a.logger, meta.ID)
	log.Info("run started", zap.String("location", meta.Location), zap.String("date", meta.Date))

	candidates, err := a.lister.Candidates(ctx, meta.Location, meta.Date)
	if err != nil {
		status = "error"
		return fmt.Errorf("extract listing candidates: %w", err)
	}
	log.Info("candidates extracted", zap.Int("count", len(candidates)))

	movies, stats := a.enricher.Enrich(ctx, meta, candidates)
	metrics.ObserveCacheLookups(stats.CacheHits, stats.CacheMisses)
	metrics.ObservePagesFetched("detail", stats.PagesFetched)
	metrics.SetMoviesEnriched(len(movies))
	log.Info("enrichment finished", zap.Int("movies", len(movies)), zap.String("stats", stats.String()))

	st := a.store.Load()
	added, removed := state.Diff(st.Snapshot, movies)
	trimmed := state.AppendEvents(&st, added, removed, meta.Timestamp(), meta.Location, meta.Date, a.cfg.State.MaxEvents)
	state.UpdateSnapshot(&st, movies)
	metrics.ObserveStateEvents(len(added), len(removed), trimmed)
	if err := a.store.Save(st); err != nil {
		log.Warn("state save failed, next run will re-announce", zap.Error(err))
	}

	feed := rss.BuildMovieFeed(rss.Header{
		Title:       a.cfg.Feed.Title,
		Link:        a.cfg.Feed.Link,
		Description: a.cfg.Feed.Description,
	}, movies, st.Events, a.cfg.Feed.EventsLimit, start)
	if _, err := a.sink.Write(a.cfg.Feed.Filename, feed); err != nil {
		status = "error"
		return fmt.Errorf("write movie feed: %w", err)
	}
	metrics.ObserveFeedWritten("movies")

	a.runChannels(ctx, log, start)

	log.Info("run finished",
		zap.Int("movies", len(movies)),
		zap.Int("added", len(added)),
		zap.Int("removed", len(removed)),
	)
	return nil
}

// runChannels mirrors each configured channel into its own feed file. A
// channel failure is logged and skipped; the movie feed already shipped.
func (a *App) runChannels(ctx context.Context, log *zap.Logger, now time.Time) {
	for _, name := range a.cfg.Telegram.Channels {
		ch, err := a.scraper.Scrape(ctx, name)
		if err != nil {
			log.Warn("channel scrape failed", zap.String("channel", name), zap.Error(err))
			continue
		}
		metrics.ObservePostsExtracted(name, len(ch.Posts))

		slug := channelSlug(name)
		feed := rss.BuildChannelFeed(rss.Header{
			Title:       ch.Title,
			Link:        "https://t.me/" + slug,
			Description: ch.Description,
		}, ch.Posts, a.cfg.Telegram.Images, now)
		if _, err := a.sink.Write("telegram_"+slug+".xml", feed); err != nil {
			log.Warn("channel feed write failed", zap.String("channel", name), zap.Error(err))
			continue
		}
		metrics.ObserveFeedWritten("telegram_" + slug)
		log.Info("channel feed written", zap.String("channel", name), zap.Int("posts", len(ch.Posts)))
	}
}

// Close releases browser, cache and server resources.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// channelSlug reduces a channel reference (name or post URL) to a name
// safe for filenames and t.me links.
func channelSlug(channel string) string {
	s := channel
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "t.me/")
	s = strings.TrimPrefix(s, "s/")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "@")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "channel"
	}
	return b.String()
}
