// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cacheLookupsTotal    *prometheus.CounterVec
	pagesFetchedTotal    *prometheus.CounterVec
	moviesEnriched       prometheus.Gauge
	postsExtractedTotal  *prometheus.CounterVec
	stateEventsTotal     *prometheus.CounterVec
	stateEventsTrimmed   prometheus.Counter
	runsTotal            *prometheus.CounterVec
	runDurationSeconds   prometheus.Histogram
	feedsWrittenTotal    *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinefeed_cache_lookups_total",
				Help: "Total number of film cache lookups, labeled by outcome (hit or miss).",
			},
			[]string{"outcome"},
		)

		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinefeed_pages_fetched_total",
				Help: "Total number of detail pages rendered, labeled by kind.",
			},
			[]string{"kind"},
		)

		moviesEnriched = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cinefeed_movies_enriched",
				Help: "Number of movies produced by the most recent run.",
			},
		)

		postsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinefeed_posts_extracted_total",
				Help: "Total number of channel posts extracted, labeled by channel.",
			},
			[]string{"channel"},
		)

		stateEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinefeed_state_events_total",
				Help: "Total number of lifecycle events appended to the state log, labeled by type.",
			},
			[]string{"type"},
		)

		stateEventsTrimmed = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cinefeed_state_events_trimmed_total",
				Help: "Total number of events dropped by the state log size cap.",
			},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinefeed_runs_total",
				Help: "Total number of batch runs, labeled by status.",
			},
			[]string{"status"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cinefeed_run_duration_seconds",
				Help:    "Histogram of end-to-end batch run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		feedsWrittenTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinefeed_feeds_written_total",
				Help: "Total number of feed files written, labeled by feed name.",
			},
			[]string{"feed"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCacheLookups adds a run's hit and miss counts to the lookup counter.
func ObserveCacheLookups(hits, misses int) {
	if hits > 0 {
		cacheLookupsTotal.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		cacheLookupsTotal.WithLabelValues("miss").Add(float64(misses))
	}
}

// ObservePagesFetched adds to the rendered page counter for the given kind.
func ObservePagesFetched(kind string, n int) {
	if n > 0 {
		pagesFetchedTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// SetMoviesEnriched records the movie count of the latest run.
func SetMoviesEnriched(n int) {
	moviesEnriched.Set(float64(n))
}

// ObservePostsExtracted adds to the extracted post counter for a channel.
func ObservePostsExtracted(channel string, n int) {
	if n > 0 {
		postsExtractedTotal.WithLabelValues(channel).Add(float64(n))
	}
}

// ObserveStateEvents records appended lifecycle events and any trimmed overflow.
func ObserveStateEvents(added, removed, trimmed int) {
	if added > 0 {
		stateEventsTotal.WithLabelValues("add").Add(float64(added))
	}
	if removed > 0 {
		stateEventsTotal.WithLabelValues("remove").Add(float64(removed))
	}
	if trimmed > 0 {
		stateEventsTrimmed.Add(float64(trimmed))
	}
}

// ObserveRun records the outcome and duration of a batch run.
func ObserveRun(status string, duration time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveFeedWritten increments the written feed counter.
func ObserveFeedWritten(feed string) {
	feedsWrittenTotal.WithLabelValues(feed).Inc()
}
