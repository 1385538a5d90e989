// Package listing defines the movie listing domain types and the
// cache-augmented enrichment pipeline.
package listing

import "time"

// Candidate is a bare title+URL reference discovered on the listing page,
// awaiting enrichment. Candidates live for a single run.
type Candidate struct {
	Title string
	URL   string
}

// Session is one showtime attached to a movie.
type Session struct {
	Time        string `json:"time"`
	Hall        string `json:"hall"`
	Info        string `json:"info"`
	SessionID   string `json:"session_id"`
	CinemaName  string `json:"cinema_name"`
	PurchaseURL string `json:"purchase_url"`
}

// Movie is the enrichment pipeline's terminal output. Records are immutable
// once produced and never carry an empty title or URL.
type Movie struct {
	Title       string
	URL         string
	Description string
	Sessions    []Session
}

// Stats counts cache and fetch activity for one run.
type Stats struct {
	CacheHits    int
	CacheMisses  int
	PagesFetched int
	Sessions     int
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
