package listing

import "context"

// Lister renders the listing page and extracts the run's candidates.
type Lister interface {
	Candidates(ctx context.Context, location, date string) ([]Candidate, error)
}

// DetailFetcher renders a film detail page and returns its description.
// An empty string means no extractable detail; errors are caught at the
// candidate level and treated the same way.
type DetailFetcher interface {
	Description(ctx context.Context, filmURL string) (string, error)
}

// SessionFetcher returns the showtimes listed on a film page for one date.
type SessionFetcher interface {
	SessionsForDate(ctx context.Context, filmURL, date string) ([]Session, error)
}
