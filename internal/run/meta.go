// Package run carries per-run metadata through the pipeline.
package run

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Meta identifies a single batch run. It is threaded explicitly through
// every operation instead of living in ambient process state.
type Meta struct {
	ID        string
	StartedAt time.Time
	Location  string
	Date      string
}

// NewMeta mints a run identifier and stamps the start time.
func NewMeta(now time.Time, location, date string) Meta {
	return Meta{
		ID:        NewID(),
		StartedAt: now,
		Location:  location,
		Date:      date,
	}
}

// NewID returns a short random run identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Timestamp returns the run start time in RFC 3339 UTC, the format events
// and cache entries are stamped with.
func (m Meta) Timestamp() string {
	return m.StartedAt.UTC().Format(time.RFC3339)
}

// ResolveDate computes the listing date for a run. Mode "today" resolves the
// current date in the configured timezone; mode "fixed" uses the configured
// date verbatim.
func ResolveDate(mode, fixed, timezone string, now time.Time) (string, error) {
	switch mode {
	case "fixed":
		if fixed == "" {
			return "", fmt.Errorf("date mode is fixed but no date configured")
		}
		return fixed, nil
	case "today", "":
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return "", fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		return now.In(loc).Format("2006-01-02"), nil
	default:
		return "", fmt.Errorf("unknown date mode %q", mode)
	}
}
