// Package state maintains the persisted snapshot of the last seen listing
// and the bounded add/remove event log between runs.
package state

import (
	"encoding/json"
	"sort"

	"github.com/cinefeed/crawler/internal/listing"
)

// Event types recorded in the log.
const (
	EventAdd    = "add"
	EventRemove = "remove"
)

// Event records one listing transition. Field names are part of the
// persisted format and must stay stable.
type Event struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	TS       string `json:"ts"`
	Location string `json:"location"`
	Date     string `json:"date"`
}

// State is the persisted document: the previous run's snapshot (URL to
// title) plus the append-only event log, newest last.
type State struct {
	Snapshot map[string]string `json:"snapshot"`
	Events   []Event           `json:"events"`
}

// Empty returns a State with initialized containers.
func Empty() State {
	return State{
		Snapshot: map[string]string{},
		Events:   []Event{},
	}
}

// Decode parses a persisted state document. Any parse failure yields an
// empty state: a corrupt file must never block a run.
func Decode(data []byte) State {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return Empty()
	}
	if st.Snapshot == nil {
		st.Snapshot = map[string]string{}
	}
	if st.Events == nil {
		st.Events = []Event{}
	}
	return st
}

// Encode serializes the state as indented JSON so the on-disk file stays
// human-diffable.
func Encode(st State) ([]byte, error) {
	return json.MarshalIndent(st, "", "  ")
}

// Diff compares the previous snapshot against the current record set.
// Added holds current records whose URL was not in the snapshot; removed
// holds (url, title) pairs that disappeared. Both are sorted by URL.
func Diff(prev map[string]string, current []listing.Movie) (added, removed []listing.Movie) {
	curTitles := make(map[string]string, len(current))
	for _, m := range current {
		curTitles[m.URL] = m.Title
	}

	for url, title := range curTitles {
		if _, ok := prev[url]; !ok {
			added = append(added, listing.Movie{Title: title, URL: url})
		}
	}
	for url, title := range prev {
		if _, ok := curTitles[url]; !ok {
			removed = append(removed, listing.Movie{Title: title, URL: url})
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].URL < added[j].URL })
	sort.Slice(removed, func(i, j int) bool { return removed[i].URL < removed[j].URL })
	return added, removed
}

// AppendEvents records the run's transitions: one add event per added
// record, then one remove event per removed record, each group in the
// caller's (URL-sorted) order. When the log exceeds maxEvents, the oldest
// entries are discarded so only the newest maxEvents remain; maxEvents <= 0
// disables trimming. Returns the number of trimmed events.
func AppendEvents(st *State, added, removed []listing.Movie, ts, location, date string, maxEvents int) int {
	for _, m := range added {
		st.Events = append(st.Events, Event{
			Type: EventAdd, Title: m.Title, URL: m.URL,
			TS: ts, Location: location, Date: date,
		})
	}
	for _, m := range removed {
		st.Events = append(st.Events, Event{
			Type: EventRemove, Title: m.Title, URL: m.URL,
			TS: ts, Location: location, Date: date,
		})
	}
	if maxEvents <= 0 || len(st.Events) <= maxEvents {
		return 0
	}
	trimmed := len(st.Events) - maxEvents
	st.Events = append([]Event(nil), st.Events[trimmed:]...)
	return trimmed
}

// UpdateSnapshot replaces the snapshot wholesale with the current URL to
// title mapping. Never merged, never incremental.
func UpdateSnapshot(st *State, current []listing.Movie) {
	snapshot := make(map[string]string, len(current))
	for _, m := range current {
		snapshot[m.URL] = m.Title
	}
	st.Snapshot = snapshot
}
