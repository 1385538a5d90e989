package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinefeed/crawler/internal/listing"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	prev := map[string]string{
		"https://cineplexx.me/film/A": "titleA",
		"https://cineplexx.me/film/B": "titleB",
	}
	current := []listing.Movie{
		{Title: "titleB", URL: "https://cineplexx.me/film/B"},
		{Title: "titleC", URL: "https://cineplexx.me/film/C"},
	}

	added, removed := Diff(prev, current)

	require.Equal(t, []listing.Movie{{Title: "titleC", URL: "https://cineplexx.me/film/C"}}, added)
	require.Equal(t, []listing.Movie{{Title: "titleA", URL: "https://cineplexx.me/film/A"}}, removed)
}

func TestDiffSortsByURL(t *testing.T) {
	t.Parallel()

	added, removed := Diff(map[string]string{"z": "Z", "a": "A"}, []listing.Movie{
		{Title: "Y", URL: "y"},
		{Title: "B", URL: "b"},
	})

	require.Equal(t, []string{"b", "y"}, []string{added[0].URL, added[1].URL})
	require.Equal(t, []string{"a", "z"}, []string{removed[0].URL, removed[1].URL})
}

func TestDiffEmptyPrevAddsEverything(t *testing.T) {
	t.Parallel()

	added, removed := Diff(map[string]string{}, []listing.Movie{{Title: "A", URL: "a"}})
	require.Len(t, added, 1)
	require.Empty(t, removed)
}

func TestAppendEventsOrdering(t *testing.T) {
	t.Parallel()

	st := Empty()
	added := []listing.Movie{{Title: "X", URL: "x"}, {Title: "Y", URL: "y"}}
	removed := []listing.Movie{{Title: "Z", URL: "z"}}

	trimmed := AppendEvents(&st, added, removed, "2026-01-05T00:00:00Z", "0", "2026-01-05", 0)

	require.Zero(t, trimmed)
	require.Len(t, st.Events, 3)
	require.Equal(t, Event{Type: EventAdd, Title: "X", URL: "x", TS: "2026-01-05T00:00:00Z", Location: "0", Date: "2026-01-05"}, st.Events[0])
	require.Equal(t, EventAdd, st.Events[1].Type)
	require.Equal(t, "y", st.Events[1].URL)
	require.Equal(t, EventRemove, st.Events[2].Type)
	require.Equal(t, "z", st.Events[2].URL)
}

func TestAppendEventsTrimsToNewest(t *testing.T) {
	t.Parallel()

	st := Empty()
	seed := []listing.Movie{{Title: "1", URL: "u1"}, {Title: "2", URL: "u2"}, {Title: "3", URL: "u3"}}
	AppendEvents(&st, seed, nil, "t0", "0", "d", 0)
	require.Len(t, st.Events, 3)

	more := []listing.Movie{{Title: "4", URL: "u4"}, {Title: "5", URL: "u5"}}
	trimmed := AppendEvents(&st, more, nil, "t1", "0", "d", 3)

	require.Equal(t, 2, trimmed)
	require.Len(t, st.Events, 3)
	require.Equal(t, "u3", st.Events[0].URL)
	require.Equal(t, "u4", st.Events[1].URL)
	require.Equal(t, "u5", st.Events[2].URL)
}

func TestAppendEventsNoTrimWhenDisabled(t *testing.T) {
	t.Parallel()

	st := Empty()
	for range 10 {
		AppendEvents(&st, []listing.Movie{{Title: "m", URL: "u"}}, nil, "t", "0", "d", -1)
	}
	require.Len(t, st.Events, 10)
}

func TestUpdateSnapshotReplacesWholesale(t *testing.T) {
	t.Parallel()

	st := Empty()
	st.Snapshot["old"] = "Old"

	UpdateSnapshot(&st, []listing.Movie{{Title: "New", URL: "new"}})

	require.Equal(t, map[string]string{"new": "New"}, st.Snapshot)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	st := Empty()
	st.Snapshot["https://cineplexx.me/film/A"] = "titleA"
	AppendEvents(&st,
		[]listing.Movie{{Title: "titleA", URL: "https://cineplexx.me/film/A"}},
		[]listing.Movie{{Title: "titleB", URL: "https://cineplexx.me/film/B"}},
		"2026-01-05T00:00:00Z", "0", "2026-01-05", 0)

	data, err := Encode(st)
	require.NoError(t, err)

	got := Decode(data)
	require.Equal(t, st, got)
}

func TestDecodeCorruptYieldsEmpty(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "{", "[]", `{"snapshot": 7}`} {
		got := Decode([]byte(raw))
		require.NotNil(t, got.Snapshot, "input %q", raw)
		require.NotNil(t, got.Events, "input %q", raw)
		require.Empty(t, got.Snapshot)
		require.Empty(t, got.Events)
	}
}

func TestDecodePartialDocument(t *testing.T) {
	t.Parallel()

	got := Decode([]byte(`{"snapshot": {"u": "T"}}`))
	require.Equal(t, "T", got.Snapshot["u"])
	require.NotNil(t, got.Events)
}

func TestStoreLoadSaveCycle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, zap.NewNop())

	// Missing file starts empty.
	st := store.Load()
	require.Empty(t, st.Snapshot)

	st.Snapshot["u"] = "T"
	AppendEvents(&st, []listing.Movie{{Title: "T", URL: "u"}}, nil, "ts", "0", "d", 0)
	require.NoError(t, store.Save(st))

	reloaded := store.Load()
	require.Equal(t, st, reloaded)

	// Corrupt file degrades to empty instead of failing the run.
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))
	require.Empty(t, store.Load().Snapshot)
}
