package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAndPrefixed(t *testing.T) {
	t.Parallel()

	url := "https://cineplexx.me/film/Test"
	key1 := Key(url)
	key2 := Key(url)
	require.Equal(t, key1, key2)
	require.True(t, strings.HasPrefix(key1, KeyPrefix))
}

func TestKeyDistinguishesURLs(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://cineplexx.me/film/Zootropolis-2",
		"https://cineplexx.me/film/Zootropolis-2/",
		"https://cineplexx.me/film/Avatar",
		"https://cineplexx.me/film/avatar",
		"http://cineplexx.me/film/Avatar",
	}
	seen := make(map[string]string)
	for _, u := range urls {
		k := Key(u)
		if prev, ok := seen[k]; ok {
			t.Fatalf("key collision between %q and %q", prev, u)
		}
		seen[k] = u
	}
}

func TestEntryClassification(t *testing.T) {
	t.Parallel()

	require.False(t, Entry{}.Usable())
	require.True(t, Entry{Description: "plot"}.Usable())

	neg := Entry{Title: "Ghost", Error: "not_found"}
	require.True(t, neg.Negative())
	require.True(t, neg.Usable())
}

func TestMemoryRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	entry := Entry{Title: "Avatar", Description: "blue people", FetchedAt: now, Source: "cineplexx"}
	require.NoError(t, m.Set(ctx, Key("u"), entry, time.Hour))

	got, ok, err := m.Get(ctx, Key("u"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry, got)

	now = now.Add(2 * time.Hour)
	_, ok, err = m.Get(ctx, Key("u"))
	require.NoError(t, err)
	require.False(t, ok, "expired entry should miss")

	require.Error(t, m.Set(ctx, "k", entry, 0), "zero TTL is rejected")
}

func TestNoopNeverHits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	n := NewNoop()
	require.NoError(t, n.Set(ctx, "k", Entry{Title: "x"}, time.Minute))
	_, ok, err := n.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
